// Package watcher turns file notifications under a vault into note and todo
// events.
//
// A Watcher tracks the notes directory, the prompts directory and the todo
// file at the vault root, each without recursion. The fsnotify reader sends
// raw events over a channel to a single Processor goroutine, which batches
// them over a fixed debounce window, classifies and de-duplicates them, and
// publishes the results.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// DefaultDebounce is the batching window.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrNotesRootMissing is returned by Start when the notes directory is absent.
	ErrNotesRootMissing = errors.New("notes directory does not exist")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("watcher already started")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("watcher stopped")
)

// Options configures a Watcher.
type Options struct {
	Debounce   time.Duration
	Extension  string // note file extension, default "md"
	BufferSize int    // raw event channel capacity
	Logger     *log.Logger
	OnBatch    func(BatchResult) // called after each processed batch
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Extension == "" {
		o.Extension = vaultdir.NoteExtension
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 1024
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Watcher is a running subscription to vault file changes. It can be
// started once; after Stop it delivers nothing more.
type Watcher struct {
	roots   Roots
	opts    Options
	emitter events.Emitter

	mu      sync.Mutex
	started bool
	stopped bool
	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// New returns a watcher for the vault at root. Nothing is watched until Start.
func New(root string, emitter events.Emitter, opts Options) *Watcher {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if emitter == nil {
		emitter = events.Discard
	}
	return &Watcher{
		roots:   NewRoots(root),
		opts:    opts.withDefaults(),
		emitter: emitter,
		done:    make(chan struct{}),
	}
}

// Roots returns the tracked paths.
func (w *Watcher) Roots() Roots {
	return w.roots
}

// Start begins watching. It fails if the notes directory is missing and
// creates the prompts directory when needed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.roots.Notes)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotesRootMissing, w.roots.Notes)
	}
	if err := os.MkdirAll(w.roots.Prompts, 0755); err != nil {
		return fmt.Errorf("create prompts directory: %w", err)
	}

	proc := NewProcessor(w.roots, w.emitter, w.opts)
	proc.Prime()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	for _, dir := range []string{w.roots.Vault, w.roots.Notes, w.roots.Prompts} {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	raw := make(chan RawEvent, w.opts.BufferSize)

	w.fsw = fsw
	w.started = true
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.readEvents(ctx, raw)
	}()
	go func() {
		defer w.wg.Done()
		proc.Run(ctx, raw, w.done)
	}()

	w.opts.Logger.Info("watching vault", "vault", w.roots.Vault, "debounce", w.opts.Debounce)
	return nil
}

// Stop ends delivery permanently and waits for the goroutines to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.done)
	fsw := w.fsw
	w.mu.Unlock()

	if fsw != nil {
		fsw.Close()
	}
	w.wg.Wait()
}

// Running reports whether the watcher has started and not stopped.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started && !w.stopped
}

func (w *Watcher) readEvents(ctx context.Context, out chan<- RawEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			raw := RawEvent{Path: ev.Name, Op: convertOp(ev.Op), Time: time.Now()}
			select {
			case out <- raw:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.opts.Logger.Warn("file watcher error", "err", err)
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpChmod
	}
}
