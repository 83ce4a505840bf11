// Package app wires a vault's command service, event bus and file watcher
// into one process-lifetime object.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vault"
	"github.com/nibzard/bouldy-go/internal/watcher"
)

var (
	// ErrWatcherRunning is returned by a second StartWatcher.
	ErrWatcherRunning = errors.New("watcher already running")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("app closed")
)

// Options configures an App.
type Options struct {
	Schema     todo.Schema
	Extension  string
	Calendar   archive.Calendar
	DailyLimit int
	Debounce   time.Duration
	History    int // recent events kept by the bus
	Logger     *log.Logger
	Now        func() time.Time
	OnBatch    func(watcher.BatchResult)
}

// App owns the event bus, the vault service and at most one watcher.
type App struct {
	root   string
	opts   Options
	logger *log.Logger
	bus    *events.Bus
	vault  *vault.Service

	mu      sync.Mutex
	watcher *watcher.Watcher
	closed  bool
}

// New returns an App for the vault at root.
func New(root string, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.History <= 0 {
		opts.History = 256
	}
	bus := events.NewBus(events.WithHistory(opts.History), events.WithLogger(opts.Logger))
	svc := vault.New(root, vault.Options{
		Schema:     opts.Schema,
		Extension:  opts.Extension,
		Calendar:   opts.Calendar,
		DailyLimit: opts.DailyLimit,
		Emitter:    bus,
		Logger:     opts.Logger,
		Now:        opts.Now,
	})
	return &App{
		root:   svc.Root(),
		opts:   opts,
		logger: opts.Logger,
		bus:    bus,
		vault:  svc,
	}
}

// Root returns the absolute vault path.
func (a *App) Root() string {
	return a.root
}

// Bus returns the event bus every component publishes to.
func (a *App) Bus() *events.Bus {
	return a.bus
}

// Vault returns the command service.
func (a *App) Vault() *vault.Service {
	return a.vault
}

// StartWatcher starts the vault watcher. It can succeed once per App.
func (a *App) StartWatcher(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.watcher != nil {
		return ErrWatcherRunning
	}
	w := watcher.New(a.root, a.bus, watcher.Options{
		Debounce:  a.opts.Debounce,
		Extension: a.opts.Extension,
		Logger:    a.logger,
		OnBatch:   a.opts.OnBatch,
	})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	a.watcher = w
	return nil
}

// Watching reports whether the watcher is running.
func (a *App) Watching() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.watcher != nil && a.watcher.Running()
}

// Run starts the watcher and runs fns alongside it until ctx is done or
// any fn returns. The App is closed when Run returns.
func (a *App) Run(ctx context.Context, fns ...func(context.Context) error) error {
	defer a.Close()

	if err := a.StartWatcher(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			defer cancel()
			return fn(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.stopWatcher()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the watcher permanently. Later StartWatcher calls fail.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.stopWatcher()
	return nil
}

func (a *App) stopWatcher() {
	a.mu.Lock()
	w := a.watcher
	a.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}
