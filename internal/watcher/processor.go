package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/notes"
)

// BatchResult summarizes one processed batch.
type BatchResult struct {
	ID      string
	Raw     int
	Changes []Change
	Emitted []string
}

// Processor turns raw events into published events. Run owns all of its
// state, so batches never overlap.
type Processor struct {
	roots      Roots
	classifier *Classifier
	emitter    events.Emitter
	debounce   time.Duration
	ext        string
	logger     *log.Logger
	onBatch    func(BatchResult)

	// known holds the note paths present after the last rescan. A create
	// on a known path is a save by rename and reported as an update.
	known map[string]bool
}

// NewProcessor returns a processor for roots that publishes to emitter.
func NewProcessor(roots Roots, emitter events.Emitter, opts Options) *Processor {
	opts = opts.withDefaults()
	return &Processor{
		roots:      roots,
		classifier: NewClassifier(roots, opts.Extension),
		emitter:    emitter,
		debounce:   opts.Debounce,
		ext:        opts.Extension,
		logger:     opts.Logger,
		onBatch:    opts.OnBatch,
		known:      make(map[string]bool),
	}
}

// Prime records the notes currently on disk so later creates of the same
// paths are reported as updates. Call it before Run.
func (p *Processor) Prime() {
	list, err := notes.Scan(p.roots.Notes, p.ext, p.logger)
	if err != nil {
		p.logger.Warn("note scan failed", "err", err)
		return
	}
	p.remember(list)
}

func (p *Processor) remember(list []notes.Note) {
	known := make(map[string]bool, len(list))
	for _, n := range list {
		known[filepath.Clean(n.Path)] = true
	}
	p.known = known
}

// Run collects events from in and processes them in batches. A batch opens
// with the first event after the previous flush and closes one debounce
// window later; further events do not extend it. Run returns when ctx is
// done, stop is closed or in is closed. Pending events are dropped.
func (p *Processor) Run(ctx context.Context, in <-chan RawEvent, stop <-chan struct{}) {
	var pending []RawEvent
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			pending = append(pending, ev)
			if timer == nil {
				timer = time.NewTimer(p.debounce)
				timerC = timer.C
			}
		case <-timerC:
			timer, timerC = nil, nil
			batch := pending
			pending = nil
			res := p.Flush(batch)
			if p.onBatch != nil {
				p.onBatch(res)
			}
		}
	}
}

// Flush classifies and publishes one batch immediately.
//
// Each distinct (kind, path) pair is published once, in first-seen order.
// Note changes are followed by one full note list; a todo file change
// becomes a single todos signal at the end.
func (p *Processor) Flush(batch []RawEvent) BatchResult {
	res := BatchResult{ID: uuid.NewString(), Raw: len(batch)}
	res.Changes = p.dedupe(batch)

	refreshList := false
	todos := false
	for _, ch := range res.Changes {
		switch ch.Kind {
		case KindTodos:
			todos = true
		case KindNoteDeleted:
			delete(p.known, ch.Path)
			p.publish(&res, events.NoteDeleted, notes.DeletedPayload(ch.Path))
			refreshList = true
		case KindNoteCreated, KindNoteUpdated:
			n, err := notes.Stat(ch.Path)
			if err != nil {
				// Gone again before the window closed.
				p.logger.Debug("skipping note change", "batch", res.ID, "path", ch.Path, "err", err)
				continue
			}
			name := events.NoteUpdated
			if ch.Kind == KindNoteCreated {
				name = events.NoteCreated
			}
			p.known[ch.Path] = true
			p.publish(&res, name, n.Payload())
			refreshList = true
		}
	}

	if refreshList {
		list, err := notes.Scan(p.roots.Notes, p.ext, p.logger)
		if err != nil {
			p.logger.Warn("note rescan failed", "batch", res.ID, "err", err)
		} else {
			p.remember(list)
			p.publish(&res, events.NoteListUpdated, notes.ListPayload(list))
		}
	}
	if todos {
		p.publish(&res, events.TodosChanged, nil)
	}

	p.logger.Debug("watcher batch", "batch", res.ID, "raw", res.Raw, "changes", len(res.Changes), "emitted", len(res.Emitted))
	return res
}

func (p *Processor) dedupe(batch []RawEvent) []Change {
	seen := make(map[Change]bool, len(batch))
	out := make([]Change, 0, len(batch))
	for _, ev := range batch {
		ch, ok := p.classifier.Classify(ev)
		if !ok {
			continue
		}
		if ch.Kind == KindNoteCreated && p.known[ch.Path] {
			ch.Kind = KindNoteUpdated
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

func (p *Processor) publish(res *BatchResult, name string, payload any) {
	res.Emitted = append(res.Emitted, name)
	if be, ok := p.emitter.(events.BatchEmitter); ok {
		be.EmitBatch(res.ID, events.SourceWatcher, name, payload)
		return
	}
	p.emitter.Emit(name, payload)
}
