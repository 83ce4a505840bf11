package events

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Handler receives published events. Handlers run on the publishing
// goroutine and must not block.
type Handler func(Event)

type subscription struct {
	handler Handler
	names   map[string]bool // nil means every event
}

// Bus broadcasts events to subscribers and keeps the most recent ones.
// A Bus is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	recent []Event
	size   int
	logger *log.Logger
	now    func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithHistory sets how many recent events the bus keeps.
func WithHistory(n int) BusOption {
	return func(b *Bus) {
		b.size = n
	}
}

// WithLogger sets the logger used for handler panics.
func WithLogger(l *log.Logger) BusOption {
	return func(b *Bus) {
		b.logger = l
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		b.now = now
	}
}

// NewBus returns an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[string]*subscription),
		size:   256,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for the named events, or for every event when no
// names are given. It returns an id for Unsubscribe.
func (b *Bus) Subscribe(h Handler, names ...string) string {
	sub := &subscription{handler: h}
	if len(names) > 0 {
		sub.names = make(map[string]bool, len(names))
		for _, n := range names {
			sub.names[n] = true
		}
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. It reports whether id was registered.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return false
	}
	delete(b.subs, id)
	return true
}

// Emit publishes a command-originated event.
func (b *Bus) Emit(name string, payload any) {
	b.publish(Event{Name: name, Source: SourceCommand, Payload: payload})
}

// EmitBatch publishes an event tagged with a batch id and source.
func (b *Bus) EmitBatch(batch, source, name string, payload any) {
	b.publish(Event{Name: name, Source: source, Batch: batch, Payload: payload})
}

// Recent returns up to n of the most recent events, oldest first.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	out := make([]Event, n)
	copy(out, b.recent[len(b.recent)-n:])
	return out
}

func (b *Bus) publish(ev Event) {
	ev.ID = uuid.NewString()
	ev.Timestamp = b.now()

	b.mu.Lock()
	if b.size > 0 {
		if len(b.recent) >= b.size {
			b.recent = b.recent[1:]
		}
		b.recent = append(b.recent, ev)
	}
	subs := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if s.names != nil && !s.names[ev.Name] {
			continue
		}
		b.invoke(s.handler, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", ev.Name, "id", ev.ID, "panic", r)
		}
	}()
	h(ev)
}
