// Package eventstest provides a recording event handler for tests.
package eventstest

import (
	"sync"
	"time"

	"github.com/nibzard/bouldy-go/internal/events"
)

// Recorder collects events delivered to it. Subscribe its Record method to
// an events.Bus.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
	notify chan struct{}
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Record stores ev.
func (r *Recorder) Record(ev events.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}

// Count returns how many recorded events have the given name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

// WaitFor blocks until an event with name has been recorded or timeout
// elapses. It reports whether the event arrived.
func (r *Recorder) WaitFor(name string, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if r.Count(name) > 0 {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return r.Count(name) > 0
		}
	}
}
