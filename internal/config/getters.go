package config

import (
	"time"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/todo"
)

// Schema returns the configured todo schema.
func (c *Config) Schema() todo.Schema {
	s, err := todo.ParseSchema(c.TodoSchema)
	if err != nil {
		return todo.CurrentSchema
	}
	return s
}

// Calendar returns the calendar used for streak arithmetic.
func (c *Config) Calendar() archive.Calendar {
	if c.LegacyCalendar {
		return archive.CalendarLegacy
	}
	return archive.CalendarExact
}

// Debounce returns the watcher batching window.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return time.Duration(DefaultDebounceMS) * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}
