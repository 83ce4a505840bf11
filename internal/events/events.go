// Package events defines the vault event names, their payloads and a
// broadcaster that fans them out to subscribers.
package events

import "time"

// Event names published to subscribers.
const (
	NoteCreated     = "note:created"
	NoteUpdated     = "note:updated"
	NoteDeleted     = "note:deleted"
	NoteListUpdated = "note:list-updated"
	NoteSaved       = "note:saved"
	TodosChanged    = "todos_changed"
	PromptSaved     = "prompt:saved"
	PromptDeleted   = "prompt:deleted"
)

// Origin of an event.
const (
	SourceWatcher = "watcher"
	SourceCommand = "command"
)

// Event is one published notification.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	Batch     string    `json:"batch,omitempty"` // watcher batch id
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NoteInfo is the payload of note events. Title and Modified are nil for
// deleted notes.
type NoteInfo struct {
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Title    *string `json:"title"`
	Modified *int64  `json:"modified"` // unix seconds
}

// NoteList is the payload of NoteListUpdated.
type NoteList struct {
	Notes []NoteInfo `json:"notes"`
}

// PromptRef is the payload of PromptDeleted.
type PromptRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Emitter publishes events.
type Emitter interface {
	Emit(name string, payload any)
}

// BatchEmitter publishes a group of events that share a batch id.
type BatchEmitter interface {
	Emitter
	EmitBatch(batch, source string, name string, payload any)
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(string, any) {}
