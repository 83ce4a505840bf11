package watcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// Op is a raw file operation.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// RawEvent is an unclassified file notification.
type RawEvent struct {
	Path string
	Op   Op
	Time time.Time
}

// Kind is the semantic meaning of a change.
type Kind int

const (
	KindNoteCreated Kind = iota + 1
	KindNoteUpdated
	KindNoteDeleted
	KindTodos
)

func (k Kind) String() string {
	switch k {
	case KindNoteCreated:
		return "note-created"
	case KindNoteUpdated:
		return "note-updated"
	case KindNoteDeleted:
		return "note-deleted"
	case KindTodos:
		return "todos"
	default:
		return "unknown"
	}
}

// Change is a classified event.
type Change struct {
	Kind Kind
	Path string
}

// Roots are the tracked paths of one vault.
type Roots struct {
	Vault    string
	Notes    string
	Prompts  string
	TodoFile string
}

// NewRoots returns the tracked paths for the vault at root.
func NewRoots(root string) Roots {
	root = filepath.Clean(root)
	return Roots{
		Vault:    root,
		Notes:    vaultdir.NotesPath(root),
		Prompts:  vaultdir.PromptsPath(root),
		TodoFile: vaultdir.TodoPath(root),
	}
}

// Classifier maps raw events to changes.
type Classifier struct {
	roots Roots
	ext   string
}

// NewClassifier returns a classifier for roots that treats files with
// extension ext as notes.
func NewClassifier(roots Roots, ext string) *Classifier {
	if ext == "" {
		ext = vaultdir.NoteExtension
	}
	return &Classifier{roots: roots, ext: ext}
}

// Classify maps ev to a change. ok is false for events that matter to no
// one: paths outside the tracked roots, wrong extensions, prompt files,
// permission changes and removal of the todo file.
func (c *Classifier) Classify(ev RawEvent) (Change, bool) {
	path := filepath.Clean(ev.Path)

	if path == c.roots.TodoFile {
		if ev.Op == OpCreate || ev.Op == OpWrite {
			return Change{Kind: KindTodos, Path: path}, true
		}
		return Change{}, false
	}

	if !vaultdir.HasExtension(path, c.ext) {
		return Change{}, false
	}
	// Prompt files are reported by the commands that write them.
	if within(c.roots.Prompts, path) {
		return Change{}, false
	}
	if !within(c.roots.Notes, path) {
		return Change{}, false
	}

	switch ev.Op {
	case OpCreate:
		return Change{Kind: KindNoteCreated, Path: path}, true
	case OpWrite:
		return Change{Kind: KindNoteUpdated, Path: path}, true
	case OpRemove, OpRename:
		return Change{Kind: KindNoteDeleted, Path: path}, true
	default:
		return Change{}, false
	}
}

// within reports whether path is strictly inside root.
func within(root, path string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
