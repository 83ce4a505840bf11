// Package vault implements the commands that read and write vault files:
// todos, notes, prompts and layout maintenance. Every mutation rewrites the
// affected file and publishes an event; nothing is cached between calls.
package vault

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

var (
	// ErrNotFound is returned when a todo, subtask, note or prompt does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOutsideVault is returned for paths that resolve outside the vault.
	ErrOutsideVault = errors.New("path is outside vault")
	// ErrExists is returned when a destination file already exists.
	ErrExists = errors.New("already exists")
	// ErrWrongSchema is returned for subtask commands in the tagged schema.
	ErrWrongSchema = errors.New("not supported by the vault's todo schema")
)

// Options configures a Service.
type Options struct {
	Schema     todo.Schema
	Extension  string // note file extension, default "md"
	Calendar   archive.Calendar
	DailyLimit int
	Emitter    events.Emitter
	Logger     *log.Logger
	Now        func() time.Time
}

// Service runs commands against one vault.
type Service struct {
	root    string
	schema  todo.Schema
	ext     string
	archive *archive.Engine
	emitter events.Emitter
	logger  *log.Logger
	now     func() time.Time
}

// New returns a Service for the vault at root.
func New(root string, opts Options) *Service {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if opts.Schema == 0 {
		opts.Schema = todo.CurrentSchema
	}
	if opts.Extension == "" {
		opts.Extension = vaultdir.NoteExtension
	}
	if opts.Emitter == nil {
		opts.Emitter = events.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		root:   root,
		schema: opts.Schema,
		ext:    opts.Extension,
		archive: archive.New(root, archive.Options{
			Schema:     opts.Schema,
			Calendar:   opts.Calendar,
			DailyLimit: opts.DailyLimit,
			Now:        opts.Now,
		}),
		emitter: opts.Emitter,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Root returns the absolute vault path.
func (s *Service) Root() string {
	return s.root
}

// Schema returns the todo schema in use.
func (s *Service) Schema() todo.Schema {
	return s.schema
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}
