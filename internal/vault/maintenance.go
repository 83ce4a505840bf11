package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/notes"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// MigrateStructure moves notes from the vault root into notes/. It only runs
// when notes/ does not exist yet, and returns the moved file names.
func (s *Service) MigrateStructure() ([]string, error) {
	dir := vaultdir.NotesPath(s.root)
	if _, err := os.Stat(dir); err == nil {
		return nil, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat notes directory: %w", err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}

	moved := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !vaultdir.HasExtension(entry.Name(), s.ext) {
			continue
		}
		if entry.Name() == vaultdir.PomodorosFile {
			continue
		}
		if err := os.Rename(filepath.Join(s.root, entry.Name()), filepath.Join(dir, entry.Name())); err != nil {
			return moved, fmt.Errorf("move %s: %w", entry.Name(), err)
		}
		moved = append(moved, entry.Name())
	}
	s.logger.Info("migrated vault layout", "moved", len(moved))
	if len(moved) > 0 {
		list, err := s.ListNotes()
		if err == nil {
			s.emitter.Emit(events.NoteListUpdated, notes.ListPayload(list))
		}
	}
	return moved, nil
}

// ReadPomodoros returns the pomodoro log. A missing file is empty.
func (s *Service) ReadPomodoros() (string, error) {
	data, err := os.ReadFile(vaultdir.PomodorosPath(s.root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read pomodoros: %w", err)
	}
	return string(data), nil
}

// WritePomodoros replaces the pomodoro log.
func (s *Service) WritePomodoros(content string) error {
	if err := utils.WriteFileAtomic(vaultdir.PomodorosPath(s.root), []byte(content), 0644); err != nil {
		return fmt.Errorf("write pomodoros: %w", err)
	}
	return nil
}

// MigrateSchema rewrites the task file from one schema to another. The
// caller is responsible for switching the configured schema afterwards.
func (s *Service) MigrateSchema(from, to todo.Schema) (todo.MigrationReport, error) {
	items, err := todo.Load(s.todoPath(), from)
	if err != nil {
		return todo.MigrationReport{}, err
	}
	out, report, err := todo.Migrate(items, from, to)
	if err != nil {
		return report, err
	}
	for _, it := range out {
		if err := it.Validate(to); err != nil {
			return report, fmt.Errorf("todo %d after migration: %w", it.ID, err)
		}
	}
	if err := todo.Save(s.todoPath(), out, to); err != nil {
		return report, err
	}
	s.logger.Info("migrated todo schema", "from", from, "to", to, "items", report.Items, "retagged", report.Retagged)
	s.emitter.Emit(events.TodosChanged, nil)
	return report, nil
}

// CheckReport summarizes the state of a vault.
type CheckReport struct {
	Root          string           `json:"root"`
	NotesDir      bool             `json:"notesDir"`
	PromptsDir    bool             `json:"promptsDir"`
	Todos         int              `json:"todos"`
	Completed     int              `json:"completed"`
	SkippedLines  []todo.LineError `json:"-"`
	MetadataError error            `json:"-"`
}

// OK reports whether the check found no problems.
func (r CheckReport) OK() bool {
	return len(r.SkippedLines) == 0 && r.MetadataError == nil
}

// Check inspects the vault layout, the task file and the metadata file
// without modifying anything.
func (s *Service) Check() (CheckReport, error) {
	r := CheckReport{Root: s.root}
	if info, err := os.Stat(s.root); err != nil {
		return r, fmt.Errorf("vault: %w", err)
	} else if !info.IsDir() {
		return r, fmt.Errorf("vault %s is not a directory", s.root)
	}
	r.NotesDir = isDir(vaultdir.NotesPath(s.root))
	r.PromptsDir = isDir(vaultdir.PromptsPath(s.root))

	data, err := os.ReadFile(s.todoPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return r, fmt.Errorf("read todo file: %w", err)
	}
	items, skipped := todo.ParseReport(string(data), s.schema)
	r.Todos = len(items)
	for _, it := range items {
		if it.Completed {
			r.Completed++
		}
	}
	r.SkippedLines = skipped

	if _, err := archive.LoadMetadata(vaultdir.TodoMetadataPath(s.root), archive.DefaultDailyLimit); err != nil {
		r.MetadataError = err
	}
	return r, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
