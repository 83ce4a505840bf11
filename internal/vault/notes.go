package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/notes"
	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// Import modes for ImportNote.
const (
	ImportCopy    = "copy"
	ImportSymlink = "symlink"
)

// NoteContent is a note read from disk.
type NoteContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NotesDir returns the directory holding notes: notes/ when it exists, the
// vault root otherwise.
func (s *Service) NotesDir() string {
	dir := vaultdir.NotesPath(s.root)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return s.root
}

// ListNotes returns the notes of the vault, newest first.
func (s *Service) ListNotes() ([]notes.Note, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return notes.Scan(s.NotesDir(), s.ext, s.logger)
}

// ReadNote returns the title and content of a note.
func (s *Service) ReadNote(path string) (NoteContent, error) {
	path = s.notePath(path)
	resolved, err := s.resolveExisting(path)
	if err != nil {
		return NoteContent{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NoteContent{}, fmt.Errorf("note %s: %w", path, ErrNotFound)
		}
		return NoteContent{}, fmt.Errorf("read note: %w", err)
	}
	return NoteContent{Title: notes.Title(path), Content: string(data)}, nil
}

// WriteNote replaces the content of a note, creating it if needed, and
// publishes note:saved. An empty title falls back to the file name.
func (s *Service) WriteNote(path, content, title string) (notes.Note, error) {
	path = s.notePath(path)
	if _, err := s.resolveParent(path); err != nil {
		return notes.Note{}, err
	}
	target, err := writeTarget(path)
	if err != nil {
		return notes.Note{}, err
	}
	if err := utils.WriteFileAtomic(target, []byte(content), 0644); err != nil {
		return notes.Note{}, fmt.Errorf("write note: %w", err)
	}
	n, err := notes.Stat(path)
	if err != nil {
		return notes.Note{}, fmt.Errorf("stat note: %w", err)
	}
	if title != "" {
		n.Title = title
	}
	s.emitter.Emit(events.NoteSaved, n.Payload())
	return n, nil
}

// writeTarget returns the file a note write must replace. A symlinked note
// is written through to its target so the link survives.
func writeTarget(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("resolve note link: %w", err)
	}
	return target, nil
}

// DeleteNote removes a note inside the vault and publishes note:deleted.
// A symlinked note is unlinked; its target is left alone.
func (s *Service) DeleteNote(path string) error {
	path = s.notePath(path)
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("note %s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("stat note: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		_, err = s.resolveParent(path)
	} else {
		_, err = s.resolveExisting(path)
	}
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.emitter.Emit(events.NoteDeleted, notes.DeletedPayload(path))
	return nil
}

// ImportNote brings a file from outside the vault into notes/, either as a
// copy or as a symlink, and publishes note:list-updated. It returns the new
// path. An existing note of the same name is never replaced.
func (s *Service) ImportNote(source, mode string) (string, error) {
	if mode == "" {
		mode = ImportCopy
	}
	if mode != ImportCopy && mode != ImportSymlink {
		return "", fmt.Errorf("unknown import mode %q", mode)
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolve source: %w", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("source %s: %w", source, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %s is a directory", source)
	}

	dir := vaultdir.NotesPath(s.root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create notes directory: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Lstat(dest); err == nil {
		return "", fmt.Errorf("note %s: %w", filepath.Base(dest), ErrExists)
	}

	if mode == ImportSymlink {
		err = os.Symlink(src, dest)
	} else {
		err = copyFile(src, dest)
	}
	if err != nil {
		return "", fmt.Errorf("import note: %w", err)
	}

	list, err := notes.Scan(dir, s.ext, s.logger)
	if err != nil {
		return "", err
	}
	s.emitter.Emit(events.NoteListUpdated, notes.ListPayload(list))
	return dest, nil
}

// notePath resolves a relative note path against the notes directory.
func (s *Service) notePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.NotesDir(), path)
}

// resolveExisting resolves path through symlinks and checks that it stays
// inside the vault.
func (s *Service) resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("note %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return s.checkInside(path, resolved)
}

// resolveParent checks that the directory holding path is inside the vault.
func (s *Service) resolveParent(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("directory %s: %w", filepath.Dir(abs), ErrNotFound)
		}
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if _, err := s.checkInside(path, parent); err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}

func (s *Service) checkInside(original, resolved string) (string, error) {
	root, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return "", fmt.Errorf("resolve vault: %w", err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", original, ErrOutsideVault)
	}
	return resolved, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
