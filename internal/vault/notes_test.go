package vault

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

func mkNotes(t *testing.T, svc *Service) string {
	t.Helper()
	dir := vaultdir.NotesPath(svc.Root())
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	return dir
}

func TestListNotesFallsBackToRoot(t *testing.T) {
	svc, _ := newTestService(t, todo.SchemaTagged)
	if err := os.WriteFile(filepath.Join(svc.Root(), "loose.md"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	list, err := svc.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "loose.md" {
		t.Errorf("notes: got %+v", list)
	}

	dir := mkNotes(t, svc)
	if svc.NotesDir() != dir {
		t.Errorf("NotesDir: got %q, want %q", svc.NotesDir(), dir)
	}
	list, _ = svc.ListNotes()
	if len(list) != 0 {
		t.Errorf("notes after creating notes/: got %+v", list)
	}
}

func TestListNotesNewestFirst(t *testing.T) {
	svc, _ := newTestService(t, todo.SchemaTagged)
	dir := mkNotes(t, svc)
	old := time.Now().Add(-time.Hour)
	for _, name := range []string{"old.md", "new.md", "skip.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := os.Chtimes(filepath.Join(dir, "old.md"), old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	list, err := svc.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "new.md" || list[1].Name != "old.md" {
		t.Errorf("order: got %+v", list)
	}
}

func TestWriteAndReadNote(t *testing.T) {
	svc, rec := newTestService(t, todo.SchemaTagged)
	mkNotes(t, svc)

	n, err := svc.WriteNote("ideas.md", "# Ideas\n", "")
	if err != nil {
		t.Fatalf("WriteNote failed: %v", err)
	}
	if n.Title != "ideas" {
		t.Errorf("Title: got %q, want %q", n.Title, "ideas")
	}
	if rec.Count(events.NoteSaved) != 1 {
		t.Errorf("note:saved: got %d, want 1", rec.Count(events.NoteSaved))
	}

	got, err := svc.ReadNote(n.Path)
	if err != nil {
		t.Fatalf("ReadNote failed: %v", err)
	}
	if got.Content != "# Ideas\n" || got.Title != "ideas" {
		t.Errorf("ReadNote: got %+v", got)
	}

	if _, err := svc.ReadNote("missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadNote missing: got %v, want %v", err, ErrNotFound)
	}
}

func TestNotePathsOutsideVault(t *testing.T) {
	svc, rec := newTestService(t, todo.SchemaTagged)
	mkNotes(t, svc)
	outside := filepath.Join(t.TempDir(), "secret.md")
	if err := os.WriteFile(outside, []byte("s"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := svc.ReadNote(outside); !errors.Is(err, ErrOutsideVault) {
		t.Errorf("ReadNote: got %v, want %v", err, ErrOutsideVault)
	}
	if _, err := svc.WriteNote(outside, "x", ""); !errors.Is(err, ErrOutsideVault) {
		t.Errorf("WriteNote: got %v, want %v", err, ErrOutsideVault)
	}
	if err := svc.DeleteNote(outside); !errors.Is(err, ErrOutsideVault) {
		t.Errorf("DeleteNote: got %v, want %v", err, ErrOutsideVault)
	}
	if _, err := svc.ReadNote("../../etc/passwd"); err == nil {
		t.Error("ReadNote traversal: expected error")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("outside file touched: %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Errorf("events: got %v, want none", rec.Names())
	}
}

func TestDeleteNote(t *testing.T) {
	svc, rec := newTestService(t, todo.SchemaTagged)
	dir := mkNotes(t, svc)
	path := filepath.Join(dir, "gone.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := svc.DeleteNote(path); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("note still exists: %v", err)
	}
	evs := rec.Events()
	if len(evs) != 1 || evs[0].Name != events.NoteDeleted {
		t.Fatalf("events: got %v", rec.Names())
	}
	info := evs[0].Payload.(events.NoteInfo)
	if info.Title != nil || info.Modified != nil || info.Name != "gone.md" {
		t.Errorf("payload: got %+v", info)
	}

	if err := svc.DeleteNote(path); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteNote: got %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteSymlinkedNoteKeepsTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	svc, _ := newTestService(t, todo.SchemaTagged)
	dir := mkNotes(t, svc)
	target := filepath.Join(t.TempDir(), "shared.md")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	link := filepath.Join(dir, "shared.md")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	if err := svc.DeleteNote(link); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Errorf("link still exists: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("target removed: %v", err)
	}
}

func TestImportNote(t *testing.T) {
	svc, rec := newTestService(t, todo.SchemaTagged)
	src := filepath.Join(t.TempDir(), "external.md")
	if err := os.WriteFile(src, []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dest, err := svc.ImportNote(src, ImportCopy)
	if err != nil {
		t.Fatalf("ImportNote failed: %v", err)
	}
	if dest != filepath.Join(vaultdir.NotesPath(svc.Root()), "external.md") {
		t.Errorf("dest: got %q", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "hello" {
		t.Errorf("copied content: got %q, %v", data, err)
	}
	if rec.Count(events.NoteListUpdated) != 1 {
		t.Errorf("note:list-updated: got %d, want 1", rec.Count(events.NoteListUpdated))
	}

	if _, err := svc.ImportNote(src, ImportCopy); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate import: got %v, want %v", err, ErrExists)
	}
	if _, err := svc.ImportNote(filepath.Join(t.TempDir(), "none.md"), ImportCopy); err == nil {
		t.Error("missing source: expected error")
	}
	if _, err := svc.ImportNote(src, "move"); err == nil {
		t.Error("unknown mode: expected error")
	}
}

func TestImportNoteSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	svc, _ := newTestService(t, todo.SchemaTagged)
	src := filepath.Join(t.TempDir(), "linked.md")
	if err := os.WriteFile(src, []byte("v1"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dest, err := svc.ImportNote(src, ImportSymlink)
	if err != nil {
		t.Fatalf("ImportNote failed: %v", err)
	}
	list, err := svc.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(list) != 1 || !list[0].IsSymlink || list[0].Path != dest {
		t.Errorf("notes: got %+v", list)
	}
}

func TestWriteNoteKeepsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	svc, _ := newTestService(t, todo.SchemaTagged)
	src := filepath.Join(t.TempDir(), "linked.md")
	if err := os.WriteFile(src, []byte("original"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	dest, err := svc.ImportNote(src, ImportSymlink)
	if err != nil {
		t.Fatalf("ImportNote failed: %v", err)
	}

	n, err := svc.WriteNote(dest, "edited", "")
	if err != nil {
		t.Fatalf("WriteNote failed: %v", err)
	}
	if !n.IsSymlink {
		t.Errorf("IsSymlink: got false, want true")
	}
	info, err := os.Lstat(dest)
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Errorf("note %s was replaced by a regular file", dest)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "edited" {
		t.Errorf("source content: got %q, want %q", data, "edited")
	}
}

func TestMigrateStructure(t *testing.T) {
	svc, rec := newTestService(t, todo.SchemaTagged)
	root := svc.Root()
	for _, name := range []string{"a.md", "b.MD", "todo.txt", ".pomodoros.md"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	moved, err := svc.MigrateStructure()
	if err != nil {
		t.Fatalf("MigrateStructure failed: %v", err)
	}
	if len(moved) != 2 {
		t.Errorf("moved: got %v, want 2 notes", moved)
	}
	for _, name := range []string{"a.md", "b.MD"} {
		if _, err := os.Stat(filepath.Join(root, "notes", name)); err != nil {
			t.Errorf("%s not moved: %v", name, err)
		}
	}
	for _, name := range []string{"todo.txt", ".pomodoros.md"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s moved: %v", name, err)
		}
	}
	if rec.Count(events.NoteListUpdated) != 1 {
		t.Errorf("note:list-updated: got %d, want 1", rec.Count(events.NoteListUpdated))
	}

	// A second run is a no-op once notes/ exists.
	if err := os.WriteFile(filepath.Join(root, "c.md"), []byte("c"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	moved, err = svc.MigrateStructure()
	if err != nil || len(moved) != 0 {
		t.Errorf("second run: got %v, %v", moved, err)
	}
	if _, err := os.Stat(filepath.Join(root, "c.md")); err != nil {
		t.Errorf("c.md moved on second run: %v", err)
	}
}
