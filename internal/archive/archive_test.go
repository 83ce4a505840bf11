package archive

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
}

func writeTodo(t *testing.T, vault, content string) {
	t.Helper()
	if err := os.WriteFile(vaultdir.TodoPath(vault), []byte(content), 0644); err != nil {
		t.Fatalf("write todo.txt: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(data)
}

func TestArchiveCompletedNothingToDo(t *testing.T) {
	vault := t.TempDir()
	content := "open one\nopen two\n"
	writeTodo(t, vault, content)

	e := New(vault, Options{Schema: todo.SchemaTagged, Now: fixedNow})
	n, err := e.ArchiveCompleted()
	if err != nil {
		t.Fatalf("ArchiveCompleted failed: %v", err)
	}
	if n != 0 {
		t.Errorf("count: got %d, want 0", n)
	}
	if _, err := os.Stat(vaultdir.DirPath(vault)); !os.IsNotExist(err) {
		t.Errorf("app-data directory should not exist, stat err: %v", err)
	}
	if got := readFile(t, vaultdir.TodoPath(vault)); got != content {
		t.Errorf("todo.txt changed: got %q, want %q", got, content)
	}
}

func TestArchiveCompletedMissingTodoFile(t *testing.T) {
	vault := t.TempDir()
	e := New(vault, Options{Now: fixedNow})

	n, err := e.ArchiveCompleted()
	if err != nil || n != 0 {
		t.Fatalf("ArchiveCompleted: got (%d, %v), want (0, nil)", n, err)
	}
	if _, err := os.Stat(vaultdir.TodoPath(vault)); !os.IsNotExist(err) {
		t.Errorf("todo.txt should not be created, stat err: %v", err)
	}
}

func TestArchiveCompletedTwoItemsFreshDay(t *testing.T) {
	vault := t.TempDir()
	writeTodo(t, vault, "x (A) 2024-01-01 Write report +Work\nKeep me @home\nx Call bank due:2024-01-20\n")

	e := New(vault, Options{Schema: todo.SchemaTagged, Now: fixedNow})
	n, err := e.ArchiveCompleted()
	if err != nil {
		t.Fatalf("ArchiveCompleted failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count: got %d, want 2", n)
	}

	m, err := e.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if m.Stats.TotalCompleted != 2 {
		t.Errorf("TotalCompleted: got %d, want 2", m.Stats.TotalCompleted)
	}
	if m.Stats.CompletionsByDay["2024-01-15"] != 2 {
		t.Errorf("CompletionsByDay[today]: got %d, want 2", m.Stats.CompletionsByDay["2024-01-15"])
	}
	if m.Stats.CompletionsByMonth["2024-01"] != 2 {
		t.Errorf("CompletionsByMonth: got %d, want 2", m.Stats.CompletionsByMonth["2024-01"])
	}
	if m.Stats.CurrentStreak != 1 || m.Stats.LongestStreak != 1 {
		t.Errorf("streaks: got current %d longest %d, want 1 and 1", m.Stats.CurrentStreak, m.Stats.LongestStreak)
	}
	if m.DailyLimit != DefaultDailyLimit {
		t.Errorf("DailyLimit: got %d, want %d", m.DailyLimit, DefaultDailyLimit)
	}

	wantArchive := "[2024-01-15] Write report\n[2024-01-15] Call bank\n"
	if got := readFile(t, vaultdir.ArchivePath(vault, "2024-01")); got != wantArchive {
		t.Errorf("archive: got %q, want %q", got, wantArchive)
	}
	if got := readFile(t, vaultdir.TodoPath(vault)); got != "Keep me @home\n" {
		t.Errorf("todo.txt: got %q, want %q", got, "Keep me @home\n")
	}

	// A second run on the same day appends and keeps counting.
	writeTodo(t, vault, "x Third\n")
	if _, err := e.ArchiveCompleted(); err != nil {
		t.Fatalf("second ArchiveCompleted failed: %v", err)
	}
	m, _ = e.Metadata()
	if m.Stats.TotalCompleted != 3 || m.Stats.CompletionsByDay["2024-01-15"] != 3 || m.Stats.CurrentStreak != 1 {
		t.Errorf("after second run: got %+v", m.Stats)
	}
	if got := readFile(t, vaultdir.ArchivePath(vault, "2024-01")); got != wantArchive+"[2024-01-15] Third\n" {
		t.Errorf("archive after second run: got %q", got)
	}
}

func TestArchiveCompletedSubtasks(t *testing.T) {
	vault := t.TempDir()
	writeTodo(t, vault, "x Trip\n  x - Book\n  - Pack\nOpen\n  - child\n")

	e := New(vault, Options{Schema: todo.SchemaSubtasks, Now: fixedNow})
	if _, err := e.ArchiveCompleted(); err != nil {
		t.Fatalf("ArchiveCompleted failed: %v", err)
	}

	want := "[2024-01-15] Trip\n  x - Book\n  - Pack\n"
	if got := readFile(t, vaultdir.ArchivePath(vault, "2024-01")); got != want {
		t.Errorf("archive: got %q, want %q", got, want)
	}
	if got := readFile(t, vaultdir.TodoPath(vault)); got != "Open\n  - child\n" {
		t.Errorf("todo.txt: got %q", got)
	}

	archived, err := e.LoadArchived("2024-01")
	if err != nil {
		t.Fatalf("LoadArchived failed: %v", err)
	}
	wantArchived := []ArchivedTodo{{
		Title:         "Trip",
		CompletedDate: "2024-01-15",
		Subtasks:      []todo.Subtask{{Title: "Book", Completed: true}, {Title: "Pack"}},
	}}
	if !reflect.DeepEqual(archived, wantArchived) {
		t.Errorf("LoadArchived: got %+v, want %+v", archived, wantArchived)
	}
}

func TestArchiveCompletedExtendsStreak(t *testing.T) {
	vault := t.TempDir()
	e := New(vault, Options{Now: fixedNow})

	m := NewMetadata(3)
	m.Stats.TotalCompleted = 4
	m.Stats.LongestStreak = 1
	m.Stats.CompletionsByDay["2024-01-14"] = 2
	m.Stats.CompletionsByDay["2024-01-13"] = 2
	if err := e.SaveMetadata(m); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}
	writeTodo(t, vault, "x done\n")

	if _, err := e.ArchiveCompleted(); err != nil {
		t.Fatalf("ArchiveCompleted failed: %v", err)
	}
	m, _ = e.Metadata()
	if m.Stats.CurrentStreak != 3 || m.Stats.LongestStreak != 3 {
		t.Errorf("streaks: got current %d longest %d, want 3 and 3", m.Stats.CurrentStreak, m.Stats.LongestStreak)
	}
	if m.DailyLimit != 3 {
		t.Errorf("DailyLimit: got %d, want 3", m.DailyLimit)
	}
}

func TestArchiveCompletedCorruptMetadata(t *testing.T) {
	vault := t.TempDir()
	writeTodo(t, vault, "x done\n")
	if err := os.MkdirAll(vaultdir.DirPath(vault), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vaultdir.TodoMetadataPath(vault), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(vault, Options{Now: fixedNow})
	if _, err := e.ArchiveCompleted(); err == nil {
		t.Fatal("expected error for corrupt metadata")
	}
	if _, err := os.Stat(vaultdir.ArchivesPath(vault)); !os.IsNotExist(err) {
		t.Errorf("archive should not be written, stat err: %v", err)
	}
	if got := readFile(t, vaultdir.TodoPath(vault)); got != "x done\n" {
		t.Errorf("todo.txt changed: got %q", got)
	}
}

func TestArchiveCompletedPartialFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs a non-root POSIX user for permission checks")
	}

	vault := t.TempDir()
	writeTodo(t, vault, "x done\nopen\n")
	if err := os.MkdirAll(vaultdir.DirPath(vault), 0755); err != nil {
		t.Fatal(err)
	}
	// The live file is rewritten through a temp file in the vault root.
	if err := os.Chmod(vault, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(vault, 0755) })

	e := New(vault, Options{Now: fixedNow})
	_, err := e.ArchiveCompleted()

	var partial *PartialArchiveError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialArchiveError, got %v", err)
	}
	if partial.Failed != StepLive {
		t.Errorf("Failed: got %q, want %q", partial.Failed, StepLive)
	}
	if !reflect.DeepEqual(partial.Completed, []Step{StepArchive, StepStats}) {
		t.Errorf("Completed: got %v", partial.Completed)
	}
	if partial.Archived != 1 {
		t.Errorf("Archived: got %d, want 1", partial.Archived)
	}

	// The earlier writes are visible and the live file still has the item.
	if got := readFile(t, vaultdir.ArchivePath(vault, "2024-01")); got != "[2024-01-15] done\n" {
		t.Errorf("archive: got %q", got)
	}
	if got := readFile(t, vaultdir.TodoPath(vault)); got != "x done\nopen\n" {
		t.Errorf("todo.txt: got %q", got)
	}
}

func TestPartialArchiveErrorMessage(t *testing.T) {
	inner := errors.New("disk full")
	err := &PartialArchiveError{Completed: []Step{StepArchive}, Failed: StepStats, Err: inner}
	want := "archive incomplete: write stats failed after append archive: disk full"
	if err.Error() != want {
		t.Errorf("Error: got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestStatsRecomputedAsOfToday(t *testing.T) {
	vault := t.TempDir()
	e := New(vault, Options{Now: fixedNow})

	m := NewMetadata(5)
	m.Stats.CurrentStreak = 4
	m.Stats.LongestStreak = 4
	m.Stats.CompletionsByDay["2024-01-14"] = 1
	if err := e.SaveMetadata(m); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Errorf("CurrentStreak: got %d, want 0", stats.CurrentStreak)
	}
	if stats.LongestStreak != 4 {
		t.Errorf("LongestStreak: got %d, want 4", stats.LongestStreak)
	}
}

func TestSetDailyLimit(t *testing.T) {
	e := New(t.TempDir(), Options{Now: fixedNow})
	if err := e.SetDailyLimit(-1); err == nil {
		t.Error("expected error for negative limit")
	}
	if err := e.SetDailyLimit(9); err != nil {
		t.Fatalf("SetDailyLimit failed: %v", err)
	}
	m, err := e.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if m.DailyLimit != 9 {
		t.Errorf("DailyLimit: got %d, want 9", m.DailyLimit)
	}
}

func TestParseArchive(t *testing.T) {
	text := "  - orphan\n" +
		"[2024-01-02] First\n" +
		"  x - sub a\n" +
		"  - sub b\n" +
		"junk line\n" +
		"[2024-01-03]   Second  \r\n" +
		"[broken\n" +
		"  - dropped after broken\n"

	got := ParseArchive(text, todo.SchemaSubtasks)
	want := []ArchivedTodo{
		{Title: "First", CompletedDate: "2024-01-02", Subtasks: []todo.Subtask{{Title: "sub a", Completed: true}, {Title: "sub b"}}},
		{Title: "Second", CompletedDate: "2024-01-03", Subtasks: []todo.Subtask{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseArchive:\n got %+v\nwant %+v", got, want)
	}

	tagged := ParseArchive(text, todo.SchemaTagged)
	if len(tagged) != 2 || len(tagged[0].Subtasks) != 0 {
		t.Errorf("tagged ParseArchive: got %+v", tagged)
	}
}

func TestLoadArchivedMissing(t *testing.T) {
	e := New(t.TempDir(), Options{})
	got, err := e.LoadArchived("2020-01")
	if err != nil {
		t.Fatalf("LoadArchived failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestListArchiveMonths(t *testing.T) {
	vault := t.TempDir()
	e := New(vault, Options{})

	months, err := e.ListArchiveMonths()
	if err != nil {
		t.Fatalf("ListArchiveMonths (missing dir) failed: %v", err)
	}
	if len(months) != 0 {
		t.Errorf("months: got %v, want empty", months)
	}

	dir := vaultdir.ArchivesPath(vault)
	if err := os.MkdirAll(filepath.Join(dir, "done-2099-01.txt"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"done-2023-11.txt", "done-2024-02.txt", "done-2024-01.txt", "notes.txt", "done-2024.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	months, err = e.ListArchiveMonths()
	if err != nil {
		t.Fatalf("ListArchiveMonths failed: %v", err)
	}
	want := []string{"2024-02", "2024-01", "2023-11"}
	if !reflect.DeepEqual(months, want) {
		t.Errorf("months: got %v, want %v", months, want)
	}
}
