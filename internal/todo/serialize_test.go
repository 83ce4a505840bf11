package todo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func taggedFixture() []Item {
	return []Item{
		{
			Title:       "Write report",
			Priority:    "A",
			CreatedDate: "2024-01-01",
			Projects:    []string{"Work"},
			Contexts:    []string{"Office"},
			DueDate:     "2024-01-10",
		},
		{Title: "Call (B) plumber", Completed: true, Projects: []string{}, Contexts: []string{}},
		{Title: "Review 2024-03-01 notes", CreatedDate: "2024-02-01", Projects: []string{"a", "b"}, Contexts: []string{}},
		{Title: "(C) literal", Priority: "B", Projects: []string{}, Contexts: []string{"phone"}},
		{Title: "x", Projects: []string{}, Contexts: []string{}},
	}
}

func subtaskFixture() []Item {
	return []Item{
		{
			Title:    "Plan trip",
			DueDate:  "2024-06-01",
			Projects: []string{},
			Contexts: []string{},
			Subtasks: []Subtask{{Title: "Book flights", Completed: true}, {Title: "- dashed"}},
		},
		{Title: "(A) not a priority +or-tag", Completed: true, Projects: []string{}, Contexts: []string{}},
	}
}

func TestSerializeTokenOrder(t *testing.T) {
	item := Item{
		Title:       "Write report",
		Completed:   true,
		Priority:    "A",
		CreatedDate: "2024-01-01",
		Projects:    []string{"Work", "Q1"},
		Contexts:    []string{"Office"},
		DueDate:     "2024-01-10",
	}

	got := SerializeItem(item, SchemaTagged)
	want := "x (A) 2024-01-01 Write report +Work +Q1 @Office due:2024-01-10"
	if got != want {
		t.Errorf("SerializeItem: got %q, want %q", got, want)
	}

	got = SerializeItem(Item{Title: "Plan", Completed: true, DueDate: "2024-01-10", Priority: "A"}, SchemaSubtasks)
	want = "x Plan due:2024-01-10"
	if got != want {
		t.Errorf("SerializeItem subtasks: got %q, want %q", got, want)
	}
}

func TestSerializeSubtaskLines(t *testing.T) {
	got := Serialize(subtaskFixture(), SchemaSubtasks)
	want := "Plan trip due:2024-06-01\n" +
		"  x - Book flights\n" +
		"  - - dashed\n" +
		"x (A) not a priority +or-tag\n"
	if got != want {
		t.Errorf("Serialize:\n got %q\nwant %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		items  []Item
	}{
		{"tagged", SchemaTagged, taggedFixture()},
		{"subtasks", SchemaSubtasks, subtaskFixture()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, it := range tt.items {
				if err := it.Validate(tt.schema); err != nil {
					t.Fatalf("fixture %d invalid: %v", i, err)
				}
			}

			text := Serialize(tt.items, tt.schema)
			parsed := Parse(text, tt.schema)
			if len(parsed) != len(tt.items) {
				t.Fatalf("items: got %d, want %d", len(parsed), len(tt.items))
			}

			for i := range parsed {
				// IDs are assigned by position on parse.
				if parsed[i].ID != i+1 {
					t.Errorf("item %d ID: got %d, want %d", i, parsed[i].ID, i+1)
				}
				want := tt.items[i].Clone()
				want.ID = parsed[i].ID
				if !reflect.DeepEqual(parsed[i], want) {
					t.Errorf("item %d:\n got %+v\nwant %+v", i, parsed[i], want)
				}
			}

			if again := Serialize(parsed, tt.schema); again != text {
				t.Errorf("second Serialize differs:\n got %q\nwant %q", again, text)
			}
		})
	}
}

func TestRoundTripNormalizesTitleWhitespace(t *testing.T) {
	items := []Item{{Title: "  spaced   out  ", Projects: []string{}, Contexts: []string{}}}

	text := Serialize(items, SchemaTagged)
	if text != "spaced out\n" {
		t.Fatalf("Serialize: got %q, want %q", text, "spaced out\n")
	}
	if again := Serialize(Parse(text, SchemaTagged), SchemaTagged); again != text {
		t.Errorf("round trip: got %q, want %q", again, text)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if got := Serialize(nil, SchemaTagged); got != "" {
		t.Errorf("Serialize(nil): got %q, want empty", got)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	items, err := Load(filepath.Join(t.TempDir(), "todo.txt"), SchemaTagged)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items: got %v, want empty non-nil slice", items)
	}
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.txt")

	if err := Save(path, taggedFixture(), SchemaTagged); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path, SchemaTagged)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(taggedFixture()) {
		t.Fatalf("items: got %d, want %d", len(loaded), len(taggedFixture()))
	}
	if loaded[0].Title != "Write report" {
		t.Errorf("Title: got %q, want %q", loaded[0].Title, "Write report")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != Serialize(taggedFixture(), SchemaTagged) {
		t.Errorf("file content mismatch: %q", data)
	}
}

func TestLoadReadError(t *testing.T) {
	// A directory where the file should be is a read failure, not an empty list.
	dir := t.TempDir()
	if _, err := Load(dir, SchemaTagged); err == nil {
		t.Error("Load(directory): expected error")
	}
}
