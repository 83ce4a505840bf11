package todo

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		schema  Schema
		wantErr bool
	}{
		{"plain", Item{Title: "Buy milk"}, SchemaTagged, false},
		{"empty title", Item{Title: "  "}, SchemaTagged, true},
		{"multi line", Item{Title: "a\nb"}, SchemaTagged, true},
		{"repeated whitespace", Item{Title: "a  b"}, SchemaTagged, true},
		{"completion marker", Item{Title: "x marks"}, SchemaTagged, true},
		{"due token in title", Item{Title: "pay due:today"}, SchemaSubtasks, true},
		{"due with space", Item{Title: "pay", DueDate: "next week"}, SchemaTagged, true},
		{"leading priority without priority", Item{Title: "(A) task"}, SchemaTagged, true},
		{"leading priority with priority", Item{Title: "(A) task", Priority: "B"}, SchemaTagged, false},
		{"leading priority in subtasks schema", Item{Title: "(A) task"}, SchemaSubtasks, false},
		{"bad priority", Item{Title: "task", Priority: "a"}, SchemaTagged, true},
		{"bad created date", Item{Title: "task", CreatedDate: "Jan 1"}, SchemaTagged, true},
		{"date in title without created", Item{Title: "since 2024-01-01"}, SchemaTagged, true},
		{"date in title with created", Item{Title: "since 2024-01-01", CreatedDate: "2024-02-02"}, SchemaTagged, false},
		{"tag word in title", Item{Title: "ship +feature"}, SchemaTagged, true},
		{"tag word allowed in subtasks", Item{Title: "ship +feature"}, SchemaSubtasks, false},
		{"project with space", Item{Title: "t", Projects: []string{"a b"}}, SchemaTagged, true},
		{"empty context", Item{Title: "t", Contexts: []string{""}}, SchemaTagged, true},
		{"tags in subtasks schema", Item{Title: "t", Projects: []string{"Work"}}, SchemaSubtasks, true},
		{"subtasks in tagged schema", Item{Title: "t", Subtasks: []Subtask{{Title: "s"}}}, SchemaTagged, true},
		{"empty subtask", Item{Title: "t", Subtasks: []Subtask{{Title: ""}}}, SchemaSubtasks, true},
		{"unknown schema", Item{Title: "t"}, Schema(7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate(tt.schema)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got err %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmptyTitleSentinel(t *testing.T) {
	if err := (Item{}).Validate(SchemaTagged); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Validate: got %v, want %v", err, ErrEmptyTitle)
	}
}

func TestParseSchema(t *testing.T) {
	tests := []struct {
		in      string
		want    Schema
		wantErr bool
	}{
		{"tagged", SchemaTagged, false},
		{"", SchemaTagged, false},
		{"V2", SchemaTagged, false},
		{"subtasks", SchemaSubtasks, false},
		{"1", SchemaSubtasks, false},
		{"nested", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSchema(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSchema(%q): got err %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSchema(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFindAndPartition(t *testing.T) {
	items := Parse("x done one\nopen\nx done two\n", SchemaTagged)

	if it := Find(items, 2); it == nil || it.Title != "open" {
		t.Errorf("Find(2): got %+v", it)
	}
	if it := Find(items, 9); it != nil {
		t.Errorf("Find(9): got %+v, want nil", it)
	}

	completed, remaining := Partition(items)
	if len(completed) != 2 || len(remaining) != 1 {
		t.Fatalf("Partition: got %d completed, %d remaining", len(completed), len(remaining))
	}
	if completed[1].Title != "done two" {
		t.Errorf("completed order: got %q, want %q", completed[1].Title, "done two")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Item{Title: "t", Projects: []string{"a"}, Subtasks: []Subtask{{Title: "s"}}}
	c := orig.Clone()
	c.Projects[0] = "changed"
	c.Subtasks[0].Title = "changed"
	if orig.Projects[0] != "a" || orig.Subtasks[0].Title != "s" {
		t.Errorf("Clone shares backing arrays: %+v", orig)
	}
}
