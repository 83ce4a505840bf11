package todo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Schema identifies the task file convention used by a vault.
type Schema int

const (
	// SchemaSubtasks nests indented subtask lines under a task.
	SchemaSubtasks Schema = 1
	// SchemaTagged carries priority, creation date, projects and contexts inline.
	SchemaTagged Schema = 2
)

// CurrentSchema is the schema new vaults use.
const CurrentSchema = SchemaTagged

// String returns the configuration name of the schema.
func (s Schema) String() string {
	switch s {
	case SchemaSubtasks:
		return "subtasks"
	case SchemaTagged:
		return "tagged"
	default:
		return fmt.Sprintf("schema(%d)", int(s))
	}
}

// ParseSchema parses a schema name. It accepts the configuration names
// ("subtasks", "tagged") and the version numbers ("1", "2", "v1", "v2").
func ParseSchema(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "subtasks", "subtask", "1", "v1":
		return SchemaSubtasks, nil
	case "tagged", "tags", "2", "v2", "":
		return SchemaTagged, nil
	default:
		return 0, fmt.Errorf("unknown todo schema %q (expected tagged|subtasks)", name)
	}
}

// Subtask is a child line of a task in the subtasks schema.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Item is a single task line.
//
// Optional string fields use the empty string for "absent".
type Item struct {
	ID          int       `json:"id"` // 1-indexed position at parse time
	Title       string    `json:"title"`
	Completed   bool      `json:"completed"`
	DueDate     string    `json:"dueDate,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Projects    []string  `json:"projects"`
	Contexts    []string  `json:"contexts"`
	CreatedDate string    `json:"createdDate,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Projects != nil {
		out.Projects = append([]string(nil), it.Projects...)
	}
	if it.Contexts != nil {
		out.Contexts = append([]string(nil), it.Contexts...)
	}
	if it.Subtasks != nil {
		out.Subtasks = append([]Subtask(nil), it.Subtasks...)
	}
	return out
}

var (
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	isoDateExact    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	priorityPattern = regexp.MustCompile(`^[A-Z]$`)
)

// ErrEmptyTitle is reported for lines that carry no title text.
var ErrEmptyTitle = errors.New("empty title")

// Validate reports whether the item can be written with the schema and read
// back unchanged. Commands call it before saving user input.
func (it Item) Validate(schema Schema) error {
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if strings.ContainsAny(it.Title, "\r\n") {
		return fmt.Errorf("title must be a single line")
	}
	if normalizeSpace(it.Title) != it.Title {
		return fmt.Errorf("title has leading, trailing or repeated whitespace")
	}
	if hasCompletionMarker(title) {
		return fmt.Errorf("title %q starts with the completion marker", it.Title)
	}
	if it.DueDate != "" && strings.ContainsAny(it.DueDate, " \t\r\n") {
		return fmt.Errorf("due date %q contains whitespace", it.DueDate)
	}
	for _, word := range strings.Fields(title) {
		if isDueToken(word) {
			return fmt.Errorf("title contains a due: token %q", word)
		}
	}

	switch schema {
	case SchemaSubtasks:
		if it.Priority != "" || it.CreatedDate != "" || len(it.Projects) > 0 || len(it.Contexts) > 0 {
			return fmt.Errorf("priority, created date and tags need the %s schema", SchemaTagged)
		}
		for i, st := range it.Subtasks {
			if strings.TrimSpace(st.Title) == "" {
				return fmt.Errorf("subtask %d: %w", i+1, ErrEmptyTitle)
			}
			if normalizeSpace(st.Title) != st.Title {
				return fmt.Errorf("subtask %d: title must be a single line without repeated whitespace", i+1)
			}
		}
	case SchemaTagged:
		if len(it.Subtasks) > 0 {
			return fmt.Errorf("subtasks need the %s schema", SchemaSubtasks)
		}
		if it.Priority != "" && !priorityPattern.MatchString(it.Priority) {
			return fmt.Errorf("priority %q must be a single uppercase letter", it.Priority)
		}
		if it.CreatedDate != "" && !isoDateExact.MatchString(it.CreatedDate) {
			return fmt.Errorf("created date %q is not YYYY-MM-DD", it.CreatedDate)
		}
		if it.Priority == "" && leadingPriority(title) != "" {
			return fmt.Errorf("title %q starts with a priority token", it.Title)
		}
		if it.CreatedDate == "" && isoDatePattern.MatchString(title) {
			return fmt.Errorf("title %q contains a date but the item has no created date", it.Title)
		}
		for _, word := range strings.Fields(title) {
			if isProjectToken(word) || isContextToken(word) {
				return fmt.Errorf("title contains a tag token %q", word)
			}
		}
		for _, p := range it.Projects {
			if p == "" || strings.ContainsAny(p, " \t\r\n") {
				return fmt.Errorf("invalid project tag %q", p)
			}
		}
		for _, c := range it.Contexts {
			if c == "" || strings.ContainsAny(c, " \t\r\n") {
				return fmt.Errorf("invalid context tag %q", c)
			}
		}
	default:
		return fmt.Errorf("unsupported schema %s", schema)
	}
	return nil
}

// Find returns the item with the given ID, or nil if none matches.
func Find(items []Item, id int) *Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// Renumber assigns positional IDs (1..n) to items in place.
func Renumber(items []Item) {
	for i := range items {
		items[i].ID = i + 1
	}
}

// Partition splits items into completed and incomplete lists, keeping order.
func Partition(items []Item) (completed, remaining []Item) {
	for _, it := range items {
		if it.Completed {
			completed = append(completed, it)
		} else {
			remaining = append(remaining, it)
		}
	}
	return completed, remaining
}
