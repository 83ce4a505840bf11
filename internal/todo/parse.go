package todo

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// LineKind classifies a single line of the task file.
type LineKind int

const (
	LineBlank LineKind = iota
	LineItem
	LineSubtask
)

// ErrOrphanSubtask is reported for a subtask line with no parent task above it.
var ErrOrphanSubtask = errors.New("subtask without a parent task")

// LineResult is the outcome of parsing one line.
type LineResult struct {
	Line    int // 1-indexed line number in the source text
	Kind    LineKind
	Item    Item    // set when Kind == LineItem and Err == nil
	Subtask Subtask // set when Kind == LineSubtask and Err == nil
	Err     error
}

// LineError describes a line that Parse skipped.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *LineError) Unwrap() error {
	return e.Err
}

// Parse parses task file text. Lines that fail to parse are skipped.
func Parse(text string, schema Schema) []Item {
	items, _ := ParseReport(text, schema)
	return items
}

// ParseReport parses task file text and also returns every skipped line.
func ParseReport(text string, schema Schema) ([]Item, []LineError) {
	var items []Item
	var skipped []LineError
	parent := -1

	for i, raw := range strings.Split(text, "\n") {
		res := ParseLine(raw, schema)
		res.Line = i + 1

		switch {
		case res.Kind == LineBlank:
			continue
		case res.Err != nil:
			if res.Kind == LineItem {
				parent = -1
			}
			skipped = append(skipped, LineError{Line: res.Line, Text: raw, Err: res.Err})
		case res.Kind == LineSubtask:
			if parent < 0 {
				skipped = append(skipped, LineError{Line: res.Line, Text: raw, Err: ErrOrphanSubtask})
				continue
			}
			items[parent].Subtasks = append(items[parent].Subtasks, res.Subtask)
		default:
			res.Item.ID = len(items) + 1
			items = append(items, res.Item)
			parent = len(items) - 1
		}
	}

	return items, skipped
}

// ParseLine parses a single line without reference to its neighbours.
// Subtask lines are only recognized in SchemaSubtasks.
func ParseLine(line string, schema Schema) LineResult {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return LineResult{Kind: LineBlank}
	}

	if schema == SchemaSubtasks {
		if st, ok, err := parseSubtaskLine(line); ok {
			return LineResult{Kind: LineSubtask, Subtask: st, Err: err}
		}
	}

	item, err := parseItemLine(line, schema)
	return LineResult{Kind: LineItem, Item: item, Err: err}
}

// parseSubtaskLine recognizes "  - title", "  x - title" and "  x title".
func parseSubtaskLine(line string) (Subtask, bool, error) {
	if !strings.HasPrefix(line, "  ") {
		return Subtask{}, false, nil
	}
	rest := line[2:]

	var st Subtask
	switch {
	case strings.HasPrefix(rest, "x - "):
		st.Completed = true
		rest = rest[4:]
	case strings.HasPrefix(rest, "- "):
		rest = rest[2:]
	case strings.HasPrefix(rest, "x "):
		st.Completed = true
		rest = rest[2:]
	default:
		return Subtask{}, false, nil
	}

	st.Title = normalizeSpace(rest)
	if st.Title == "" {
		return st, true, ErrEmptyTitle
	}
	return st, true, nil
}

func parseItemLine(line string, schema Schema) (Item, error) {
	item := Item{Projects: []string{}, Contexts: []string{}}
	rest := strings.TrimSpace(line)

	if hasCompletionMarker(rest) {
		item.Completed = true
		rest = strings.TrimSpace(rest[1:])
	}

	if schema == SchemaTagged {
		if p := leadingPriority(rest); p != "" {
			item.Priority = p
			rest = strings.TrimSpace(rest[3:])
		}
	}

	kept := make([]string, 0, 8)
	for _, word := range strings.Fields(rest) {
		switch {
		case isDueToken(word) && item.DueDate == "":
			item.DueDate = word[len("due:"):]
		case schema == SchemaTagged && isProjectToken(word):
			item.Projects = append(item.Projects, word[1:])
		case schema == SchemaTagged && isContextToken(word):
			item.Contexts = append(item.Contexts, word[1:])
		default:
			kept = append(kept, word)
		}
	}
	rest = strings.Join(kept, " ")

	if schema == SchemaTagged {
		if loc := isoDatePattern.FindStringIndex(rest); loc != nil {
			item.CreatedDate = rest[loc[0]:loc[1]]
			rest = rest[:loc[0]] + rest[loc[1]:]
		}
	}

	item.Title = normalizeSpace(rest)
	if item.Title == "" {
		return item, ErrEmptyTitle
	}
	return item, nil
}

// hasCompletionMarker reports whether s starts with "x" followed by whitespace.
// A bare "x" is a title, not an empty completed task.
func hasCompletionMarker(s string) bool {
	if len(s) < 2 || s[0] != 'x' {
		return false
	}
	return unicode.IsSpace(rune(s[1]))
}

// leadingPriority returns the letter of a "(X)" token at the start of s.
func leadingPriority(s string) string {
	if len(s) < 3 || s[0] != '(' || s[2] != ')' {
		return ""
	}
	if s[1] < 'A' || s[1] > 'Z' {
		return ""
	}
	if len(s) > 3 && !unicode.IsSpace(rune(s[3])) {
		return ""
	}
	return s[1:2]
}

func isDueToken(word string) bool {
	return strings.HasPrefix(word, "due:") && len(word) > len("due:")
}

func isProjectToken(word string) bool {
	return len(word) > 1 && word[0] == '+'
}

func isContextToken(word string) bool {
	return len(word) > 1 && word[0] == '@'
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
