package todo

import "strings"

// Serialize renders items as task file text, one line per item followed by
// its subtask lines in SchemaSubtasks. Titles are written with whitespace
// collapsed so the output is stable under Parse.
func Serialize(items []Item, schema Schema) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(SerializeItem(it, schema))
		b.WriteByte('\n')
		if schema != SchemaSubtasks {
			continue
		}
		for _, st := range it.Subtasks {
			if st.Completed {
				b.WriteString("  x - ")
			} else {
				b.WriteString("  - ")
			}
			b.WriteString(normalizeSpace(st.Title))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SerializeItem renders the top-level line of a single item without a
// trailing newline.
func SerializeItem(it Item, schema Schema) string {
	parts := make([]string, 0, 6+len(it.Projects)+len(it.Contexts))
	if it.Completed {
		parts = append(parts, "x")
	}
	if schema == SchemaTagged {
		if it.Priority != "" {
			parts = append(parts, "("+it.Priority+")")
		}
		if it.CreatedDate != "" {
			parts = append(parts, it.CreatedDate)
		}
	}
	parts = append(parts, normalizeSpace(it.Title))
	if schema == SchemaTagged {
		for _, p := range it.Projects {
			parts = append(parts, "+"+p)
		}
		for _, c := range it.Contexts {
			parts = append(parts, "@"+c)
		}
	}
	if it.DueDate != "" {
		parts = append(parts, "due:"+it.DueDate)
	}
	return strings.Join(parts, " ")
}
