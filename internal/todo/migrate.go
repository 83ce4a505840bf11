package todo

import "fmt"

// MigrationReport summarizes a schema migration.
type MigrationReport struct {
	From Schema `json:"from"`
	To   Schema `json:"to"`
	// Items is the number of items after migration.
	Items int `json:"items"`
	// Flattened counts subtasks promoted to top-level items.
	Flattened int `json:"flattened"`
	// Stripped counts items that lost priority, created date or tags.
	Stripped int `json:"stripped"`
	// Retagged counts items whose title text became priority, created date
	// or tags under the tagged schema.
	Retagged int `json:"retagged"`
}

// Migrate converts items written for one schema into items for another.
//
// Subtasks to tagged promotes every subtask to a top-level item directly
// after its parent, keeping its own completion flag. Each line is read the
// way the tagged schema will read it, so "+word", "@word", a leading "(A)"
// or a date in a title become fields instead of changing on the next load.
// Tagged to subtasks keeps titles, completion flags and due dates and drops
// the tagged metadata.
// The input slice is not modified. IDs are renumbered.
func Migrate(items []Item, from, to Schema) ([]Item, MigrationReport, error) {
	report := MigrationReport{From: from, To: to}
	if from != SchemaSubtasks && from != SchemaTagged {
		return nil, report, fmt.Errorf("unsupported source schema %s", from)
	}
	if to != SchemaSubtasks && to != SchemaTagged {
		return nil, report, fmt.Errorf("unsupported target schema %s", to)
	}

	out := make([]Item, 0, len(items))
	switch {
	case from == to:
		for _, it := range items {
			out = append(out, it.Clone())
		}
	case from == SchemaSubtasks:
		for _, it := range items {
			parent := Item{Title: it.Title, Completed: it.Completed, DueDate: it.DueDate}
			if err := appendTagged(&out, &report, parent); err != nil {
				return nil, report, fmt.Errorf("todo %d: %w", it.ID, err)
			}
			for i, st := range it.Subtasks {
				child := Item{Title: st.Title, Completed: st.Completed}
				if err := appendTagged(&out, &report, child); err != nil {
					return nil, report, fmt.Errorf("todo %d subtask %d: %w", it.ID, i+1, err)
				}
				report.Flattened++
			}
		}
	default:
		for _, it := range items {
			if it.Priority != "" || it.CreatedDate != "" || len(it.Projects) > 0 || len(it.Contexts) > 0 {
				report.Stripped++
			}
			out = append(out, Item{
				Title:     it.Title,
				Completed: it.Completed,
				DueDate:   it.DueDate,
				Projects:  []string{},
				Contexts:  []string{},
			})
		}
	}

	Renumber(out)
	report.Items = len(out)
	return out, report, nil
}

// appendTagged reads it as a tagged line and appends the result.
func appendTagged(out *[]Item, report *MigrationReport, it Item) error {
	parsed, err := parseItemLine(SerializeItem(it, SchemaSubtasks), SchemaTagged)
	if err != nil {
		return err
	}
	if parsed.Priority != "" || parsed.CreatedDate != "" || len(parsed.Projects) > 0 || len(parsed.Contexts) > 0 {
		report.Retagged++
	}
	*out = append(*out, parsed)
	return nil
}
