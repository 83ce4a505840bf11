package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vaultdir"
)

// NewTodo holds the fields of a task to create.
type NewTodo struct {
	Title    string
	DueDate  string
	Priority string
	Projects []string
	Contexts []string
}

// MetadataUpdate replaces the priority and tags of a task.
type MetadataUpdate struct {
	Priority string
	Projects []string
	Contexts []string
}

// DueUpdate sets the due date of one task; an empty DueDate clears it.
type DueUpdate struct {
	ID      int    `json:"id"`
	DueDate string `json:"dueDate"`
}

// LoadTodos reads the task list. A missing file is an empty list.
func (s *Service) LoadTodos() ([]todo.Item, error) {
	return todo.Load(s.todoPath(), s.schema)
}

// CreateTodo appends a task and returns it with its assigned id.
func (s *Service) CreateTodo(in NewTodo) (todo.Item, error) {
	item := todo.Item{
		Title:    strings.Join(strings.Fields(in.Title), " "),
		DueDate:  strings.TrimSpace(in.DueDate),
		Projects: []string{},
		Contexts: []string{},
	}
	if s.schema == todo.SchemaTagged {
		item.Priority = in.Priority
		item.Projects = nonNil(in.Projects)
		item.Contexts = nonNil(in.Contexts)
		item.CreatedDate = s.today()
	} else if in.Priority != "" || len(in.Projects) > 0 || len(in.Contexts) > 0 {
		return todo.Item{}, fmt.Errorf("priority and tags: %w", ErrWrongSchema)
	}

	var created todo.Item
	_, err := s.mutateTodos("create", func(items []todo.Item) ([]todo.Item, error) {
		if err := item.Validate(s.schema); err != nil {
			return nil, fmt.Errorf("invalid todo: %w", err)
		}
		items = append(items, item)
		item.ID = len(items)
		created = item
		return items, nil
	})
	if err != nil {
		return todo.Item{}, err
	}
	return created, nil
}

// UpdateTodo replaces the title of a task.
func (s *Service) UpdateTodo(id int, title string) (todo.Item, error) {
	return s.editTodo("update", id, func(it *todo.Item) error {
		it.Title = strings.Join(strings.Fields(title), " ")
		return nil
	})
}

// ToggleTodo flips the completion state of a task.
func (s *Service) ToggleTodo(id int) (todo.Item, error) {
	return s.editTodo("toggle", id, func(it *todo.Item) error {
		it.Completed = !it.Completed
		return nil
	})
}

// SetDueDate sets or, with an empty due, clears the due date of a task.
func (s *Service) SetDueDate(id int, due string) (todo.Item, error) {
	return s.editTodo("due", id, func(it *todo.Item) error {
		it.DueDate = strings.TrimSpace(due)
		return nil
	})
}

// SetTodoMetadata replaces the priority and tags of a task. Only the tagged
// schema stores them.
func (s *Service) SetTodoMetadata(id int, m MetadataUpdate) (todo.Item, error) {
	if s.schema != todo.SchemaTagged {
		return todo.Item{}, fmt.Errorf("priority and tags: %w", ErrWrongSchema)
	}
	return s.editTodo("metadata", id, func(it *todo.Item) error {
		it.Priority = m.Priority
		it.Projects = nonNil(m.Projects)
		it.Contexts = nonNil(m.Contexts)
		return nil
	})
}

// DeleteTodo removes a task. Later tasks move up one id.
func (s *Service) DeleteTodo(id int) error {
	_, err := s.mutateTodos("delete", func(items []todo.Item) ([]todo.Item, error) {
		idx := index(items, id)
		if idx < 0 {
			return nil, fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
	return err
}

// ReorderTodo moves the task at position from to position to (both zero
// based). Moving a task onto itself writes nothing.
func (s *Service) ReorderTodo(from, to int) ([]todo.Item, error) {
	items, err := s.LoadTodos()
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("reorder %d to %d: index out of range (have %d todos)", from, to, len(items))
	}
	if from == to {
		return items, nil
	}
	return s.mutateTodos("reorder", func(items []todo.Item) ([]todo.Item, error) {
		moved := items[from]
		items = append(items[:from], items[from+1:]...)
		items = append(items[:to], append([]todo.Item{moved}, items[to:]...)...)
		return items, nil
	})
}

// BulkUpdateDueDates applies several due date changes in one write. Unknown
// ids are ignored.
func (s *Service) BulkUpdateDueDates(updates []DueUpdate) ([]todo.Item, error) {
	return s.mutateTodos("bulk due", func(items []todo.Item) ([]todo.Item, error) {
		for _, u := range updates {
			idx := index(items, u.ID)
			if idx < 0 {
				continue
			}
			items[idx].DueDate = strings.TrimSpace(u.DueDate)
			if err := items[idx].Validate(s.schema); err != nil {
				return nil, fmt.Errorf("todo %d: %w", u.ID, err)
			}
		}
		return items, nil
	})
}

// AddSubtask appends a subtask to a task.
func (s *Service) AddSubtask(id int, title string) (todo.Item, error) {
	if s.schema != todo.SchemaSubtasks {
		return todo.Item{}, fmt.Errorf("subtasks: %w", ErrWrongSchema)
	}
	return s.editTodo("add subtask", id, func(it *todo.Item) error {
		it.Subtasks = append(it.Subtasks, todo.Subtask{Title: strings.Join(strings.Fields(title), " ")})
		return nil
	})
}

// ToggleSubtask flips the completion state of a subtask (zero based index).
func (s *Service) ToggleSubtask(id, sub int) (todo.Item, error) {
	if s.schema != todo.SchemaSubtasks {
		return todo.Item{}, fmt.Errorf("subtasks: %w", ErrWrongSchema)
	}
	return s.editTodo("toggle subtask", id, func(it *todo.Item) error {
		if sub < 0 || sub >= len(it.Subtasks) {
			return fmt.Errorf("subtask %d of todo %d: %w", sub, id, ErrNotFound)
		}
		it.Subtasks[sub].Completed = !it.Subtasks[sub].Completed
		return nil
	})
}

// DeleteSubtask removes a subtask (zero based index).
func (s *Service) DeleteSubtask(id, sub int) (todo.Item, error) {
	if s.schema != todo.SchemaSubtasks {
		return todo.Item{}, fmt.Errorf("subtasks: %w", ErrWrongSchema)
	}
	return s.editTodo("delete subtask", id, func(it *todo.Item) error {
		if sub < 0 || sub >= len(it.Subtasks) {
			return fmt.Errorf("subtask %d of todo %d: %w", sub, id, ErrNotFound)
		}
		it.Subtasks = append(it.Subtasks[:sub], it.Subtasks[sub+1:]...)
		return nil
	})
}

// ListProjects returns the distinct project tags, sorted.
func (s *Service) ListProjects() ([]string, error) {
	return s.collect(func(it todo.Item) []string { return it.Projects })
}

// ListContexts returns the distinct context tags, sorted.
func (s *Service) ListContexts() ([]string, error) {
	return s.collect(func(it todo.Item) []string { return it.Contexts })
}

// ListPriorities returns the distinct priorities in use, sorted.
func (s *Service) ListPriorities() ([]string, error) {
	return s.collect(func(it todo.Item) []string {
		if it.Priority == "" {
			return nil
		}
		return []string{it.Priority}
	})
}

// TodoMetadata returns the stored archive metadata.
func (s *Service) TodoMetadata() (archive.Metadata, error) {
	return s.archive.Metadata()
}

// TodoStats returns completion stats with the streak evaluated for today.
func (s *Service) TodoStats() (archive.Stats, error) {
	return s.archive.Stats()
}

// SetDailyLimit stores a new daily completion target.
func (s *Service) SetDailyLimit(limit int) error {
	return s.archive.SetDailyLimit(limit)
}

// ArchiveCompleted moves completed tasks into this month's archive and
// returns how many were moved.
func (s *Service) ArchiveCompleted() (int, error) {
	n, err := s.archive.ArchiveCompleted()
	if err != nil {
		var partial *archive.PartialArchiveError
		if errors.As(err, &partial) {
			s.emitter.Emit(events.TodosChanged, nil)
		}
		return n, err
	}
	if n > 0 {
		s.logger.Info("archived todos", "count", n)
		s.emitter.Emit(events.TodosChanged, nil)
	}
	return n, nil
}

// LoadArchived returns the archived tasks of month ("YYYY-MM").
func (s *Service) LoadArchived(month string) ([]archive.ArchivedTodo, error) {
	return s.archive.LoadArchived(month)
}

// ListArchiveMonths returns the months that have an archive file.
func (s *Service) ListArchiveMonths() ([]string, error) {
	return s.archive.ListArchiveMonths()
}

// editTodo applies fn to one task, validates the result and saves.
func (s *Service) editTodo(op string, id int, fn func(*todo.Item) error) (todo.Item, error) {
	var edited todo.Item
	_, err := s.mutateTodos(op, func(items []todo.Item) ([]todo.Item, error) {
		idx := index(items, id)
		if idx < 0 {
			return nil, fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		it := items[idx].Clone()
		if err := fn(&it); err != nil {
			return nil, err
		}
		if err := it.Validate(s.schema); err != nil {
			return nil, fmt.Errorf("invalid todo: %w", err)
		}
		items[idx] = it
		edited = it
		return items, nil
	})
	return edited, err
}

// mutateTodos loads the list, applies fn, renumbers, writes the file and
// publishes todos_changed. Nothing is written when fn fails.
func (s *Service) mutateTodos(op string, fn func([]todo.Item) ([]todo.Item, error)) ([]todo.Item, error) {
	items, err := s.LoadTodos()
	if err != nil {
		return nil, err
	}
	items, err = fn(items)
	if err != nil {
		return nil, err
	}
	todo.Renumber(items)
	if err := todo.Save(s.todoPath(), items, s.schema); err != nil {
		return nil, err
	}
	s.logger.Debug("todos written", "op", op, "count", len(items))
	s.emitter.Emit(events.TodosChanged, nil)
	return items, nil
}

func (s *Service) collect(field func(todo.Item) []string) ([]string, error) {
	items, err := s.LoadTodos()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		for _, v := range field(it) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) todoPath() string {
	return vaultdir.TodoPath(s.root)
}

func index(items []todo.Item, id int) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func nonNil(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return append([]string(nil), s...)
}
