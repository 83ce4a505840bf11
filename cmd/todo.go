package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vault"
)

func todoCommand(e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}
	a := e.newApp()
	defer a.Close()
	svc := a.Vault()

	sub, rest := args[0], args[1:]
	switch sub {
	case "ls", "list":
		return todoList(e, svc, rest)
	case "add":
		return todoAdd(e, svc, rest)
	case "done", "toggle":
		return withID(rest, "todo done <id>", func(id int) error {
			it, err := svc.ToggleTodo(id)
			if err != nil {
				return err
			}
			e.printf("%s\n", formatItem(it))
			return nil
		})
	case "rm", "delete":
		return withID(rest, "todo rm <id>", func(id int) error {
			if err := svc.DeleteTodo(id); err != nil {
				return err
			}
			e.printf("Deleted todo %d\n", id)
			return nil
		})
	case "edit":
		if err := needArgs(rest, 2, "todo edit <id> <title>"); err != nil {
			return err
		}
		return withID(rest, "todo edit <id> <title>", func(id int) error {
			it, err := svc.UpdateTodo(id, strings.Join(rest[1:], " "))
			if err != nil {
				return err
			}
			e.printf("%s\n", formatItem(it))
			return nil
		})
	case "due":
		return withID(rest, "todo due <id> [YYYY-MM-DD]", func(id int) error {
			due := ""
			if len(rest) > 1 {
				due = rest[1]
			}
			it, err := svc.SetDueDate(id, due)
			if err != nil {
				return err
			}
			e.printf("%s\n", formatItem(it))
			return nil
		})
	case "meta":
		return todoMeta(e, svc, rest)
	case "mv", "move":
		return todoMove(e, svc, rest)
	case "sub":
		return todoSubtask(e, svc, rest)
	case "archive":
		n, err := svc.ArchiveCompleted()
		if err != nil {
			return err
		}
		e.printf("Archived %d completed todo(s)\n", n)
		return nil
	case "stats":
		return todoStats(e, svc, rest)
	case "archives":
		if err := needArgs(rest, 1, "todo archives <YYYY-MM>"); err != nil {
			return err
		}
		list, err := svc.LoadArchived(rest[0])
		if err != nil {
			return err
		}
		for _, at := range list {
			e.printf("%s  %s\n", at.CompletedDate, at.Title)
			for _, st := range at.Subtasks {
				e.printf("              %s\n", formatSubtask(st))
			}
		}
		return nil
	case "months":
		months, err := svc.ListArchiveMonths()
		if err != nil {
			return err
		}
		printLines(e, months)
		return nil
	case "projects":
		return printList(e, svc.ListProjects)
	case "contexts":
		return printList(e, svc.ListContexts)
	case "priorities":
		return printList(e, svc.ListPriorities)
	case "limit":
		return todoLimit(e, svc, rest)
	case "migrate":
		return todoMigrate(e, svc, rest)
	default:
		return fmt.Errorf("unknown todo command: %s", sub)
	}
}

func withID(args []string, usage string, fn func(int) error) error {
	if err := needArgs(args, 1, usage); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return fn(id)
}

func todoList(e *env, svc *vault.Service, args []string) error {
	fs := e.newFlagSet("todo ls")
	open := fs.Bool("open", false, "Only open todos")
	done := fs.Bool("done", false, "Only completed todos")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *open && *done {
		return fmt.Errorf("-open and -done are mutually exclusive")
	}
	items, err := svc.LoadTodos()
	if err != nil {
		return err
	}
	filtered := make([]todo.Item, 0, len(items))
	for _, it := range items {
		if (*open && it.Completed) || (*done && !it.Completed) {
			continue
		}
		filtered = append(filtered, it)
	}
	if *asJSON {
		return e.printJSON(filtered)
	}
	if len(filtered) == 0 {
		e.printf("No todos.\n")
		return nil
	}
	for _, it := range filtered {
		e.printf("%s\n", formatItem(it))
		for _, st := range it.Subtasks {
			e.printf("     %s\n", formatSubtask(st))
		}
	}
	return nil
}

func todoAdd(e *env, svc *vault.Service, args []string) error {
	fs := e.newFlagSet("todo add")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	pri := fs.String("pri", "", "Priority (A-Z)")
	projects := fs.String("project", "", "Comma-separated projects")
	contexts := fs.String("context", "", "Comma-separated contexts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("usage: bouldy todo add [options] <title>")
	}
	it, err := svc.CreateTodo(vault.NewTodo{
		Title:    title,
		DueDate:  *due,
		Priority: strings.ToUpper(*pri),
		Projects: utils.TagList(*projects, '+'),
		Contexts: utils.TagList(*contexts, '@'),
	})
	if err != nil {
		return err
	}
	e.printf("Added %s\n", formatItem(it))
	return nil
}

func todoMeta(e *env, svc *vault.Service, args []string) error {
	if err := needArgs(args, 1, "todo meta <id> [-pri P] [-project a,b] [-context a,b]"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := e.newFlagSet("todo meta")
	pri := fs.String("pri", "", "Priority (A-Z), empty clears")
	projects := fs.String("project", "", "Comma-separated projects")
	contexts := fs.String("context", "", "Comma-separated contexts")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	it, err := svc.SetTodoMetadata(id, vault.MetadataUpdate{
		Priority: strings.ToUpper(*pri),
		Projects: utils.TagList(*projects, '+'),
		Contexts: utils.TagList(*contexts, '@'),
	})
	if err != nil {
		return err
	}
	e.printf("%s\n", formatItem(it))
	return nil
}

// todoMove takes 1-based positions, matching the ids shown by ls.
func todoMove(e *env, svc *vault.Service, args []string) error {
	if err := needArgs(args, 2, "todo mv <from> <to>"); err != nil {
		return err
	}
	from, err := parseID(args[0])
	if err != nil {
		return err
	}
	to, err := parseID(args[1])
	if err != nil {
		return err
	}
	items, err := svc.ReorderTodo(from-1, to-1)
	if err != nil {
		return err
	}
	for _, it := range items {
		e.printf("%s\n", formatItem(it))
	}
	return nil
}

func todoSubtask(e *env, svc *vault.Service, args []string) error {
	const usage = "todo sub add|done|rm <id> <title|n>"
	if err := needArgs(args, 3, usage); err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	var it todo.Item
	switch args[0] {
	case "add":
		it, err = svc.AddSubtask(id, strings.Join(args[2:], " "))
	case "done", "rm":
		n, perr := parseID(args[2])
		if perr != nil {
			return perr
		}
		if args[0] == "done" {
			it, err = svc.ToggleSubtask(id, n-1)
		} else {
			it, err = svc.DeleteSubtask(id, n-1)
		}
	default:
		return fmt.Errorf("usage: bouldy %s", usage)
	}
	if err != nil {
		return err
	}
	e.printf("%s\n", formatItem(it))
	for _, st := range it.Subtasks {
		e.printf("     %s\n", formatSubtask(st))
	}
	return nil
}

func todoStats(e *env, svc *vault.Service, args []string) error {
	fs := e.newFlagSet("todo stats")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	meta, err := svc.TodoMetadata()
	if err != nil {
		return err
	}
	if *asJSON {
		return e.printJSON(meta)
	}
	st := meta.Stats
	e.printf("Daily limit:     %d\n", meta.DailyLimit)
	e.printf("Total completed: %d\n", st.TotalCompleted)
	e.printf("Current streak:  %d\n", st.CurrentStreak)
	e.printf("Longest streak:  %d\n", st.LongestStreak)
	return nil
}

func todoLimit(e *env, svc *vault.Service, args []string) error {
	if len(args) == 0 {
		meta, err := svc.TodoMetadata()
		if err != nil {
			return err
		}
		e.printf("%d\n", meta.DailyLimit)
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid limit %q", args[0])
	}
	if err := svc.SetDailyLimit(n); err != nil {
		return err
	}
	e.printf("Daily limit set to %d\n", n)
	return nil
}

func todoMigrate(e *env, svc *vault.Service, args []string) error {
	fs := e.newFlagSet("todo migrate")
	fromName := fs.String("from", svc.Schema().String(), "Schema the file is written in")
	toName := fs.String("to", "", "Schema to convert to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *toName == "" {
		return fmt.Errorf("usage: bouldy todo migrate -to <schema> [-from <schema>]")
	}
	from, err := todo.ParseSchema(*fromName)
	if err != nil {
		return err
	}
	to, err := todo.ParseSchema(*toName)
	if err != nil {
		return err
	}
	report, err := svc.MigrateSchema(from, to)
	if err != nil {
		return err
	}
	e.printf("Migrated %d todo(s) from %s to %s", report.Items, report.From, report.To)
	if report.Flattened > 0 {
		e.printf(", %d subtask(s) flattened", report.Flattened)
	}
	if report.Retagged > 0 {
		e.printf(", %d todo(s) got tags from their titles", report.Retagged)
	}
	if report.Stripped > 0 {
		e.printf(", %d todo(s) lost tags", report.Stripped)
	}
	e.printf("\n")
	if to != e.cfg.Schema() {
		e.printf("Set todo_schema = %q in your config to read the new file.\n", to.String())
	}
	return nil
}

func printList(e *env, fn func() ([]string, error)) error {
	list, err := fn()
	if err != nil {
		return err
	}
	printLines(e, list)
	return nil
}

func printLines(e *env, lines []string) {
	for _, l := range lines {
		e.printf("%s\n", l)
	}
}

func formatItem(it todo.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d ", it.ID)
	if it.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	if it.Priority != "" {
		fmt.Fprintf(&b, "(%s) ", it.Priority)
	}
	b.WriteString(it.Title)
	for _, p := range it.Projects {
		b.WriteString(" +" + p)
	}
	for _, c := range it.Contexts {
		b.WriteString(" @" + c)
	}
	if it.DueDate != "" {
		b.WriteString(" due:" + it.DueDate)
	}
	return b.String()
}

func formatSubtask(st todo.Subtask) string {
	if st.Completed {
		return "[x] " + st.Title
	}
	return "[ ] " + st.Title
}
