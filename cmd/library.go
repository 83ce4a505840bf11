package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nibzard/bouldy-go/internal/utils"
	"github.com/nibzard/bouldy-go/internal/vault"
)

func notesCommand(e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}
	a := e.newApp()
	defer a.Close()
	svc := a.Vault()

	sub, rest := args[0], args[1:]
	switch sub {
	case "ls", "list":
		fs := e.newFlagSet("notes ls")
		asJSON := fs.Bool("json", false, "Print JSON")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		list, err := svc.ListNotes()
		if err != nil {
			return err
		}
		if *asJSON {
			return e.printJSON(list)
		}
		for _, n := range list {
			mark := ""
			if n.IsSymlink {
				mark = " (link)"
			}
			e.printf("%s  %s%s\n", time.Unix(n.Modified, 0).Format("2006-01-02 15:04"), n.Name, mark)
		}
		return nil
	case "show":
		if err := needArgs(rest, 1, "notes show <path>"); err != nil {
			return err
		}
		nc, err := svc.ReadNote(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, nc.Content)
		return nil
	case "write":
		fs := e.newFlagSet("notes write")
		title := fs.String("title", "", "Rename the note to this title")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := needArgs(fs.Args(), 1, "notes write [-title T] <path> < content"); err != nil {
			return err
		}
		content, err := io.ReadAll(e.in)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		n, err := svc.WriteNote(fs.Arg(0), string(content), *title)
		if err != nil {
			return err
		}
		e.printf("Saved %s\n", n.Path)
		return nil
	case "rm", "delete":
		if err := needArgs(rest, 1, "notes rm <path>"); err != nil {
			return err
		}
		if err := svc.DeleteNote(rest[0]); err != nil {
			return err
		}
		e.printf("Deleted %s\n", rest[0])
		return nil
	case "import":
		fs := e.newFlagSet("notes import")
		symlink := fs.Bool("symlink", false, "Link instead of copying")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := needArgs(fs.Args(), 1, "notes import [-symlink] <file>"); err != nil {
			return err
		}
		mode := vault.ImportCopy
		if *symlink {
			mode = vault.ImportSymlink
		}
		dest, err := svc.ImportNote(fs.Arg(0), mode)
		if err != nil {
			return err
		}
		e.printf("Imported %s\n", dest)
		return nil
	default:
		return fmt.Errorf("unknown notes command: %s", sub)
	}
}

func promptsCommand(e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}
	a := e.newApp()
	defer a.Close()
	svc := a.Vault()

	sub, rest := args[0], args[1:]
	switch sub {
	case "ls", "list":
		fs := e.newFlagSet("prompts ls")
		asJSON := fs.Bool("json", false, "Print JSON")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		list, err := svc.ListPrompts()
		if err != nil {
			return err
		}
		if *asJSON {
			return e.printJSON(list)
		}
		for _, p := range list {
			e.printf("%-24s %-32s used %d\n", p.ID, p.Title, p.UseCount)
		}
		return nil
	case "show":
		if err := needArgs(rest, 1, "prompts show <id>"); err != nil {
			return err
		}
		p, err := svc.ReadPrompt(rest[0])
		if err != nil {
			return err
		}
		e.printf("# %s\n\n%s\n", p.Title, p.Content)
		return nil
	case "use":
		if err := needArgs(rest, 1, "prompts use <id>"); err != nil {
			return err
		}
		p, err := svc.ReadPrompt(rest[0])
		if err != nil {
			return err
		}
		if _, err := svc.TrackPromptUsage(rest[0]); err != nil {
			return err
		}
		e.printf("%s\n", p.Content)
		return nil
	case "add", "write":
		fs := e.newFlagSet("prompts add")
		title := fs.String("title", "", "Prompt title")
		tags := fs.String("tags", "", "Comma-separated tags")
		category := fs.String("category", "", "Category")
		vars := fs.String("vars", "", "Comma-separated variable names")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := needArgs(fs.Args(), 1, "prompts add [options] <id> < content"); err != nil {
			return err
		}
		content, err := io.ReadAll(e.in)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		p, err := svc.WritePrompt(fs.Arg(0), vault.PromptInput{
			Title:     *title,
			Content:   strings.TrimRight(string(content), "\n"),
			Tags:      utils.TagList(*tags, '#'),
			Category:  *category,
			Variables: utils.TagList(*vars, 0),
		})
		if err != nil {
			return err
		}
		e.printf("Saved %s\n", p.Path)
		return nil
	case "rm", "delete":
		if err := needArgs(rest, 1, "prompts rm <id>"); err != nil {
			return err
		}
		if err := svc.DeletePrompt(rest[0]); err != nil {
			return err
		}
		e.printf("Deleted prompt %s\n", rest[0])
		return nil
	default:
		return fmt.Errorf("unknown prompts command: %s", sub)
	}
}

func pomodorosCommand(e *env, args []string) error {
	a := e.newApp()
	defer a.Close()
	svc := a.Vault()

	if len(args) == 0 || args[0] == "show" {
		text, err := svc.ReadPomodoros()
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, text)
		return nil
	}
	if args[0] != "set" {
		return fmt.Errorf("unknown pomodoros command: %s", args[0])
	}
	content, err := io.ReadAll(e.in)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	return svc.WritePomodoros(string(content))
}
