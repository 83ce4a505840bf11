package cmd

import (
	"fmt"

	"github.com/nibzard/bouldy-go/internal/config"
)

// migrateVaultCommand moves notes at the vault root into notes/.
func migrateVaultCommand(e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	a := e.newApp()
	defer a.Close()
	moved, err := a.Vault().MigrateStructure()
	if err != nil {
		return err
	}
	if len(moved) == 0 {
		e.printf("Nothing to migrate.\n")
		return nil
	}
	for _, m := range moved {
		e.printf("Moved %s\n", m)
	}
	return nil
}

// doctorCommand reports the effective configuration and checks the vault.
func doctorCommand(e *env, args []string) error {
	fs := e.newFlagSet("doctor")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	e.printf("Bouldy Doctor\n")
	e.printf("=============\n\n")

	e.printf("Config:\n")
	if len(e.sources.Files) == 0 {
		e.printf("  ✅ Files: none (defaults)\n")
	}
	for _, f := range e.sources.Files {
		e.printf("  ✅ File: %s\n", f)
	}
	if *verbose {
		for _, field := range configFieldValues(e.cfg) {
			e.printf("     %-16s %-24v (%s)\n", field.name, field.value, e.sources.Sources[field.name])
		}
	}
	e.printf("\n")

	a := e.newApp()
	defer a.Close()
	report, err := a.Vault().Check()
	e.printf("Vault: %s\n", e.cfg.Vault)
	if err != nil {
		e.printf("  ❌ Error: %v\n", err)
		return fmt.Errorf("doctor found problems")
	}

	allOK := true
	if report.NotesDir {
		e.printf("  ✅ notes/ directory\n")
	} else {
		e.printf("  ❌ notes/ directory missing (run 'bouldy migrate-vault')\n")
		allOK = false
	}
	if report.PromptsDir {
		e.printf("  ✅ prompts/ directory\n")
	} else {
		e.printf("  ✅ prompts/ directory (created on first use)\n")
	}
	e.printf("  ✅ Todo schema: %s\n", e.cfg.Schema())
	if len(report.SkippedLines) == 0 {
		e.printf("  ✅ Todos: %d (%d completed)\n", report.Todos, report.Completed)
	} else {
		e.printf("  ❌ Todos: %d parsed, %d line(s) skipped\n", report.Todos, len(report.SkippedLines))
		for _, le := range report.SkippedLines {
			e.printf("     line %d: %v: %q\n", le.Line, le.Err, le.Text)
		}
		allOK = false
	}
	if report.MetadataError == nil {
		e.printf("  ✅ Todo metadata\n")
	} else {
		e.printf("  ❌ Todo metadata: %v\n", report.MetadataError)
		allOK = false
	}
	e.printf("\n")

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	e.printf("All checks passed.\n")
	return nil
}

type fieldValue struct {
	name  string
	value any
}

func configFieldValues(c *config.Config) []fieldValue {
	return []fieldValue{
		{"vault", c.Vault},
		{"todo_schema", c.TodoSchema},
		{"note_extension", c.NoteExtension},
		{"debounce_ms", c.DebounceMS},
		{"daily_limit", c.DailyLimit},
		{"legacy_calendar", c.LegacyCalendar},
		{"log_dir", c.LogDir},
		{"log_level", c.LogLevel},
		{"log_format", c.LogFormat},
		{"log_timestamps", c.LogTimestamps},
		{"log_caller", c.LogCaller},
	}
}

// configCommand handles config subcommands.
func configCommand(e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bouldy config example")
	}
	switch args[0] {
	case "example":
		e.printf("%s", config.ExampleConfig())
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}
