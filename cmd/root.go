// Package cmd implements the CLI command structure for bouldy.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/bouldy-go/internal/app"
	"github.com/nibzard/bouldy-go/internal/config"
	"github.com/nibzard/bouldy-go/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

// env is what every command handler gets.
type env struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	out     io.Writer
	errOut  io.Writer
	in      io.Reader
	logger  *log.Logger
}

// Run executes the bouldy CLI on the process streams.
func Run(ctx context.Context, args []string) error {
	return RunIO(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// RunIO executes the bouldy CLI with explicit streams.
func RunIO(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("bouldy", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		printUsage(fs, errOut)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, out)
		return nil
	}
	if *showVersion {
		return versionCommand(out)
	}

	e := &env{
		cfg:     cfg,
		sources: cws,
		out:     out,
		errOut:  errOut,
		in:      in,
		logger:  logging.NewConsoleFromConfig(errOut, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller),
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		printUsage(fs, out)
		return nil
	}
	subcommand, rest := remaining[0], remaining[1:]

	switch subcommand {
	case "todo", "todos":
		return todoCommand(e, rest)
	case "notes", "note":
		return notesCommand(e, rest)
	case "prompts", "prompt":
		return promptsCommand(e, rest)
	case "pomodoros":
		return pomodorosCommand(e, rest)
	case "watch":
		return watchCommand(ctx, e, rest)
	case "tail":
		return tailCommand(ctx, e, rest)
	case "migrate-vault":
		return migrateVaultCommand(e, rest)
	case "doctor":
		return doctorCommand(e, rest)
	case "config":
		return configCommand(e, rest)
	case "version":
		return versionCommand(out)
	case "help":
		printUsage(fs, out)
		return nil
	default:
		fmt.Fprintf(errOut, "Unknown command: %s\n", subcommand)
		printUsage(fs, errOut)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newApp builds the App for the configured vault. Every event is echoed
// to the console logger.
func (e *env) newApp() *app.App {
	a := e.buildApp()
	a.Bus().Subscribe(logging.EventPrinter(e.logger))
	return a
}

func (e *env) buildApp() *app.App {
	return app.New(e.cfg.Vault, app.Options{
		Schema:     e.cfg.Schema(),
		Extension:  e.cfg.NoteExtension,
		Calendar:   e.cfg.Calendar(),
		DailyLimit: e.cfg.DailyLimit,
		Debounce:   e.cfg.Debounce(),
		Logger:     e.logger,
	})
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

func (e *env) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(e.out, string(data))
	return err
}

// newFlagSet returns a flag set for a subcommand that reports to errOut.
func (e *env) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("bouldy "+name, flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	return fs
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "bouldy version %s\n", Version)
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: bouldy %s", usage)
	}
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Bouldy - todo.txt, notes and prompts in a plain folder")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bouldy [global options] <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  todo ls [-open|-done] [-json]          List todos")
	fmt.Fprintln(w, "  todo add [-due D] [-pri P] [-project a,b] [-context a,b] <title>")
	fmt.Fprintln(w, "  todo done <id>                         Toggle completion")
	fmt.Fprintln(w, "  todo rm <id>                           Delete a todo")
	fmt.Fprintln(w, "  todo edit <id> <title>                 Replace a title")
	fmt.Fprintln(w, "  todo due <id> [date]                   Set or clear a due date")
	fmt.Fprintln(w, "  todo meta <id> [-pri P] [-project a,b] [-context a,b]")
	fmt.Fprintln(w, "  todo mv <from> <to>                    Move a todo to another position")
	fmt.Fprintln(w, "  todo sub add|done|rm <id> <title|n>    Edit subtasks (subtasks schema)")
	fmt.Fprintln(w, "  todo archive                           Archive completed todos")
	fmt.Fprintln(w, "  todo stats [-json]                     Completion stats and streak")
	fmt.Fprintln(w, "  todo archives <YYYY-MM>                Show an archive month")
	fmt.Fprintln(w, "  todo months                            List archive months")
	fmt.Fprintln(w, "  todo projects|contexts|priorities      List tags in use")
	fmt.Fprintln(w, "  todo limit [n]                         Show or set the daily limit")
	fmt.Fprintln(w, "  todo migrate -to <schema> [-from <schema>]")
	fmt.Fprintln(w, "  notes ls|show|rm|import                Work with notes")
	fmt.Fprintln(w, "  prompts ls|show|use|rm                 Work with prompts")
	fmt.Fprintln(w, "  pomodoros [show|set]                   Read or replace the pomodoro log")
	fmt.Fprintln(w, "  watch [-ui tui] [-no-log]              Watch the vault and print events")
	fmt.Fprintln(w, "  tail [-f] [-n N] [-runs]               Show the latest watch log")
	fmt.Fprintln(w, "  migrate-vault                          Move root notes into notes/")
	fmt.Fprintln(w, "  doctor                                 Check config and vault")
	fmt.Fprintln(w, "  config example                         Print an example config file")
	fmt.Fprintln(w, "  version                                Show version information")
	fmt.Fprintln(w, "  help                                   Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
