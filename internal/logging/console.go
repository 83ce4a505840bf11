package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/bouldy-go/internal/events"
)

// ConsoleOptions holds configuration for console logging.
type ConsoleOptions struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultConsoleOptions returns default options for console logging.
func DefaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "bouldy",
	}
}

// NewConsole returns a leveled console logger writing to w (stderr when nil).
func NewConsole(w io.Writer, opts ConsoleOptions) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// NewConsoleFromConfig builds a console logger from string configuration
// values as found in TOML or the environment.
func NewConsoleFromConfig(w io.Writer, level, format string, timestamps, caller bool) *log.Logger {
	return NewConsole(w, ConsoleOptions{
		Level:           ParseLogLevel(level),
		Formatter:       ParseLogFormatter(format),
		ReportTimestamp: timestamps,
		ReportCaller:    caller,
		Prefix:          "bouldy",
	})
}

// ParseLogLevel parses a string log level to a charmbracelet/log Level.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogFormatter parses a string formatter name to a charmbracelet/log Formatter.
func ParseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// EventPrinter returns a bus handler that logs each event on logger.
// Watcher events are logged at info, command events at debug.
func EventPrinter(logger *log.Logger) events.Handler {
	return func(ev events.Event) {
		fields := []any{"event", ev.Name}
		if ev.Batch != "" {
			fields = append(fields, "batch", shortID(ev.Batch))
		}
		switch p := ev.Payload.(type) {
		case events.NoteInfo:
			fields = append(fields, "path", p.Path)
		case events.NoteList:
			fields = append(fields, "notes", len(p.Notes))
		case events.PromptRef:
			fields = append(fields, "prompt", p.ID)
		}
		if ev.Source == events.SourceWatcher {
			logger.Info(describe(ev.Name), fields...)
			return
		}
		logger.Debug(describe(ev.Name), fields...)
	}
}

func describe(name string) string {
	switch name {
	case events.NoteCreated:
		return "note created"
	case events.NoteUpdated:
		return "note updated"
	case events.NoteDeleted:
		return "note deleted"
	case events.NoteListUpdated:
		return "note list updated"
	case events.NoteSaved:
		return "note saved"
	case events.TodosChanged:
		return "todos changed"
	case events.PromptSaved:
		return "prompt saved"
	case events.PromptDeleted:
		return "prompt deleted"
	}
	return name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
