package config

import "flag"

// flagFields maps flag names to the config fields they set.
var flagFields = map[string]string{
	"vault":           "vault",
	"todo-schema":     "todo_schema",
	"note-ext":        "note_extension",
	"debounce-ms":     "debounce_ms",
	"daily-limit":     "daily_limit",
	"legacy-calendar": "legacy_calendar",
	"log-dir":         "log_dir",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"log-timestamps":  "log_timestamps",
	"log-caller":      "log_caller",
}

// parseFlags defines the global flags on fs, parses args and marks the
// fields of explicitly set flags.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("bouldy", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.Vault, "vault", cfg.Vault, "Vault directory")
	fs.StringVar(&cfg.TodoSchema, "todo-schema", cfg.TodoSchema, "Todo file schema (tagged, subtasks)")
	fs.StringVar(&cfg.NoteExtension, "note-ext", cfg.NoteExtension, "Note file extension")
	fs.IntVar(&cfg.DebounceMS, "debounce-ms", cfg.DebounceMS, "Watcher debounce window in milliseconds")
	fs.IntVar(&cfg.DailyLimit, "daily-limit", cfg.DailyLimit, "Daily completion target for new vaults")
	fs.BoolVar(&cfg.LegacyCalendar, "legacy-calendar", cfg.LegacyCalendar, "Use 30-day months when walking streak days")

	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}
