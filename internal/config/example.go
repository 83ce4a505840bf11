package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Bouldy configuration file
# Values can be overridden by BOULDY_* environment variables or CLI flags

# Vault directory (relative to the working directory, ~ is expanded)
vault = "."

# Todo file layout: "tagged" (priority, dates, +project, @context)
# or "subtasks" (indented "  - " child lines)
todo_schema = "tagged"

# Extension of note files
note_extension = "md"

# Watcher batching window (milliseconds)
debounce_ms = 500

# Daily completion target used until the vault has a metadata file
daily_limit = 5

# Walk streak days with 30-day months (only for stats written by old clients)
legacy_calendar = false

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.bouldy/logs"

# Console logging
log_level = "info"    # debug, info, warn, error
log_format = "text"   # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
