package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	Files   []string // config files that were read, lowest priority first
}

// Default values.
const (
	DefaultVault         = "."
	DefaultTodoSchema    = "tagged"
	DefaultNoteExtension = "md"
	DefaultDebounceMS    = 500
	DefaultDailyLimit    = 5
	DefaultLogDir        = "~/.bouldy/logs"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds the full configuration for bouldy.
type Config struct {
	// Vault root directory
	Vault string `toml:"vault"`

	// Todo file layout: "tagged" or "subtasks"
	TodoSchema string `toml:"todo_schema"`

	// Extension of note files, without the dot
	NoteExtension string `toml:"note_extension"`

	// Watcher batching window in milliseconds
	DebounceMS int `toml:"debounce_ms"`

	// Daily completion target used before a metadata file exists
	DailyLimit int `toml:"daily_limit"`

	// Walk streak days with 30-day months, for stats written by old clients
	LegacyCalendar bool `toml:"legacy_calendar"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Working directory (computed)
	WorkDir string `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"vault",
		"todo_schema",
		"note_extension",
		"debounce_ms",
		"daily_limit",
		"legacy_calendar",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}
