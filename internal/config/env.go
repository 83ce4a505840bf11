package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from BOULDY_* environment variables.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	setString := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			sources[field] = SourceEnv
		}
	}
	setInt := func(env, field string, target *int) error {
		v := os.Getenv(env)
		if v == "" {
			return nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", env, v)
		}
		*target = i
		sources[field] = SourceEnv
		return nil
	}
	setBool := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			sources[field] = SourceEnv
		}
	}

	setString("BOULDY_VAULT", "vault", &cfg.Vault)
	setString("BOULDY_TODO_SCHEMA", "todo_schema", &cfg.TodoSchema)
	setString("BOULDY_NOTE_EXTENSION", "note_extension", &cfg.NoteExtension)
	if err := setInt("BOULDY_DEBOUNCE_MS", "debounce_ms", &cfg.DebounceMS); err != nil {
		return err
	}
	if err := setInt("BOULDY_DAILY_LIMIT", "daily_limit", &cfg.DailyLimit); err != nil {
		return err
	}
	setBool("BOULDY_LEGACY_CALENDAR", "legacy_calendar", &cfg.LegacyCalendar)

	// Logging configuration
	setString("BOULDY_LOG_DIR", "log_dir", &cfg.LogDir)
	setString("BOULDY_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("BOULDY_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("BOULDY_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("BOULDY_LOG_CALLER", "log_caller", &cfg.LogCaller)
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
