package config

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/bouldy-go/internal/todo"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.bouldy/bouldy.toml or OS-specific config dir)
// 3. Project config file (bouldy.toml or .bouldy.toml in the working directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return loadFrom(wd, findUserConfigFile(), fs, args)
}

func loadFrom(workDir, userConfigFile string, fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cfg := &Config{WorkDir: workDir}
	cws := &ConfigWithSources{Config: cfg, Sources: make(map[string]ConfigSource)}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		cws.Sources[field] = SourceDefault
	}

	// 2. User config file
	if userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, cws.Sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		cws.Files = append(cws.Files, userConfigFile)
	}

	// 3. Project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(workDir); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, cws.Sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		cws.Files = append(cws.Files, projectConfigFile)
	}

	// 4. Environment
	if err := loadFromEnv(cfg, cws.Sources); err != nil {
		return nil, err
	}

	// 5. CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cws, nil
}

// loadConfigFile decodes a TOML file over cfg and marks every key it sets.
// Unknown keys are an error.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			sources[field] = source
		}
	}
	return nil
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config) error {
	cfg.Vault = resolvePath(cfg.Vault, cfg.WorkDir)
	if cfg.Vault == "" {
		cfg.Vault = resolvePath(DefaultVault, cfg.WorkDir)
	}
	// A relative log dir lives inside the vault.
	cfg.LogDir = resolvePath(cfg.LogDir, cfg.Vault)
	if cfg.LogDir == "" {
		return fmt.Errorf("log_dir must not be empty")
	}

	if _, err := todo.ParseSchema(cfg.TodoSchema); err != nil {
		return err
	}
	cfg.NoteExtension = strings.TrimPrefix(strings.TrimSpace(cfg.NoteExtension), ".")
	if cfg.NoteExtension == "" {
		return fmt.Errorf("note_extension must not be empty")
	}
	if cfg.DebounceMS <= 0 {
		return fmt.Errorf("debounce_ms must be positive, got %d", cfg.DebounceMS)
	}
	if cfg.DailyLimit <= 0 {
		return fmt.Errorf("daily_limit must be positive, got %d", cfg.DailyLimit)
	}
	return nil
}
