// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.bouldy/bouldy.toml or OS-specific config directory)
// 3. Project config file (bouldy.toml or .bouldy.toml in the working directory)
// 4. Environment variables (BOULDY_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.bouldy/bouldy.toml (preferred)
// - Windows: %APPDATA%\bouldy\bouldy.toml
// - macOS: ~/Library/Application Support/bouldy/bouldy.toml
// - Linux/BSD: $XDG_CONFIG_HOME/bouldy/bouldy.toml or ~/.config/bouldy/bouldy.toml
package config
