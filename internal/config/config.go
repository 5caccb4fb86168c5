// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// terminal.
//
// Configuration comes from a TOML file with sensible defaults and
// environment variable overrides. Precedence, lowest to highest:
//   - Built-in defaults
//   - ~/.neonterm/config.toml (or the path given on the command line)
//   - NEONTERM_* environment variables
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete terminal configuration.
type Config struct {
	// Terminal settings
	Terminal TerminalConfig `toml:"terminal"`

	// UI settings
	UI UIConfig `toml:"ui"`

	// Storage settings
	Storage StorageConfig `toml:"storage"`

	// Logging settings
	Log LogConfig `toml:"log"`
}

// TerminalConfig contains the interpreter-facing settings.
type TerminalConfig struct {
	// Prompt is the prompt template; "~" is replaced by the working
	// directory when rendered.
	Prompt string `toml:"prompt"`
	// User is the name reported by whoami and seeded into $USER.
	User string `toml:"user"`
	// ScrollbackLimit is the maximum number of retained output lines.
	ScrollbackLimit int `toml:"scrollback_limit"`
	// HistoryLimit is the maximum number of retained history entries.
	HistoryLimit int `toml:"history_limit"`
	// Aliases are predefined alias definitions, name to command line.
	Aliases map[string]string `toml:"aliases"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto" to follow
	// the terminal background.
	Theme string `toml:"theme"`
	// CompletionRows caps the visible rows of the completion popup.
	CompletionRows int `toml:"completion_rows"`
}

// StorageConfig contains filesystem storage settings.
type StorageConfig struct {
	// DatabasePath is where the filesystem database lives.
	DatabasePath string `toml:"database_path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
	// File is the log destination; empty discards logs.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neonterm"
	}
	return filepath.Join(home, ".neonterm")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Terminal: TerminalConfig{
			Prompt:          "user@neon:~$",
			User:            "user",
			ScrollbackLimit: 1000,
			HistoryLimit:    100,
			Aliases: map[string]string{
				"ll": "ls -l",
				"la": "ls -a",
			},
		},
		UI: UIConfig{
			Theme:          "auto",
			CompletionRows: 8,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(ConfigDir(), "fs.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "neonterm.log"),
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// applyEnvOverrides layers NEONTERM_* variables over the loaded values.
func (c *Config) applyEnvOverrides() {
	if prompt := os.Getenv("NEONTERM_PROMPT"); prompt != "" {
		c.Terminal.Prompt = prompt
	}
	if user := os.Getenv("NEONTERM_USER"); user != "" {
		c.Terminal.User = user
	}
	if scrollback := os.Getenv("NEONTERM_SCROLLBACK"); scrollback != "" {
		if n, err := strconv.Atoi(scrollback); err == nil {
			c.Terminal.ScrollbackLimit = n
		}
	}
	if history := os.Getenv("NEONTERM_HISTORY"); history != "" {
		if n, err := strconv.Atoi(history); err == nil {
			c.Terminal.HistoryLimit = n
		}
	}
	if theme := os.Getenv("NEONTERM_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if db := os.Getenv("NEONTERM_DB"); db != "" {
		c.Storage.DatabasePath = db
	}
	if level := os.Getenv("NEONTERM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if file := os.Getenv("NEONTERM_LOG_FILE"); file != "" {
		c.Log.File = file
	}
}

// normalize clamps out-of-range values back to usable ones.
func (c *Config) normalize() {
	if c.Terminal.ScrollbackLimit < 1 {
		c.Terminal.ScrollbackLimit = 1000
	}
	if c.Terminal.HistoryLimit < 1 {
		c.Terminal.HistoryLimit = 100
	}
	if c.Terminal.Prompt == "" {
		c.Terminal.Prompt = "user@neon:~$"
	}
	if c.UI.CompletionRows < 1 {
		c.UI.CompletionRows = 8
	}
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
		c.UI.Theme = strings.ToLower(c.UI.Theme)
	default:
		c.UI.Theme = "auto"
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config to path atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
