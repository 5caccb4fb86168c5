// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "user@neon:~$", cfg.Terminal.Prompt)
	assert.Equal(t, 1000, cfg.Terminal.ScrollbackLimit)
	assert.Equal(t, 100, cfg.Terminal.HistoryLimit)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.Equal(t, "ls -l", cfg.Terminal.Aliases["ll"])
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[terminal]
prompt = "dev@box:~#"
scrollback_limit = 50

[terminal.aliases]
gs = "echo status"

[ui]
theme = "LIGHT"

[log]
level = "debug"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev@box:~#", cfg.Terminal.Prompt)
	assert.Equal(t, 50, cfg.Terminal.ScrollbackLimit)
	assert.Equal(t, "echo status", cfg.Terminal.Aliases["gs"])
	assert.Equal(t, "light", cfg.UI.Theme, "theme names are case-insensitive")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Terminal.HistoryLimit, "unset values keep defaults")
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEONTERM_PROMPT", "env@host:~$")
	t.Setenv("NEONTERM_SCROLLBACK", "42")
	t.Setenv("NEONTERM_THEME", "light")
	t.Setenv("NEONTERM_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "env@host:~$", cfg.Terminal.Prompt)
	assert.Equal(t, 42, cfg.Terminal.ScrollbackLimit)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestNormalizeClampsNonsense(t *testing.T) {
	t.Setenv("NEONTERM_SCROLLBACK", "-5")
	t.Setenv("NEONTERM_THEME", "plaid")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Terminal.ScrollbackLimit)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Terminal.Prompt = "saved:~$"
	cfg.Terminal.HistoryLimit = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved:~$", loaded.Terminal.Prompt)
	assert.Equal(t, 7, loaded.Terminal.HistoryLimit)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Default().Save(path))

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Terminal.Prompt = "watched:~$"
	require.NoError(t, cfg.Save(path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "watched:~$", got.Terminal.Prompt)
	case <-time.After(3 * time.Second):
		t.Fatal("config change never observed")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Default().Save(path))

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))

	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}
}
