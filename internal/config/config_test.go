package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[timer]
break_seconds = 600
extend_seconds = 120

[break]
opacity = 0.5
fullscreen = false

[log]
level = "DEBUG"

[storage]
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[monitor]
context_file = "/tmp/host"
interval_seconds = 10
idle_pause_minutes = 0

[housekeeping]
autosave_seconds = 15
history_days = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.BreakDuration)
	assert.Equal(t, 120, cfg.ExtendSeconds)
	assert.Equal(t, uint8(128), cfg.BreakOpacity)
	assert.False(t, cfg.BreakFullscreen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "data", DBFileName), cfg.DBPath())
	assert.Equal(t, "/tmp/host", cfg.ContextFile)
	assert.Equal(t, 10*time.Second, cfg.MonitorInterval)
	assert.Zero(t, cfg.IdlePauseAfter)
	assert.Equal(t, 15*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 0, cfg.HistoryDays)
	assert.Equal(t, Default().SettingsPath, cfg.SettingsPath)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative break", content: "[timer]\nbreak_seconds = -1\n"},
		{name: "zero extend", content: "[timer]\nextend_seconds = 0\n"},
		{name: "opacity above one", content: "[break]\nopacity = 1.5\n"},
		{name: "unknown level", content: "[log]\nlevel = \"loud\"\n"},
		{name: "zero interval", content: "[monitor]\ninterval_seconds = 0\n"},
		{name: "negative idle pause", content: "[monitor]\nidle_pause_minutes = -1\n"},
		{name: "zero autosave", content: "[housekeeping]\nautosave_seconds = 0\n"},
		{name: "negative history", content: "[housekeeping]\nhistory_days = -3\n"},
		{name: "broken toml", content: "[timer\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")

	assert.Equal(t, filepath.Join("/cfg", AppName, "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/cfg", AppName, "settings.yaml"), DefaultSettingsPath())
	assert.Equal(t, filepath.Join("/data", AppName), DefaultDataDir())
}
