// Package config loads application options from config.toml and resolves
// the XDG paths the application writes to.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DBFileName is the SQLite database inside the data directory.
const DBFileName = "wellbeing.db"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer        TimerConfig        `toml:"timer"`
	Break        BreakConfig        `toml:"break"`
	Log          LogConfig          `toml:"log"`
	Storage      StorageConfig      `toml:"storage"`
	Monitor      MonitorConfig      `toml:"monitor"`
	Housekeeping HousekeepingConfig `toml:"housekeeping"`
}

// TimerConfig maps session and break options.
type TimerConfig struct {
	BreakSeconds  *int `toml:"break_seconds"`
	ExtendSeconds *int `toml:"extend_seconds"`
}

// BreakConfig maps block screen visuals.
type BreakConfig struct {
	// Opacity of the block screen from 0 (clear) to 1 (opaque).
	Opacity    *float64 `toml:"opacity"`
	Fullscreen *bool    `toml:"fullscreen"`
}

// LogConfig maps logging options.
type LogConfig struct {
	Level *string `toml:"level"`
}

// StorageConfig maps storage locations.
type StorageConfig struct {
	DataDir      *string `toml:"data_dir"`
	SettingsFile *string `toml:"settings_file"`
}

// MonitorConfig maps the advisory site monitor.
type MonitorConfig struct {
	ContextFile      *string `toml:"context_file"`
	IntervalSeconds  *int    `toml:"interval_seconds"`
	IdlePauseMinutes *int    `toml:"idle_pause_minutes"`
}

// HousekeepingConfig maps background job options.
type HousekeepingConfig struct {
	AutosaveSeconds *int `toml:"autosave_seconds"`
	HistoryDays     *int `toml:"history_days"`
}

// Config is the resolved application configuration.
type Config struct {
	BreakDuration    time.Duration
	ExtendSeconds    int
	BreakOpacity     uint8
	BreakFullscreen  bool
	LogLevel         string
	DataDir          string
	SettingsPath     string
	ContextFile      string
	MonitorInterval  time.Duration
	IdlePauseAfter   time.Duration
	AutosaveInterval time.Duration
	HistoryDays      int
}

// Default returns the configuration used when config.toml sets nothing.
func Default() Config {
	return Config{
		BreakDuration:    15 * time.Minute,
		ExtendSeconds:    5 * 60,
		BreakOpacity:     230,
		BreakFullscreen:  true,
		LogLevel:         "info",
		DataDir:          DefaultDataDir(),
		SettingsPath:     DefaultSettingsPath(),
		MonitorInterval:  5 * time.Second,
		IdlePauseAfter:   5 * time.Minute,
		AutosaveInterval: 30 * time.Second,
		HistoryDays:      90,
	}
}

// DBPath returns the SQLite database location.
func (cfg Config) DBPath() string {
	return filepath.Join(cfg.DataDir, DBFileName)
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads path and resolves it over the defaults.
func Load(path string) (Config, error) {
	file, err := LoadConfig(path)
	if err != nil {
		return Default(), err
	}
	return Resolve(file)
}

// Resolve applies the values set in file over the defaults.
func Resolve(file FileConfig) (Config, error) {
	cfg := Default()

	if v := file.Timer.BreakSeconds; v != nil {
		if *v <= 0 {
			return cfg, fmt.Errorf("timer.break_seconds must be positive, got %d", *v)
		}
		cfg.BreakDuration = time.Duration(*v) * time.Second
	}
	if v := file.Timer.ExtendSeconds; v != nil {
		if *v <= 0 {
			return cfg, fmt.Errorf("timer.extend_seconds must be positive, got %d", *v)
		}
		cfg.ExtendSeconds = *v
	}
	if v := file.Break.Opacity; v != nil {
		if *v < 0 || *v > 1 {
			return cfg, fmt.Errorf("break.opacity must be between 0 and 1, got %g", *v)
		}
		cfg.BreakOpacity = uint8(math.Round(*v * 255))
	}
	if v := file.Break.Fullscreen; v != nil {
		cfg.BreakFullscreen = *v
	}
	if v := file.Log.Level; v != nil {
		if _, err := ParseLogLevel(*v); err != nil {
			return cfg, err
		}
		cfg.LogLevel = strings.ToLower(*v)
	}
	if v := file.Storage.DataDir; v != nil && *v != "" {
		cfg.DataDir = expandHome(*v)
	}
	if v := file.Storage.SettingsFile; v != nil && *v != "" {
		cfg.SettingsPath = expandHome(*v)
	}
	if v := file.Monitor.ContextFile; v != nil {
		cfg.ContextFile = expandHome(*v)
	}
	if v := file.Monitor.IntervalSeconds; v != nil {
		if *v <= 0 {
			return cfg, fmt.Errorf("monitor.interval_seconds must be positive, got %d", *v)
		}
		cfg.MonitorInterval = time.Duration(*v) * time.Second
	}
	if v := file.Monitor.IdlePauseMinutes; v != nil {
		if *v < 0 {
			return cfg, fmt.Errorf("monitor.idle_pause_minutes must not be negative, got %d", *v)
		}
		cfg.IdlePauseAfter = time.Duration(*v) * time.Minute
	}
	if v := file.Housekeeping.AutosaveSeconds; v != nil {
		if *v <= 0 {
			return cfg, fmt.Errorf("housekeeping.autosave_seconds must be positive, got %d", *v)
		}
		cfg.AutosaveInterval = time.Duration(*v) * time.Second
	}
	if v := file.Housekeeping.HistoryDays; v != nil {
		if *v < 0 {
			return cfg, fmt.Errorf("housekeeping.history_days must not be negative, got %d", *v)
		}
		cfg.HistoryDays = *v
	}
	return cfg, nil
}

// ParseLogLevel maps a level name to slog.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
