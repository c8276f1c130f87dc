package config

import (
	"os"
	"path/filepath"
)

// AppName names the application directories.
const AppName = "wellbeing"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigDir holds config.toml and settings.yaml.
func DefaultConfigDir() string {
	return filepath.Join(XDGConfigHome(), AppName)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// DefaultSettingsPath returns the default user settings path.
func DefaultSettingsPath() string {
	return filepath.Join(DefaultConfigDir(), "settings.yaml")
}

// DefaultDataDir holds the SQLite database.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), AppName)
}
