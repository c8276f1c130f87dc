package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"wellbeing/internal/core/model"
	"wellbeing/internal/logfields"
)

// SettingsFileName is the settings file inside the config directory.
const SettingsFileName = "settings.yaml"

// yamlSettings uses pointers so a missing key can be told apart from a zero
// value and fall back to its default.
type yamlSettings struct {
	TimeLimit     *int      `yaml:"time_limit,omitempty"`
	Sites         *[]string `yaml:"sites,omitempty"`
	Messages      *[]string `yaml:"messages,omitempty"`
	Notifications *bool     `yaml:"notifications,omitempty"`
}

// SettingsStore persists user settings as YAML.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore creates a store for the YAML file at path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Path returns the settings file location.
func (store *SettingsStore) Path() string {
	return store.path
}

// Load reads user settings from YAML. Missing fields take their defaults.
// If the file does not exist, default settings are returned. On any other
// failure the defaults are returned together with the error, so callers can
// log it and carry on.
func (store *SettingsStore) Load() (model.Settings, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.loadLocked()
}

// BackupSuffix is appended to a malformed settings file before it is
// replaced, so the user's edits can be recovered by hand.
const BackupSuffix = ".bak"

// Save writes user settings to YAML. A malformed file on disk is moved to
// the backup path first.
func (store *SettingsStore) Save(settings model.Settings) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, err := store.loadLocked(); err != nil {
		if err := store.keepUnreadableLocked(err); err != nil {
			return err
		}
	}
	return store.saveLocked(settings)
}

// Update loads the settings, applies change and saves the result. Nothing is
// written when change fails or when the file cannot be read. A malformed file
// is moved to the backup path and the change is applied to the defaults.
func (store *SettingsStore) Update(change func(*model.Settings) error) (model.Settings, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	settings, loadErr := store.loadLocked()
	if loadErr != nil && !errors.Is(loadErr, model.ErrMalformedData) {
		return settings, loadErr
	}
	if err := change(&settings); err != nil {
		return settings, err
	}
	if loadErr != nil {
		if err := store.keepUnreadableLocked(loadErr); err != nil {
			return settings, err
		}
	}
	if err := store.saveLocked(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// keepUnreadableLocked backs up a malformed file. Any other load error is
// returned, since overwriting a file that could not be read would lose it.
func (store *SettingsStore) keepUnreadableLocked(loadErr error) error {
	if !errors.Is(loadErr, model.ErrMalformedData) {
		return loadErr
	}
	backup := store.path + BackupSuffix
	if err := os.Rename(store.path, backup); err != nil {
		return fmt.Errorf("back up malformed settings: %w", err)
	}
	slog.Warn("Malformed settings file moved aside", logfields.Path(backup), logfields.Error(loadErr))
	return nil
}

func (store *SettingsStore) loadLocked() (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("%w: parse settings yaml: %v", model.ErrMalformedData, err)
	}

	applyYamlSettings(&settings, fileData)
	return settings.Normalize(), nil
}

func (store *SettingsStore) saveLocked(settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	settings = settings.Normalize()
	fileData := yamlSettings{
		TimeLimit:     &settings.TimeLimitSeconds,
		Sites:         &settings.Sites,
		Messages:      &settings.Messages,
		Notifications: &settings.NotificationsEnabled,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	tmpPath := store.path + ".tmp"
	if err := os.WriteFile(tmpPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmpPath, store.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	if fileData.TimeLimit != nil && *fileData.TimeLimit > 0 {
		settings.TimeLimitSeconds = *fileData.TimeLimit
	}
	if fileData.Sites != nil {
		settings.Sites = *fileData.Sites
	}
	if fileData.Messages != nil && len(*fileData.Messages) > 0 {
		settings.Messages = *fileData.Messages
	}
	if fileData.Notifications != nil {
		settings.NotificationsEnabled = *fileData.Notifications
	}
}
