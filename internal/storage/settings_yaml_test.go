package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing/internal/core/model"
)

func TestSettingsStore_MissingFileGivesDefaults(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), SettingsFileName))

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSettingsStore_PartialFileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("time_limit: 900\nsites:\n  - News.example.com\n"), 0o644))

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, 900, settings.TimeLimitSeconds)
	assert.Equal(t, []string{"news.example.com"}, settings.Sites)
	assert.Equal(t, model.DefaultMessages(), settings.Messages)
	assert.True(t, settings.NotificationsEnabled)
}

func TestSettingsStore_InvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("time_limit: -5\nmessages: []\nnotifications: false\n"), 0o644))

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimeLimitSeconds, settings.TimeLimitSeconds)
	assert.Equal(t, model.DefaultMessages(), settings.Messages)
	assert.False(t, settings.NotificationsEnabled)
}

func TestSettingsStore_MalformedFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("time_limit: [unclosed\n"), 0o644))

	settings, err := NewSettingsStore(path).Load()

	assert.ErrorIs(t, err, model.ErrMalformedData)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", SettingsFileName)
	store := NewSettingsStore(path)

	settings := model.DefaultSettings()
	require.NoError(t, settings.SetTimeLimit(2700))
	require.NoError(t, settings.AddSite("reddit.com"))
	settings.SetNotifications(false)
	require.NoError(t, store.Save(settings))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, settings.Normalize(), loaded)
	assert.NoFileExists(t, path+".tmp")
}

func TestSettingsStore_UpdateFailureWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	store := NewSettingsStore(path)

	_, err := store.Update(func(settings *model.Settings) error {
		settings.TimeLimitSeconds = 60
		return errors.New("rejected")
	})
	require.Error(t, err)
	assert.NoFileExists(t, path)

	updated, err := store.Update(func(settings *model.Settings) error {
		return settings.AddMessage("Go outside.")
	})
	require.NoError(t, err)
	assert.Contains(t, updated.Messages, "Go outside.")

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestSettingsStore_UpdateKeepsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	broken := []byte("time_limit: 600\nsites: [a.com\nmessages:\n  - Mine\n")
	require.NoError(t, os.WriteFile(path, broken, 0o644))
	store := NewSettingsStore(path)

	_, err := store.Update(func(*model.Settings) error { return errors.New("rejected") })
	require.Error(t, err)
	assert.NoFileExists(t, path+BackupSuffix)

	updated, err := store.Update(func(settings *model.Settings) error {
		return settings.AddSite("b.com")
	})
	require.NoError(t, err)
	assert.Contains(t, updated.Sites, "b.com")

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, broken, backup)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestSettingsStore_SaveKeepsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	broken := []byte("time_limit: [unclosed\n")
	require.NoError(t, os.WriteFile(path, broken, 0o644))
	store := NewSettingsStore(path)

	require.NoError(t, store.Save(model.DefaultSettings()))

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, broken, backup)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), loaded)
}

func TestSettingsStore_UpdateRefusesUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.Mkdir(path, 0o755))
	store := NewSettingsStore(path)

	_, err := store.Update(func(settings *model.Settings) error {
		return settings.AddSite("b.com")
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrMalformedData)
	assert.DirExists(t, path)
	assert.NoFileExists(t, path+BackupSuffix)
}
