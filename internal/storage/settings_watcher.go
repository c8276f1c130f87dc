package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"wellbeing/internal/core/model"
	"wellbeing/internal/logfields"
)

// DefaultSettingsDebounce collapses editor save bursts into one reload.
const DefaultSettingsDebounce = 500 * time.Millisecond

// SettingsWatcher reloads settings.yaml when it changes on disk and hands the
// result to onChange.
type SettingsWatcher struct {
	store    *SettingsStore
	onChange func(model.Settings)
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewSettingsWatcher creates a watcher for the store's file.
func NewSettingsWatcher(store *SettingsStore, onChange func(model.Settings)) *SettingsWatcher {
	return &SettingsWatcher{
		store:    store,
		onChange: onChange,
		debounce: DefaultSettingsDebounce,
	}
}

// SetDebounce overrides the reload delay. Call before Start.
func (sw *SettingsWatcher) SetDebounce(debounce time.Duration) {
	if debounce > 0 {
		sw.debounce = debounce
	}
}

// Start watches the directory holding the settings file. Watching the
// directory survives editors that replace the file instead of writing it.
func (sw *SettingsWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.watcher != nil {
		return nil
	}

	absPath, err := filepath.Abs(sw.store.Path())
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings directory %s: %w", dir, err)
	}

	sw.watcher = watcher
	sw.stop = make(chan struct{})
	sw.done = make(chan struct{})
	slog.Info("Watching settings file", logfields.Path(absPath))
	go sw.loop(ctx, filepath.Base(absPath), watcher, sw.stop, sw.done)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (sw *SettingsWatcher) Stop() error {
	sw.mu.Lock()
	watcher, stop, done := sw.watcher, sw.stop, sw.done
	sw.watcher = nil
	sw.mu.Unlock()
	if watcher == nil {
		return nil
	}

	close(stop)
	err := watcher.Close()
	<-done
	return err
}

func (sw *SettingsWatcher) loop(ctx context.Context, fileName string, watcher *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Settings file changed", logfields.Event(event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(sw.debounce)
			} else {
				timer.Stop()
				timer.Reset(sw.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			sw.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Settings watcher error", logfields.Error(err))
		}
	}
}

func (sw *SettingsWatcher) reload() {
	settings, err := sw.store.Load()
	if err != nil {
		slog.Warn("Ignoring unreadable settings file", logfields.Path(sw.store.Path()), logfields.Error(err))
		return
	}
	slog.Info("Settings reloaded", logfields.Path(sw.store.Path()))
	if sw.onChange != nil {
		sw.onChange(settings)
	}
}
