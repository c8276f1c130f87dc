package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/spf13/cobra"

	"wellbeing/internal/config"
	"wellbeing/internal/core/coordinator"
	"wellbeing/internal/core/model"
	"wellbeing/internal/core/monitor"
	"wellbeing/internal/core/timekeeper"
	"wellbeing/internal/housekeeping"
	"wellbeing/internal/logfields"
	"wellbeing/internal/platform"
	"wellbeing/internal/storage"
	"wellbeing/internal/ui/notify"
	"wellbeing/internal/ui/overlay"
	"wellbeing/internal/ui/preferences"
	"wellbeing/internal/ui/tray"
	"wellbeing/resources"
)

const appID = "io.wellbeing.app"

func runDesktop(_ *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	guard, err := platform.AcquireSingleInstance(config.AppName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			slog.Info("Already running, bringing the running instance forward")
			return platform.ActivateRunning(config.AppName)
		}
		return fmt.Errorf("single instance: %w", err)
	}
	defer func() {
		_ = guard.Release()
	}()

	settingsStore := storage.NewSettingsStore(cfg.SettingsPath)
	settings, err := settingsStore.Load()
	if err != nil {
		slog.Warn("Using default settings", logfields.Path(cfg.SettingsPath), logfields.Error(err))
	}

	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		slog.Warn("Stats will not survive a restart", logfields.Path(cfg.DBPath()), logfields.Error(err))
		if store, err = storage.Open(storage.MemoryPath); err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
	}
	defer func() {
		_ = store.Close()
	}()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.MustLogo(resources.LogoActive))
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	core := coordinator.New(settings, store, store, notify.New(fyneApp), coordinator.Config{
		Timekeeper:    timekeeper.Options{TickInterval: time.Second},
		BreakDuration: cfg.BreakDuration,
		ExtendSeconds: cfg.ExtendSeconds,
	})

	ui := newDesktopUI(fyneApp, desktopApp, core, store, settingsStore, cfg)
	ui.reloadConfig = opts.loadConfig
	events := core.Subscribe(32)
	go func() {
		for event := range events {
			fyne.Do(func() { ui.handle(event) })
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcome, err := core.Restore(ctx)
	if err != nil {
		slog.Warn("Failed to restore session", logfields.Error(err))
	}
	ui.sync()

	var contextSource monitor.ContextSource
	if cfg.ContextFile != "" {
		contextSource = monitor.FileContextSource{Path: cfg.ContextFile}
	}
	jobs, err := housekeeping.New(core, store, housekeeping.Options{
		AutosaveInterval: cfg.AutosaveInterval,
		MonitorInterval:  cfg.MonitorInterval,
		HistoryDays:      cfg.HistoryDays,
		IdlePauseAfter:   cfg.IdlePauseAfter,
		Context:          contextSource,
		Idle:             platform.NewIdleProvider(),
	})
	if err != nil {
		return err
	}
	if err := jobs.Start(ctx); err != nil {
		return err
	}

	watcher := storage.NewSettingsWatcher(settingsStore, func(updated model.Settings) {
		if err := core.ApplySettings(updated); err != nil {
			slog.Warn("Failed to apply settings", logfields.Error(err))
		}
	})
	if err := watcher.Start(ctx); err != nil {
		slog.Warn("Settings file changes will not be picked up", logfields.Error(err))
	}

	go guard.Serve(func() {
		fyne.Do(ui.showPreferences)
	})

	if outcome == timekeeper.RestoreNone {
		ui.showPreferences()
	}
	fyneApp.Run()

	_ = watcher.Stop()
	if err := jobs.Stop(); err != nil {
		slog.Warn("Failed to stop housekeeping", logfields.Error(err))
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := core.Close(shutdownCtx); err != nil {
		slog.Warn("Failed to save session", logfields.Error(err))
	}
	slog.Info("Stopped")
	return nil
}

type statsSource interface {
	Stats(ctx context.Context, now time.Time) (model.Stats, error)
}

// desktopUI renders coordinator events. All methods run on the fyne thread.
type desktopUI struct {
	core    *coordinator.Coordinator
	stats   statsSource
	tray    *tray.Manager
	block   *overlay.BlockScreen
	warning *overlay.WarningWindow
	prefs   *preferences.Window

	// reloadConfig re-reads config.toml when settings are applied.
	reloadConfig func() (config.Config, error)
}

func newDesktopUI(fyneApp fyne.App, desktopApp desktop.App, core *coordinator.Coordinator, stats statsSource, settingsStore *storage.SettingsStore, cfg config.Config) *desktopUI {
	ui := &desktopUI{core: core, stats: stats}

	ui.prefs = preferences.New(fyneApp, core.Settings(), func(updated model.Settings) error {
		if err := settingsStore.Save(updated); err != nil {
			return err
		}
		return core.ApplySettings(updated)
	})

	ui.block = overlay.NewBlockScreen(fyneApp, blockConfig(cfg))
	ui.block.SetOnEmergency(func(confirmed bool) {
		if !confirmed {
			return
		}
		if err := core.EmergencyUnblockRequested(true); err != nil {
			slog.Warn("Emergency unblock failed", logfields.Error(err))
		}
	})

	extend := time.Duration(cfg.ExtendSeconds) * time.Second
	ui.warning = overlay.NewWarningWindow(fyneApp, extend, overlay.WarningCallbacks{
		OnContinue: func() { report("extend", core.ExtendRequested()) },
		OnStopNow:  func() { report("stop now", core.StopNowRequested()) },
	})

	ui.tray = tray.New(desktopApp, tray.Callbacks{
		OnStart:       func() { report("start", core.StartRequested()) },
		OnPause:       func() { report("pause", core.PauseRequested()) },
		OnReset:       core.ResetRequested,
		OnPreferences: ui.showPreferences,
		OnQuit:        fyneApp.Quit,
	})
	return ui
}

func (ui *desktopUI) handle(event coordinator.Event) {
	switch event.Type {
	case coordinator.EventDisplayUpdate:
		ui.tray.SetStatus(sessionStatus(event.Phase, event.Remaining))
	case coordinator.EventPhaseChange:
		ui.tray.SetPhase(event.Phase)
		ui.tray.SetStatus(sessionStatus(event.Phase, event.Remaining))
	case coordinator.EventWarning:
		ui.warning.Show(event.Remaining, event.Message)
	case coordinator.EventExpired:
		ui.warning.Hide()
	case coordinator.EventBreakStarted:
		ui.warning.Hide()
		ui.tray.SetInBreak(true)
		ui.tray.SetStatus("On a break")
		ui.block.Show(event.Remaining, event.Message)
	case coordinator.EventBreakUpdate:
		ui.block.SetRemaining(event.Remaining)
	case coordinator.EventBreakEnded:
		ui.block.Hide()
		ui.tray.SetInBreak(false)
		ui.refreshStats()
		ui.sync()
	case coordinator.EventAdvisory:
		ui.tray.SetStatus(fmt.Sprintf("%s (%s)", sessionStatus(event.Phase, event.Remaining), event.Message))
	case coordinator.EventSettings:
		ui.prefs.UpdateSettings(ui.core.Settings())
		ui.applyConfig()
		ui.sync()
	}
}

func (ui *desktopUI) applyConfig() {
	if ui.reloadConfig == nil {
		return
	}
	cfg, err := ui.reloadConfig()
	if err != nil {
		slog.Warn("Keeping block screen settings", logfields.Error(err))
		return
	}
	ui.block.UpdateConfig(blockConfig(cfg))
}

func blockConfig(cfg config.Config) overlay.Config {
	return overlay.Config{Opacity: cfg.BreakOpacity, Fullscreen: cfg.BreakFullscreen}
}

// sync redraws the tray from the current core state.
func (ui *desktopUI) sync() {
	status := ui.core.Status()
	ui.tray.SetPhase(status.Session.Phase)
	ui.tray.SetInBreak(status.Break.Active)
	if status.Break.Active {
		ui.tray.SetStatus("On a break")
		return
	}
	ui.tray.SetStatus(sessionStatus(status.Session.Phase, time.Duration(status.Session.RemainingSeconds)*time.Second))
}

func (ui *desktopUI) showPreferences() {
	ui.refreshStats()
	ui.prefs.Show()
}

func (ui *desktopUI) refreshStats() {
	stats, err := ui.stats.Stats(context.Background(), time.Now())
	if err != nil {
		slog.Warn("Failed to load stats", logfields.Error(err))
		return
	}
	ui.prefs.UpdateStats(stats)
}

func sessionStatus(phase model.Phase, remaining time.Duration) string {
	switch phase {
	case model.PhaseRunning:
		return overlay.FormatClock(remaining) + " left"
	case model.PhasePaused:
		return "Paused, " + overlay.FormatClock(remaining) + " left"
	case model.PhaseExpired:
		return "Time is up"
	default:
		return "Not started"
	}
}

func report(action string, err error) {
	if err != nil {
		slog.Warn("Request rejected", slog.String("action", action), logfields.Error(err))
	}
}
