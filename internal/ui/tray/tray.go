package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"wellbeing/internal/core/model"
	"wellbeing/resources"
)

const menuTitle = "Wellbeing"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnStart       func()
	OnPause       func()
	OnReset       func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
	resetItem  *fyne.MenuItem
	phase      model.Phase
	inBreak    bool
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		phase:     model.PhaseIdle,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true
	manager.toggleItem = fyne.NewMenuItem("Start", manager.toggle)
	manager.resetItem = fyne.NewMenuItem("Reset", func() { call(manager.callbacks.OnReset) })

	manager.refresh()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

// SetPhase updates the start/pause item for the session phase.
func (manager *Manager) SetPhase(phase model.Phase) {
	manager.phase = phase
	manager.refresh()
}

// SetInBreak disables session controls while a break is enforced.
func (manager *Manager) SetInBreak(inBreak bool) {
	manager.inBreak = inBreak
	manager.refresh()
}

// ToggleLabel returns the label of the start/pause item.
func (manager *Manager) ToggleLabel() string {
	return manager.toggleItem.Label
}

func (manager *Manager) toggle() {
	if manager.phase == model.PhaseRunning {
		call(manager.callbacks.OnPause)
		return
	}
	call(manager.callbacks.OnStart)
}

func (manager *Manager) refresh() {
	switch manager.phase {
	case model.PhaseRunning:
		manager.toggleItem.Label = "Pause"
	case model.PhasePaused:
		manager.toggleItem.Label = "Resume"
	default:
		manager.toggleItem.Label = "Start"
	}
	manager.toggleItem.Disabled = manager.inBreak
	manager.resetItem.Disabled = manager.inBreak

	if manager.app != nil {
		manager.app.SetSystemTrayIcon(manager.icon())
	}
	manager.refreshMenu()
}

func (manager *Manager) icon() fyne.Resource {
	switch {
	case manager.inBreak:
		return theme.VisibilityOffIcon()
	case manager.phase == model.PhaseRunning:
		return resources.MustLogo(resources.LogoActive)
	default:
		return resources.MustLogo(resources.LogoPaused)
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		manager.resetItem,
		fyne.NewMenuItem("Preferences", func() { call(manager.callbacks.OnPreferences) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { call(manager.callbacks.OnQuit) }),
	))
}

func call(handler func()) {
	if handler != nil {
		handler()
	}
}
