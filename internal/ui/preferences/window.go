package preferences

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"wellbeing/internal/core/model"
	"wellbeing/internal/ui/overlay"
)

// Window handles the preferences UI. Edits are held locally until Save.
type Window struct {
	window   fyne.Window
	saved    model.Settings
	settings model.Settings
	onSave   func(model.Settings) error

	limit         *widget.Entry
	notifications *widget.Check

	sites        *widget.List
	siteEntry    *widget.Entry
	addSite      *widget.Button
	removeSite   *widget.Button
	selectedSite int

	messages        *widget.List
	messageEntry    *widget.Entry
	addMessage      *widget.Button
	removeMessage   *widget.Button
	selectedMessage int

	statsLabels map[string]*widget.Label
}

// New creates a preferences window. onSave persists and applies the edited
// settings; its error is shown to the user.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings) error) *Window {
	prefs := &Window{
		window:          app.NewWindow("Wellbeing Settings"),
		settings:        settings.Clone(),
		onSave:          onSave,
		selectedSite:    -1,
		selectedMessage: -1,
	}

	tabs := container.NewAppTabs(
		container.NewTabItem("General", prefs.generalTab()),
		container.NewTabItem("Sites", prefs.sitesTab()),
		container.NewTabItem("Messages", prefs.messagesTab()),
		container.NewTabItem("Statistics", prefs.statsTab()),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	saveButton.Importance = widget.HighImportance
	cancelButton := widget.NewButton("Cancel", prefs.handleCancel)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	prefs.window.SetContent(container.NewBorder(nil, buttons, nil, nil, tabs))
	prefs.window.Resize(fyne.NewSize(460, 420))
	prefs.window.SetCloseIntercept(prefs.handleCancel)
	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.saved = settings.Clone()
	prefs.settings = settings.Clone()
	prefs.limit.SetText(minutesText(settings.TimeLimitSeconds))
	prefs.notifications.SetChecked(settings.NotificationsEnabled)
	prefs.selectedSite = -1
	prefs.selectedMessage = -1
	prefs.sites.UnselectAll()
	prefs.messages.UnselectAll()
	prefs.sites.Refresh()
	prefs.messages.Refresh()
}

// UpdateStats refreshes the statistics tab.
func (prefs *Window) UpdateStats(stats model.Stats) {
	prefs.statsLabels["today"].SetText(fmt.Sprintf("%s in %d sessions",
		overlay.FormatClock(seconds(stats.TodayUsageSeconds)), stats.TodaySessions))
	prefs.statsLabels["total"].SetText(overlay.FormatClock(seconds(stats.TotalUsageSeconds)))
	prefs.statsLabels["blocks"].SetText(fmt.Sprintf("%d", stats.Blocks))
	prefs.statsLabels["extensions"].SetText(fmt.Sprintf("%d", stats.Extensions))
	prefs.statsLabels["streak"].SetText(fmt.Sprintf("%d days", stats.StreakDays))
	prefs.statsLabels["goal"].SetText(fmt.Sprintf("%d%%", stats.GoalAchievementPercent))
}

func (prefs *Window) generalTab() fyne.CanvasObject {
	prefs.limit = widget.NewEntry()
	prefs.notifications = widget.NewCheck("Show notifications", nil)
	return container.NewVBox(
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Time limit"), widget.NewLabel("min"), prefs.limit),
		prefs.notifications,
	)
}

func (prefs *Window) sitesTab() fyne.CanvasObject {
	prefs.sites = widget.NewList(
		func() int { return len(prefs.settings.Sites) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(prefs.settings.Sites[id])
		},
	)
	prefs.sites.OnSelected = func(id widget.ListItemID) { prefs.selectedSite = id }
	prefs.siteEntry = widget.NewEntry()
	prefs.siteEntry.SetPlaceHolder("example.com")

	prefs.addSite = widget.NewButton("Add", func() {
		if err := prefs.settings.AddSite(prefs.siteEntry.Text); err != nil {
			prefs.showError(err)
			return
		}
		prefs.siteEntry.SetText("")
		prefs.sites.Refresh()
	})
	prefs.removeSite = widget.NewButton("Remove", func() {
		if prefs.selectedSite < 0 || prefs.selectedSite >= len(prefs.settings.Sites) {
			return
		}
		if err := prefs.settings.RemoveSite(prefs.settings.Sites[prefs.selectedSite]); err != nil {
			prefs.showError(err)
			return
		}
		prefs.selectedSite = -1
		prefs.sites.UnselectAll()
		prefs.sites.Refresh()
	})

	hint := widget.NewLabel("Monitoring is advisory: visits are noted, never blocked.")
	hint.Wrapping = fyne.TextWrapWord
	controls := container.NewBorder(nil, nil, nil, container.NewHBox(prefs.addSite, prefs.removeSite), prefs.siteEntry)
	return container.NewBorder(hint, controls, nil, nil, prefs.sites)
}

func (prefs *Window) messagesTab() fyne.CanvasObject {
	prefs.messages = widget.NewList(
		func() int { return len(prefs.settings.Messages) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(prefs.settings.Messages[id])
		},
	)
	prefs.messages.OnSelected = func(id widget.ListItemID) { prefs.selectedMessage = id }
	prefs.messageEntry = widget.NewEntry()
	prefs.messageEntry.SetPlaceHolder("New message")

	prefs.addMessage = widget.NewButton("Add", func() {
		if err := prefs.settings.AddMessage(prefs.messageEntry.Text); err != nil {
			prefs.showError(err)
			return
		}
		prefs.messageEntry.SetText("")
		prefs.messages.Refresh()
	})
	prefs.removeMessage = widget.NewButton("Remove", func() {
		if prefs.selectedMessage < 0 {
			return
		}
		if err := prefs.settings.RemoveMessage(prefs.selectedMessage); err != nil {
			prefs.showError(err)
			return
		}
		prefs.selectedMessage = -1
		prefs.messages.UnselectAll()
		prefs.messages.Refresh()
	})

	controls := container.NewBorder(nil, nil, nil, container.NewHBox(prefs.addMessage, prefs.removeMessage), prefs.messageEntry)
	return container.NewBorder(nil, controls, nil, nil, prefs.messages)
}

func (prefs *Window) statsTab() fyne.CanvasObject {
	prefs.statsLabels = make(map[string]*widget.Label)
	rows := []struct{ key, title string }{
		{"today", "Today"},
		{"total", "Total usage"},
		{"blocks", "Breaks taken"},
		{"extensions", "Extensions"},
		{"streak", "Streak"},
		{"goal", "Breaks kept (7 days)"},
	}
	form := container.New(layout.NewFormLayout())
	for _, row := range rows {
		value := widget.NewLabel("-")
		prefs.statsLabels[row.key] = value
		form.Add(widget.NewLabelWithStyle(row.title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		form.Add(value)
	}
	return form
}

func (prefs *Window) handleSave() {
	updated, err := applyForm(prefs.settings, prefs.limit.Text, prefs.notifications.Checked)
	if err != nil {
		prefs.showError(err)
		return
	}
	if prefs.onSave != nil {
		if err := prefs.onSave(updated); err != nil {
			prefs.showError(err)
			return
		}
	}
	prefs.UpdateSettings(updated)
	prefs.window.Hide()
}

func (prefs *Window) handleCancel() {
	prefs.UpdateSettings(prefs.saved)
	prefs.window.Hide()
}

func (prefs *Window) showError(err error) {
	dialog.ShowError(err, prefs.window)
}
