package overlay

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// WarningCallbacks handle the warning window buttons.
type WarningCallbacks struct {
	OnContinue func()
	OnStopNow  func()
}

// WarningWindow tells the user the session is about to end.
type WarningWindow struct {
	window         fyne.Window
	headline       *widget.Label
	message        *widget.Label
	continueButton *widget.Button
	stopButton     *widget.Button
	callbacks      WarningCallbacks
}

// NewWarningWindow creates the hidden warning window. extend is the time the
// continue button adds.
func NewWarningWindow(app fyne.App, extend time.Duration, callbacks WarningCallbacks) *WarningWindow {
	window := app.NewWindow("Usage warning")

	headline := widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	message := widget.NewLabel("")
	message.Alignment = fyne.TextAlignCenter
	message.Wrapping = fyne.TextWrapWord

	warning := &WarningWindow{
		window:    window,
		headline:  headline,
		message:   message,
		callbacks: callbacks,
	}
	warning.continueButton = widget.NewButton(fmt.Sprintf("Continue (+%d min)", int(extend.Minutes())), func() {
		window.Hide()
		if warning.callbacks.OnContinue != nil {
			warning.callbacks.OnContinue()
		}
	})
	warning.stopButton = widget.NewButton("Stop now", func() {
		window.Hide()
		if warning.callbacks.OnStopNow != nil {
			warning.callbacks.OnStopNow()
		}
	})
	warning.stopButton.Importance = widget.HighImportance

	buttons := container.NewHBox(layout.NewSpacer(), warning.continueButton, warning.stopButton, layout.NewSpacer())
	window.SetContent(container.NewBorder(headline, buttons, nil, nil, message))
	window.Resize(fyne.NewSize(420, 180))
	window.SetCloseIntercept(window.Hide)
	return warning
}

// Show displays the warning with the remaining session time.
func (warning *WarningWindow) Show(remaining time.Duration, message string) {
	warning.headline.SetText(fmt.Sprintf("%s left in this session", FormatClock(remaining)))
	warning.message.SetText(message)
	warning.window.CenterOnScreen()
	warning.window.Show()
	warning.window.RequestFocus()
}

// Hide closes the warning.
func (warning *WarningWindow) Hide() {
	warning.window.Hide()
}

// Headline returns the text of the remaining-time line.
func (warning *WarningWindow) Headline() string {
	return warning.headline.Text
}
