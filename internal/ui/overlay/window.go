// Package overlay renders the block screen shown during a break and the
// warning window shown near the end of a session.
package overlay

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"wellbeing/internal/ui/activity"
)

// Config defines block screen visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
}

// DefaultConfig is a nearly opaque fullscreen block.
func DefaultConfig() Config {
	return Config{Opacity: 230, Fullscreen: true}
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// BlockScreen covers the screen while a break is enforced.
type BlockScreen struct {
	window        fyne.Window
	config        Config
	background    *canvas.Rectangle
	timerLabel    *canvas.Text
	messageLabel  *widget.Label
	activityIcon  *widget.Icon
	activityLabel *widget.Label
	breathLabel   *canvas.Text
	unblockButton *widget.Button
	onEmergency   func(confirmed bool)
	engine        *activity.Engine
}

// NewBlockScreen creates the hidden block screen.
func NewBlockScreen(app fyne.App, config Config) *BlockScreen {
	window := app.NewWindow("Break")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash windows have no frame, so the break cannot be closed.
		window = driver.CreateSplashWindow()
	}
	window.SetPadded(false)
	window.SetCloseIntercept(func() {})

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	title := canvas.NewText("Time for a break", color.White)
	title.Alignment = fyne.TextAlignCenter
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.TextSize = 32

	timerLabel := canvas.NewText(FormatClock(0), color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 56

	messageLabel := widget.NewLabel("")
	messageLabel.Alignment = fyne.TextAlignCenter
	messageLabel.Wrapping = fyne.TextWrapWord

	breathLabel := canvas.NewText("", color.NRGBA{R: 150, G: 200, B: 255, A: 255})
	breathLabel.Alignment = fyne.TextAlignCenter
	breathLabel.TextSize = 20

	screen := &BlockScreen{
		window:        window,
		config:        config,
		background:    background,
		timerLabel:    timerLabel,
		messageLabel:  messageLabel,
		activityIcon:  widget.NewIcon(nil),
		activityLabel: widget.NewLabel(""),
		breathLabel:   breathLabel,
	}
	screen.unblockButton = widget.NewButton("Emergency unblock", screen.confirmUnblock)
	screen.engine = activity.New(activity.DefaultConfig(), nil, activity.Handlers{
		OnActivity: func(next activity.Activity) {
			fyne.Do(func() { screen.setActivity(next) })
		},
		OnBreath: func(breath activity.Breath) {
			fyne.Do(func() { screen.setBreath(breath) })
		},
	})

	content := container.NewCenter(container.NewVBox(
		title,
		timerLabel,
		messageLabel,
		container.NewCenter(container.NewHBox(screen.activityIcon, screen.activityLabel)),
		breathLabel,
		container.NewCenter(screen.unblockButton),
	))
	window.SetContent(container.NewStack(background, content))
	return screen
}

// SetOnEmergency sets the handler called after the confirmation dialog.
// confirmed is false when the user backs out.
func (screen *BlockScreen) SetOnEmergency(handler func(confirmed bool)) {
	screen.onEmergency = handler
}

// Show displays the block screen with the remaining break time.
func (screen *BlockScreen) Show(remaining time.Duration, message string) {
	screen.SetRemaining(remaining)
	screen.messageLabel.SetText(message)
	screen.window.SetFullScreen(screen.config.Fullscreen)
	if !screen.config.Fullscreen {
		screen.window.Resize(fyne.NewSize(640, 400))
		screen.window.CenterOnScreen()
	}
	screen.window.Show()
	screen.applyNativeOpacity(screen.config.Opacity)
	screen.window.RequestFocus()
	screen.engine.Start(context.Background(), activity.DefaultActivities())
}

// Hide closes the block screen.
func (screen *BlockScreen) Hide() {
	screen.engine.Stop()
	if screen.window.FullScreen() {
		screen.window.SetFullScreen(false)
	}
	screen.window.Hide()
}

// SetRemaining updates the countdown.
func (screen *BlockScreen) SetRemaining(remaining time.Duration) {
	screen.timerLabel.Text = FormatClock(remaining)
	screen.timerLabel.Refresh()
}

// Config returns the active visuals.
func (screen *BlockScreen) Config() Config {
	return screen.config
}

// UpdateConfig replaces the visuals. The background changes at once; native
// window opacity and fullscreen follow on the next Show.
func (screen *BlockScreen) UpdateConfig(config Config) {
	screen.config = config
	screen.background.FillColor = color.NRGBA{A: config.Opacity}
	screen.background.Refresh()
}

// Activity returns the suggestion currently shown.
func (screen *BlockScreen) Activity() string {
	return screen.activityLabel.Text
}

func (screen *BlockScreen) setActivity(next activity.Activity) {
	screen.activityIcon.SetResource(next.Icon)
	screen.activityLabel.SetText(next.Title)
}

func (screen *BlockScreen) setBreath(breath activity.Breath) {
	screen.breathLabel.Text = string(breath)
	screen.breathLabel.Refresh()
}

// Remaining returns the countdown text.
func (screen *BlockScreen) Remaining() string {
	return screen.timerLabel.Text
}

func (screen *BlockScreen) confirmUnblock() {
	dialog.ShowConfirm(
		"Emergency unblock",
		"End the break now? It will be counted as an early exit.",
		func(confirmed bool) {
			if screen.onEmergency != nil {
				screen.onEmergency(confirmed)
			}
		},
		screen.window,
	)
}

// FormatClock renders a duration as MM:SS, or H:MM:SS from one hour up.
func FormatClock(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value / time.Second)
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	seconds %= 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
