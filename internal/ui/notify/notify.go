// Package notify delivers desktop notifications through fyne.
package notify

import (
	"errors"

	"fyne.io/fyne/v2"
)

// ErrUnavailable is returned when no application is attached.
var ErrUnavailable = errors.New("notifications unavailable")

// Gateway sends OS notifications. Delivery is fire-and-forget: fyne reports
// no failure once the request has been handed to the driver.
type Gateway struct {
	app fyne.App
}

// New creates a gateway for app.
func New(app fyne.App) *Gateway {
	return &Gateway{app: app}
}

// Notify shows a notification with title and body.
func (gateway *Gateway) Notify(title, body string) error {
	if gateway == nil || gateway.app == nil {
		return ErrUnavailable
	}
	notification := fyne.NewNotification(title, body)
	fyne.Do(func() {
		gateway.app.SendNotification(notification)
	})
	return nil
}
