//go:build !linux && !darwin && !windows

package platform

import "errors"

var errAutostartUnsupported = errors.New("autostart unsupported on this platform")

// Enable is not available on this platform.
func (Autostart) Enable() error { return errAutostartUnsupported }

// Disable is not available on this platform.
func (Autostart) Disable() error { return errAutostartUnsupported }

// Enabled is not available on this platform.
func (Autostart) Enabled() (bool, error) { return false, errAutostartUnsupported }
