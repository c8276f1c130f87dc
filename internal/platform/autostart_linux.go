//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Enable writes an XDG autostart desktop entry.
func (autostart Autostart) Enable() error {
	if err := autostart.validate("enable"); err != nil {
		return err
	}
	path, err := autostart.entryPath()
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("enable autostart: create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(autostart.desktopEntry()), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write desktop entry: %w", err)
	}
	return nil
}

// Disable removes the desktop entry. A missing entry is not an error.
func (autostart Autostart) Disable() error {
	if err := autostart.validate("disable"); err != nil {
		return err
	}
	path, err := autostart.entryPath()
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("disable autostart: remove desktop entry: %w", err)
	}
	return nil
}

// Enabled reports whether the desktop entry exists.
func (autostart Autostart) Enabled() (bool, error) {
	path, err := autostart.entryPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (autostart Autostart) entryPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "autostart", autostart.slug()+".desktop"), nil
}

func (autostart Autostart) desktopEntry() string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`, autostart.Name, autostart.commandLine())
}
