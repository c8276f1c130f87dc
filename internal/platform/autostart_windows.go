//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

// Enable adds a value under the current user's Run key.
func (autostart Autostart) Enable() error {
	if err := autostart.validate("enable"); err != nil {
		return err
	}
	output, err := exec.Command("reg", "add", registryRunKey,
		"/v", autostart.Name, "/t", "REG_SZ", "/d", autostart.windowsCommandLine(), "/f",
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("enable autostart: reg add failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Disable deletes the Run key value.
func (autostart Autostart) Disable() error {
	if err := autostart.validate("disable"); err != nil {
		return err
	}
	output, err := exec.Command("reg", "delete", registryRunKey, "/v", autostart.Name, "/f").CombinedOutput()
	if err != nil {
		return fmt.Errorf("disable autostart: reg delete failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Enabled reports whether the Run key value exists.
func (autostart Autostart) Enabled() (bool, error) {
	err := exec.Command("reg", "query", registryRunKey, "/v", autostart.Name).Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("query autostart: %w", err)
	}
	return true, nil
}

// windowsCommandLine always quotes the executable path.
func (autostart Autostart) windowsCommandLine() string {
	line := `"` + strings.Trim(autostart.Exec, `"`) + `"`
	for _, arg := range autostart.Args {
		line += " " + quoteArg(arg)
	}
	return line
}
