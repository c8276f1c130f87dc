package platform

import (
	"fmt"
	"strings"
)

// Autostart registers the application to launch at login.
type Autostart struct {
	// Name is shown by the OS login items list.
	Name string
	// Exec is the absolute path of the executable.
	Exec string
	// Args are passed to Exec on launch.
	Args []string
}

// NewAutostart describes a login entry that runs execPath with args.
func NewAutostart(name, execPath string, args ...string) Autostart {
	return Autostart{Name: name, Exec: execPath, Args: args}
}

func (autostart Autostart) validate(op string) error {
	if strings.TrimSpace(autostart.Name) == "" {
		return fmt.Errorf("%s autostart: app name is empty", op)
	}
	if op == "enable" && strings.TrimSpace(autostart.Exec) == "" {
		return fmt.Errorf("%s autostart: exec path is empty", op)
	}
	return nil
}

// slug lower-cases the name and replaces spaces for use in file names.
func (autostart Autostart) slug() string {
	name := strings.ToLower(strings.TrimSpace(autostart.Name))
	if name == "" {
		name = "wellbeing"
	}
	return strings.ReplaceAll(name, " ", "-")
}

func quoteArg(value string) string {
	if strings.ContainsAny(value, " \t") && !strings.HasPrefix(value, `"`) {
		return `"` + value + `"`
	}
	return value
}

func (autostart Autostart) commandLine() string {
	parts := make([]string, 0, len(autostart.Args)+1)
	parts = append(parts, quoteArg(autostart.Exec))
	for _, arg := range autostart.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}
