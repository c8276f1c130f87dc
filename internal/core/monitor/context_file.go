package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ContextSource reports the hostname the user is currently looking at.
type ContextSource interface {
	CurrentHostname() (string, error)
}

// FileContextSource reads the current hostname from the first line of a file
// kept up to date by an external helper such as a browser extension.
type FileContextSource struct {
	Path string
}

// CurrentHostname returns "" when the file does not exist yet.
func (source FileContextSource) CurrentHostname() (string, error) {
	file, err := os.Open(source.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open context file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read context file: %w", err)
	}
	return "", nil
}
