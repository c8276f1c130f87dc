package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wellbeing/internal/core/model"
)

// minutesText renders a time limit for the minutes entry.
func minutesText(seconds int) string {
	if seconds%60 == 0 {
		return strconv.Itoa(seconds / 60)
	}
	return strconv.FormatFloat(float64(seconds)/60, 'f', 2, 64)
}

// parseMinutes reads the minutes entry. Fractions are allowed down to whole
// seconds.
func parseMinutes(value string) (int, error) {
	minutes, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("time limit %q is not a number", value)
	}
	seconds := int(minutes * 60)
	if seconds <= 0 {
		return 0, fmt.Errorf("time limit must be positive")
	}
	return seconds, nil
}

// applyForm copies the general tab into settings through the validating
// mutators, so a bad value leaves settings untouched.
func applyForm(settings model.Settings, limitText string, notifications bool) (model.Settings, error) {
	seconds, err := parseMinutes(limitText)
	if err != nil {
		return settings, err
	}
	updated := settings.Clone()
	if err := updated.SetTimeLimit(seconds); err != nil {
		return settings, err
	}
	updated.SetNotifications(notifications)
	return updated, nil
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}
