package model

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultTimeLimitSeconds is the session length used when none is configured.
const DefaultTimeLimitSeconds = 30 * 60

// Settings is the user configuration for sessions, watched sites and messages.
type Settings struct {
	TimeLimitSeconds     int
	Sites                []string
	Messages             []string
	NotificationsEnabled bool
}

// DefaultSites returns the watched sites used on first run.
func DefaultSites() []string {
	return []string{"twitter.com", "x.com", "instagram.com", "tiktok.com", "youtube.com"}
}

// DefaultMessages returns the encouragement messages used on first run.
func DefaultMessages() []string {
	return []string{
		"Well done! You have seen enough for now, time for a break.",
		"Time is up! How about a short rest?",
		"Has it been that long already? Look outside and refresh yourself.",
		"Good work! Rest your eyes and have a glass of water.",
		"That is plenty for today. Stand up and stretch a little.",
		"Too much scrolling is not good for you. Take a short break.",
		"Time's up! Go enjoy something else for a while.",
	}
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		TimeLimitSeconds:     DefaultTimeLimitSeconds,
		Sites:                DefaultSites(),
		Messages:             DefaultMessages(),
		NotificationsEnabled: true,
	}
}

// Clone returns a deep copy.
func (settings Settings) Clone() Settings {
	settings.Sites = slices.Clone(settings.Sites)
	settings.Messages = slices.Clone(settings.Messages)
	return settings
}

// Normalize repairs values that break the settings invariants by falling back
// to the corresponding default.
func (settings Settings) Normalize() Settings {
	normalized := settings.Clone()
	if normalized.TimeLimitSeconds <= 0 {
		normalized.TimeLimitSeconds = DefaultTimeLimitSeconds
	}

	sites := make([]string, 0, len(normalized.Sites))
	for _, site := range normalized.Sites {
		host := NormalizeHost(site)
		if host == "" || slices.Contains(sites, host) {
			continue
		}
		sites = append(sites, host)
	}
	normalized.Sites = sites

	messages := make([]string, 0, len(normalized.Messages))
	for _, message := range normalized.Messages {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			messages = append(messages, trimmed)
		}
	}
	if len(messages) == 0 {
		messages = DefaultMessages()
	}
	normalized.Messages = messages
	return normalized
}

// SetTimeLimit changes the session length.
func (settings *Settings) SetTimeLimit(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("time limit must be positive, got %d", seconds)
	}
	settings.TimeLimitSeconds = seconds
	return nil
}

// SetNotifications toggles notification delivery.
func (settings *Settings) SetNotifications(enabled bool) {
	settings.NotificationsEnabled = enabled
}

// AddSite adds a watched hostname. Adding a site that is already watched is a no-op.
func (settings *Settings) AddSite(site string) error {
	host := NormalizeHost(site)
	if host == "" {
		return fmt.Errorf("invalid site %q", site)
	}
	if slices.Contains(settings.Sites, host) {
		return nil
	}
	settings.Sites = append(settings.Sites, host)
	return nil
}

// RemoveSite removes a watched hostname.
func (settings *Settings) RemoveSite(site string) error {
	host := NormalizeHost(site)
	index := slices.Index(settings.Sites, host)
	if index < 0 {
		return fmt.Errorf("site %q is not watched", site)
	}
	settings.Sites = slices.Delete(settings.Sites, index, index+1)
	return nil
}

// AddMessage appends an encouragement message.
func (settings *Settings) AddMessage(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return fmt.Errorf("message is empty")
	}
	settings.Messages = append(settings.Messages, trimmed)
	return nil
}

// RemoveMessage removes the message at index. The last remaining message
// cannot be removed.
func (settings *Settings) RemoveMessage(index int) error {
	if index < 0 || index >= len(settings.Messages) {
		return fmt.Errorf("message index %d out of range", index)
	}
	if len(settings.Messages) == 1 {
		return fmt.Errorf("at least one message is required")
	}
	settings.Messages = slices.Delete(settings.Messages, index, index+1)
	return nil
}

// NormalizeHost reduces user input such as "https://WWW.Example.com:443/path"
// to a lower-case hostname. It returns "" when no hostname can be derived.
func NormalizeHost(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(parsed.Hostname(), ".")
	if strings.ContainsAny(host, " \t") {
		return ""
	}
	return host
}
