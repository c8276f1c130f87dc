package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by all packages.
const (
	KeyPhase       = "phase"
	KeyRemaining   = "remaining"
	KeyUsedSeconds = "used_seconds"
	KeySite        = "site"
	KeyHost        = "host"
	KeyPath        = "path"
	KeyJob         = "job"
	KeyEvent       = "event"
	KeyError       = "error"
)

func Phase(p string) slog.Attr              { return slog.String(KeyPhase, p) }
func Remaining(d time.Duration) slog.Attr   { return slog.Duration(KeyRemaining, d) }
func UsedSeconds(seconds int) slog.Attr     { return slog.Int(KeyUsedSeconds, seconds) }
func Site(site string) slog.Attr            { return slog.String(KeySite, site) }
func Host(host string) slog.Attr            { return slog.String(KeyHost, host) }
func Path(path string) slog.Attr            { return slog.String(KeyPath, path) }
func Job(name string) slog.Attr             { return slog.String(KeyJob, name) }
func Event(name string) slog.Attr           { return slog.String(KeyEvent, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
