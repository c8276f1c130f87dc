package timekeeper

import (
	"context"
	"time"

	"wellbeing/internal/core/model"
)

// DefaultWarningThresholds are the remaining-second marks at which a session
// warns once.
var DefaultWarningThresholds = []int{5 * 60, 60}

// DefaultBreakDuration is the mandatory break length.
const DefaultBreakDuration = 15 * time.Minute

// SessionHooks receive SessionClock updates. They are invoked without any
// lock held, so they may call back into the clock or the enforcer.
type SessionHooks struct {
	OnTick        func(state model.SessionState)
	OnWarning     func(remainingSeconds int)
	OnExpire      func(usedSeconds int)
	OnPhaseChange func(state model.SessionState)
}

// BreakHooks receive BreakEnforcer updates.
type BreakHooks struct {
	OnStart func(remaining time.Duration)
	OnTick  func(remaining time.Duration)
	OnEnd   func(completed bool)
}

// StatsRecorder accrues usage history. Failures are logged and never change
// session or break state.
type StatsRecorder interface {
	RecordExtension(ctx context.Context, at time.Time) error
	RecordBlock(ctx context.Context, usedSeconds int, at time.Time) error
	RecordEmergencyExit(ctx context.Context, at time.Time) error
}

// BlockGuard reports whether a break currently forbids starting a session.
type BlockGuard interface {
	Active() bool
}

// SessionResetter is the part of the SessionClock a break needs.
type SessionResetter interface {
	UsedSeconds() int
	Reset()
}
