package model

import "time"

// Phase is the SessionClock mode.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
	PhaseExpired Phase = "expired"
)

// Valid reports whether the phase is one of the known values.
func (phase Phase) Valid() bool {
	switch phase {
	case PhaseIdle, PhaseRunning, PhasePaused, PhaseExpired:
		return true
	default:
		return false
	}
}

// SessionState is the countdown owned by the SessionClock.
type SessionState struct {
	Phase            Phase
	RemainingSeconds int
	TotalSeconds     int
	WarningIssued    bool
	LastObservedAt   time.Time
}

// UsedSeconds is the time consumed by the session so far.
func (state SessionState) UsedSeconds() int {
	used := state.TotalSeconds - state.RemainingSeconds
	if used < 0 {
		return 0
	}
	return used
}

// BreakState is the mandatory break owned by the BreakEnforcer.
// Active is true exactly when EndAt is set.
type BreakState struct {
	Active bool
	EndAt  *time.Time
}

// Remaining returns the break time left at now.
func (state BreakState) Remaining(now time.Time) time.Duration {
	if !state.Active || state.EndAt == nil {
		return 0
	}
	remaining := state.EndAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot is the persisted form of a SessionState.
type Snapshot struct {
	Phase            Phase
	Paused           bool
	RemainingSeconds int
	TotalSeconds     int
	WarningIssued    bool
	CapturedAt       time.Time
}
