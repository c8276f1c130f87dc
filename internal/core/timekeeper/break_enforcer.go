package timekeeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wellbeing/internal/core/model"
	"wellbeing/internal/logfields"
)

// BreakEnforcer owns the mandatory break entered when a session expires.
// The break end is a wall-clock instant, so remaining time is always derived
// from the clock rather than counted down.
type BreakEnforcer struct {
	mu      sync.Mutex
	options Options
	state   model.BreakState
	session SessionResetter
	stats   StatsRecorder
	hooks   BreakHooks
	ticks   tickSource
}

// NewBreakEnforcer creates an inactive enforcer.
func NewBreakEnforcer(options Options) *BreakEnforcer {
	options = options.withDefaults()
	return &BreakEnforcer{
		options: options,
		ticks:   tickSource{options: options},
	}
}

// SetSession injects the clock reset when a break starts.
func (enforcer *BreakEnforcer) SetSession(session SessionResetter) {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	enforcer.session = session
}

// SetStatsRecorder injects the recorder for blocks and emergency exits.
func (enforcer *BreakEnforcer) SetStatsRecorder(stats StatsRecorder) {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	enforcer.stats = stats
}

// SetHooks replaces the observer callbacks.
func (enforcer *BreakEnforcer) SetHooks(hooks BreakHooks) {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	enforcer.hooks = hooks
}

// Active reports whether a break is in progress.
func (enforcer *BreakEnforcer) Active() bool {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	return enforcer.state.Active
}

// State returns a copy of the break state.
func (enforcer *BreakEnforcer) State() model.BreakState {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	state := enforcer.state
	if state.EndAt != nil {
		endAt := *state.EndAt
		state.EndAt = &endAt
	}
	return state
}

// Remaining returns the break time left, zero when inactive.
func (enforcer *BreakEnforcer) Remaining() time.Duration {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	return enforcer.state.Remaining(enforcer.options.Clock.Now())
}

// Halt stops the ticker and leaves the break state as is. No hooks fire.
func (enforcer *BreakEnforcer) Halt() {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	enforcer.ticks.stopLocked()
}

// Ticking reports whether the internal ticker is running.
func (enforcer *BreakEnforcer) Ticking() bool {
	enforcer.mu.Lock()
	defer enforcer.mu.Unlock()
	return enforcer.ticks.running()
}

// StartBreak enters the break for duration, resets the session clock and
// records the block together with the time the session used.
func (enforcer *BreakEnforcer) StartBreak(duration time.Duration) error {
	if duration <= 0 {
		duration = DefaultBreakDuration
	}

	enforcer.mu.Lock()
	if enforcer.state.Active {
		enforcer.mu.Unlock()
		return &model.TransitionError{Op: "start break", From: "break"}
	}
	now := enforcer.options.Clock.Now()
	endAt := now.Add(duration)
	enforcer.state = model.BreakState{Active: true, EndAt: &endAt}
	enforcer.ticks.startLocked(enforcer.scheduledTick)
	session, stats, hooks := enforcer.session, enforcer.stats, enforcer.hooks
	enforcer.mu.Unlock()

	used := 0
	if session != nil {
		used = session.UsedSeconds()
		session.Reset()
	}
	if stats != nil {
		if err := stats.RecordBlock(context.Background(), used, now); err != nil {
			slog.Warn("Failed to record block", logfields.Error(err))
		}
	}
	slog.Info("Break started", logfields.Remaining(duration), logfields.UsedSeconds(used))

	if hooks.OnStart != nil {
		hooks.OnStart(duration)
	}
	return nil
}

// Tick re-derives the remaining break time and ends the break at zero.
func (enforcer *BreakEnforcer) Tick() {
	enforcer.advance(func() bool { return true })
}

func (enforcer *BreakEnforcer) scheduledTick(generation uint64) {
	enforcer.advance(func() bool { return enforcer.ticks.current(generation) })
}

func (enforcer *BreakEnforcer) advance(valid func() bool) {
	enforcer.mu.Lock()
	if !enforcer.state.Active || !valid() {
		enforcer.mu.Unlock()
		return
	}
	remaining := enforcer.state.Remaining(enforcer.options.Clock.Now())
	ended := remaining <= 0
	if ended {
		enforcer.endLocked()
	}
	hooks := enforcer.hooks
	enforcer.mu.Unlock()

	if hooks.OnTick != nil {
		hooks.OnTick(remaining)
	}
	if ended {
		slog.Info("Break completed")
		if hooks.OnEnd != nil {
			hooks.OnEnd(true)
		}
	}
}

// EmergencyEnd ends the break early. The caller must have obtained explicit
// confirmation from the user; nothing is undone in the stats.
func (enforcer *BreakEnforcer) EmergencyEnd(confirmed bool) error {
	if !confirmed {
		return model.ErrConfirmationRequired
	}

	enforcer.mu.Lock()
	if !enforcer.state.Active {
		enforcer.mu.Unlock()
		return &model.TransitionError{Op: "emergency end", From: "inactive"}
	}
	now := enforcer.options.Clock.Now()
	remaining := enforcer.state.Remaining(now)
	enforcer.endLocked()
	stats, hooks := enforcer.stats, enforcer.hooks
	enforcer.mu.Unlock()

	if stats != nil {
		if err := stats.RecordEmergencyExit(context.Background(), now); err != nil {
			slog.Warn("Failed to record emergency exit", logfields.Error(err))
		}
	}
	slog.Warn("Break ended by emergency unblock", logfields.Remaining(remaining))

	if hooks.OnEnd != nil {
		hooks.OnEnd(false)
	}
	return nil
}

func (enforcer *BreakEnforcer) endLocked() {
	enforcer.ticks.stopLocked()
	enforcer.state = model.BreakState{}
}
