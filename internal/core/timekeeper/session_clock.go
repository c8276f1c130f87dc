package timekeeper

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"wellbeing/internal/core/model"
	"wellbeing/internal/logfields"
)

// SessionClock is the countdown state machine: Idle, Running, Paused and the
// transient Expired phase that hands over to the BreakEnforcer.
type SessionClock struct {
	mu         sync.Mutex
	options    Options
	limit      int
	thresholds []int
	warnOnce   bool
	state      model.SessionState
	hooks      SessionHooks
	guard      BlockGuard
	stats      StatsRecorder
	ticks      tickSource
}

// NewSessionClock creates an idle clock counting down from limitSeconds.
func NewSessionClock(limitSeconds int, options Options) *SessionClock {
	options = options.withDefaults()
	if limitSeconds <= 0 {
		limitSeconds = model.DefaultTimeLimitSeconds
	}

	clock := &SessionClock{
		options:    options,
		limit:      limitSeconds,
		thresholds: slices.Clone(DefaultWarningThresholds),
		ticks:      tickSource{options: options},
	}
	clock.state = model.SessionState{
		Phase:            model.PhaseIdle,
		RemainingSeconds: limitSeconds,
		TotalSeconds:     limitSeconds,
		LastObservedAt:   options.Clock.Now(),
	}
	return clock
}

// SetHooks replaces the observer callbacks.
func (clock *SessionClock) SetHooks(hooks SessionHooks) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.hooks = hooks
}

// SetBlockGuard injects the break that forbids starting while active.
func (clock *SessionClock) SetBlockGuard(guard BlockGuard) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.guard = guard
}

// SetStatsRecorder injects the recorder used for extensions.
func (clock *SessionClock) SetStatsRecorder(stats StatsRecorder) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.stats = stats
}

// SetWarningThresholds replaces the warning marks, in remaining seconds.
func (clock *SessionClock) SetWarningThresholds(thresholds []int) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.thresholds = slices.Clone(thresholds)
}

// SetWarnOncePerSession makes the first warning suppress the later
// thresholds until the session is reset or extended. By default every
// threshold warns once as the countdown passes it.
func (clock *SessionClock) SetWarnOncePerSession(once bool) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.warnOnce = once
}

// State returns a copy of the current session state.
func (clock *SessionClock) State() model.SessionState {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.state
}

// UsedSeconds returns the time consumed by the current session.
func (clock *SessionClock) UsedSeconds() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.state.UsedSeconds()
}

// Limit returns the configured session length.
func (clock *SessionClock) Limit() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.limit
}

// Start begins or resumes the countdown.
func (clock *SessionClock) Start() error {
	clock.mu.Lock()
	if clock.guard != nil && clock.guard.Active() {
		clock.mu.Unlock()
		return &model.TransitionError{Op: "start", From: "break"}
	}
	if clock.state.Phase != model.PhaseIdle && clock.state.Phase != model.PhasePaused {
		from := clock.state.Phase
		clock.mu.Unlock()
		return &model.TransitionError{Op: "start", From: string(from)}
	}
	clock.startLocked()
	state, hooks := clock.state, clock.hooks
	clock.mu.Unlock()

	notifyPhase(hooks, state)
	return nil
}

// Pause freezes the countdown.
func (clock *SessionClock) Pause() error {
	clock.mu.Lock()
	if clock.state.Phase != model.PhaseRunning {
		from := clock.state.Phase
		clock.mu.Unlock()
		return &model.TransitionError{Op: "pause", From: string(from)}
	}
	clock.ticks.stopLocked()
	clock.state.Phase = model.PhasePaused
	clock.state.LastObservedAt = clock.options.Clock.Now()
	state, hooks := clock.state, clock.hooks
	clock.mu.Unlock()

	notifyPhase(hooks, state)
	return nil
}

// Reset returns to Idle with the full configured time. Valid from any phase.
func (clock *SessionClock) Reset() {
	clock.mu.Lock()
	clock.resetLocked()
	state, hooks := clock.state, clock.hooks
	clock.mu.Unlock()

	notifyPhase(hooks, state)
}

// Halt stops the ticker without changing state or firing hooks. It is meant
// for shutdown, after the state has been snapshotted.
func (clock *SessionClock) Halt() {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.ticks.stopLocked()
}

// Ticking reports whether the internal ticker is running.
func (clock *SessionClock) Ticking() bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.ticks.running()
}

// SetLimit changes the configured session length and resets the clock.
func (clock *SessionClock) SetLimit(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("session limit must be positive, got %d", seconds)
	}
	clock.mu.Lock()
	clock.limit = seconds
	clock.resetLocked()
	state, hooks := clock.state, clock.hooks
	clock.mu.Unlock()

	notifyPhase(hooks, state)
	return nil
}

// Extend adds seconds to the session and re-arms the warnings. An expired
// session that has not yet been handed to a break resumes running.
func (clock *SessionClock) Extend(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("extension must be positive, got %d", seconds)
	}

	clock.mu.Lock()
	if clock.guard != nil && clock.guard.Active() {
		clock.mu.Unlock()
		return &model.TransitionError{Op: "extend", From: "break"}
	}
	clock.state.RemainingSeconds += seconds
	clock.state.TotalSeconds += seconds
	clock.state.WarningIssued = false
	now := clock.options.Clock.Now()
	clock.state.LastObservedAt = now
	phaseChanged := false
	if clock.state.Phase == model.PhaseExpired {
		clock.startLocked()
		phaseChanged = true
	}
	state, hooks, stats := clock.state, clock.hooks, clock.stats
	clock.mu.Unlock()

	if stats != nil {
		if err := stats.RecordExtension(context.Background(), now); err != nil {
			slog.Warn("Failed to record extension", logfields.Error(err))
		}
	}
	if phaseChanged {
		notifyPhase(hooks, state)
	} else if hooks.OnTick != nil {
		hooks.OnTick(state)
	}
	return nil
}

// Tick advances a running session by one second.
func (clock *SessionClock) Tick() {
	clock.advance(func() bool { return true })
}

func (clock *SessionClock) scheduledTick(generation uint64) {
	clock.advance(func() bool { return clock.ticks.current(generation) })
}

// advance runs with the lock taken inside; valid is checked under the lock.
func (clock *SessionClock) advance(valid func() bool) {
	clock.mu.Lock()
	if clock.state.Phase != model.PhaseRunning || !valid() {
		clock.mu.Unlock()
		return
	}

	clock.state.RemainingSeconds--
	clock.state.LastObservedAt = clock.options.Clock.Now()

	warn, expire := false, false
	if clock.state.RemainingSeconds <= 0 {
		clock.state.RemainingSeconds = 0
		clock.state.Phase = model.PhaseExpired
		clock.ticks.stopLocked()
		expire = true
	} else if slices.Contains(clock.thresholds, clock.state.RemainingSeconds) && !(clock.warnOnce && clock.state.WarningIssued) {
		clock.state.WarningIssued = true
		warn = true
	}
	state, hooks := clock.state, clock.hooks
	clock.mu.Unlock()

	if hooks.OnTick != nil {
		hooks.OnTick(state)
	}
	if warn && hooks.OnWarning != nil {
		hooks.OnWarning(state.RemainingSeconds)
	}
	if expire {
		notifyPhase(hooks, state)
		if hooks.OnExpire != nil {
			hooks.OnExpire(state.UsedSeconds())
		}
	}
}

// restore installs a reconstructed state. A running state is resumed through
// Start so the break guard still applies; a state with no time left expires.
func (clock *SessionClock) restore(state model.SessionState) error {
	clock.mu.Lock()
	clock.ticks.stopLocked()
	wantRunning := state.Phase == model.PhaseRunning
	if wantRunning {
		state.Phase = model.PhasePaused
	}
	state.LastObservedAt = clock.options.Clock.Now()

	if wantRunning && state.RemainingSeconds <= 0 {
		state.RemainingSeconds = 0
		state.Phase = model.PhaseExpired
		clock.state = state
		hooks := clock.hooks
		clock.mu.Unlock()

		notifyPhase(hooks, state)
		if hooks.OnExpire != nil {
			hooks.OnExpire(state.UsedSeconds())
		}
		return nil
	}

	clock.state = state
	hooks := clock.hooks
	clock.mu.Unlock()

	if wantRunning {
		return clock.Start()
	}
	notifyPhase(hooks, state)
	return nil
}

func (clock *SessionClock) startLocked() {
	clock.state.Phase = model.PhaseRunning
	clock.state.LastObservedAt = clock.options.Clock.Now()
	clock.ticks.startLocked(clock.scheduledTick)
}

func (clock *SessionClock) resetLocked() {
	clock.ticks.stopLocked()
	clock.state = model.SessionState{
		Phase:            model.PhaseIdle,
		RemainingSeconds: clock.limit,
		TotalSeconds:     clock.limit,
		LastObservedAt:   clock.options.Clock.Now(),
	}
}

func notifyPhase(hooks SessionHooks, state model.SessionState) {
	if hooks.OnPhaseChange != nil {
		hooks.OnPhaseChange(state)
	}
}
