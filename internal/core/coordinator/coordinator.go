// Package coordinator is the composition root of the core. It owns one
// SessionClock, one BreakEnforcer and their persistence, turns UI requests
// into state machine operations and publishes the resulting events.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"wellbeing/internal/core/model"
	"wellbeing/internal/core/monitor"
	"wellbeing/internal/core/timekeeper"
	"wellbeing/internal/logfields"
)

// DefaultExtendSeconds is how much time "continue" adds to a session.
const DefaultExtendSeconds = 5 * 60

// Notifier delivers a user-visible notification. Delivery is best effort.
type Notifier interface {
	Notify(title, body string) error
}

// Config contains runtime options for the Coordinator.
type Config struct {
	Timekeeper         timekeeper.Options
	BreakDuration      time.Duration
	ExtendSeconds      int
	WarningThresholds  []int
	WarnOncePerSession bool
	// Random picks warning messages. Defaults to a time-seeded source.
	Random rand.Source
}

// Status is a point-in-time view of the core.
type Status struct {
	Session        model.SessionState
	Break          model.BreakState
	BreakRemaining time.Duration
}

// Coordinator wires the session and break state machines together.
type Coordinator struct {
	mu       sync.Mutex
	config   Config
	wall     clockwork.Clock
	clock    *timekeeper.SessionClock
	breaks   *timekeeper.BreakEnforcer
	bridge   *timekeeper.PersistenceBridge
	advisor  *monitor.Advisor
	notifier Notifier
	settings model.Settings
	rng      *rand.Rand
	events   []chan Event
}

// New builds the core for the given settings.
func New(settings model.Settings, stats timekeeper.StatsRecorder, snapshots timekeeper.SnapshotStore, notifier Notifier, config Config) *Coordinator {
	if config.Timekeeper.Clock == nil {
		config.Timekeeper.Clock = clockwork.NewRealClock()
	}
	if config.BreakDuration <= 0 {
		config.BreakDuration = timekeeper.DefaultBreakDuration
	}
	if config.ExtendSeconds <= 0 {
		config.ExtendSeconds = DefaultExtendSeconds
	}
	if config.Random == nil {
		config.Random = rand.NewSource(time.Now().UnixNano())
	}
	settings = settings.Normalize()

	clock := timekeeper.NewSessionClock(settings.TimeLimitSeconds, config.Timekeeper)
	breaks := timekeeper.NewBreakEnforcer(config.Timekeeper)
	clock.SetBlockGuard(breaks)
	clock.SetStatsRecorder(stats)
	clock.SetWarnOncePerSession(config.WarnOncePerSession)
	if len(config.WarningThresholds) > 0 {
		clock.SetWarningThresholds(config.WarningThresholds)
	}
	breaks.SetSession(clock)
	breaks.SetStatsRecorder(stats)

	coordinator := &Coordinator{
		config:   config,
		wall:     config.Timekeeper.Clock,
		clock:    clock,
		breaks:   breaks,
		bridge:   timekeeper.NewPersistenceBridge(clock, snapshots, config.Timekeeper.Clock),
		advisor:  monitor.NewAdvisor(settings.Sites),
		notifier: notifier,
		settings: settings,
		rng:      rand.New(config.Random),
	}

	clock.SetHooks(timekeeper.SessionHooks{
		OnTick:        coordinator.handleTick,
		OnWarning:     coordinator.handleWarning,
		OnExpire:      coordinator.handleExpire,
		OnPhaseChange: coordinator.handlePhaseChange,
	})
	breaks.SetHooks(timekeeper.BreakHooks{
		OnStart: coordinator.handleBreakStart,
		OnTick:  coordinator.handleBreakTick,
		OnEnd:   coordinator.handleBreakEnd,
	})
	return coordinator
}

// Subscribe registers a new observer channel.
func (coordinator *Coordinator) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	coordinator.mu.Lock()
	coordinator.events = append(coordinator.events, ch)
	coordinator.mu.Unlock()
	return ch
}

// Close snapshots the session, stops both tickers and closes observers. The
// saved state is left untouched for the next Restore.
func (coordinator *Coordinator) Close(ctx context.Context) error {
	err := coordinator.Suspend(ctx)
	coordinator.clock.Halt()
	coordinator.breaks.Halt()

	coordinator.mu.Lock()
	events := coordinator.events
	coordinator.events = nil
	coordinator.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
	return err
}

// Status returns the current session and break state.
func (coordinator *Coordinator) Status() Status {
	return Status{
		Session:        coordinator.clock.State(),
		Break:          coordinator.breaks.State(),
		BreakRemaining: coordinator.breaks.Remaining(),
	}
}

// Settings returns a copy of the active settings.
func (coordinator *Coordinator) Settings() model.Settings {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.settings.Clone()
}

// StartRequested starts or resumes the session.
func (coordinator *Coordinator) StartRequested() error {
	return coordinator.clock.Start()
}

// PauseRequested pauses the running session.
func (coordinator *Coordinator) PauseRequested() error {
	return coordinator.clock.Pause()
}

// ResetRequested returns the session to its full length.
func (coordinator *Coordinator) ResetRequested() {
	coordinator.clock.Reset()
}

// ExtendRequested continues the session after a warning.
func (coordinator *Coordinator) ExtendRequested() error {
	if err := coordinator.clock.Extend(coordinator.config.ExtendSeconds); err != nil {
		return err
	}
	coordinator.snapshot()
	return nil
}

// StopNowRequested starts the break immediately.
func (coordinator *Coordinator) StopNowRequested() error {
	return coordinator.breaks.StartBreak(coordinator.config.BreakDuration)
}

// EmergencyUnblockRequested ends the break early. confirmed must come from an
// explicit user confirmation.
func (coordinator *Coordinator) EmergencyUnblockRequested(confirmed bool) error {
	return coordinator.breaks.EmergencyEnd(confirmed)
}

// ApplySettings replaces the active settings. A new time limit resets the
// session.
func (coordinator *Coordinator) ApplySettings(settings model.Settings) error {
	settings = settings.Normalize()

	coordinator.mu.Lock()
	limitChanged := coordinator.settings.TimeLimitSeconds != settings.TimeLimitSeconds
	coordinator.settings = settings
	coordinator.mu.Unlock()

	coordinator.advisor.SetSites(settings.Sites)
	if limitChanged {
		if err := coordinator.clock.SetLimit(settings.TimeLimitSeconds); err != nil {
			return fmt.Errorf("apply time limit: %w", err)
		}
	}
	coordinator.emit(Event{Type: EventSettings, At: coordinator.wall.Now()})
	return nil
}

// CheckContext reports whether hostname is a watched site. A match while a
// session runs is logged and published as advisory; nothing is blocked.
func (coordinator *Coordinator) CheckContext(hostname string) bool {
	site, ok := coordinator.advisor.Match(hostname)
	if !ok {
		return false
	}
	state := coordinator.clock.State()
	if state.Phase == model.PhaseRunning && !coordinator.breaks.Active() {
		slog.Info("Watched site in use", logfields.Site(site), logfields.Host(hostname))
		coordinator.emit(Event{
			Type:      EventAdvisory,
			Phase:     state.Phase,
			Remaining: seconds(state.RemainingSeconds),
			Message:   site,
			At:        coordinator.wall.Now(),
		})
	}
	return true
}

// Restore reconstructs the session saved by a previous run.
func (coordinator *Coordinator) Restore(ctx context.Context) (timekeeper.RestoreOutcome, error) {
	outcome, err := coordinator.bridge.Restore(ctx)
	if err != nil && !errors.Is(err, model.ErrInvalidTransition) {
		return outcome, err
	}
	if err != nil {
		slog.Warn("Restored session left paused", logfields.Error(err))
	}
	slog.Info("Session restored", slog.String("outcome", string(outcome)))
	return outcome, nil
}

// Suspend snapshots the session, for shutdown and periodic autosave.
func (coordinator *Coordinator) Suspend(ctx context.Context) error {
	return coordinator.bridge.Snapshot(ctx)
}

// Running reports whether the session countdown is active.
func (coordinator *Coordinator) Running() bool {
	return coordinator.clock.State().Phase == model.PhaseRunning
}

func (coordinator *Coordinator) handleTick(state model.SessionState) {
	coordinator.emit(Event{
		Type:      EventDisplayUpdate,
		Phase:     state.Phase,
		Remaining: seconds(state.RemainingSeconds),
		At:        state.LastObservedAt,
	})
}

func (coordinator *Coordinator) handlePhaseChange(state model.SessionState) {
	slog.Debug("Session phase changed", logfields.Phase(string(state.Phase)))
	coordinator.emit(Event{
		Type:      EventPhaseChange,
		Phase:     state.Phase,
		Remaining: seconds(state.RemainingSeconds),
		At:        state.LastObservedAt,
	})
	coordinator.snapshot()
}

func (coordinator *Coordinator) handleWarning(remainingSeconds int) {
	message := coordinator.pickMessage()
	slog.Info("Session warning", logfields.Remaining(seconds(remainingSeconds)))
	coordinator.emit(Event{
		Type:      EventWarning,
		Phase:     model.PhaseRunning,
		Remaining: seconds(remainingSeconds),
		Message:   message,
		At:        coordinator.wall.Now(),
	})
	coordinator.notify("Usage warning", message)
}

func (coordinator *Coordinator) handleExpire(usedSeconds int) {
	message := coordinator.pickMessage()
	slog.Info("Session expired", logfields.UsedSeconds(usedSeconds))
	coordinator.emit(Event{
		Type:    EventExpired,
		Phase:   model.PhaseExpired,
		Message: message,
		At:      coordinator.wall.Now(),
	})
	coordinator.notify("Time is up", "Time for a break!")

	if err := coordinator.breaks.StartBreak(coordinator.config.BreakDuration); err != nil {
		slog.Warn("Failed to start break", logfields.Error(err))
	}
}

func (coordinator *Coordinator) handleBreakStart(remaining time.Duration) {
	coordinator.emit(Event{
		Type:      EventBreakStarted,
		Remaining: remaining,
		Message:   coordinator.pickMessage(),
		At:        coordinator.wall.Now(),
	})
}

func (coordinator *Coordinator) handleBreakTick(remaining time.Duration) {
	coordinator.emit(Event{
		Type:      EventBreakUpdate,
		Remaining: remaining,
		At:        coordinator.wall.Now(),
	})
}

func (coordinator *Coordinator) handleBreakEnd(completed bool) {
	coordinator.emit(Event{
		Type:      EventBreakEnded,
		Completed: completed,
		At:        coordinator.wall.Now(),
	})
	if completed {
		coordinator.notify("Break finished", "You can start a new session.")
	}
}

func (coordinator *Coordinator) pickMessage() string {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	messages := coordinator.settings.Messages
	if len(messages) == 0 {
		messages = model.DefaultMessages()
	}
	return messages[coordinator.rng.Intn(len(messages))]
}

func (coordinator *Coordinator) notify(title, body string) {
	coordinator.mu.Lock()
	enabled := coordinator.settings.NotificationsEnabled
	coordinator.mu.Unlock()
	if !enabled || coordinator.notifier == nil {
		return
	}
	if err := coordinator.notifier.Notify(title, body); err != nil {
		slog.Debug("Notification not delivered", logfields.Error(err))
	}
}

func (coordinator *Coordinator) snapshot() {
	if err := coordinator.bridge.Snapshot(context.Background()); err != nil {
		slog.Warn("Failed to snapshot session", logfields.Error(err))
	}
}

func (coordinator *Coordinator) emit(event Event) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	for _, ch := range coordinator.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}
