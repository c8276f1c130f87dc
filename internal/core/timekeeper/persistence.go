package timekeeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"wellbeing/internal/core/model"
	"wellbeing/internal/logfields"
)

// SnapshotStore persists the most recent session snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error
	// LoadSnapshot reports ok=false when nothing was saved.
	LoadSnapshot(ctx context.Context) (snapshot model.Snapshot, ok bool, err error)
}

// RestoreOutcome describes what Restore did with the saved snapshot.
type RestoreOutcome string

const (
	RestoreNone    RestoreOutcome = "none"
	RestoreIdle    RestoreOutcome = "idle"
	RestorePaused  RestoreOutcome = "paused"
	RestoreResumed RestoreOutcome = "resumed"
	RestoreExpired RestoreOutcome = "expired"
)

// PersistenceBridge saves the SessionClock across restarts and fast-forwards
// a running session by the wall-clock time that passed while it was away.
// Breaks are not persisted: a break in progress does not survive a restart.
type PersistenceBridge struct {
	clock *SessionClock
	store SnapshotStore
	wall  clockwork.Clock
}

// NewPersistenceBridge binds a clock to a snapshot store.
func NewPersistenceBridge(clock *SessionClock, store SnapshotStore, wall clockwork.Clock) *PersistenceBridge {
	if wall == nil {
		wall = clockwork.NewRealClock()
	}
	return &PersistenceBridge{clock: clock, store: store, wall: wall}
}

// Snapshot writes the current session state.
func (bridge *PersistenceBridge) Snapshot(ctx context.Context) error {
	state := bridge.clock.State()
	snapshot := model.Snapshot{
		Phase:            state.Phase,
		Paused:           state.Phase == model.PhasePaused,
		RemainingSeconds: state.RemainingSeconds,
		TotalSeconds:     state.TotalSeconds,
		WarningIssued:    state.WarningIssued,
		CapturedAt:       bridge.wall.Now(),
	}
	if err := bridge.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Restore reconstructs the session from the saved snapshot. A malformed
// snapshot is logged and ignored. A running session whose time ran out while
// away goes through the normal expiry path.
func (bridge *PersistenceBridge) Restore(ctx context.Context) (RestoreOutcome, error) {
	snapshot, ok, err := bridge.store.LoadSnapshot(ctx)
	if err != nil {
		slog.Warn("Ignoring unreadable session snapshot", logfields.Error(err))
		return RestoreNone, nil
	}
	if !ok {
		return RestoreNone, nil
	}
	if err := validateSnapshot(snapshot); err != nil {
		slog.Warn("Ignoring session snapshot", logfields.Error(err))
		return RestoreNone, nil
	}

	state := model.SessionState{
		RemainingSeconds: snapshot.RemainingSeconds,
		TotalSeconds:     snapshot.TotalSeconds,
		WarningIssued:    snapshot.WarningIssued,
	}

	switch {
	case snapshot.Phase == model.PhaseRunning && !snapshot.Paused:
		elapsed := int(bridge.wall.Since(snapshot.CapturedAt) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		state.Phase = model.PhaseRunning
		state.RemainingSeconds = max(0, snapshot.RemainingSeconds-elapsed)
		if err := bridge.clock.restore(state); err != nil {
			return RestorePaused, err
		}
		if state.RemainingSeconds == 0 {
			return RestoreExpired, nil
		}
		return RestoreResumed, nil
	case snapshot.Phase == model.PhasePaused || snapshot.Paused:
		state.Phase = model.PhasePaused
		if err := bridge.clock.restore(state); err != nil {
			return RestoreNone, err
		}
		return RestorePaused, nil
	default:
		bridge.clock.Reset()
		return RestoreIdle, nil
	}
}

func validateSnapshot(snapshot model.Snapshot) error {
	if !snapshot.Phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", model.ErrMalformedData, snapshot.Phase)
	}
	if snapshot.TotalSeconds <= 0 || snapshot.RemainingSeconds < 0 || snapshot.RemainingSeconds > snapshot.TotalSeconds {
		return fmt.Errorf("%w: remaining %d of %d seconds", model.ErrMalformedData, snapshot.RemainingSeconds, snapshot.TotalSeconds)
	}
	if snapshot.CapturedAt.IsZero() {
		return fmt.Errorf("%w: missing capture time", model.ErrMalformedData)
	}
	return nil
}
