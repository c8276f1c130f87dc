package timekeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing/internal/core/model"
)

func TestPersistenceBridge_RoundTripWithoutElapsedTime(t *testing.T) {
	for _, pause := range []bool{false, true} {
		h := newHarness(1800)
		require.NoError(t, h.clock.Start())
		h.tick(1600)
		if pause {
			require.NoError(t, h.clock.Pause())
		}
		store := &memorySnapshots{}
		require.NoError(t, NewPersistenceBridge(h.clock, store, h.wall).Snapshot(context.Background()))
		want := h.clock.State()

		restored := NewSessionClock(1800, Options{Clock: h.wall, ManualTicks: true})
		outcome, err := NewPersistenceBridge(restored, store, h.wall).Restore(context.Background())

		require.NoError(t, err)
		if pause {
			assert.Equal(t, RestorePaused, outcome)
		} else {
			assert.Equal(t, RestoreResumed, outcome)
		}
		assert.Equal(t, want, restored.State())
	}
}

func TestPersistenceBridge_FastForwardsRunningSession(t *testing.T) {
	h := newHarness(1800)
	store := &memorySnapshots{ok: true, snapshot: model.Snapshot{
		Phase:            model.PhaseRunning,
		RemainingSeconds: 100,
		TotalSeconds:     1800,
		WarningIssued:    true,
		CapturedAt:       epoch.Add(-30500 * time.Millisecond),
	}}

	outcome, err := NewPersistenceBridge(h.clock, store, h.wall).Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RestoreResumed, outcome)
	state := h.clock.State()
	assert.Equal(t, model.PhaseRunning, state.Phase)
	assert.Equal(t, 70, state.RemainingSeconds)
	assert.True(t, state.WarningIssued)

	h.tick(10)
	assert.Equal(t, []int{60}, h.warnings)
}

func TestPersistenceBridge_ElapsedBeyondRemainingExpires(t *testing.T) {
	h := newHarness(1800)
	store := &memorySnapshots{ok: true, snapshot: model.Snapshot{
		Phase:            model.PhaseRunning,
		RemainingSeconds: 100,
		TotalSeconds:     1800,
		CapturedAt:       epoch.Add(-150000 * time.Millisecond),
	}}

	outcome, err := NewPersistenceBridge(h.clock, store, h.wall).Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RestoreExpired, outcome)
	assert.Equal(t, []int{1800}, h.expired)
	assert.True(t, h.breaks.Active())
	assert.Equal(t, model.PhaseIdle, h.clock.State().Phase)
	assert.Equal(t, []int{1800}, h.stats.used)
}

func TestPersistenceBridge_IdleSnapshotRestoresFreshSession(t *testing.T) {
	h := newHarness(900)
	store := &memorySnapshots{ok: true, snapshot: model.Snapshot{
		Phase:            model.PhaseIdle,
		RemainingSeconds: 1800,
		TotalSeconds:     1800,
		CapturedAt:       epoch,
	}}

	outcome, err := NewPersistenceBridge(h.clock, store, h.wall).Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RestoreIdle, outcome)
	assert.Equal(t, 900, h.clock.State().RemainingSeconds)
}

func TestPersistenceBridge_IgnoresBadSnapshots(t *testing.T) {
	cases := map[string]*memorySnapshots{
		"missing":       {},
		"load error":    {ok: true, err: errors.New("disk gone")},
		"unknown phase": {ok: true, snapshot: model.Snapshot{Phase: "warp", RemainingSeconds: 1, TotalSeconds: 10, CapturedAt: epoch}},
		"negative":      {ok: true, snapshot: model.Snapshot{Phase: model.PhaseRunning, RemainingSeconds: -1, TotalSeconds: 10, CapturedAt: epoch}},
		"over total":    {ok: true, snapshot: model.Snapshot{Phase: model.PhaseRunning, RemainingSeconds: 11, TotalSeconds: 10, CapturedAt: epoch}},
		"no timestamp":  {ok: true, snapshot: model.Snapshot{Phase: model.PhaseRunning, RemainingSeconds: 1, TotalSeconds: 10}},
	}
	for name, store := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(600)
			before := h.clock.State()

			outcome, err := NewPersistenceBridge(h.clock, store, h.wall).Restore(context.Background())

			require.NoError(t, err)
			assert.Equal(t, RestoreNone, outcome)
			assert.Equal(t, before, h.clock.State())
		})
	}
}

func TestPersistenceBridge_RestoreWhileBlockedStaysPaused(t *testing.T) {
	h := newHarness(600)
	require.NoError(t, h.breaks.StartBreak(time.Minute))
	store := &memorySnapshots{ok: true, snapshot: model.Snapshot{
		Phase:            model.PhaseRunning,
		RemainingSeconds: 300,
		TotalSeconds:     600,
		CapturedAt:       epoch,
	}}

	outcome, err := NewPersistenceBridge(h.clock, store, h.wall).Restore(context.Background())

	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, RestorePaused, outcome)
	assert.Equal(t, model.PhasePaused, h.clock.State().Phase)
}
