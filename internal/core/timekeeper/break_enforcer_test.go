package timekeeper

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing/internal/core/model"
)

func TestBreakEnforcer_CountsDownFromWallClock(t *testing.T) {
	h := newHarness(600)
	var ticks []time.Duration
	h.breaks.SetHooks(BreakHooks{
		OnTick: func(remaining time.Duration) { ticks = append(ticks, remaining) },
		OnEnd:  func(completed bool) { h.ended = append(h.ended, completed) },
	})
	require.NoError(t, h.breaks.StartBreak(0))
	assert.Equal(t, DefaultBreakDuration, h.breaks.Remaining())

	h.wall.Advance(10 * time.Minute)
	h.breaks.Tick()
	assert.True(t, h.breaks.Active())
	assert.Equal(t, []time.Duration{5 * time.Minute}, ticks)

	h.wall.Advance(6 * time.Minute)
	h.breaks.Tick()
	h.breaks.Tick()

	assert.False(t, h.breaks.Active())
	assert.Nil(t, h.breaks.State().EndAt)
	assert.Equal(t, []bool{true}, h.ended)
	assert.Equal(t, time.Duration(0), h.breaks.Remaining())
	require.NoError(t, h.clock.Start())
}

func TestBreakEnforcer_StartWhileActive(t *testing.T) {
	h := newHarness(600)
	require.NoError(t, h.breaks.StartBreak(time.Minute))

	err := h.breaks.StartBreak(time.Minute)

	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, 1, h.stats.blocks)
}

func TestBreakEnforcer_AccruesUsageBeforeReset(t *testing.T) {
	h := newHarness(600)
	require.NoError(t, h.clock.Start())
	h.tick(90)

	require.NoError(t, h.breaks.StartBreak(time.Minute))

	assert.Equal(t, []int{90}, h.stats.used)
	assert.Equal(t, model.PhaseIdle, h.clock.State().Phase)
	assert.Equal(t, 600, h.clock.State().RemainingSeconds)
}

func TestBreakEnforcer_EmergencyEndRequiresConfirmation(t *testing.T) {
	h := newHarness(600)
	require.NoError(t, h.breaks.StartBreak(time.Minute))

	err := h.breaks.EmergencyEnd(false)
	require.ErrorIs(t, err, model.ErrConfirmationRequired)
	assert.True(t, h.breaks.Active())

	require.NoError(t, h.breaks.EmergencyEnd(true))
	assert.False(t, h.breaks.Active())
	assert.Equal(t, []bool{false}, h.ended)
	assert.Equal(t, 1, h.stats.emergencies)
	assert.Equal(t, 1, h.stats.blocks)

	assert.ErrorIs(t, h.breaks.EmergencyEnd(true), model.ErrInvalidTransition)
}

func TestBreakEnforcer_StaleScheduledTickIsDropped(t *testing.T) {
	h := newHarness(600)
	require.NoError(t, h.breaks.StartBreak(time.Minute))
	stale := h.breaks.ticks.generation
	require.NoError(t, h.breaks.EmergencyEnd(true))
	require.NoError(t, h.breaks.StartBreak(time.Minute))

	h.wall.Advance(2 * time.Minute)
	h.breaks.scheduledTick(stale)
	assert.True(t, h.breaks.Active())

	h.breaks.scheduledTick(h.breaks.ticks.generation)
	assert.False(t, h.breaks.Active())
}

func TestBreakEnforcer_HaltKeepsBreakActive(t *testing.T) {
	wall := clockwork.NewFakeClockAt(epoch)
	breaks := NewBreakEnforcer(Options{Clock: wall})
	var ended []bool
	breaks.SetHooks(BreakHooks{OnEnd: func(completed bool) { ended = append(ended, completed) }})
	require.NoError(t, breaks.StartBreak(time.Minute))
	require.True(t, breaks.Ticking())

	breaks.Halt()

	assert.False(t, breaks.Ticking())
	assert.True(t, breaks.Active())
	wall.Advance(2 * time.Minute)
	assert.Never(t, func() bool { return !breaks.Active() }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Empty(t, ended)
}
