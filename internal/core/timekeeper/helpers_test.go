package timekeeper

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"wellbeing/internal/core/model"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingStats struct {
	mu          sync.Mutex
	extensions  int
	blocks      int
	emergencies int
	used        []int
}

func (stats *recordingStats) RecordExtension(context.Context, time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.extensions++
	return nil
}

func (stats *recordingStats) RecordBlock(_ context.Context, usedSeconds int, _ time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.blocks++
	stats.used = append(stats.used, usedSeconds)
	return nil
}

func (stats *recordingStats) RecordEmergencyExit(context.Context, time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.emergencies++
	return nil
}

type memorySnapshots struct {
	snapshot model.Snapshot
	ok       bool
	err      error
}

func (store *memorySnapshots) SaveSnapshot(_ context.Context, snapshot model.Snapshot) error {
	store.snapshot = snapshot
	store.ok = true
	return nil
}

func (store *memorySnapshots) LoadSnapshot(context.Context) (model.Snapshot, bool, error) {
	return store.snapshot, store.ok, store.err
}

type harness struct {
	wall     *clockwork.FakeClock
	clock    *SessionClock
	breaks   *BreakEnforcer
	stats    *recordingStats
	warnings []int
	expired  []int
	ended    []bool
}

// newHarness wires a clock and an enforcer the way the coordinator does,
// with manual ticks so tests drive every transition.
func newHarness(limit int) *harness {
	wall := clockwork.NewFakeClockAt(epoch)
	options := Options{Clock: wall, ManualTicks: true}
	h := &harness{
		wall:   wall,
		clock:  NewSessionClock(limit, options),
		breaks: NewBreakEnforcer(options),
		stats:  &recordingStats{},
	}
	h.clock.SetBlockGuard(h.breaks)
	h.clock.SetStatsRecorder(h.stats)
	h.breaks.SetSession(h.clock)
	h.breaks.SetStatsRecorder(h.stats)
	h.clock.SetHooks(SessionHooks{
		OnWarning: func(remaining int) { h.warnings = append(h.warnings, remaining) },
		OnExpire: func(used int) {
			h.expired = append(h.expired, used)
			_ = h.breaks.StartBreak(DefaultBreakDuration)
		},
	})
	h.breaks.SetHooks(BreakHooks{
		OnEnd: func(completed bool) { h.ended = append(h.ended, completed) },
	})
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.clock.Tick()
	}
}
