package coordinator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing/internal/core/model"
	"wellbeing/internal/core/timekeeper"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type stubStats struct {
	mu          sync.Mutex
	extensions  int
	blocks      int
	emergencies int
	used        int
}

func (stats *stubStats) RecordExtension(context.Context, time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.extensions++
	return nil
}

func (stats *stubStats) RecordBlock(_ context.Context, usedSeconds int, _ time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.blocks++
	stats.used += usedSeconds
	return nil
}

func (stats *stubStats) RecordEmergencyExit(context.Context, time.Time) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	stats.emergencies++
	return nil
}

type stubSnapshots struct {
	mu       sync.Mutex
	snapshot model.Snapshot
	saved    int
}

func (store *stubSnapshots) SaveSnapshot(_ context.Context, snapshot model.Snapshot) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.snapshot = snapshot
	store.saved++
	return nil
}

func (store *stubSnapshots) LoadSnapshot(context.Context) (model.Snapshot, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.snapshot, store.saved > 0, nil
}

type notification struct {
	title string
	body  string
}

type stubNotifier struct {
	sent []notification
	err  error
}

func (notifier *stubNotifier) Notify(title, body string) error {
	notifier.sent = append(notifier.sent, notification{title: title, body: body})
	return notifier.err
}

type fixture struct {
	wall      *clockwork.FakeClock
	core      *Coordinator
	stats     *stubStats
	snapshots *stubSnapshots
	notifier  *stubNotifier
	events    <-chan Event
}

func newFixture(t *testing.T, settings model.Settings) *fixture {
	t.Helper()
	wall := clockwork.NewFakeClockAt(epoch)
	f := &fixture{
		wall:      wall,
		stats:     &stubStats{},
		snapshots: &stubSnapshots{},
		notifier:  &stubNotifier{},
	}
	f.core = New(settings, f.stats, f.snapshots, f.notifier, Config{
		Timekeeper: timekeeper.Options{Clock: wall, ManualTicks: true},
		Random:     rand.NewSource(1),
	})
	f.events = f.core.Subscribe(8192)
	return f
}

func (f *fixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.core.clock.Tick()
	}
}

func (f *fixture) drain(kind EventType) []Event {
	var matched []Event
	for {
		select {
		case event := <-f.events:
			if event.Type == kind {
				matched = append(matched, event)
			}
		default:
			return matched
		}
	}
}

func TestCoordinator_SessionToBreakCycle(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 600
	f := newFixture(t, settings)

	require.NoError(t, f.core.StartRequested())
	f.tick(300)

	warnings := f.drain(EventWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, 300*time.Second, warnings[0].Remaining)
	assert.Contains(t, settings.Messages, warnings[0].Message)

	f.tick(300)
	assert.Len(t, f.drain(EventExpired), 1)

	status := f.core.Status()
	assert.True(t, status.Break.Active)
	assert.Equal(t, timekeeper.DefaultBreakDuration, status.BreakRemaining)
	assert.Equal(t, model.PhaseIdle, status.Session.Phase)
	assert.Equal(t, 1, f.stats.blocks)
	assert.Equal(t, 600, f.stats.used)

	assert.ErrorIs(t, f.core.StartRequested(), model.ErrInvalidTransition)

	f.wall.Advance(timekeeper.DefaultBreakDuration)
	f.core.breaks.Tick()
	ended := f.drain(EventBreakEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Completed)
	require.NoError(t, f.core.StartRequested())

	titles := make([]string, 0, len(f.notifier.sent))
	for _, sent := range f.notifier.sent {
		titles = append(titles, sent.title)
	}
	assert.Equal(t, []string{"Usage warning", "Usage warning", "Time is up", "Break finished"}, titles)
}

func TestCoordinator_NotificationsDisabled(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 61
	settings.NotificationsEnabled = false
	f := newFixture(t, settings)

	require.NoError(t, f.core.StartRequested())
	f.tick(61)

	assert.Empty(t, f.notifier.sent)
	assert.True(t, f.core.Status().Break.Active)
}

func TestCoordinator_NotificationFailureIsIgnored(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 61
	f := newFixture(t, settings)
	f.notifier.err = errors.New("no permission")

	require.NoError(t, f.core.StartRequested())
	f.tick(61)

	assert.NotEmpty(t, f.notifier.sent)
	assert.True(t, f.core.Status().Break.Active)
}

func TestCoordinator_DeterministicMessages(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 400
	first := newFixture(t, settings)
	second := newFixture(t, settings)

	for _, f := range []*fixture{first, second} {
		require.NoError(t, f.core.StartRequested())
		f.tick(340)
	}

	assert.Equal(t, first.drain(EventWarning), second.drain(EventWarning))
}

func TestCoordinator_ExtendAndStopNow(t *testing.T) {
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 400
	f := newFixture(t, settings)
	require.NoError(t, f.core.StartRequested())
	f.tick(100)

	require.NoError(t, f.core.ExtendRequested())
	state := f.core.Status().Session
	assert.Equal(t, 600, state.RemainingSeconds)
	assert.Equal(t, 1, f.stats.extensions)
	assert.Equal(t, 600, f.snapshots.snapshot.RemainingSeconds)

	require.NoError(t, f.core.StopNowRequested())
	assert.True(t, f.core.Status().Break.Active)
	assert.Equal(t, 100, f.stats.used)
	assert.ErrorIs(t, f.core.StopNowRequested(), model.ErrInvalidTransition)
	assert.ErrorIs(t, f.core.ExtendRequested(), model.ErrInvalidTransition)
}

func TestCoordinator_EmergencyUnblock(t *testing.T) {
	f := newFixture(t, model.DefaultSettings())
	require.NoError(t, f.core.StopNowRequested())

	assert.ErrorIs(t, f.core.EmergencyUnblockRequested(false), model.ErrConfirmationRequired)
	require.NoError(t, f.core.EmergencyUnblockRequested(true))

	ended := f.drain(EventBreakEnded)
	require.Len(t, ended, 1)
	assert.False(t, ended[0].Completed)
	assert.Equal(t, 1, f.stats.emergencies)
	require.NoError(t, f.core.StartRequested())
}

func TestCoordinator_SnapshotsOnTransitions(t *testing.T) {
	f := newFixture(t, model.DefaultSettings())

	require.NoError(t, f.core.StartRequested())
	assert.Equal(t, model.PhaseRunning, f.snapshots.snapshot.Phase)
	f.tick(5)
	require.NoError(t, f.core.PauseRequested())
	assert.True(t, f.snapshots.snapshot.Paused)
	assert.Equal(t, 1795, f.snapshots.snapshot.RemainingSeconds)
	f.core.ResetRequested()
	assert.Equal(t, model.PhaseIdle, f.snapshots.snapshot.Phase)
}

func TestCoordinator_RestoreAcrossInstances(t *testing.T) {
	first := newFixture(t, model.DefaultSettings())
	require.NoError(t, first.core.StartRequested())
	first.tick(200)
	require.NoError(t, first.core.Close(context.Background()))
	for range first.events {
	}

	restored := New(model.DefaultSettings(), &stubStats{}, first.snapshots, &stubNotifier{}, Config{
		Timekeeper: timekeeper.Options{Clock: first.wall, ManualTicks: true},
	})
	first.wall.Advance(100 * time.Second)

	outcome, err := restored.Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, timekeeper.RestoreResumed, outcome)
	assert.Equal(t, 1500, restored.Status().Session.RemainingSeconds)
	assert.True(t, restored.Running())
}

func TestCoordinator_ApplySettings(t *testing.T) {
	f := newFixture(t, model.DefaultSettings())
	require.NoError(t, f.core.StartRequested())
	f.tick(10)

	updated := f.core.Settings()
	updated.NotificationsEnabled = false
	require.NoError(t, updated.AddSite("reddit.com"))
	require.NoError(t, f.core.ApplySettings(updated))
	assert.Equal(t, model.PhaseRunning, f.core.Status().Session.Phase)
	assert.True(t, f.core.CheckContext("www.reddit.com"))

	require.NoError(t, updated.SetTimeLimit(900))
	require.NoError(t, f.core.ApplySettings(updated))
	state := f.core.Status().Session
	assert.Equal(t, model.PhaseIdle, state.Phase)
	assert.Equal(t, 900, state.RemainingSeconds)
	assert.Len(t, f.drain(EventSettings), 2)
}

func TestCoordinator_CheckContextIsAdvisory(t *testing.T) {
	f := newFixture(t, model.DefaultSettings())

	assert.True(t, f.core.CheckContext("x.com"))
	assert.Empty(t, f.drain(EventAdvisory))

	require.NoError(t, f.core.StartRequested())
	assert.True(t, f.core.CheckContext("www.instagram.com"))
	assert.False(t, f.core.CheckContext("example.org"))

	advisories := f.drain(EventAdvisory)
	require.Len(t, advisories, 1)
	assert.Equal(t, "instagram.com", advisories[0].Message)
	assert.Equal(t, model.PhaseRunning, f.core.Status().Session.Phase)
}

func TestCoordinator_CloseStopsTickers(t *testing.T) {
	wall := clockwork.NewFakeClockAt(epoch)
	snapshots := &stubSnapshots{}
	core := New(model.DefaultSettings(), &stubStats{}, snapshots, nil, Config{
		Timekeeper: timekeeper.Options{Clock: wall},
	})
	events := core.Subscribe(16)
	require.NoError(t, core.StartRequested())
	require.True(t, core.clock.Ticking())

	require.NoError(t, core.Close(context.Background()))

	assert.False(t, core.clock.Ticking())
	assert.False(t, core.breaks.Ticking())
	assert.Equal(t, model.PhaseRunning, snapshots.snapshot.Phase)
	assert.Equal(t, model.PhaseRunning, core.Status().Session.Phase)
	for range events {
	}

	wall.Advance(10 * time.Second)
	assert.Never(t, func() bool {
		return core.Status().Session.RemainingSeconds != model.DefaultTimeLimitSeconds
	}, 50*time.Millisecond, 5*time.Millisecond)
}
