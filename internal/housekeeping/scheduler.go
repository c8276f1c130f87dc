// Package housekeeping runs the periodic background jobs of the desktop app.
package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"wellbeing/internal/core/monitor"
	"wellbeing/internal/logfields"
	"wellbeing/internal/platform"
)

const (
	JobAutosave     = "session-autosave"
	JobContextPoll  = "context-poll"
	JobHistoryPrune = "history-prune"
	JobIdlePause    = "idle-pause"
)

// IdleCheckInterval is how often input idle time is sampled.
const IdleCheckInterval = 5 * time.Second

// Session is the part of the coordinator the jobs act on.
type Session interface {
	Running() bool
	PauseRequested() error
	Suspend(ctx context.Context) error
	CheckContext(hostname string) bool
}

// HistoryPruner deletes old session history.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures the scheduled jobs. A zero interval or a nil
// collaborator disables the matching job.
type Options struct {
	AutosaveInterval time.Duration
	MonitorInterval  time.Duration
	HistoryDays      int
	// IdlePauseAfter pauses a running session once input has been idle this
	// long.
	IdlePauseAfter time.Duration
	Context        monitor.ContextSource
	Idle           platform.IdleProvider
	Clock          clockwork.Clock
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	session   Session
	pruner    HistoryPruner
	options   Options

	mu              sync.Mutex
	lastHost        string
	idleUnsupported bool
}

// New creates the scheduler. Jobs are registered by Start.
func New(session Session, pruner HistoryPruner, options Options) (*Scheduler, error) {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	s, err := gocron.NewScheduler(gocron.WithClock(options.Clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		session:   session,
		pruner:    pruner,
		options:   options,
	}, nil
}

// Start registers the enabled jobs and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.options.AutosaveInterval > 0 {
		if err := s.every(JobAutosave, s.options.AutosaveInterval, func() { s.Autosave(ctx) }); err != nil {
			return err
		}
	}
	if s.options.MonitorInterval > 0 && s.options.Context != nil {
		if err := s.every(JobContextPoll, s.options.MonitorInterval, func() { s.PollContext(ctx) }); err != nil {
			return err
		}
	}
	if s.options.IdlePauseAfter > 0 && s.options.Idle != nil {
		if err := s.every(JobIdlePause, IdleCheckInterval, func() { s.PauseIfIdle() }); err != nil {
			return err
		}
	}
	if s.options.HistoryDays > 0 && s.pruner != nil {
		_, err := s.scheduler.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
			gocron.NewTask(func() { s.Prune(ctx) }),
			gocron.WithName(JobHistoryPrune),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", JobHistoryPrune, err)
		}
	}

	slog.Info("Starting housekeeping", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping housekeeping")
	return s.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Name())
	}
	return names
}

// Autosave snapshots the session while it runs.
func (s *Scheduler) Autosave(ctx context.Context) {
	if !s.session.Running() {
		return
	}
	if err := s.session.Suspend(ctx); err != nil {
		slog.Warn("Autosave failed", logfields.Job(JobAutosave), logfields.Error(err))
	}
}

// PollContext reads the current hostname and hands it to the advisor when it
// changes during a running session.
func (s *Scheduler) PollContext(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Running() {
		s.lastHost = ""
		return
	}
	host, err := s.options.Context.CurrentHostname()
	if err != nil {
		slog.Debug("Context poll failed", logfields.Job(JobContextPoll), logfields.Error(err))
		return
	}
	if host == "" || host == s.lastHost {
		return
	}
	s.lastHost = host
	s.session.CheckContext(host)
}

// PauseIfIdle pauses the running session when the user has been away long
// enough, so time away from the screen is not counted as usage.
func (s *Scheduler) PauseIfIdle() {
	s.mu.Lock()
	unsupported := s.idleUnsupported
	s.mu.Unlock()
	if unsupported || !s.session.Running() {
		return
	}

	idle, err := s.options.Idle.IdleDuration()
	if err != nil {
		if errors.Is(err, platform.ErrIdleUnsupported) {
			s.mu.Lock()
			s.idleUnsupported = true
			s.mu.Unlock()
			slog.Info("Idle detection unavailable, idle pause disabled", logfields.Job(JobIdlePause))
			return
		}
		slog.Debug("Idle check failed", logfields.Job(JobIdlePause), logfields.Error(err))
		return
	}
	if idle < s.options.IdlePauseAfter {
		return
	}
	if err := s.session.PauseRequested(); err != nil {
		slog.Debug("Idle pause skipped", logfields.Job(JobIdlePause), logfields.Error(err))
		return
	}
	slog.Info("Session paused after inactivity", logfields.Job(JobIdlePause), slog.Duration("idle", idle))
}

// Prune removes session history older than the configured number of days.
func (s *Scheduler) Prune(ctx context.Context) {
	cutoff := s.options.Clock.Now().AddDate(0, 0, -s.options.HistoryDays)
	removed, err := s.pruner.PruneHistory(ctx, cutoff)
	if err != nil {
		slog.Warn("History prune failed", logfields.Job(JobHistoryPrune), logfields.Error(err))
		return
	}
	if removed > 0 {
		slog.Info("Pruned session history", logfields.Job(JobHistoryPrune), slog.Int64("removed", removed))
	}
}

func (s *Scheduler) every(name string, interval time.Duration, task func()) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return nil
}
