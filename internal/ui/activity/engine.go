// Package activity drives the suggestions and breathing cue shown on the
// block screen during a break.
package activity

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"github.com/jonboulle/clockwork"
)

// Activity is one thing to do during a break.
type Activity struct {
	Title string
	Icon  fyne.Resource
}

// DefaultActivities returns the built-in break suggestions.
func DefaultActivities() []Activity {
	return []Activity{
		{Title: "Look out of the window for a while", Icon: theme.VisibilityIcon()},
		{Title: "Stand up and stretch your back", Icon: theme.AccountIcon()},
		{Title: "Drink a glass of water", Icon: theme.HomeIcon()},
		{Title: "Roll your shoulders and relax your neck", Icon: theme.MediaReplayIcon()},
		{Title: "Take a short walk", Icon: theme.NavigateNextIcon()},
	}
}

// Breath is a phase of the breathing cue.
type Breath string

const (
	BreatheIn  Breath = "Breathe in"
	BreatheOut Breath = "Breathe out"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains timing values.
type Config struct {
	SwitchAfter Range
	BreatheIn   time.Duration
	BreatheOut  time.Duration
}

// DefaultConfig switches suggestions every 20 to 40 seconds and paces
// breathing at four seconds in, six out.
func DefaultConfig() Config {
	return Config{
		SwitchAfter: Range{Min: 20 * time.Second, Max: 40 * time.Second},
		BreatheIn:   4 * time.Second,
		BreatheOut:  6 * time.Second,
	}
}

// Handlers receive updates from the engine goroutines.
type Handlers struct {
	OnActivity func(Activity)
	OnBreath   func(Breath)
}

// Engine cycles activities and breathing phases until stopped.
type Engine struct {
	mu       sync.Mutex
	config   Config
	clock    clockwork.Clock
	handlers Handlers
	cancel   context.CancelFunc
	rng      *rand.Rand
}

// New creates an engine. A nil clock uses the real clock.
func New(config Config, clock clockwork.Clock, handlers Handlers) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		config:   config,
		clock:    clock,
		handlers: handlers,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins a new cycle over activities, replacing any running one.
func (engine *Engine) Start(ctx context.Context, activities []Activity) {
	if len(activities) == 0 {
		activities = DefaultActivities()
	}

	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	engine.cancel = cancel
	first := engine.rng.Intn(len(activities))
	engine.mu.Unlock()

	go engine.runActivities(runCtx, activities, first)
	go engine.runBreathing(runCtx)
}

// Stop terminates the running cycle.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

func (engine *Engine) runActivities(ctx context.Context, activities []Activity, index int) {
	for {
		if engine.handlers.OnActivity != nil {
			engine.handlers.OnActivity(activities[index%len(activities)])
		}
		index++

		engine.mu.Lock()
		wait := engine.config.SwitchAfter.Random(engine.rng)
		engine.mu.Unlock()
		if !engine.sleep(ctx, wait) {
			return
		}
	}
}

func (engine *Engine) runBreathing(ctx context.Context) {
	for {
		if !engine.breathe(ctx, BreatheIn, engine.config.BreatheIn) {
			return
		}
		if !engine.breathe(ctx, BreatheOut, engine.config.BreatheOut) {
			return
		}
	}
}

func (engine *Engine) breathe(ctx context.Context, phase Breath, duration time.Duration) bool {
	if engine.handlers.OnBreath != nil {
		engine.handlers.OnBreath(phase)
	}
	return engine.sleep(ctx, duration)
}

func (engine *Engine) sleep(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		duration = time.Second
	}
	timer := engine.clock.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
