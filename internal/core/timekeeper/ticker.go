package timekeeper

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Options contains runtime options shared by SessionClock and BreakEnforcer.
type Options struct {
	Clock        clockwork.Clock
	TickInterval time.Duration
	// ManualTicks disables the internal ticker; the caller drives Tick.
	ManualTicks bool
}

func (options Options) withDefaults() Options {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	return options
}

// tickSource runs at most one ticker per component. Every start or stop bumps
// the generation, and a tick carrying an older generation is dropped by its
// owner, so no stale tick lands after a transition.
type tickSource struct {
	options    Options
	generation uint64
	stop       chan struct{}
}

// startLocked must be called with the owner's lock held.
func (source *tickSource) startLocked(fire func(generation uint64)) {
	source.stopLocked()
	if source.options.ManualTicks {
		return
	}

	generation := source.generation
	stop := make(chan struct{})
	source.stop = stop
	ticker := source.options.Clock.NewTicker(source.options.TickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				fire(generation)
			}
		}
	}()
}

// stopLocked must be called with the owner's lock held.
func (source *tickSource) stopLocked() {
	source.generation++
	if source.stop != nil {
		close(source.stop)
		source.stop = nil
	}
}

func (source *tickSource) current(generation uint64) bool {
	return generation == source.generation
}

func (source *tickSource) running() bool {
	return source.stop != nil
}
