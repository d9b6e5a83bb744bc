package pipeline

import (
	"context"
	"time"

	"github.com/zkpipe/zkpipe/log"
	"github.com/zkpipe/zkpipe/util"
)

// Window is an inclusive delay range in seconds.
type Window struct {
	Min int
	Max int
}

// Pacer produces randomized, context-cancellable delays. The randomness and
// the clock are injectable for tests; zero values fall back to the real
// thing.
type Pacer struct {
	window  Window
	randInt func(min, max int) int
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a pacer drawing uniform delays from the window, bounds
// included.
func NewPacer(window Window) *Pacer {
	return &Pacer{
		window:  window,
		randInt: util.RandomInRange,
		sleep:   sleepCtx,
	}
}

// Wait blocks for a fresh random duration from the window, or until the
// context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	seconds := p.randInt(p.window.Min, p.window.Max)
	log.Debugw("pacing", "seconds", seconds)
	return p.sleep(ctx, time.Duration(seconds)*time.Second)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
