// Package loop owns the frame counter the beat clock reads from.
package loop

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
)

// Counter is a frame counter safe to read from other goroutines.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) FrameCount() int64 { return c.n.Load() }

// Set jumps to frame n, e.g. to redraw or seek.
func (c *Counter) Set(n int64) { c.n.Store(n) }

// Advance increments the counter and returns the new frame.
func (c *Counter) Advance() int64 { return c.n.Add(1) }

// Looper drives a Counter at a fixed rate and calls Frame after each
// increment.
type Looper struct {
	Counter *Counter
	Rate    physic.Frequency
	Frame   func(n int64)
}

// Run ticks until ctx is cancelled. Late ticks are dropped rather than
// replayed, so a slow Frame callback lowers the frame rate.
func (l *Looper) Run(ctx context.Context) {
	period := l.Rate.Period()
	if period <= 0 {
		period = time.Second / 30
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Debug().Str("rate", l.Rate.String()).Dur("period", period).Msg("render loop starting")
	for {
		select {
		case <-ticker.C:
			n := l.Counter.Advance()
			start := time.Now()
			if l.Frame != nil {
				l.Frame(n)
			}
			if d := time.Since(start); d > period {
				log.Debug().Int64("frame", n).Dur("took", d).Msg("frame overran period")
			}

		case <-ctx.Done():
			log.Debug().Int64("frame", l.Counter.FrameCount()).Msg("render loop stopped")
			return
		}
	}
}
