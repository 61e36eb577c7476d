// Package beat converts between rendered frames and musical beats.
//
// A Clock reads the frame counter owned by an external render loop and
// derives everything else from it, so any frame can be re-evaluated out of
// real-time order.
package beat

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidArguments is returned by New when a required option is missing.
var ErrInvalidArguments = errors.New("invalid arguments")

// FrameSource is anything exposing the renderer's frame counter.
type FrameSource interface {
	FrameCount() int64
}

// TimeBase is the tempo/frame-rate pair plus frame indexing conventions.
type TimeBase struct {
	FrameRate float64 `json:"frameRate" yaml:"frame_rate"`
	BPM       float64 `json:"bpm" yaml:"bpm"`
	// ZeroIndexed is true when the first rendered frame is 0 rather than 1.
	ZeroIndexed bool `json:"zeroIndexed" yaml:"zero_indexed"`
	// LatencyOffset stalls playback for |LatencyOffset| frames.
	LatencyOffset int64 `json:"latencyOffset" yaml:"latency_offset"`
}

// BeatDurationSeconds is 60/BPM.
func (tb TimeBase) BeatDurationSeconds() float64 {
	return 60 / tb.BPM
}

// Options configures a Clock.
type Options struct {
	Source FrameSource
	TimeBase
}

// Clock maps the source's frame counter onto beats.
type Clock struct {
	src FrameSource
	tb  TimeBase
}

// New validates opts. A missing source, frame rate, or BPM is a programmer
// error; the returned error names every missing field.
func New(opts Options) (*Clock, error) {
	var missing []string
	if opts.Source == nil {
		missing = append(missing, "frameSource")
	}
	if !(opts.FrameRate > 0) {
		missing = append(missing, "frameRate")
	}
	if !(opts.BPM > 0) {
		missing = append(missing, "bpm")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidArguments, strings.Join(missing, ", "))
	}
	return &Clock{src: opts.Source, tb: opts.TimeBase}, nil
}

// TimeBase returns a copy of the clock's time base.
func (c *Clock) TimeBase() TimeBase { return c.tb }

// WithBPM returns a clock sharing the same source at a different tempo.
func (c *Clock) WithBPM(bpm float64) (*Clock, error) {
	tb := c.tb
	tb.BPM = bpm
	return New(Options{Source: c.src, TimeBase: tb})
}

// BeatsToFrames = beats * (60/bpm) * frameRate.
func (c *Clock) BeatsToFrames(beats float64) float64 {
	return beats * (60 / c.tb.BPM) * c.tb.FrameRate
}

// FramesToBeats is the inverse of BeatsToFrames.
func (c *Clock) FramesToBeats(frames float64) float64 {
	return frames / ((c.tb.FrameRate / c.tb.BPM) * 60)
}

// FramesPerBeat is BeatsToFrames(1).
func (c *Clock) FramesPerBeat() float64 {
	return c.BeatsToFrames(1)
}

// Frame returns the effective frame: the raw counter shifted to zero-based
// and held at 0 until the latency offset has elapsed.
func (c *Clock) Frame() int64 {
	return EffectiveFrame(c.src.FrameCount(), c.tb)
}

// Beat is the effective frame expressed in beats.
func (c *Clock) Beat() float64 {
	return c.FramesToBeats(float64(c.Frame()))
}

// EffectiveFrame applies indexing and latency to a raw frame count.
// While |raw| < |LatencyOffset| the result is pinned to 0; past that the
// offset is added, so a negative offset delays playback by its magnitude.
func EffectiveFrame(raw int64, tb TimeBase) int64 {
	f := raw
	if !tb.ZeroIndexed {
		f--
	}
	if tb.LatencyOffset == 0 {
		return f
	}
	if abs(f) < abs(tb.LatencyOffset) {
		return 0
	}
	return f + tb.LatencyOffset
}

// LoopProgress is the [0,1) position inside a repeating window of
// noteDuration beats. Zero means one beat.
func (c *Clock) LoopProgress(noteDuration float64) float64 {
	if noteDuration == 0 {
		noteDuration = 1
	}
	total := c.BeatsToFrames(noteDuration)
	if !(total > 0) {
		return 0
	}
	return Mod(float64(c.Frame()), total) / total
}

// PingPongLoopProgress is a triangle wave that rises 0→1 over duration beats
// and falls back over the next duration beats. Zero means one beat.
func (c *Clock) PingPongLoopProgress(duration float64) float64 {
	if duration == 0 {
		duration = 1
	}
	return PingPong(c.LoopProgress(duration * 2))
}

// PingPong folds p in [0,1) into a triangle wave.
func PingPong(p float64) float64 {
	if p < 0.5 {
		return p * 2
	}
	return (1 - p) * 2
}

// Mod is a floored modulo: the result takes the sign of m.
func Mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	return r
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
