package sequence

import (
	"errors"
	"fmt"
	"math"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/ease"
)

var (
	ErrEveryTooShort   = errors.New("every is shorter than the sequence")
	ErrUnknownMode     = errors.New("unknown animation mode")
	ErrTooFewKeyframes = errors.New("animation needs at least two keyframes")
	ErrMixedKeyframes  = errors.New("animation has both values and keyframes")
)

// Engine evaluates animations against a beat clock. Apart from Trigger
// handles it holds no playback state; every call is re-derived from the
// current frame.
type Engine struct {
	*beat.Clock
	disabled bool
}

// New builds the clock and engine. Construction fails with
// beat.ErrInvalidArguments when the source, frame rate or BPM is missing.
func New(opts Options) (*Engine, error) {
	c, err := beat.New(opts.Options)
	if err != nil {
		return nil, err
	}
	return &Engine{Clock: c, disabled: opts.Disabled}, nil
}

// NewEngine wraps an existing clock.
func NewEngine(c *beat.Clock, disabled bool) *Engine {
	return &Engine{Clock: c, disabled: disabled}
}

// Disabled reports whether animation is switched off engine-wide.
func (e *Engine) Disabled() bool { return e.disabled }

// WithDisabled returns an engine sharing the clock with animation switched
// on or off. The receiver is unchanged.
func (e *Engine) WithDisabled(disabled bool) *Engine {
	return &Engine{Clock: e.Clock, disabled: disabled}
}

func (e *Engine) off(local bool) bool { return e.disabled || local }

// Animate returns the value of a at the current frame.
func (e *Engine) Animate(a Animation) (float64, error) {
	seq, err := e.Sequence(a)
	if err != nil {
		return 0, err
	}
	if e.off(a.Disabled) {
		// first keyframe as given, before any mode reorders it
		if len(a.Values) > 0 {
			return a.Values[0], nil
		}
		return a.Keyframes[0].Value, nil
	}
	return e.evaluate(seq, a.Every, a.Delay)
}

// OneTime plays o once from frame zero and then holds its last value.
// Easing shapes the whole run; the eased progress is spread across
// len(Values)-1 even segments.
func (e *Engine) OneTime(o OneTime) (float64, error) {
	n := len(o.Values)
	if n < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrTooFewKeyframes, n)
	}
	if e.off(o.Disabled) {
		return o.Values[0], nil
	}
	duration := o.Duration
	if duration == 0 {
		duration = 1
	}
	frames := e.BeatsToFrames(duration)
	p := 1.0
	if frames > 0 {
		p = clamp01(float64(e.Frame()) / frames)
	}
	if p >= 1 {
		return o.Values[n-1], nil
	}

	scaled := ease.Resolve(o.Easing)(p) * float64(n-1)
	i := int(math.Floor(scaled))
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return Lerp(o.Values[i], o.Values[i+1], scaled-float64(i)), nil
}

// Repeat holds each value for duration beats in turn, cycling forever.
// An empty list yields the zero value.
func Repeat[T any](e *Engine, values []T, duration float64) T {
	var zero T
	n := len(values)
	if n == 0 {
		return zero
	}
	if e.disabled {
		return values[0]
	}
	if duration == 0 {
		duration = 1
	}
	slot := duration * e.FramesPerBeat()
	if !(slot > 0) {
		return values[0]
	}
	pos := beat.Mod(float64(e.Frame()), slot*float64(n))
	i := int(math.Floor(pos / slot))
	if i >= n {
		i = n - 1
	}
	return values[i]
}

// Triggered evaluates a legacy triggered animation.
//
// Deprecated: use Animate with Every and Delay.
func (e *Engine) Triggered(tr Triggered) (float64, error) {
	n := len(tr.Values)
	if n == 0 {
		return 0, fmt.Errorf("%w: triggered animation has no values", ErrTooFewKeyframes)
	}
	if e.off(tr.Disabled) {
		return tr.Base, nil
	}
	duration := tr.Duration
	if duration == 0 {
		duration = 1
	}

	var path []float64
	switch tr.Mode {
	case "", TriggerDefault:
		path = make([]float64, 0, n+2)
		path = append(path, tr.Base)
		path = append(path, tr.Values...)
		path = append(path, tr.Base)
	case RoundRobin:
		// the middle slot is filled once the trigger count is known
		path = []float64{tr.Base, tr.Base, tr.Base}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, tr.Mode)
	}

	seq, err := e.Sequence(Animation{Values: path, Duration: duration, Easing: tr.Easing})
	if err != nil {
		return 0, err
	}
	if tr.Mode == RoundRobin {
		every := tr.Every
		if every == 0 {
			every = e.FramesToBeats(float64(TotalFrames(seq)))
		}
		seq[1].Value = tr.Values[e.triggerCount(every, tr.Delay)%int64(n)]
	}
	return e.evaluate(seq, tr.Every, tr.Delay)
}

// triggerCount is the number of completed every-beat cycles since delay,
// or 0 before the delay has elapsed.
func (e *Engine) triggerCount(every, delay float64) int64 {
	f := float64(e.Frame()) - e.BeatsToFrames(delay)
	everyFrames := e.BeatsToFrames(every)
	if f < 0 || !(everyFrames > 0) {
		return 0
	}
	return int64(math.Floor(f / everyFrames))
}

func (a Animation) Eval(e *Engine) (float64, error) { return e.Animate(a) }

func (o OneTime) Eval(e *Engine) (float64, error) { return e.OneTime(o) }

func (tr Triggered) Eval(e *Engine) (float64, error) { return e.Triggered(tr) }

func (s Steps) Eval(e *Engine) (float64, error) {
	if len(s.Values) == 0 {
		return 0, fmt.Errorf("%w: steps has no values", ErrTooFewKeyframes)
	}
	if s.Disabled {
		return s.Values[0], nil
	}
	return Repeat(e, s.Values, s.Duration), nil
}

func (l Loop) Eval(e *Engine) (float64, error) { return e.LoopProgress(l.Duration), nil }

func (p PingPongLoop) Eval(e *Engine) (float64, error) {
	return e.PingPongLoopProgress(p.Duration), nil
}
