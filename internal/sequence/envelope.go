package sequence

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/ease"
)

// clamp01 clamps x in [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Lerp interpolates from a to b; t=0 and t=1 return the endpoints exactly.
func Lerp[T constraints.Integer | constraints.Float](a, b T, t float64) T {
	switch t {
	case 0:
		return a
	case 1:
		return b
	default:
		return T(float64(a) + (float64(b)-float64(a))*t)
	}
}

// Sequence builds the playback sequence for a, in playback order.
func (e *Engine) Sequence(a Animation) ([]ProcessedKeyframe, error) {
	if len(a.Values) > 0 && len(a.Keyframes) > 0 {
		return nil, ErrMixedKeyframes
	}
	duration := a.Duration
	if duration == 0 {
		duration = 1
	}
	def := ease.Resolve(a.Easing)

	var seq []ProcessedKeyframe
	if len(a.Values) > 0 {
		n := len(a.Values)
		if n < 2 {
			return nil, fmt.Errorf("%w: got %d", ErrTooFewKeyframes, n)
		}
		per := duration / float64(n-1)
		seq = make([]ProcessedKeyframe, n)
		for i, v := range a.Values {
			seq[i] = e.processed(v, per, def)
		}
	} else {
		n := len(a.Keyframes)
		if n < 2 {
			return nil, fmt.Errorf("%w: got %d", ErrTooFewKeyframes, n)
		}
		seq = make([]ProcessedKeyframe, n)
		for i, k := range a.Keyframes {
			d := k.Duration
			if d == 0 {
				d = duration
			}
			f := def
			if k.Easing != nil {
				f = k.Easing
			}
			seq[i] = e.processed(k.Value, d, f)
		}
	}

	switch a.Mode {
	case "", Forward:
		return seq, nil
	case Backward:
		return reversed(seq), nil
	case PingPong:
		back := reversed(seq)
		return append(seq[:len(seq)-1:len(seq)-1], back...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, a.Mode)
	}
}

func (e *Engine) processed(v, beats float64, f ease.Func) ProcessedKeyframe {
	return ProcessedKeyframe{
		Value:          v,
		Duration:       beats,
		DurationFrames: int64(math.Round(e.BeatsToFrames(beats))),
		Easing:         f,
	}
}

// reversed plays seq backwards. Each segment keeps the duration and easing
// it had going forward, so it moves to the keyframe that now starts it.
func reversed(seq []ProcessedKeyframe) []ProcessedKeyframe {
	n := len(seq)
	out := make([]ProcessedKeyframe, n)
	for j := 0; j < n; j++ {
		out[j] = seq[n-1-j]
		if j < n-1 {
			seg := seq[n-2-j]
			out[j].Duration = seg.Duration
			out[j].DurationFrames = seg.DurationFrames
			out[j].Easing = seg.Easing
		}
	}
	return out
}

// TotalFrames sums the segment lengths; the last keyframe starts no segment.
func TotalFrames(seq []ProcessedKeyframe) int64 {
	var total int64
	for i := 0; i < len(seq)-1; i++ {
		total += seq[i].DurationFrames
	}
	return total
}

// TotalBeats is the exact, unrounded length of seq in beats.
func TotalBeats(seq []ProcessedKeyframe) float64 {
	var total float64
	for i := 0; i < len(seq)-1; i++ {
		total += seq[i].Duration
	}
	return total
}

// evaluate plays seq once per every-frame cycle after delay frames.
func (e *Engine) evaluate(seq []ProcessedKeyframe, every, delay float64) (float64, error) {
	n := len(seq)
	first, last := seq[0].Value, seq[n-1].Value

	total := TotalFrames(seq)
	everyFrames := float64(total)
	if every != 0 {
		// compare in beats: rounded segment frames may overshoot the exact length
		need := TotalBeats(seq)
		if every+1e-9 < need {
			return 0, fmt.Errorf("%w: every %g beats (%g frames) is shorter than the sequence, need at least %g beats (%g frames)",
				ErrEveryTooShort, every, e.BeatsToFrames(every), need, e.BeatsToFrames(need))
		}
		everyFrames = e.BeatsToFrames(every)
	}
	delayFrames := e.BeatsToFrames(delay)

	frame := float64(e.Frame())
	if frame < delayFrames {
		return first, nil
	}
	if total == 0 || everyFrames <= 0 {
		return last, nil
	}
	cur := beat.Mod(frame-delayFrames, everyFrames)
	if cur >= float64(total) {
		return last, nil
	}

	var acc int64
	for i := 0; i < n-1; i++ {
		seg := seq[i]
		if float64(acc+seg.DurationFrames) > cur {
			u := (cur - float64(acc)) / float64(seg.DurationFrames)
			u = ease.Resolve(seg.Easing)(clamp01(u))
			return Lerp(seg.Value, seq[i+1].Value, u), nil
		}
		acc += seg.DurationFrames
	}
	return last, nil
}
