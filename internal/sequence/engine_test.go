package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/ease"
)

type frames struct{ n int64 }

func (f *frames) FrameCount() int64 { return f.n }

// 60 fps at 120 bpm, zero-indexed: 30 frames per beat.
func newEngine(t *testing.T) (*Engine, *frames) {
	t.Helper()
	src := &frames{}
	e, err := New(Options{Options: beat.Options{
		Source:   src,
		TimeBase: beat.TimeBase{FrameRate: 60, BPM: 120, ZeroIndexed: true},
	}})
	require.NoError(t, err)
	return e, src
}

func at(t *testing.T, e *Engine, src *frames, frame int64, a Animation) float64 {
	t.Helper()
	src.n = frame
	v, err := e.Animate(a)
	require.NoError(t, err)
	return v
}

func TestNewRejectsMissingArguments(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, beat.ErrInvalidArguments)
}

func TestAnimateMidpoint(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{0, 10}, Duration: 1}
	assert.InDelta(t, 0, at(t, e, src, 0, a), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, int64(e.BeatsToFrames(0.5)), a), 1e-9)
}

func TestAnimateIgnoresLastKeyframeDuration(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Keyframes: []Keyframe{{Value: 0}, {Value: 10, Duration: 9}}, Duration: 1}
	assert.InDelta(t, 5, at(t, e, src, 15, a), 1e-9)

	seq, err := e.Sequence(a)
	require.NoError(t, err)
	assert.Equal(t, int64(30), TotalFrames(seq))
}

func TestAnimateSplitsDurationAcrossValues(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{1, 2, 3}, Duration: 1}
	assert.InDelta(t, 2, at(t, e, src, 15, a), 1e-9)
	assert.InDelta(t, 1+7.0/15.0, at(t, e, src, 7, a), 1e-9)
	assert.InDelta(t, 2+7.0/15.0, at(t, e, src, 22, a), 1e-9)
}

func TestAnimateEveryHoldsAndRepeats(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{0, 10}, Duration: 1, Every: 3}
	assert.InDelta(t, 0, at(t, e, src, int64(e.BeatsToFrames(3)), a), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, int64(e.BeatsToFrames(3.5)), a), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, int64(e.BeatsToFrames(4)), a), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 179, a), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 180, a), 1e-9)
}

func TestAnimateEveryTooShort(t *testing.T) {
	e, src := newEngine(t)
	src.n = 10
	_, err := e.Animate(Animation{Values: []float64{0, 10}, Duration: 1, Every: 0.5})
	require.ErrorIs(t, err, ErrEveryTooShort)
	assert.Contains(t, err.Error(), "every 0.5 beats")
	assert.Contains(t, err.Error(), "at least 1 beats")
}

func TestAnimateDelay(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{0, 10}, Duration: 1, Every: 2, Delay: 1}
	assert.InDelta(t, 0, at(t, e, src, 0, a), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 29, a), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 30, a), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, 45, a), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 60, a), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 89, a), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 90, a), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, 105, a), 1e-9)
}

func TestAnimateDelayJumpIsKept(t *testing.T) {
	e, src := newEngine(t)
	// 2 beat cycle, 1 beat delay: the cycle before the delay boundary ends
	// on the last value and the next one starts from the first.
	a := Animation{Values: []float64{0, 10}, Duration: 1, Every: 2, Delay: 1}
	assert.InDelta(t, 10, at(t, e, src, 89, a), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 90, a), 1e-9)
}

func TestAnimateSegmentBoundariesAreContinuous(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Keyframes: []Keyframe{
		{Value: 0, Duration: 1, Easing: ease.CubicEaseInOut.Func()},
		{Value: 10, Duration: 2, Easing: ease.SineEaseOut.Func()},
		{Value: 20},
	}}
	assert.InDelta(t, 0, at(t, e, src, 0, a), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 30, a), 1e-9)
	assert.InDelta(t, 20, at(t, e, src, 89, a), 0.01)
	assert.InDelta(t, 0, at(t, e, src, 90, a), 1e-9)

	prev := at(t, e, src, 0, a)
	for f := int64(1); f < 90; f++ {
		v := at(t, e, src, f, a)
		assert.GreaterOrEqual(t, v, prev)
		assert.Less(t, v-prev, 1.0)
		prev = v
	}
}

func TestAnimateEasing(t *testing.T) {
	e, src := newEngine(t)
	def := Animation{Values: []float64{0, 10}, Easing: ease.Named("easeIn")}
	assert.InDelta(t, 2.5, at(t, e, src, 15, def), 1e-9)

	own := Animation{Keyframes: []Keyframe{{Value: 0, Easing: ease.EaseOut.Func()}, {Value: 10}}, Easing: ease.Named("easeIn")}
	assert.InDelta(t, 7.5, at(t, e, src, 15, own), 1e-9)

	custom := Animation{Values: []float64{0, 10}, Easing: func(t float64, _ ...float64) float64 { return 1 - t }}
	assert.InDelta(t, 5, at(t, e, src, 15, custom), 1e-9)
	assert.InDelta(t, 10*(1-22.0/30.0), at(t, e, src, 22, custom), 1e-9)

	typo := Animation{Values: []float64{0, 10}, Easing: ease.Named("easeInn")}
	assert.InDelta(t, 5, at(t, e, src, 15, typo), 1e-9)
}

func TestAnimateIsPure(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{3, -4, 9}, Duration: 2, Every: 5, Delay: 0.25, Easing: ease.Bounce.Func()}
	for _, f := range []int64{0, 11, 47, 133, 401} {
		first := at(t, e, src, f, a)
		at(t, e, src, f+17, a)
		assert.Equal(t, first, at(t, e, src, f, a))
	}
}

func TestAnimateDisabled(t *testing.T) {
	e, src := newEngine(t)
	a := Animation{Values: []float64{4, 10}, Duration: 1}
	assert.InDelta(t, 4, at(t, e.WithDisabled(true), src, 15, a), 1e-9)
	assert.False(t, e.Disabled())

	a.Disabled = true
	assert.InDelta(t, 4, at(t, e, src, 15, a), 1e-9)

	// the first keyframe is the one given first, whatever the mode
	off := e.WithDisabled(true)
	for _, mode := range []Mode{Forward, Backward, PingPong} {
		v := Animation{Values: []float64{4, 10, 20}, Mode: mode}
		assert.InDelta(t, 4, at(t, off, src, 15, v), 1e-9, "values %s", mode)
		k := Animation{Mode: mode, Keyframes: []Keyframe{{Value: 3}, {Value: 9}}}
		assert.InDelta(t, 3, at(t, off, src, 15, k), 1e-9, "keyframes %s", mode)
	}
}

func TestAnimateEveryEqualToDurationAtFractionalFramesPerBeat(t *testing.T) {
	src := &frames{}
	e, err := New(Options{Options: beat.Options{
		Source:   src,
		TimeBase: beat.TimeBase{FrameRate: 60, BPM: 130, ZeroIndexed: true},
	}})
	require.NoError(t, err)

	a := Animation{Values: []float64{0, 10}, Duration: 1, Every: 1}
	assert.InDelta(t, 5, at(t, e, src, 14, a), 1e-9)
	// 27.69 frames per beat: frame 28 is already in the next cycle
	assert.Less(t, at(t, e, src, 28, a), 1.0)

	for _, bpm := range []float64{90, 128, 130, 140, 174} {
		c, err := e.WithBPM(bpm)
		require.NoError(t, err)
		eng := NewEngine(c, false)
		for n := 2; n <= 5; n++ {
			vals := make([]float64, n)
			for i := range vals {
				vals[i] = float64(i)
			}
			for _, d := range []float64{0.25, 1, 1.5, 3} {
				src.n = 41
				_, err := eng.Animate(Animation{Values: vals, Duration: d, Every: d})
				assert.NoError(t, err, "bpm %g values %d duration %g", bpm, n, d)
			}
		}
		src.n = 41
		_, err = eng.Animate(Animation{Every: 1.75, Keyframes: []Keyframe{
			{Value: 0, Duration: 0.3}, {Value: 1, Duration: 1.45}, {Value: 2},
		}})
		assert.NoError(t, err, "bpm %g keyframes", bpm)
	}
}

func TestAnimateBeforeFirstFrame(t *testing.T) {
	src := &frames{n: 0}
	e, err := New(Options{Options: beat.Options{Source: src, TimeBase: beat.TimeBase{FrameRate: 60, BPM: 120}}})
	require.NoError(t, err)
	v, err := e.Animate(Animation{Values: []float64{2, 10}})
	require.NoError(t, err)
	assert.InDelta(t, 2, v, 1e-9)
}

func TestAnimateModes(t *testing.T) {
	e, src := newEngine(t)

	back := Animation{Values: []float64{0, 10}, Mode: Backward}
	assert.InDelta(t, 10, at(t, e, src, 0, back), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, 15, back), 1e-9)

	pp := Animation{Values: []float64{0, 10}, Mode: PingPong}
	assert.InDelta(t, 5, at(t, e, src, 15, pp), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 30, pp), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, 45, pp), 1e-9)
	assert.InDelta(t, 0, at(t, e, src, 60, pp), 1e-9)

	uneven := Animation{Mode: Backward, Keyframes: []Keyframe{
		{Value: 0, Duration: 1}, {Value: 10, Duration: 2}, {Value: 20},
	}}
	assert.InDelta(t, 20, at(t, e, src, 0, uneven), 1e-9)
	assert.InDelta(t, 15, at(t, e, src, 30, uneven), 1e-9)
	assert.InDelta(t, 10, at(t, e, src, 60, uneven), 1e-9)
	assert.InDelta(t, 5, at(t, e, src, 75, uneven), 1e-9)

	seq, err := e.Sequence(Animation{Values: []float64{1, 2, 3}, Mode: PingPong})
	require.NoError(t, err)
	var got []float64
	for _, k := range seq {
		got = append(got, k.Value)
	}
	assert.Equal(t, []float64{1, 2, 3, 2, 1}, got)
	assert.Equal(t, int64(60), TotalFrames(seq))
}

func TestAnimateRejectsBadInput(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Animate(Animation{Values: []float64{0, 1}, Mode: "sideways"})
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.Contains(t, err.Error(), "sideways")

	_, err = e.Animate(Animation{Values: []float64{1}})
	assert.ErrorIs(t, err, ErrTooFewKeyframes)

	_, err = e.Animate(Animation{})
	assert.ErrorIs(t, err, ErrTooFewKeyframes)

	_, err = e.Animate(Animation{Values: []float64{0, 1}, Keyframes: []Keyframe{{}, {}}})
	assert.ErrorIs(t, err, ErrMixedKeyframes)
}

func TestOneTime(t *testing.T) {
	e, src := newEngine(t)
	o := OneTime{Values: []float64{0, 10}, Duration: 2}
	for _, v := range []struct {
		Frame  int64
		Expect float64
	}{{0, 0}, {30, 5}, {59, 59.0 / 6.0}, {60, 10}, {10000, 10}} {
		src.n = v.Frame
		got, err := e.OneTime(o)
		require.NoError(t, err)
		assert.InDelta(t, v.Expect, got, 1e-9, "frame %d", v.Frame)
	}

	src.n = 15
	got, err := e.OneTime(OneTime{Values: []float64{0, 10, 20}, Easing: ease.EaseIn.Func()})
	require.NoError(t, err)
	assert.InDelta(t, 5, got, 1e-9)

	got, err = e.WithDisabled(true).OneTime(o)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = e.OneTime(OneTime{Values: []float64{1}})
	assert.ErrorIs(t, err, ErrTooFewKeyframes)
}

func TestRepeat(t *testing.T) {
	e, src := newEngine(t)
	vals := []string{"a", "b", "c"}
	for _, v := range []struct {
		Frame  int64
		Expect string
	}{{0, "a"}, {29, "a"}, {30, "b"}, {60, "c"}, {89, "c"}, {90, "a"}} {
		src.n = v.Frame
		assert.Equal(t, v.Expect, Repeat(e, vals, 1), "frame %d", v.Frame)
	}

	src.n = 30
	assert.Equal(t, "a", Repeat(e, vals, 2))
	assert.Equal(t, "a", Repeat(e.WithDisabled(true), vals, 1))
	assert.Equal(t, "", Repeat(e, []string(nil), 1))

	v, err := Steps{Values: []float64{1, 2}, Duration: 0.5}.Eval(e)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	src.n = 15
	v, err = Steps{Values: []float64{1, 2}, Duration: 0.5}.Eval(e)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	v, err = Steps{Values: []float64{1, 2}, Duration: 0.5, Disabled: true}.Eval(e)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = Steps{}.Eval(e)
	assert.ErrorIs(t, err, ErrTooFewKeyframes)
}

func TestTriggeredDefault(t *testing.T) {
	e, src := newEngine(t)
	tr := Triggered{Base: 0, Values: []float64{10}, Duration: 1, Every: 4}
	for _, v := range []struct {
		Frame  int64
		Expect float64
	}{{0, 0}, {15, 10}, {22, 10 - 10*7.0/15.0}, {30, 0}, {100, 0}, {120, 0}, {135, 10}} {
		src.n = v.Frame
		got, err := e.Triggered(tr)
		require.NoError(t, err)
		assert.InDelta(t, v.Expect, got, 1e-9, "frame %d", v.Frame)
	}
}

func TestTriggeredRoundRobin(t *testing.T) {
	e, src := newEngine(t)
	tr := Triggered{Base: 1, Values: []float64{10, 20, 30}, Duration: 1, Every: 2, Mode: RoundRobin}
	for _, v := range []struct {
		Frame  int64
		Expect float64
	}{{15, 10}, {45, 1}, {75, 20}, {135, 30}, {195, 10}} {
		src.n = v.Frame
		got, err := e.Triggered(tr)
		require.NoError(t, err)
		assert.InDelta(t, v.Expect, got, 1e-9, "frame %d", v.Frame)
	}
}

func TestTriggeredDelayAndDefaults(t *testing.T) {
	e, src := newEngine(t)

	src.n = 10
	got, err := e.Triggered(Triggered{Base: 2, Values: []float64{10}, Every: 3, Delay: 1})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	src.n = 45
	got, err = e.Triggered(Triggered{Base: 2, Values: []float64{10}, Every: 3, Delay: 1})
	require.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-9)

	// no Every: the cycle is the active window itself
	got, err = e.Triggered(Triggered{Base: 0, Values: []float64{10}})
	require.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-9)

	got, err = e.WithDisabled(true).Triggered(Triggered{Base: 7, Values: []float64{10}})
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestTriggeredErrors(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Triggered(Triggered{Values: []float64{1}, Duration: 2, Every: 1})
	assert.ErrorIs(t, err, ErrEveryTooShort)

	_, err = e.Triggered(Triggered{Values: []float64{1}, Mode: "random"})
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.Contains(t, err.Error(), "random")

	_, err = e.Triggered(Triggered{})
	assert.ErrorIs(t, err, ErrTooFewKeyframes)
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 5, Lerp(0, 10, 0.5))
	assert.Equal(t, uint8(100), Lerp(uint8(200), uint8(0), 0.5))
	assert.Equal(t, 3.0, Lerp(3.0, 9.0, 0))
	assert.Equal(t, 9.0, Lerp(3.0, 9.0, 1))
}

func TestLoopEvaluators(t *testing.T) {
	e, src := newEngine(t)
	src.n = 15
	v, err := Loop{Duration: 1}.Eval(e)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)
	v, err = PingPongLoop{Duration: 1}.Eval(e)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)
}
