// Package ease holds the fixed table of easing curves used by the sequencer.
//
// A curve maps progress t in [0,1] to eased progress. Curves are addressed
// either by an enumerated Curve tag or by their show-file name; a caller may
// also hand any Func straight to the sequencer.
package ease

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

// Func is an easing curve. Extra positional args (exponent, steepness) are
// passed through; curves that take none ignore them.
type Func func(t float64, args ...float64) float64

// Curve enumerates the built-in curves.
type Curve int

const (
	Linear Curve = iota
	EaseIn
	EaseOut
	EaseInOut
	CubicEaseIn
	CubicEaseOut
	CubicEaseInOut
	Exponential
	SineEaseIn
	SineEaseOut
	SineEaseInOut
	Sigmoid
	Logarithmic
	Bounce
	Smoothstep
	Smootherstep
)

var curveNames = [...]string{
	Linear:         "linear",
	EaseIn:         "easeIn",
	EaseOut:        "easeOut",
	EaseInOut:      "easeInOut",
	CubicEaseIn:    "cubicEaseIn",
	CubicEaseOut:   "cubicEaseOut",
	CubicEaseInOut: "cubicEaseInOut",
	Exponential:    "exponential",
	SineEaseIn:     "sineEaseIn",
	SineEaseOut:    "sineEaseOut",
	SineEaseInOut:  "sineEaseInOut",
	Sigmoid:        "sigmoid",
	Logarithmic:    "logarithmic",
	Bounce:         "bounce",
	Smoothstep:     "smooth",
	Smootherstep:   "cubic",
}

// byName is built once from curveNames; lookups are case-insensitive.
var byName = func() map[string]Curve {
	m := make(map[string]Curve, len(curveNames))
	for c, n := range curveNames {
		m[strings.ToLower(n)] = Curve(c)
	}
	return m
}()

func (c Curve) String() string {
	if c < 0 || int(c) >= len(curveNames) {
		return "linear"
	}
	return curveNames[c]
}

// Parse looks up a curve by name. ok is false for unknown names and c is Linear.
func Parse(name string) (c Curve, ok bool) {
	c, ok = byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Names lists every registered curve name in tag order.
func Names() []string {
	out := make([]string, len(curveNames))
	copy(out, curveNames[:])
	return out
}

// Func returns the curve's implementation. Out-of-range tags get linear.
func (c Curve) Func() Func {
	switch c {
	case EaseIn:
		return easeIn
	case EaseOut:
		return easeOut
	case EaseInOut:
		return easeInOut
	case CubicEaseIn:
		return cubicEaseIn
	case CubicEaseOut:
		return cubicEaseOut
	case CubicEaseInOut:
		return cubicEaseInOut
	case Exponential:
		return exponential
	case SineEaseIn:
		return sineEaseIn
	case SineEaseOut:
		return sineEaseOut
	case SineEaseInOut:
		return sineEaseInOut
	case Sigmoid:
		return sigmoid
	case Logarithmic:
		return logarithmic
	case Bounce:
		return bounce
	case Smoothstep:
		return smoothstep
	case Smootherstep:
		return smootherstep
	default:
		return linear
	}
}

// Named resolves a curve name. Unknown names degrade to linear and never fail,
// so a typo in a show file keeps the show running.
func Named(name string) Func {
	c, ok := Parse(name)
	if !ok {
		if name != "" {
			log.Debug().Str("easing", name).Msg("unknown easing; using linear")
		}
		return linear
	}
	return c.Func()
}

// Resolve returns f, or linear when f is nil.
func Resolve(f Func) Func {
	if f == nil {
		return linear
	}
	return f
}

// Bind fixes the extra arguments of f, e.g. Bind(Exponential.Func(), 3).
// Args given at call time are ignored in favour of the bound ones.
func Bind(f Func, args ...float64) Func {
	f = Resolve(f)
	bound := append([]float64(nil), args...)
	return func(t float64, _ ...float64) float64 {
		return f(t, bound...)
	}
}

func arg(args []float64, i int, def float64) float64 {
	if i < len(args) {
		return args[i]
	}
	return def
}

func linear(t float64, _ ...float64) float64 { return t }

func easeIn(t float64, _ ...float64) float64 { return t * t }

func easeOut(t float64, _ ...float64) float64 { return t * (2 - t) }

func easeInOut(t float64, _ ...float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

func cubicEaseIn(t float64, _ ...float64) float64 { return t * t * t }

func cubicEaseOut(t float64, _ ...float64) float64 {
	u := t - 1
	return 1 + u*u*u
}

func cubicEaseInOut(t float64, _ ...float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return (t-1)*u*u + 1
}

// exponential(t, exponent=2)
func exponential(t float64, args ...float64) float64 {
	return math.Pow(t, arg(args, 0, 2))
}

func sineEaseIn(t float64, _ ...float64) float64 {
	return 1 - math.Cos(t*math.Pi/2)
}

func sineEaseOut(t float64, _ ...float64) float64 {
	return math.Sin(t * math.Pi / 2)
}

func sineEaseInOut(t float64, _ ...float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// sigmoid(t, steepness=10). Does not reach exactly 0 or 1 at the edges.
func sigmoid(t float64, args ...float64) float64 {
	k := arg(args, 0, 10)
	return 1 / (1 + math.Exp(-k*(t-0.5)))
}

func logarithmic(t float64, _ ...float64) float64 {
	return math.Log(1+9*t) / math.Log(10)
}

func bounce(t float64, _ ...float64) float64 {
	const (
		n1 = 7.5625
		d1 = 2.75
	)
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// classic smoothstep 3x^2 - 2x^3
func smoothstep(x float64, _ ...float64) float64 {
	return x * x * (3 - 2*x)
}

// 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64, _ ...float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}
