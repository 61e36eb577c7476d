package beat

import "math"

// Trigger caches the result of fn and re-runs it once per elapsed multiple
// of Every beats. It is the only stateful piece of the engine: keep one
// Trigger per call site and do not share it between timelines.
type Trigger[T any] struct {
	clock  *Clock
	fn     func() T
	every  float64
	offset float64

	lastTriggerCount int64
	lastValue        T
	ok               bool
}

// NewTrigger wraps fn. offsetBeats shifts the trigger phase forward; a
// non-positive everyBeats means one beat.
func NewTrigger[T any](c *Clock, fn func() T, everyBeats, offsetBeats float64) *Trigger[T] {
	if !(everyBeats > 0) {
		everyBeats = 1
	}
	return &Trigger[T]{
		clock:            c,
		fn:               fn,
		every:            everyBeats,
		offset:           offsetBeats,
		lastTriggerCount: -1,
	}
}

// Count is the number of whole Every intervals elapsed at the current frame.
func (t *Trigger[T]) Count() int64 {
	elapsed := t.clock.Beat() + t.offset
	return int64(math.Floor(elapsed / t.every))
}

// Value returns the cached result, calling fn first when the trigger count
// has changed since the previous call.
func (t *Trigger[T]) Value() T {
	n := t.Count()
	if !t.ok || n != t.lastTriggerCount {
		t.lastValue = t.fn()
		t.lastTriggerCount = n
		t.ok = true
	}
	return t.lastValue
}

// Last returns the cached value without evaluating. ok is false before the
// first trigger.
func (t *Trigger[T]) Last() (v T, ok bool) {
	return t.lastValue, t.ok
}

// Reset forgets the cached value so the next Value call re-runs fn.
func (t *Trigger[T]) Reset() {
	var zero T
	t.lastValue = zero
	t.lastTriggerCount = -1
	t.ok = false
}
