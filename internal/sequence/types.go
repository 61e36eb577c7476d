package sequence

import (
	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/ease"
)

// Keyframe is a value plus the duration (beats) and easing of the segment
// that starts at it. Zero Duration and nil Easing fall back to the
// animation's own.
type Keyframe struct {
	Value    float64
	Duration float64
	Easing   ease.Func
}

// ProcessedKeyframe is one entry of a playback sequence.
type ProcessedKeyframe struct {
	Value          float64
	Duration       float64 // beats
	DurationFrames int64
	Easing         ease.Func
}

// Mode selects the playback direction of a whole sequence.
type Mode string

const (
	Forward  Mode = "forward"
	Backward Mode = "backward"
	PingPong Mode = "pingpong"
)

// Animation describes a keyframe sequence repeating every Every beats.
// Exactly one of Values or Keyframes is used: a bare Values list splits
// Duration evenly across its transitions, while each of Keyframes runs for
// its own Duration.
type Animation struct {
	Values    []float64
	Keyframes []Keyframe
	Duration  float64 // beats; 0 means 1
	Every     float64 // beats; 0 means the sequence's total duration
	Delay     float64 // beats before playback starts in each cycle
	Easing    ease.Func
	Mode      Mode
	Disabled  bool
}

// OneTime plays Values once over Duration beats and then holds the last one.
type OneTime struct {
	Values   []float64
	Duration float64 // beats; 0 means 1
	Easing   ease.Func
	Disabled bool
}

// Steps holds each of Values for Duration beats in turn, without
// interpolating.
type Steps struct {
	Values   []float64
	Duration float64 // beats; 0 means 1
	Disabled bool
}

// TriggerMode selects which keyframes a triggered animation visits.
type TriggerMode string

const (
	TriggerDefault TriggerMode = "default"
	RoundRobin     TriggerMode = "roundRobin"
)

// Triggered swings away from Base through Values and back during the first
// Duration beats of every Every-beat cycle, and rests at Base otherwise.
//
// Deprecated: use Animation with Every and Delay; kept for older shows.
type Triggered struct {
	Base     float64
	Values   []float64
	Duration float64 // active beats; 0 means 1
	Every    float64 // cycle beats; 0 means Duration
	Delay    float64
	Easing   ease.Func
	Mode     TriggerMode
	Disabled bool
}

// Loop reports the clock's loop progress for Duration beats.
type Loop struct {
	Duration float64
}

// PingPongLoop reports the clock's ping-pong progress for Duration beats.
type PingPongLoop struct {
	Duration float64
}

// Evaluator is anything a Track can evaluate at the engine's current frame.
type Evaluator interface {
	Eval(e *Engine) (float64, error)
}

// Options configures an Engine.
type Options struct {
	beat.Options
	// Disabled pins every animation to its first value.
	Disabled bool
}

// Track names one evaluated parameter of a show.
type Track struct {
	Name   string
	Source Evaluator
}

// Program is an ordered list of tracks.
type Program struct {
	Version string
	Tracks  []Track
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into whatever consumes the values.
type Hooks struct {
	SetParam func(name string, v float64)
	// OnError reports a track that failed to evaluate this frame.
	OnError func(name string, err error)
}

// Player evaluates a Program once per frame.
type Player struct {
	State PlayerState

	eng   *Engine
	prog  Program
	last  map[string]float64
	hooks Hooks
}
