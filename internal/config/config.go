package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/ease"
	"github.com/coreman2200/arcaluminis-tempo/internal/sequence"
)

type Keyframe struct {
	Value    float64 `yaml:"value"`
	Duration float64 `yaml:"duration,omitempty"`
	Easing   string  `yaml:"easing,omitempty"`
}

// Track is one named parameter. Kind picks the evaluator:
// "animate" (default), "once", "repeat", "triggered", "loop", "pingpong".
type Track struct {
	Name       string     `yaml:"name"`
	Kind       string     `yaml:"kind,omitempty"`
	Values     []float64  `yaml:"values,omitempty"`
	Keyframes  []Keyframe `yaml:"keyframes,omitempty"`
	Duration   float64    `yaml:"duration,omitempty"` // beats
	Every      float64    `yaml:"every,omitempty"`    // beats
	Delay      float64    `yaml:"delay,omitempty"`    // beats
	Easing     string     `yaml:"easing,omitempty"`
	EasingArgs []float64  `yaml:"easing_args,omitempty"`
	Mode       string     `yaml:"mode,omitempty"`    // forward | backward | pingpong
	Base       float64    `yaml:"base,omitempty"`    // triggered baseline
	Trigger    string     `yaml:"trigger,omitempty"` // default | roundRobin
	Disabled   bool       `yaml:"disabled,omitempty"`
}

type Config struct {
	FPS           int     `yaml:"fps"`
	BPM           float64 `yaml:"bpm"`
	ZeroIndexed   bool    `yaml:"zero_indexed"`
	LatencyOffset int64   `yaml:"latency_offset"`
	Disabled      bool    `yaml:"disabled"`
	Addr          string  `yaml:"addr,omitempty"`
	LogLevel      string  `yaml:"log_level,omitempty"`

	Tracks []Track `yaml:"tracks"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Frequency is the configured frame rate.
func (c *Config) Frequency() physic.Frequency {
	return physic.Frequency(c.FPS) * physic.Hertz
}

func (c *Config) TimeBase() beat.TimeBase {
	return beat.TimeBase{
		FrameRate:     float64(c.FPS),
		BPM:           c.BPM,
		ZeroIndexed:   c.ZeroIndexed,
		LatencyOffset: c.LatencyOffset,
	}
}

// Program converts the tracks into a playable program.
func (c *Config) Program() (sequence.Program, error) {
	prog := sequence.Program{Version: "tempo.v1"}
	for i, t := range c.Tracks {
		ev, err := t.Evaluator()
		if err != nil {
			return sequence.Program{}, fmt.Errorf("tracks[%d] %q: %w", i, t.Name, err)
		}
		prog.Tracks = append(prog.Tracks, sequence.Track{Name: t.Name, Source: ev})
	}
	return prog, nil
}

func (t Track) easing(name string) ease.Func {
	if name == "" {
		return nil
	}
	f := ease.Named(name)
	if len(t.EasingArgs) > 0 {
		f = ease.Bind(f, t.EasingArgs...)
	}
	return f
}

func (t Track) Evaluator() (sequence.Evaluator, error) {
	switch t.Kind {
	case "", "animate":
		a := sequence.Animation{
			Values:   t.Values,
			Duration: t.Duration,
			Every:    t.Every,
			Delay:    t.Delay,
			Easing:   t.easing(t.Easing),
			Mode:     sequence.Mode(t.Mode),
			Disabled: t.Disabled,
		}
		for _, k := range t.Keyframes {
			a.Keyframes = append(a.Keyframes, sequence.Keyframe{
				Value:    k.Value,
				Duration: k.Duration,
				Easing:   t.easing(k.Easing),
			})
		}
		return a, nil
	case "once":
		return sequence.OneTime{Values: t.Values, Duration: t.Duration, Easing: t.easing(t.Easing), Disabled: t.Disabled}, nil
	case "repeat":
		return sequence.Steps{Values: t.Values, Duration: t.Duration, Disabled: t.Disabled}, nil
	case "triggered":
		return sequence.Triggered{
			Base:     t.Base,
			Values:   t.Values,
			Duration: t.Duration,
			Every:    t.Every,
			Delay:    t.Delay,
			Easing:   t.easing(t.Easing),
			Mode:     sequence.TriggerMode(t.Trigger),
			Disabled: t.Disabled,
		}, nil
	case "loop":
		return sequence.Loop{Duration: t.Duration}, nil
	case "pingpong":
		return sequence.PingPongLoop{Duration: t.Duration}, nil
	default:
		return nil, fmt.Errorf("unknown track kind %q", t.Kind)
	}
}
