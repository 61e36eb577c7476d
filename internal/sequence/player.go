package sequence

import (
	"errors"
	"fmt"
	"sync"
)

// NewPlayer constructs a Player bound to e with provided hooks.
func NewPlayer(e *Engine, h Hooks) *Player {
	return &Player{
		State: Idle,
		eng:   e,
		hooks: h,
		last:  map[string]float64{},
	}
}

// Load replaces the current program after evaluating every track once.
// The first track that fails is reported and the old program is kept.
func (p *Player) Load(prog Program) error {
	if len(prog.Tracks) == 0 {
		return errors.New("program has no tracks")
	}
	seen := map[string]bool{}
	for _, tr := range prog.Tracks {
		if tr.Name == "" {
			return errors.New("track has no name")
		}
		if seen[tr.Name] {
			return fmt.Errorf("duplicate track %q", tr.Name)
		}
		seen[tr.Name] = true
		if tr.Source == nil {
			return fmt.Errorf("track %q: no source", tr.Name)
		}
		if _, err := tr.Source.Eval(p.eng); err != nil {
			return fmt.Errorf("track %q: %w", tr.Name, err)
		}
	}
	p.prog = prog
	p.State = Idle
	p.last = map[string]float64{}
	return nil
}

// Engine returns the engine tracks are evaluated against.
func (p *Player) Engine() *Engine { return p.eng }

// SetEngine swaps the engine, e.g. after a tempo change.
func (p *Player) SetEngine(e *Engine) { p.eng = e }

// Start moves to Running.
func (p *Player) Start() { p.State = Running }

// Pause pauses playback; Tick emits nothing while paused.
func (p *Player) Pause() { p.State = Paused }

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops playback and forgets the last emitted values.
func (p *Player) Stop() {
	p.State = Idle
	p.last = map[string]float64{}
}

// Tick evaluates every track at the engine's current frame and emits the
// values through hooks. A failing track is reported and skipped.
func (p *Player) Tick() {
	if p.State != Running || len(p.prog.Tracks) == 0 {
		return
	}
	for _, tr := range p.prog.Tracks {
		v, err := tr.Source.Eval(p.eng)
		if err != nil {
			// a stale value must not outlive the failure
			delete(p.last, tr.Name)
			if p.hooks.OnError != nil {
				p.hooks.OnError(tr.Name, err)
			}
			continue
		}
		p.last[tr.Name] = v
		if p.hooks.SetParam != nil {
			p.hooks.SetParam(tr.Name, v)
		}
	}
}

// Snapshot copies the values emitted by the last Tick.
func (p *Player) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(p.last))
	for k, v := range p.last {
		out[k] = v
	}
	return out
}

// --- Lightweight synchronization helpers (optional) ---

type SafePlayer struct {
	mu sync.Mutex
	P  *Player
}

func NewSafePlayer(e *Engine, h Hooks) *SafePlayer {
	return &SafePlayer{P: NewPlayer(e, h)}
}

func (s *SafePlayer) With(f func(p *Player)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.P)
}
