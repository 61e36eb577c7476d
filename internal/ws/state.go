package ws

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-tempo/internal/config"
	diag "github.com/coreman2200/arcaluminis-tempo/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-tempo/internal/loop"
	"github.com/coreman2200/arcaluminis-tempo/internal/sequence"
)

// State plays a program against a frame counter and fans the evaluated
// parameters out to websocket clients.
type State struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	saveMu  sync.Mutex // guards Config and the file at ConfigPath

	Counter *loop.Counter
	Player  *sequence.SafePlayer

	// ConfigPath and Config, when both set, are rewritten after every
	// control message.
	ConfigPath string
	Config     *config.Config

	frame       frameMsg
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	failing     map[string]string
}

type frameMsg struct {
	Frame  int64              `json:"frame"`
	Beat   float64            `json:"beat"`
	Params map[string]float64 `json:"params"`
}

type control struct {
	BPM      *float64 `json:"bpm,omitempty"`
	Disabled *bool    `json:"disabled,omitempty"`
	Seek     *int64   `json:"seek,omitempty"`
}

type status struct {
	Frame    int64    `json:"frame"`
	Beat     float64  `json:"beat"`
	BPM      float64  `json:"bpm"`
	FPS      float64  `json:"fps"`
	Disabled bool     `json:"disabled"`
	State    string   `json:"state"`
	Uptime   float64  `json:"uptime_s"`
	Failing  []string `json:"failing,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// NewState loads prog into a player bound to e. The player starts Idle.
func NewState(e *sequence.Engine, counter *loop.Counter, prog sequence.Program) (*State, error) {
	s := &State{
		Counter:     counter,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		failing:     map[string]string{},
	}
	s.Player = sequence.NewSafePlayer(e, sequence.Hooks{
		SetParam: s.trackOK,
		OnError:  s.trackFailed,
	})
	var err error
	s.Player.With(func(p *sequence.Player) { err = p.Load(prog) })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Frame evaluates the program once and broadcasts the result. It is meant to
// be the render loop's per-frame callback.
func (s *State) Frame(n int64) {
	var msg frameMsg
	s.Player.With(func(p *sequence.Player) {
		p.Tick()
		e := p.Engine()
		msg = frameMsg{Frame: e.Frame(), Beat: e.Beat(), Params: p.Snapshot()}
	})
	log.Trace().Int64("raw", n).Int64("frame", msg.Frame).Msg("frame")

	s.mu.Lock()
	s.frame = msg
	s.mu.Unlock()
	s.broadcastFrame(msg)
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	last := s.frame
	s.mu.Unlock()
	s.write(conn, last)

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	s.write(conn, diag.Diagnostic{
		Severity: diag.Info,
		Code:     "DIAG.CONNECTED",
		Summary:  "Diagnostics stream connected",
		Frame:    s.Counter.FrameCount(),
		At:       time.Now(),
	})

	go s.drain(conn, s.diagClients)
}

// drain reads until the client goes away, then forgets it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg control
		if err := json.Unmarshal(data, &msg); err != nil {
			st := s.status()
			st.Error = err.Error()
			s.write(conn, st)
			continue
		}
		cerr := s.applyControl(msg)
		st := s.status()
		if cerr != nil {
			log.Warn().Err(cerr).Msg("control message rejected")
			st.Error = cerr.Error()
		}
		s.write(conn, st)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

// applyControl changes tempo, switches animation on or off, or seeks the
// counter. Changes land between frames.
func (s *State) applyControl(msg control) error {
	var err error
	s.Player.With(func(p *sequence.Player) {
		e := p.Engine()
		if msg.BPM != nil {
			c, cerr := e.WithBPM(*msg.BPM)
			if cerr != nil {
				err = cerr
				return
			}
			e = sequence.NewEngine(c, e.Disabled())
			log.Info().Float64("bpm", *msg.BPM).Msg("tempo changed")
		}
		if msg.Disabled != nil {
			e = e.WithDisabled(*msg.Disabled)
		}
		p.SetEngine(e)
	})
	if err != nil {
		return err
	}
	if msg.Seek != nil {
		s.Counter.Set(*msg.Seek)
	}
	s.saveConfig()
	return nil
}

func (s *State) saveConfig() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.ConfigPath == "" || s.Config == nil {
		return
	}
	s.Player.With(func(p *sequence.Player) {
		e := p.Engine()
		s.Config.BPM = e.TimeBase().BPM
		s.Config.Disabled = e.Disabled()
	})
	if err := config.Save(s.ConfigPath, s.Config); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
	}
}

func (s *State) status() status {
	var st status
	s.Player.With(func(p *sequence.Player) {
		e := p.Engine()
		tb := e.TimeBase()
		st = status{
			Frame:    e.Frame(),
			Beat:     e.Beat(),
			BPM:      tb.BPM,
			FPS:      tb.FrameRate,
			Disabled: e.Disabled(),
			State:    string(p.State),
		}
	})
	s.mu.RLock()
	for name := range s.failing {
		st.Failing = append(st.Failing, name)
	}
	s.mu.RUnlock()
	sort.Strings(st.Failing)
	st.Uptime = time.Since(s.startTime).Seconds()
	return st
}

// trackFailed reports a failing track once per distinct error.
func (s *State) trackFailed(name string, err error) {
	s.mu.Lock()
	prev, seen := s.failing[name]
	s.failing[name] = err.Error()
	s.mu.Unlock()
	if seen && prev == err.Error() {
		return
	}
	log.Warn().Err(err).Str("track", name).Msg("track evaluation failed")
	s.pushDiag(diag.TrackFailed(name, s.Counter.FrameCount(), err))
}

func (s *State) trackOK(name string, _ float64) {
	s.mu.Lock()
	_, seen := s.failing[name]
	delete(s.failing, name)
	s.mu.Unlock()
	if seen {
		s.pushDiag(diag.TrackRecovered(name, s.Counter.FrameCount()))
	}
}

func (s *State) broadcastFrame(msg frameMsg) {
	s.broadcast(s.clients, msg)
}

func (s *State) pushDiag(d diag.Diagnostic) {
	s.broadcast(s.diagClients, d)
}

func (s *State) broadcast(set map[*websocket.Conn]bool, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal broadcast")
		return
	}
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write broadcast")
		}
	}
}

func (s *State) write(conn *websocket.Conn, v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := conn.WriteJSON(v); err != nil {
		log.Debug().Err(err).Msg("write")
	}
}
