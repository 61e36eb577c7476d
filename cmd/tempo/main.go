package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/config"
	"github.com/coreman2200/arcaluminis-tempo/internal/loop"
	"github.com/coreman2200/arcaluminis-tempo/internal/sequence"
	"github.com/coreman2200/arcaluminis-tempo/internal/ws"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	var (
		fps         = flag.Int("fps", 60, "frames per second")
		bpm         = flag.Float64("bpm", 120, "tempo in beats per minute")
		zeroIndexed = flag.Bool("zero-indexed", false, "frame source starts at 0 instead of 1")
		latency     = flag.Int64("latency", 0, "latency offset in frames")
		disabled    = flag.Bool("disabled", false, "hold every animation at its first value")
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		configPath  = flag.String("config", "show.yaml", "path to show file")
		logLevel    = flag.String("log-level", "info", "trace | debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load show file (optional) ----
	cfg := &config.Config{}
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("show load failed; proceeding with flags and demo tracks")
	} else {
		cfg = c
	}

	// ---- Effective params ----
	if cfg.FPS <= 0 {
		cfg.FPS = *fps
	}
	if cfg.BPM <= 0 {
		cfg.BPM = *bpm
	}
	if cfg.LatencyOffset == 0 {
		cfg.LatencyOffset = *latency
	}
	cfg.ZeroIndexed = cfg.ZeroIndexed || *zeroIndexed
	cfg.Disabled = cfg.Disabled || *disabled
	if cfg.Addr == "" {
		cfg.Addr = *addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level; using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	prog := demoProgram()
	if len(cfg.Tracks) > 0 {
		p, err := cfg.Program()
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("bad show")
		}
		prog = p
	}

	// ---- Engine & state ----
	counter := &loop.Counter{}
	eng, err := sequence.New(sequence.Options{
		Options:  beat.Options{Source: counter, TimeBase: cfg.TimeBase()},
		Disabled: cfg.Disabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	state, err := ws.NewState(eng, counter, prog)
	if err != nil {
		log.Fatal().Err(err).Msg("load program")
	}
	state.ConfigPath = *configPath
	state.Config = cfg
	state.Player.With(func(p *sequence.Player) { p.Start() })

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	looper := &loop.Looper{Counter: counter, Rate: cfg.Frequency(), Frame: state.Frame}
	go looper.Run(ctx)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Int("fps", cfg.FPS).
			Float64("bpm", cfg.BPM).
			Int("tracks", len(prog.Tracks)).
			Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
}

// demoProgram runs when the show file has no tracks.
func demoProgram() sequence.Program {
	return sequence.Program{
		Version: "tempo.v1",
		Tracks: []sequence.Track{
			{Name: "beat", Source: sequence.Loop{Duration: 1}},
			{Name: "bar", Source: sequence.PingPongLoop{Duration: 4}},
			{Name: "swell", Source: sequence.Animation{Values: []float64{0, 1, 0}, Duration: 4}},
		},
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
