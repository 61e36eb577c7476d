// temposim evaluates a show file frame by frame without a real-time loop and
// prints the parameter values, one row per frame.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-tempo/internal/beat"
	"github.com/coreman2200/arcaluminis-tempo/internal/config"
	"github.com/coreman2200/arcaluminis-tempo/internal/loop"
	"github.com/coreman2200/arcaluminis-tempo/internal/sequence"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to show file")
		start      = flag.Int64("start", 0, "first raw frame")
		frames     = flag.Int64("frames", 0, "number of frames (default: 4 beats)")
		step       = flag.Int64("step", 1, "frames between rows")
		format     = flag.String("format", "csv", "csv | jsonl")
		bpm        = flag.Float64("bpm", 0, "override the show's tempo")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *configPath == "" {
		log.Fatal().Msg("provide -config path to a show file")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load show")
	}
	if *bpm > 0 {
		cfg.BPM = *bpm
	}
	prog, err := cfg.Program()
	if err != nil {
		log.Fatal().Err(err).Msg("bad show")
	}

	counter := &loop.Counter{}
	eng, err := sequence.New(sequence.Options{
		Options:  beat.Options{Source: counter, TimeBase: cfg.TimeBase()},
		Disabled: cfg.Disabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}

	n := *frames
	if n <= 0 {
		n = int64(eng.BeatsToFrames(4))
	}
	if *step <= 0 {
		*step = 1
	}

	out, err := newWriter(*format, os.Stdout, prog)
	if err != nil {
		log.Fatal().Err(err).Msg("output")
	}
	p := sequence.NewPlayer(eng, sequence.Hooks{
		OnError: func(name string, err error) {
			log.Warn().Err(err).Str("track", name).Int64("frame", counter.FrameCount()).Msg("track failed")
		},
	})
	if err := p.Load(prog); err != nil {
		log.Fatal().Err(err).Msg("load program")
	}
	p.Start()

	for f := *start; f < *start+n; f += *step {
		counter.Set(f)
		p.Tick()
		if err := out.row(eng.Frame(), eng.Beat(), p.Snapshot()); err != nil {
			log.Fatal().Err(err).Msg("write")
		}
	}
	if err := out.flush(); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	log.Info().Int64("frames", n).Int("tracks", len(prog.Tracks)).Msg("done")
}

type writer struct {
	names []string
	csv   *csv.Writer
	enc   *json.Encoder
}

func newWriter(format string, w io.Writer, prog sequence.Program) (*writer, error) {
	out := &writer{}
	for _, t := range prog.Tracks {
		out.names = append(out.names, t.Name)
	}
	switch format {
	case "csv":
		out.csv = csv.NewWriter(w)
		header := append([]string{"frame", "beat"}, out.names...)
		if err := out.csv.Write(header); err != nil {
			return nil, err
		}
	case "jsonl":
		out.enc = json.NewEncoder(w)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return out, nil
}

func (w *writer) row(frame int64, b float64, params map[string]float64) error {
	if w.enc != nil {
		return w.enc.Encode(struct {
			Frame  int64              `json:"frame"`
			Beat   float64            `json:"beat"`
			Params map[string]float64 `json:"params"`
		}{frame, b, params})
	}
	rec := []string{strconv.FormatInt(frame, 10), strconv.FormatFloat(b, 'f', 4, 64)}
	for _, name := range w.names {
		v, ok := params[name]
		if !ok {
			rec = append(rec, "")
			continue
		}
		rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
	}
	return w.csv.Write(rec)
}

func (w *writer) flush() error {
	if w.csv == nil {
		return nil
	}
	w.csv.Flush()
	return w.csv.Error()
}
