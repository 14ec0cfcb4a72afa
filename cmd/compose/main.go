// Command compose runs one composition and writes it as a Standard MIDI
// File. A JSON summary goes to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-composer/internal/app"
	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/export"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

type options struct {
	genre      string
	moods      string
	energy     string
	tempo      int
	key        string
	meter      string
	tracks     int
	bars       int
	seconds    float64
	seed       int64
	iterations int
	parallel   bool
	extend     string
	out        string
	full       bool
}

// summary is the JSON printed after a run
type summary struct {
	ID         string    `json:"id"`
	Output     string    `json:"output"`
	Seed       int64     `json:"seed"`
	Tempo      int       `json:"tempo"`
	Bars       int       `json:"bars"`
	Tracks     []string  `json:"tracks"`
	Score      float64   `json:"score"`
	Iterations int       `json:"iterations"`
	History    []float64 `json:"quality_history"`
	PlanSource string    `json:"plan_source"`
	Degraded   bool      `json:"plan_degraded"`
}

func main() {
	var opts options
	flag.StringVar(&opts.genre, "genre", "pop", "genre, e.g. jazz, rock, ambient")
	flag.StringVar(&opts.moods, "mood", "", "comma separated moods, first one leads")
	flag.StringVar(&opts.energy, "energy", "medium", "low, medium or high")
	flag.IntVar(&opts.tempo, "tempo", 0, "tempo in bpm (0 uses the genre default)")
	flag.StringVar(&opts.key, "key", "", `key such as "D minor" (mode defaults from genre and mood)`)
	flag.StringVar(&opts.meter, "time", "4/4", "time signature")
	flag.IntVar(&opts.tracks, "tracks", 0, "track count (0 lets the planner decide)")
	flag.IntVar(&opts.bars, "bars", 0, "length in bars")
	flag.Float64Var(&opts.seconds, "seconds", 0, "length in seconds, used when -bars is 0")
	flag.Int64Var(&opts.seed, "seed", 0, "replay a seed (0 draws a fresh one)")
	flag.IntVar(&opts.iterations, "iterations", -1, "refinement budget (-1 uses MAX_ITERATIONS)")
	flag.BoolVar(&opts.parallel, "parallel", false, "generate tracks concurrently")
	flag.StringVar(&opts.extend, "extend", "", `follow-up instruction, e.g. "add strings, louder drums"`)
	flag.StringVar(&opts.out, "o", "composition.mid", "output MIDI file")
	flag.BoolVar(&opts.full, "full", false, "print the whole composition state instead of a summary")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config.Load(), opts); err != nil {
		fmt.Fprintln(os.Stderr, "compose:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	intent, err := buildIntent(opts)
	if err != nil {
		return err
	}

	var extra []composer.Option
	if opts.seed != 0 {
		extra = append(extra, composer.WithSeed(opts.seed))
	}
	if opts.iterations >= 0 {
		extra = append(extra, composer.WithMaxIterations(opts.iterations))
	}
	if opts.parallel {
		extra = append(extra, composer.WithParallel(true))
	}
	c := app.NewComposer(ctx, cfg, nil, extra...)

	state, _, err := c.Compose(ctx, intent)
	if err != nil {
		return fmt.Errorf("failed to compose: %w", err)
	}

	if opts.extend != "" {
		delta, err := composer.ParseDelta(opts.extend)
		if err != nil {
			return err
		}
		if state, _, err = c.Extend(ctx, state, delta); err != nil {
			return fmt.Errorf("failed to extend: %w", err)
		}
	}

	if err := writeMIDI(opts.out, state); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if opts.full {
		return enc.Encode(state)
	}
	return enc.Encode(summarize(state, opts.out))
}

func writeMIDI(path string, state *models.CompositionState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteSMF(f, state); err != nil {
		f.Close()
		return fmt.Errorf("failed to write MIDI: %w", err)
	}
	return f.Close()
}

func summarize(state *models.CompositionState, output string) summary {
	s := summary{
		ID:         state.ID,
		Output:     output,
		Seed:       state.Seed,
		Tempo:      state.Intent.Tempo,
		Bars:       state.TotalBars,
		Iterations: state.Iteration,
		History:    state.QualityHistory,
		PlanSource: state.PlanSource,
		Degraded:   state.PlanDegraded,
	}
	for _, t := range state.Tracks {
		s.Tracks = append(s.Tracks, t.Name)
	}
	if state.Report != nil {
		s.Score = state.Report.Overall
	}
	return s
}

func buildIntent(opts options) (models.MusicIntent, error) {
	intent := models.MusicIntent{
		Genre:      opts.genre,
		Energy:     models.ParseEnergy(opts.energy),
		Tempo:      opts.tempo,
		TrackCount: opts.tracks,
		Duration:   models.DurationRequest{Bars: opts.bars, Seconds: opts.seconds},
	}
	for _, mood := range strings.Split(opts.moods, ",") {
		if mood = strings.TrimSpace(mood); mood != "" {
			intent.Moods = append(intent.Moods, mood)
		}
	}

	if opts.key != "" {
		key, err := parseKey(opts.key)
		if err != nil {
			return intent, err
		}
		intent.Key = key
	}

	sig, err := parseTimeSignature(opts.meter)
	if err != nil {
		return intent, err
	}
	intent.TimeSignature = sig
	return intent, nil
}

// parseKey reads "D", "D minor" or "f# dorian"
func parseKey(s string) (models.Key, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return models.Key{}, fmt.Errorf("invalid key %q", s)
	}
	root, err := models.ParsePitchClass(fields[0])
	if err != nil {
		return models.Key{}, err
	}
	key := models.Key{Root: root}
	if len(fields) == 2 {
		key.Mode = models.Mode(strings.ToLower(fields[1]))
		if !key.Mode.Known() {
			return models.Key{}, fmt.Errorf("unknown mode %q", fields[1])
		}
	}
	return key, nil
}

// parseTimeSignature reads "n/d"
func parseTimeSignature(s string) (models.TimeSignature, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature %q", s)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return models.TimeSignature{}, fmt.Errorf("invalid time signature %q", s)
	}
	return models.TimeSignature{Numerator: n, Denominator: d}, nil
}
