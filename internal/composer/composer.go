// Package composer drives a composition from intent to scored tracks. It
// plans the track list, builds the form and harmony, generates and
// humanizes every part, then scores the result and regenerates the weakest
// tracks until the score clears the threshold or the iteration budget runs
// out.
package composer

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/duration"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/humanize"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/patterns"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/planner"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/quality"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/seed"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/structure"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// DefaultMaxIterations is the refinement budget when none is configured
const DefaultMaxIterations = 2

const (
	densityBoost = 1.35
	densityLift  = 0.1
)

// Composer runs compositions. It holds no per-request state and is safe for
// concurrent use.
type Composer struct {
	planner       *planner.Planner
	seeds         *seed.Manager
	maxIterations int
	threshold     float64
	parallel      bool
	pinned        bool
	fixedSeed     int64
	now           func() time.Time
}

// Option configures a Composer
type Option func(*Composer)

// WithPlanner replaces the rule-only default planner
func WithPlanner(p *planner.Planner) Option {
	return func(c *Composer) {
		if p != nil {
			c.planner = p
		}
	}
}

// WithSeedManager shares a seed manager between composers
func WithSeedManager(m *seed.Manager) Option {
	return func(c *Composer) {
		if m != nil {
			c.seeds = m
		}
	}
}

// WithMaxIterations sets the refinement budget. Zero disables refinement.
func WithMaxIterations(n int) Option {
	return func(c *Composer) {
		if n >= 0 {
			c.maxIterations = n
		}
	}
}

// WithThreshold overrides quality.Threshold
func WithThreshold(t float64) Option {
	return func(c *Composer) {
		c.threshold = t
	}
}

// WithParallel generates tracks concurrently
func WithParallel(enabled bool) Option {
	return func(c *Composer) {
		c.parallel = enabled
	}
}

// WithSeed pins the request seed so a composition can be replayed exactly
func WithSeed(value int64) Option {
	return func(c *Composer) {
		c.pinned = true
		c.fixedSeed = value
	}
}

// New creates a composer
func New(opts ...Option) *Composer {
	c := &Composer{
		planner:       planner.New(),
		seeds:         seed.NewManager(),
		maxIterations: DefaultMaxIterations,
		threshold:     quality.Threshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied. The copy shares the planner
// and seed manager.
func (c *Composer) With(opts ...Option) *Composer {
	copied := *c
	for _, opt := range opts {
		opt(&copied)
	}
	return &copied
}

// MaxIterations returns the configured refinement budget
func (c *Composer) MaxIterations() int {
	return c.maxIterations
}

// session is the working context of one Compose or Extend call
// label distinguishes the seed streams of later turns and velocity scales
// the notes of regenerated tracks per role.
type session struct {
	state    *models.CompositionState
	profile  profile.Profile
	options  humanize.Options
	label    string
	velocity map[models.Role]float64
}

// trackSeed derives the seed of track i for a refinement iteration
func (s *session) trackSeed(i int, iteration int) int64 {
	name := fmt.Sprintf("track:%d:%s", i, s.state.Configs[i].Role)
	if s.label != "" {
		name += ":" + s.label
	}
	if iteration > 0 {
		name += fmt.Sprintf(":iter%d", iteration)
	}
	return seed.SubSeed(s.state.Seed, name)
}

// Compose turns an intent into a scored composition. The only error it
// returns for a well-formed context is duration.ErrInvalidDuration;
// cancellation returns ctx.Err() and no state.
func (c *Composer) Compose(ctx context.Context, intent models.MusicIntent) (*models.CompositionState, *models.QualityReport, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "composer.compose")
	defer transaction.Finish()
	ctx = transaction.Context()

	prof := profile.Lookup(intent.Genre, intent.PrimaryMood())
	intent.TimeSignature = intent.TimeSignature.OrDefault()
	if intent.Tempo == 0 {
		intent.Tempo = min(max(prof.DefaultTempo+prof.TempoBias, duration.MinTempo), duration.MaxTempo)
	}
	transaction.SetTag("genre", intent.NormalizedGenre())
	transaction.SetTag("mood", intent.PrimaryMood())

	res, err := duration.Resolve(intent.Duration, float64(intent.Tempo), intent.TimeSignature)
	if err != nil {
		transaction.Status = sentry.SpanStatusInvalidArgument
		return nil, nil, fmt.Errorf("failed to resolve duration: %w", err)
	}
	if res.Adjusted {
		logger.Warn("Requested duration adjusted to system limits", logger.Fields{
			"requested_seconds": intent.Duration.Seconds,
			"requested_bars":    intent.Duration.Bars,
			"bars":              res.Bars,
		})
	}

	seedValue := c.fixedSeed
	if !c.pinned {
		seedValue = c.seeds.SeedFor(intent.Fingerprint())
	}

	now := c.now()
	state := &models.CompositionState{
		ID:            uuid.NewString(),
		Intent:        intent,
		Seed:          seedValue,
		Mode:          prof.Mode(intent.Key.Mode),
		TotalBars:     res.Bars,
		RoundingDelta: res.RoundingDelta,
		Phase:         models.PhasePlanning,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	transaction.SetTag("composition_id", state.ID)
	log.Printf("🎼 Composing %s: %s/%s, %d bars at %d bpm (seed %d)",
		state.ID, intent.NormalizedGenre(), intent.PrimaryMood(), state.TotalBars, intent.Tempo, state.Seed)

	planSpan := transaction.StartChild("composer.plan")
	plan := c.planner.Plan(ctx, intent, state.TotalBars)
	planSpan.SetData("tracks", len(plan.Tracks))
	planSpan.SetData("source", string(plan.Source))
	planSpan.Finish()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	state.Configs = plan.Tracks
	state.PlanSource = string(plan.Source)
	state.PlanDegraded = plan.Degraded

	state.Phase = models.PhaseStructuring
	structureSpan := transaction.StartChild("composer.structure")
	sections, err := structure.Build(state.TotalBars, intent.Genre, intent.Energy)
	if err != nil {
		structureSpan.Finish()
		return nil, nil, fmt.Errorf("failed to build structure: %w", err)
	}
	state.Sections = sections
	state.Chords = make([][]models.Chord, len(sections))
	for i, sec := range sections {
		state.Chords[i] = harmony.Progression(intent.Genre, prof, state.Mode, sec, state.BeatsPerBar(), state.Seed)
	}
	structureSpan.SetData("sections", len(sections))
	structureSpan.Finish()

	channels := planner.AssignChannels(state.Configs)
	state.Tracks = make([]models.Track, len(state.Configs))
	for i := range state.Tracks {
		state.Tracks[i].Channel = channels[i]
	}

	s := c.newSession(state, prof, "")
	all := make([]int, len(state.Configs))
	for i := range all {
		all[i] = i
	}

	state.Phase = models.PhaseGenerating
	if err := c.generate(ctx, transaction, s, all, 0); err != nil {
		return nil, nil, err
	}

	report, err := c.refine(ctx, transaction, s, all)
	if err != nil {
		return nil, nil, err
	}

	transaction.SetData("score", report.Overall)
	transaction.SetData("iterations", state.Iteration)
	log.Printf("✅ Composed %s in %v: %d tracks, score %.3f after %d iteration(s)",
		state.ID, time.Since(startTime), len(state.Tracks), report.Overall, state.Iteration)
	return state, report, nil
}

func (c *Composer) newSession(state *models.CompositionState, prof profile.Profile, label string) *session {
	return &session{
		state:   state,
		profile: prof,
		label:   label,
		options: humanize.Options{
			Tempo:       float64(state.Intent.Tempo),
			BeatsPerBar: state.BeatsPerBar(),
			Swing:       prof.Swing,
			Windows:     humanize.SectionWindows(state.Sections, state.BeatsPerBar()),
		},
	}
}

// generate (re)builds the tracks at indexes. Seeds are derived before any
// goroutine starts so parallel and sequential runs give identical notes.
func (c *Composer) generate(ctx context.Context, transaction *sentry.Span, s *session, indexes []int, iteration int) error {
	span := transaction.StartChild("composer.generate")
	defer span.Finish()
	span.SetData("tracks", len(indexes))
	span.SetData("iteration", iteration)

	seeds := make([]int64, len(indexes))
	for j, i := range indexes {
		seeds[j] = s.trackSeed(i, iteration)
	}

	results := make([]models.Track, len(indexes))
	if c.parallel {
		var wg sync.WaitGroup
		for j, i := range indexes {
			wg.Add(1)
			go func(j, i int) {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				results[j] = c.buildTrack(s, i, seeds[j])
			}(j, i)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
	} else {
		for j, i := range indexes {
			results[j] = c.buildTrack(s, i, seeds[j])
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}

	for j, i := range indexes {
		s.state.Tracks[i] = results[j]
	}
	return nil
}

// buildTrack generates and humanizes track i. It reads the session but never
// writes to it.
func (c *Composer) buildTrack(s *session, i int, trackSeed int64) models.Track {
	state := s.state
	cfg := state.Configs[i]

	notes := patterns.GenerateTrack(patterns.TrackSpec{
		Config:      cfg,
		Sections:    state.Sections,
		Chords:      state.Chords,
		Profile:     s.profile,
		Tonic:       state.Intent.Key.Root,
		Mode:        state.Mode,
		BeatsPerBar: state.BeatsPerBar(),
		Seed:        trackSeed,
	})
	notes = humanize.Humanize(notes, cfg.Role, trackSeed, s.options)
	if scale, ok := s.velocity[cfg.Role]; ok {
		notes = scaleVelocity(notes, scale)
	}

	return models.Track{
		Name:       trackName(cfg),
		Role:       cfg.Role,
		Instrument: cfg.Instrument,
		Program:    cfg.Program,
		Channel:    state.Tracks[i].Channel,
		Density:    cfg.Density,
		Notes:      notes,
	}
}

func trackName(cfg models.TrackConfig) string {
	return fmt.Sprintf("%s (%s)", cfg.Instrument, cfg.Role)
}

type snapshot struct {
	tracks    []models.Track
	configs   []models.TrackConfig
	report    models.QualityReport
	iteration int
}

// refine scores the piece and regenerates flagged tracks inside scope until
// the score clears the threshold or the budget is spent. The best scoring
// snapshot is restored into the state before returning.
func (c *Composer) refine(ctx context.Context, transaction *sentry.Span, s *session, scope []int) (*models.QualityReport, error) {
	state := s.state
	state.QualityHistory = nil
	inScope := make(map[int]bool, len(scope))
	for _, i := range scope {
		inScope[i] = true
	}

	var best snapshot
	iteration := 0
	for {
		state.Phase = models.PhaseScoring
		report := c.score(transaction, state, iteration)
		state.QualityHistory = append(state.QualityHistory, report.Overall)
		if iteration == 0 || report.Overall > best.report.Overall {
			best = snapshot{
				tracks:    slices.Clone(state.Tracks),
				configs:   slices.Clone(state.Configs),
				report:    report,
				iteration: iteration,
			}
		}
		log.Printf("🔍 Iteration %d scored %.3f (%d flag(s))", iteration, report.Overall, len(report.Flags))

		if !report.NeedsRefinement {
			break
		}
		var flagged []int
		for _, i := range report.FlaggedTracks() {
			if inScope[i] {
				flagged = append(flagged, i)
			}
		}
		if len(flagged) == 0 {
			break
		}

		iteration++
		state.Phase = models.PhaseRefining
		for _, i := range flagged {
			if thin(report.ReasonsFor(i)) {
				state.Configs[i].Density = min(state.Configs[i].Density*densityBoost+densityLift, 1)
			}
		}
		logger.Debug("Refining flagged tracks", logger.Fields{
			"composition_id": state.ID,
			"iteration":      iteration,
			"tracks":         flagged,
		})

		state.Phase = models.PhaseGenerating
		if err := c.generate(ctx, transaction, s, flagged, iteration); err != nil {
			return nil, err
		}
	}

	state.Tracks = best.tracks
	state.Configs = best.configs
	state.BestIteration = best.iteration
	state.Iteration = iteration

	report := best.report
	if report.Overall < c.threshold {
		report.NeedsRefinement = true
		report.BudgetExhausted = iteration >= c.maxIterations
		if report.BudgetExhausted {
			logger.Warn("Refinement budget exhausted below threshold", logger.Fields{
				"composition_id": state.ID,
				"score":          report.Overall,
				"threshold":      c.threshold,
			})
		}
	} else {
		report.NeedsRefinement = false
	}

	state.Report = &report
	state.Phase = models.PhaseDone
	state.UpdatedAt = c.now()
	return &report, nil
}

func (c *Composer) score(transaction *sentry.Span, state *models.CompositionState, iteration int) models.QualityReport {
	span := transaction.StartChild("composer.score")
	defer span.Finish()

	report := quality.Assess(state.Tracks, quality.Options{
		Genre:         state.Intent.Genre,
		TotalBars:     state.TotalBars,
		BeatsPerBar:   state.BeatsPerBar(),
		Iteration:     iteration,
		MaxIterations: c.maxIterations,
		Threshold:     c.threshold,
	})
	span.SetData("overall", report.Overall)
	span.SetData("flags", len(report.Flags))
	return report
}

// thin reports whether a track was flagged for having too few notes
func thin(reasons []models.FlagReason) bool {
	for _, r := range reasons {
		switch r {
		case models.FlagEmpty, models.FlagTooSparse, models.FlagStarved:
			return true
		}
	}
	return false
}
