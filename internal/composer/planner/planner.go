// Package planner decides which instrument tracks a composition gets.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/prompt"
)

// DefaultTimeout bounds a single text-generation call
const DefaultTimeout = 8 * time.Second

const (
	planTemperature = 0.3
	planMaxTokens   = 500
)

// TextRequest is a single text-generation request
type TextRequest = llm.TextRequest

// TextGenerator is the optional capability the planner uses to ask a
// language model for a plan. An error or an empty answer falls back to the
// rule plan.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// Source records where a plan came from
type Source string

// Plan sources
const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Plan is the planner's output
type Plan struct {
	Tracks   []models.TrackConfig
	Source   Source
	Degraded bool
	Reason   string
}

var errEmptyAnswer = errors.New("text generator returned no plan")

// Planner turns an intent into track configs
type Planner struct {
	generator TextGenerator
	timeout   time.Duration
	prompts   *prompt.Builder

	mu     sync.Mutex
	parser *TrackPlanParser
}

// Option configures a Planner
type Option func(*Planner)

// WithTextGenerator enables LLM-assisted planning
func WithTextGenerator(g TextGenerator) Option {
	return func(p *Planner) {
		p.generator = g
	}
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a planner. Without WithTextGenerator every plan is a rule plan.
func New(opts ...Option) *Planner {
	p := &Planner{
		timeout: DefaultTimeout,
		prompts: prompt.NewPromptBuilder(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan decides the track list. It never fails: any problem with the text
// generator degrades to the rule plan.
func (p *Planner) Plan(ctx context.Context, intent models.MusicIntent, totalBars int) Plan {
	if p.generator != nil {
		tracks, err := p.planWithGenerator(ctx, intent, totalBars)
		if err == nil {
			return Plan{Tracks: finalize(tracks, intent), Source: SourceLLM}
		}
		logger.Warn("Track planning degraded, using rule plan", logger.Fields{
			"genre": intent.Genre,
			"error": err.Error(),
		})
		return Plan{
			Tracks:   finalize(RulePlan(intent), intent),
			Source:   SourceRules,
			Degraded: true,
			Reason:   err.Error(),
		}
	}
	return Plan{Tracks: finalize(RulePlan(intent), intent), Source: SourceRules}
}

type generation struct {
	text string
	err  error
}

func (p *Planner) planWithGenerator(ctx context.Context, intent models.MusicIntent, totalBars int) ([]models.TrackConfig, error) {
	system, err := p.prompts.BuildTrackPlanPrompt()
	if err != nil {
		return nil, err
	}
	req := TextRequest{
		SystemPrompt: system,
		UserPrompt:   p.prompts.BuildTrackPlanUserPrompt(intent, totalBars),
		Temperature:  planTemperature,
		MaxTokens:    planMaxTokens,
		Timeout:      p.timeout,
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// buffered so a late answer never blocks the generator goroutine
	done := make(chan generation, 1)
	go func() {
		text, err := p.generator.GenerateText(callCtx, req)
		done <- generation{text: text, err: err}
	}()

	var res generation
	select {
	case <-callCtx.Done():
		return nil, fmt.Errorf("text generation timed out after %s: %w", p.timeout, callCtx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("text generation failed: %w", res.err)
	}
	if strings.TrimSpace(res.text) == "" {
		return nil, errEmptyAnswer
	}

	tracks, err := p.parse(res.text)
	if err != nil {
		return nil, err
	}
	if len(tracks) > MaxTracks {
		return nil, fmt.Errorf("plan has %d tracks, at most %d allowed", len(tracks), MaxTracks)
	}
	if intent.TrackCount > 0 && len(tracks) != intent.TrackCount {
		logger.Info("Reconciling planned track count", logger.Fields{
			"planned":   len(tracks),
			"requested": intent.TrackCount,
		})
		tracks = Reconcile(tracks, intent.TrackCount, intent)
	}
	return tracks, nil
}

func (p *Planner) parse(text string) ([]models.TrackConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil {
		parser, err := NewTrackPlanParser()
		if err != nil {
			return nil, err
		}
		p.parser = parser
	}
	tracks, err := p.parser.ParseDSL(text)
	if err != nil {
		return nil, fmt.Errorf("invalid track plan: %w", err)
	}
	return tracks, nil
}

// finalize fills defaults, applies instrument overrides, deduplicates roles
// and assigns distinct priorities in plan order
func finalize(configs []models.TrackConfig, intent models.MusicIntent) []models.TrackConfig {
	genre := profile.CanonicalGenre(intent.Genre)

	out := make([]models.TrackConfig, len(configs))
	for i, cfg := range configs {
		if inst, ok := intent.Instruments[cfg.Role]; ok && inst != "" {
			cfg.Instrument = inst
		}
		if strings.TrimSpace(cfg.Instrument) == "" {
			cfg.Instrument = InstrumentFor(cfg.Role, genre)
		}
		cfg.Instrument = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cfg.Instrument), " ", "_"))
		cfg.Program = models.ProgramFor(cfg.Instrument)
		if cfg.Density <= 0 || cfg.Density > 1 {
			cfg.Density = DefaultDensity(cfg.Role)
		}
		if cfg.Priority <= 0 {
			cfg.Priority = i + 1
		}
		out[i] = cfg
	}

	out = Dedupe(out, genre)
	sortByPriority(out)
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

// AssignChannels gives drums the percussion channel and every other track a
// distinct melodic channel
func AssignChannels(configs []models.TrackConfig) []int {
	channels := make([]int, len(configs))
	next := 0
	for i, cfg := range configs {
		if cfg.Role.IsPercussion() {
			channels[i] = models.PercussionChannel
			continue
		}
		if next == models.PercussionChannel {
			next++
		}
		channels[i] = next % 16
		next++
	}
	return channels
}
