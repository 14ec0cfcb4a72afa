package composer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/planner"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ErrInvalidDelta is returned by Extend for a delta that cannot be applied
var ErrInvalidDelta = errors.New("invalid delta")

const minTrackDensity = 0.05

// TrackRequest asks for a new track
type TrackRequest struct {
	Role       models.Role `json:"role"`
	Instrument string      `json:"instrument,omitempty"`
}

// Delta is a change to an existing composition
type Delta struct {
	Add           []TrackRequest          `json:"add,omitempty"`
	Regenerate    []models.Role           `json:"regenerate,omitempty"`
	Remove        []models.Role           `json:"remove,omitempty"`
	VelocityScale map[models.Role]float64 `json:"velocity_scale,omitempty"`
	DensityScale  map[models.Role]float64 `json:"density_scale,omitempty"`
}

// IsEmpty reports whether the delta changes nothing
func (d Delta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Regenerate) == 0 && len(d.Remove) == 0 &&
		len(d.VelocityScale) == 0 && len(d.DensityScale) == 0
}

// validate checks the delta against the tracks it will be applied to
func (d Delta) validate(tracks []models.Track) error {
	if d.IsEmpty() {
		return fmt.Errorf("%w: nothing to change", ErrInvalidDelta)
	}

	present := make(map[models.Role]bool, len(tracks))
	for _, t := range tracks {
		present[t.Role] = true
	}

	removed := 0
	for _, role := range d.Remove {
		if !role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidDelta, role)
		}
		if !present[role] {
			return fmt.Errorf("%w: no %s track to remove", ErrInvalidDelta, role)
		}
		for _, t := range tracks {
			if t.Role == role {
				removed++
			}
		}
		delete(present, role)
	}

	for _, req := range d.Add {
		if !req.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidDelta, req.Role)
		}
		// only harmonic roles may repeat
		if present[req.Role] && !req.Role.IsHarmonic() {
			return fmt.Errorf("%w: composition already has a %s track", ErrInvalidDelta, req.Role)
		}
		present[req.Role] = true
	}

	count := len(tracks) - removed + len(d.Add)
	switch {
	case count < 1:
		return fmt.Errorf("%w: a composition needs at least one track", ErrInvalidDelta)
	case count > planner.MaxTracks:
		return fmt.Errorf("%w: %d tracks exceeds the limit of %d", ErrInvalidDelta, count, planner.MaxTracks)
	}

	for _, role := range d.Regenerate {
		if !role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidDelta, role)
		}
		if !present[role] {
			return fmt.Errorf("%w: no %s track to regenerate", ErrInvalidDelta, role)
		}
	}
	for _, scales := range []map[models.Role]float64{d.VelocityScale, d.DensityScale} {
		for role, scale := range scales {
			if !role.Valid() {
				return fmt.Errorf("%w: unknown role %q", ErrInvalidDelta, role)
			}
			if !present[role] {
				return fmt.Errorf("%w: no %s track to scale", ErrInvalidDelta, role)
			}
			if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
				return fmt.Errorf("%w: scale for %s must be positive, got %v", ErrInvalidDelta, role, scale)
			}
		}
	}
	return nil
}

// Extend applies a delta to a previous composition and returns a new state.
// prev is not modified. Tracks the delta does not touch are carried over
// unchanged and refinement only regenerates touched tracks.
func (c *Composer) Extend(ctx context.Context, prev *models.CompositionState, delta Delta) (*models.CompositionState, *models.QualityReport, error) {
	if prev == nil || len(prev.Sections) == 0 || len(prev.Configs) != len(prev.Tracks) {
		return nil, nil, fmt.Errorf("%w: composition is incomplete", ErrInvalidDelta)
	}
	if err := delta.validate(prev.Tracks); err != nil {
		return nil, nil, err
	}
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "composer.extend")
	defer transaction.Finish()
	ctx = transaction.Context()
	transaction.SetTag("composition_id", prev.ID)

	state := clone(prev)
	state.Turns++
	intent := state.Intent
	prof := profile.Lookup(intent.Genre, intent.PrimaryMood())

	if len(delta.Remove) > 0 {
		drop := make(map[models.Role]bool, len(delta.Remove))
		for _, role := range delta.Remove {
			drop[role] = true
		}
		var tracks []models.Track
		var configs []models.TrackConfig
		for i, t := range state.Tracks {
			if !drop[t.Role] {
				tracks = append(tracks, t)
				configs = append(configs, state.Configs[i])
			}
		}
		state.Tracks, state.Configs = tracks, configs
	}

	touched := make(map[int]bool)
	for _, req := range delta.Add {
		cfg := planner.ConfigFor(req.Role, req.Instrument, intent.Genre)
		cfg.Priority = len(state.Configs) + 1
		state.Configs = append(state.Configs, cfg)
		state.Tracks = append(state.Tracks, models.Track{
			Role:    req.Role,
			Channel: freeChannel(state.Tracks, req.Role),
		})
		touched[len(state.Tracks)-1] = true
	}

	for role, scale := range delta.DensityScale {
		for i, cfg := range state.Configs {
			if cfg.Role == role {
				state.Configs[i].Density = min(max(cfg.Density*scale, minTrackDensity), 1)
				touched[i] = true
			}
		}
	}
	for _, role := range delta.Regenerate {
		for i, cfg := range state.Configs {
			if cfg.Role == role {
				touched[i] = true
			}
		}
	}

	scope := make([]int, 0, len(touched))
	for i := range touched {
		scope = append(scope, i)
	}
	sort.Ints(scope)

	log.Printf("🔁 Extending %s (turn %d): %d track(s) to generate", state.ID, state.Turns, len(scope))

	s := c.newSession(state, prof, fmt.Sprintf("turn%d", state.Turns))
	s.velocity = delta.VelocityScale
	state.Phase = models.PhaseGenerating
	if err := c.generate(ctx, transaction, s, scope, 0); err != nil {
		return nil, nil, err
	}
	for i, t := range state.Tracks {
		if scale, ok := delta.VelocityScale[t.Role]; ok && !touched[i] {
			state.Tracks[i].Notes = scaleVelocity(t.Notes, scale)
		}
	}

	report, err := c.refine(ctx, transaction, s, scope)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("✅ Extended %s in %v: %d tracks, score %.3f", state.ID, time.Since(startTime), len(state.Tracks), report.Overall)
	return state, report, nil
}

// clone copies everything Extend mutates. Note slices are shared; they are
// replaced, never written through.
func clone(prev *models.CompositionState) *models.CompositionState {
	state := *prev
	state.Tracks = slices.Clone(prev.Tracks)
	state.Configs = slices.Clone(prev.Configs)
	state.QualityHistory = slices.Clone(prev.QualityHistory)
	if prev.Report != nil {
		report := *prev.Report
		state.Report = &report
	}
	return &state
}

// freeChannel picks the channel for a new track: the percussion channel for
// drums, otherwise the lowest melodic channel not in use
func freeChannel(tracks []models.Track, role models.Role) int {
	if role.IsPercussion() {
		return models.PercussionChannel
	}
	used := make(map[int]bool, len(tracks))
	for _, t := range tracks {
		used[t.Channel] = true
	}
	for ch := 0; ch < 16; ch++ {
		if ch != models.PercussionChannel && !used[ch] {
			return ch
		}
	}
	return 0
}

func scaleVelocity(notes []models.Note, scale float64) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		n.Velocity = min(max(int(math.Round(float64(n.Velocity)*scale)), 1), 127)
		out[i] = n
	}
	return out
}
