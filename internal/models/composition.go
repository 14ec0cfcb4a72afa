package models

import (
	"sort"
	"time"
)

// Note is a single note event. Times are in beats.
type Note struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start_time"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
}

// End returns the beat at which the note stops sounding
func (n Note) End() float64 {
	return n.Start + n.Duration
}

// SortNotes orders notes by start time, ties broken by ascending pitch
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(a, b int) bool {
		if notes[a].Start != notes[b].Start {
			return notes[a].Start < notes[b].Start
		}
		return notes[a].Pitch < notes[b].Pitch
	})
}

// SectionName names a section of the form
type SectionName string

// Section names
const (
	SectionIntro  SectionName = "intro"
	SectionMain   SectionName = "main"
	SectionVerse  SectionName = "verse"
	SectionChorus SectionName = "chorus"
	SectionBridge SectionName = "bridge"
	SectionOutro  SectionName = "outro"
)

// Shape is the dynamic contour applied across a section
type Shape string

// Section shapes
const (
	ShapeNone  Shape = ""
	ShapeBuild Shape = "build"
	ShapeFade  Shape = "fade"
	ShapePeak  Shape = "peak"
)

// Section is a named, contiguous range of bars [StartBar, EndBar)
type Section struct {
	Name       SectionName `json:"name"`
	Occurrence int         `json:"occurrence"`
	StartBar   int         `json:"start_bar"`
	EndBar     int         `json:"end_bar"`
	Energy     float64     `json:"energy_level"`
	Density    float64     `json:"density_level"`
	Shape      Shape       `json:"shape,omitempty"`
	Contrast   bool        `json:"contrast,omitempty"`
}

// Bars returns the section length in bars
func (s Section) Bars() int {
	return s.EndBar - s.StartBar
}

// TrackConfig is the planner's decision for one track
type TrackConfig struct {
	Role       Role    `json:"role"`
	Instrument string  `json:"instrument"`
	Program    int     `json:"program"`
	Priority   int     `json:"priority"`
	Density    float64 `json:"density"`
}

// Track is a generated instrument part
type Track struct {
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Instrument string  `json:"instrument"`
	Program    int     `json:"program"`
	Channel    int     `json:"channel"`
	Density    float64 `json:"target_density"`
	Notes      []Note  `json:"notes"`
}

// FlagReason explains why a track was flagged by quality assessment
type FlagReason string

// Flag reasons
const (
	FlagEmpty        FlagReason = "empty"
	FlagTooSparse    FlagReason = "too_sparse"
	FlagStarved      FlagReason = "starved"
	FlagFlatVelocity FlagReason = "flat_velocity"
)

// TrackFlag marks a deficient track
type TrackFlag struct {
	Track  int        `json:"track"`
	Name   string     `json:"name"`
	Role   Role       `json:"role"`
	Reason FlagReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// QualityReport is the result of scoring a track set
type QualityReport struct {
	Overall             float64     `json:"overall"`
	Diversity           float64     `json:"diversity"`
	DensityCompleteness float64     `json:"density_completeness"`
	Balance             float64     `json:"balance"`
	VelocityVariation   float64     `json:"velocity_variation"`
	Flags               []TrackFlag `json:"flags,omitempty"`
	NeedsRefinement     bool        `json:"needs_refinement"`
	BudgetExhausted     bool        `json:"budget_exhausted,omitempty"`
}

// FlaggedTracks returns the distinct indexes of flagged tracks in order
func (r QualityReport) FlaggedTracks() []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range r.Flags {
		if !seen[f.Track] {
			seen[f.Track] = true
			out = append(out, f.Track)
		}
	}
	sort.Ints(out)
	return out
}

// ReasonsFor returns the flag reasons recorded for a track
func (r QualityReport) ReasonsFor(track int) []FlagReason {
	var out []FlagReason
	for _, f := range r.Flags {
		if f.Track == track {
			out = append(out, f.Reason)
		}
	}
	return out
}

// Phase is a refinement controller state
type Phase string

// Controller phases
const (
	PhasePlanning    Phase = "planning"
	PhaseStructuring Phase = "structuring"
	PhaseGenerating  Phase = "generating"
	PhaseScoring     Phase = "scoring"
	PhaseRefining    Phase = "refining"
	PhaseDone        Phase = "done"
)

// CompositionState is the caller-owned result of a composition. It is handed
// back in unchanged to extend the piece on a later turn.
type CompositionState struct {
	ID            string        `json:"id"`
	Intent        MusicIntent   `json:"intent"`
	Seed          int64         `json:"seed"`
	Mode          Mode          `json:"mode"`
	TotalBars     int           `json:"total_bars"`
	RoundingDelta float64       `json:"rounding_delta"`
	Sections      []Section     `json:"sections"`
	Chords        [][]Chord     `json:"chords"`
	Configs       []TrackConfig `json:"configs"`
	Tracks        []Track       `json:"tracks"`

	Phase          Phase          `json:"phase"`
	Iteration      int            `json:"iteration"`
	QualityHistory []float64      `json:"quality_history"`
	BestIteration  int            `json:"best_iteration"`
	Report         *QualityReport `json:"report,omitempty"`
	PlanSource     string         `json:"plan_source"`
	PlanDegraded   bool           `json:"plan_degraded"`
	Turns          int            `json:"turns"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeatsPerBar returns the beats per bar of the piece
func (s *CompositionState) BeatsPerBar() int {
	return s.Intent.TimeSignature.OrDefault().BeatsPerBar()
}

// BestScore returns the highest score seen so far
func (s *CompositionState) BestScore() float64 {
	best := 0.0
	for _, q := range s.QualityHistory {
		if q > best {
			best = q
		}
	}
	return best
}

// TrackIndex returns the index of the first track with the role, or -1
func (s *CompositionState) TrackIndex(role Role) int {
	for i, t := range s.Tracks {
		if t.Role == role {
			return i
		}
	}
	return -1
}
