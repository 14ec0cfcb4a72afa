// Package structure splits a piece into contiguous named sections.
package structure

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ErrNoBars is returned when the piece has no bars to divide
var ErrNoBars = errors.New("structure needs at least one bar")

const (
	shortForm  = 16
	mediumForm = 32

	tailBars    = 12 // bridge + outro of the long form
	bridgeBars  = 8
	outroBars   = 4
	cycleBars   = 8
	minimumBars = 4

	energyNudge = 0.3
)

type levels struct {
	energy  float64
	density float64
}

var baseLevels = map[models.SectionName]levels{
	models.SectionIntro:  {0.35, 0.40},
	models.SectionVerse:  {0.55, 0.60},
	models.SectionChorus: {0.80, 0.85},
	models.SectionMain:   {0.65, 0.70},
	models.SectionBridge: {0.60, 0.55},
	models.SectionOutro:  {0.30, 0.35},
}

var genreBias = map[string]float64{
	"rock":       0.05,
	"metal":      0.08,
	"electronic": 0.05,
	"funk":       0.03,
	"lofi":       -0.05,
	"classical":  -0.08,
	"ambient":    -0.12,
	"cinematic":  -0.03,
}

type span struct {
	name models.SectionName
	bars int
}

// Build divides totalBars into sections. Sections are contiguous, start at
// bar 0 and the last one ends at totalBars.
func Build(totalBars int, genre string, energy models.Energy) ([]models.Section, error) {
	if totalBars < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoBars, totalBars)
	}

	var spans []span
	switch {
	case totalBars <= shortForm:
		spans = shortSpans(totalBars)
	case totalBars <= mediumForm:
		spans = mediumSpans(totalBars)
	default:
		spans = longSpans(totalBars)
	}

	g := profile.CanonicalGenre(genre)
	nudge := (energy.Value()-0.5)*energyNudge + genreBias[g]

	sections := make([]models.Section, 0, len(spans))
	seen := make(map[models.SectionName]int)
	start := 0
	for _, sp := range spans {
		base := baseLevels[sp.name]
		sec := models.Section{
			Name:       sp.name,
			Occurrence: seen[sp.name],
			StartBar:   start,
			EndBar:     start + sp.bars,
			Energy:     clamp(base.energy + nudge),
			Density:    clamp(base.density + nudge),
		}
		switch sp.name {
		case models.SectionIntro:
			sec.Shape = models.ShapeBuild
		case models.SectionOutro:
			sec.Shape = models.ShapeFade
		case models.SectionChorus:
			if g != "ambient" {
				sec.Shape = models.ShapePeak
			}
		case models.SectionBridge:
			sec.Contrast = true
		}
		seen[sp.name]++
		start = sec.EndBar
		sections = append(sections, sec)
	}
	return sections, nil
}

func shortSpans(total int) []span {
	switch total {
	case 1:
		return []span{{models.SectionMain, 1}}
	case 2:
		return []span{{models.SectionMain, 1}, {models.SectionOutro, 1}}
	}
	edge := min(max(total/4, 1), 4)
	return []span{
		{models.SectionIntro, edge},
		{models.SectionMain, total - 2*edge},
		{models.SectionOutro, edge},
	}
}

func mediumSpans(total int) []span {
	edge := 2
	if total >= 24 {
		edge = 4
	}
	rest := total - 2*edge
	verse, bridge := rest/3, rest/3
	return []span{
		{models.SectionIntro, edge},
		{models.SectionVerse, verse},
		{models.SectionChorus, rest - verse - bridge},
		{models.SectionBridge, bridge},
		{models.SectionOutro, edge},
	}
}

func longSpans(total int) []span {
	spans := []span{{models.SectionIntro, 4}}
	remaining := total - 4

	next := models.SectionVerse
	for remaining > tailBars {
		seg := min(cycleBars, remaining-tailBars)
		if seg < minimumBars && len(spans) > 1 {
			spans[len(spans)-1].bars += seg
		} else {
			spans = append(spans, span{next, seg})
			if next == models.SectionVerse {
				next = models.SectionChorus
			} else {
				next = models.SectionVerse
			}
		}
		remaining -= seg
	}
	return append(spans, span{models.SectionBridge, bridgeBars}, span{models.SectionOutro, outroBars})
}

func clamp(v float64) float64 {
	return min(max(v, 0.05), 1)
}
