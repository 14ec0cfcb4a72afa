package patterns

import (
	"math"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// line describes a melodic voice
type line struct {
	low, high   int
	step        float64
	floor       float64 // activity floor
	lengths     []int   // note lengths in steps
	chordPull   float64 // probability a strong-beat note snaps to a chord tone
	accent      float64
	contourPull bool
}

var leadLine = line{
	low: 60, high: 84, step: 0.5, floor: 0.3,
	lengths: []int{1, 1, 2, 2, 3, 4}, chordPull: 0.7, accent: 1.0, contourPull: true,
}

var counterLine = line{
	low: 53, high: 74, step: 1, floor: 0.25,
	lengths: []int{1, 2, 2, 3}, chordPull: 0.85, accent: 0.85,
}

func lead(c *Context, rng *rand.Rand) []models.Note {
	l := leadLine
	if c.Section.Energy >= 0.75 {
		l.lengths = []int{1, 1, 1, 2, 2, 3}
	} else if c.Section.Energy < 0.4 {
		l.lengths = []int{2, 2, 3, 4, 6}
	}
	return melodic(c, rng, l)
}

func counterMelody(c *Context, rng *rand.Rand) []models.Note {
	return melodic(c, rng, counterLine)
}

// melodic walks the scale under the section contour. Strong beats lean on
// chord tones and the walk moves mostly by step with occasional leaps.
func melodic(c *Context, rng *rand.Rand, l line) []models.Note {
	scale := c.Scale(l.low, l.high)
	if len(scale) == 0 {
		return nil
	}
	step := c.Step(l.step)
	keep := c.activity(l.floor)
	total := c.Beats()
	idx := len(scale) / 2

	var notes []models.Note
	t := 0.0
	for t < total-epsilon {
		if rng.Float64() >= keep {
			t += step
			continue
		}
		length := float64(pick(rng, l.lengths)) * step

		idx = nextIndex(rng, idx, len(scale), c.Contour, t/total, c.Profile.RhythmicVariation, l.contourPull)
		pitch := scale[idx]
		if onStrong(t, 1) && rng.Float64() < l.chordPull {
			if tones := c.ChordTones(t, l.low, l.high); len(tones) > 0 {
				pitch = harmony.Nearest(tones, pitch)
			}
		}

		accent := l.accent
		if c.Downbeat(t) {
			accent *= 1.05
		}
		notes = append(notes, models.Note{
			Pitch:    pitch,
			Start:    c.Syncopate(rng, t, step),
			Duration: length * 0.95,
			Velocity: c.Velocity(rng, accent),
		})
		t += length
	}
	return notes
}

// nextIndex moves through the scale: towards the contour target when there
// is one, otherwise a free walk. Leaps happen with the variation probability.
func nextIndex(rng *rand.Rand, idx, size int, contour Contour, progress, variation float64, pull bool) int {
	move := pick(rng, []int{-1, 0, 1})
	if rng.Float64() < variation*0.5 {
		move = pick(rng, []int{-4, -3, 3, 4})
	}
	if pull {
		if target := contour.target(progress); target >= 0 {
			want := int(math.Round(target * float64(size-1)))
			switch {
			case want > idx+1:
				move = 1 + rng.IntN(2)
			case want < idx-1:
				move = -1 - rng.IntN(2)
			}
		}
	}
	return min(max(idx+move, 0), size-1)
}
