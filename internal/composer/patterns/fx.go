package patterns

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

var fxIntervals = []int{0, 7, 12, 19, 24}

// fx scatters long, quiet tones over the section: tonic, fifths and
// octaves above middle C
func fx(c *Context, rng *rand.Rand) []models.Note {
	keep := c.activity(0.2)
	root := 60 + int(c.Tonic)

	var notes []models.Note
	t := 0.0
	for t < c.Beats()-epsilon {
		gap := pick(rng, []float64{2, 4})
		if rng.Float64() < keep {
			notes = append(notes, models.Note{
				Pitch:    clampPitch(root + pick(rng, fxIntervals)),
				Start:    c.Syncopate(rng, t, 1),
				Duration: pick(rng, []float64{2, 4, 8}),
				Velocity: c.Velocity(rng, 0.6),
			})
		}
		t += gap
	}
	return notes
}
