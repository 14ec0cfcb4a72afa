// Package patterns produces the note content of each track role, one
// section at a time.
package patterns

import (
	"math"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	minDensity  = 0.05
	peakWiden   = 12
	minDuration = 1.0 / 32
	epsilon     = 1e-9
)

// Contour is the melodic direction held for a whole section
type Contour string

// Contours
const (
	ContourAscending  Contour = "ascending"
	ContourDescending Contour = "descending"
	ContourArch       Contour = "arch"
	ContourValley     Contour = "valley"
	ContourFree       Contour = "free"
)

var contours = []Contour{ContourAscending, ContourDescending, ContourArch, ContourValley, ContourFree}

// pickContour draws the section contour from the stream
func pickContour(rng *rand.Rand) Contour {
	return contours[rng.IntN(len(contours))]
}

// target returns where in the pitch range (0 bottom, 1 top) the contour
// wants to be at progress p, or -1 for a free walk
func (c Contour) target(p float64) float64 {
	switch c {
	case ContourAscending:
		return 0.2 + 0.6*p
	case ContourDescending:
		return 0.8 - 0.6*p
	case ContourArch:
		return 0.2 + 0.6*math.Sin(math.Pi*p)
	case ContourValley:
		return 0.8 - 0.6*math.Sin(math.Pi*p)
	}
	return -1
}

// Context is everything a role generator sees for one section
type Context struct {
	Section     models.Section
	Chords      []models.Chord // section-relative
	Profile     profile.Profile
	Config      models.TrackConfig
	Tonic       models.PitchClass
	Mode        models.Mode // already shifted for contrast sections
	BeatsPerBar int
	Contour     Contour
}

// Beats returns the section length in beats
func (c *Context) Beats() float64 {
	return float64(c.Section.Bars() * c.BeatsPerBar)
}

// Density is the effective density: track target x profile multiplier x
// section level. Peak sections run at full section density.
func (c *Context) Density() float64 {
	section := c.Section.Density
	if c.Section.Shape == models.ShapePeak {
		section = 1
	}
	d := c.Config.Density * c.Profile.DensityMultiplier * section
	return min(max(d, minDensity), 1)
}

// activity maps the effective density onto an onset probability with a
// floor so quiet sections are sparse but never silent
func (c *Context) activity(floor float64) float64 {
	return floor + (1-floor)*c.Density()
}

// Step is the rhythmic subdivision in beats. Contrast sections move at half
// the rate.
func (c *Context) Step(base float64) float64 {
	if c.Section.Contrast {
		return base * 2
	}
	return base
}

// Velocity draws a velocity from the profile range, shifted by section
// energy and scaled by an accent
func (c *Context) Velocity(rng *rand.Rand, accent float64) int {
	widen := 0
	if c.Section.Shape == models.ShapePeak {
		widen = peakWiden
	}
	lo, hi := c.Profile.VelocityRange(widen)
	v := lo + rng.IntN(hi-lo+1)
	v += int((c.Section.Energy - 0.5) * 20)
	return clampVelocity(int(math.Round(float64(v) * accent)))
}

// Syncopate pushes an onset that sits on a strong subdivision half a step
// late with the profile's syncopation probability
func (c *Context) Syncopate(rng *rand.Rand, onset, step float64) float64 {
	if !onStrong(onset, step*2) {
		return onset
	}
	if rng.Float64() < c.Profile.Syncopation {
		return onset + step/2
	}
	return onset
}

// span is one attack of a sustained part
type span struct {
	start, length float64
}

// restrikes splits a chord into the attacks of a sustained part: the chord
// start always sounds, then every half bar is re-struck with probability
// keep and may be pushed late by syncopation. Each attack lasts until the
// next one or the chord end.
func (c *Context) restrikes(rng *rand.Rand, chord models.Chord, keep float64) []span {
	end := chord.Start + chord.Duration
	step := c.Step(float64(c.BeatsPerBar) / 2)

	onsets := []float64{chord.Start}
	for t := chord.Start + step; t < end-epsilon; t += step {
		if rng.Float64() >= keep {
			continue
		}
		at := c.Syncopate(rng, t, 1)
		if at > end-step/2 {
			at = t
		}
		onsets = append(onsets, at)
	}

	spans := make([]span, len(onsets))
	for i, at := range onsets {
		next := end
		if i+1 < len(onsets) {
			next = onsets[i+1]
		}
		spans[i] = span{start: at, length: next - at}
	}
	return spans
}

// ChordAt returns the chord sounding at a section-relative beat
func (c *Context) ChordAt(beat float64) models.Chord {
	chord, ok := models.ChordAt(c.Chords, beat)
	if !ok {
		return harmony.Diatonic(c.Mode.Heptatonic(), 1, false)
	}
	return chord
}

// Scale lists the pitches of the active mode in [lo, hi]
func (c *Context) Scale(lo, hi int) []int {
	return harmony.ScalePitches(c.Tonic, c.Mode, lo, hi)
}

// ChordTones lists the tones of the chord at beat inside [lo, hi]
func (c *Context) ChordTones(beat float64, lo, hi int) []int {
	return harmony.ChordTonePitches(c.ChordAt(beat), c.Tonic, lo, hi)
}

// Downbeat reports whether a section-relative beat starts a bar
func (c *Context) Downbeat(beat float64) bool {
	return onStrong(beat, float64(c.BeatsPerBar))
}

func onStrong(beat, grid float64) bool {
	r := math.Mod(beat, grid)
	return r < epsilon || grid-r < epsilon
}

func clampVelocity(v int) int {
	return min(max(v, 1), 127)
}

func clampPitch(p int) int {
	return min(max(p, 0), 127)
}

// pick returns a uniformly drawn element
func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
