package patterns

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	bassLow  = 28
	bassHigh = 55
	bassRoot = 36
)

// bassStep is one onset of a bar-long bass figure
type bassStep struct {
	at       float64
	length   float64
	interval int // semitones above the chord root
	accent   float64
	anchor   bool // always played
}

var funkyFigure = []bassStep{
	{0, 0.4, 0, 1.0, true},
	{0.5, 0.2, 12, 0.7, false},
	{1.5, 0.4, 0, 0.75, false},
	{2, 0.4, 7, 0.95, true},
	{2.5, 0.2, 12, 0.7, false},
	{3, 0.4, 0, 0.9, false},
	{3.5, 0.2, 10, 0.7, false},
}

// bass dispatches on the profile's bass style
func bass(c *Context, rng *rand.Rand) []models.Note {
	switch c.Profile.BassStyle {
	case profile.BassWalking:
		return walkingBass(c, rng)
	case profile.BassFunky:
		return figureBass(c, rng, funkyFigure)
	case profile.BassPower:
		return drivingBass(c, rng, false)
	case profile.BassSynth:
		if c.Section.Energy >= 0.6 {
			return drivingBass(c, rng, true)
		}
		return sustainedBass(c, rng)
	case profile.BassAmbient:
		return sustainedBass(c, rng)
	}
	return standardBass(c, rng)
}

// rootPitch places a chord root in the bass register
func (c *Context) rootPitch(chord models.Chord) int {
	return bassRoot + chord.RootPitchClass(c.Tonic)
}

// standardBass plays the root on the beat, with passing tones leading into
// the next chord
func standardBass(c *Context, rng *rand.Rand) []models.Note {
	step := c.Step(1)
	keep := c.activity(0.4)
	scale := c.Scale(bassLow, bassHigh)

	var notes []models.Note
	for t := 0.0; t < c.Beats()-epsilon; t += step {
		chord := c.ChordAt(t)
		anchor := onStrong(t-chord.Start, chord.Duration) || c.Downbeat(t)
		if !anchor && rng.Float64() >= keep {
			continue
		}
		pitch := c.rootPitch(chord)
		next := c.ChordAt(t + step)
		if !anchor && next.Start > t && rng.Float64() < c.Profile.RhythmicVariation+0.2 {
			pitch = approach(scale, c.rootPitch(next))
		} else if !anchor && rng.Float64() < 0.3 {
			pitch += 7
		}
		notes = append(notes, models.Note{
			Pitch:    clampPitch(pitch),
			Start:    c.Syncopate(rng, t, step/2),
			Duration: step * 0.9,
			Velocity: c.Velocity(rng, 0.95),
		})
	}
	return notes
}

// walkingBass walks quarter notes: root, chord tones, then a step into the
// next chord's root. Chord changes and downbeats are always struck; the
// passing beats are gated by density and a dropped beat lengthens the note
// before it.
func walkingBass(c *Context, rng *rand.Rand) []models.Note {
	step := c.Step(1)
	keep := c.activity(0.35)
	scale := c.Scale(bassLow, bassHigh)

	var notes []models.Note
	prev := 0
	for t := 0.0; t < c.Beats()-epsilon; t += step {
		chord := c.ChordAt(t)
		next := c.ChordAt(t + step)
		root := c.rootPitch(chord)
		anchor := onStrong(t-chord.Start, chord.Duration) || c.Downbeat(t) || prev == 0

		if !anchor && rng.Float64() >= keep {
			if len(notes) > 0 {
				notes[len(notes)-1].Duration += step
			}
			continue
		}

		var pitch int
		switch {
		case anchor:
			pitch = root
		case next.Start > t && next.Start-t <= step+epsilon:
			pitch = approach(scale, c.rootPitch(next))
		default:
			tones := c.ChordTones(t, root-5, root+12)
			if len(tones) == 0 {
				pitch = root
			} else {
				pitch = pick(rng, tones)
			}
		}
		prev = pitch
		notes = append(notes, models.Note{
			Pitch:    clampPitch(pitch),
			Start:    t,
			Duration: step * 0.9,
			Velocity: c.Velocity(rng, 0.9),
		})
	}
	return notes
}

// figureBass repeats a one-bar figure on each chord root, gating the
// optional steps by density
func figureBass(c *Context, rng *rand.Rand, figure []bassStep) []models.Note {
	keep := c.activity(0.3)
	barLen := float64(c.BeatsPerBar)
	scale := barLen / 4

	var notes []models.Note
	for bar := 0; bar < c.Section.Bars(); bar++ {
		start := float64(bar) * barLen
		for _, s := range figure {
			at := start + s.at*scale
			if c.Section.Contrast && !onStrong(s.at, 1) {
				continue
			}
			if !s.anchor && rng.Float64() >= keep {
				continue
			}
			notes = append(notes, models.Note{
				Pitch:    clampPitch(c.rootPitch(c.ChordAt(at)) + s.interval),
				Start:    at,
				Duration: s.length * scale,
				Velocity: c.Velocity(rng, s.accent),
			})
		}
	}
	return notes
}

// drivingBass pumps eighth notes on the root; synth mode alternates the
// octave. Onsets off the beat are gated by density.
func drivingBass(c *Context, rng *rand.Rand, octaves bool) []models.Note {
	step := c.Step(0.5)
	if c.Section.Energy < 0.5 {
		step = c.Step(1)
	}
	keep := c.activity(0.4)

	var notes []models.Note
	for i := 0; float64(i)*step < c.Beats()-epsilon; i++ {
		t := float64(i) * step
		chord := c.ChordAt(t)
		anchor := onStrong(t, step*2) || onStrong(t-chord.Start, chord.Duration)
		if !anchor && rng.Float64() >= keep {
			continue
		}
		pitch := c.rootPitch(chord)
		if octaves && i%2 == 1 {
			pitch += 12
		}
		accent := 0.75
		if onStrong(t, 1) {
			accent = 1.0
		}
		notes = append(notes, models.Note{
			Pitch:    clampPitch(pitch),
			Start:    t,
			Duration: step * 0.8,
			Velocity: c.Velocity(rng, accent),
		})
	}
	return notes
}

// sustainedBass holds each chord root, re-striking it on the half bar as
// density allows
func sustainedBass(c *Context, rng *rand.Rand) []models.Note {
	keep := c.activity(0)

	var notes []models.Note
	for _, chord := range c.Chords {
		if chord.Start >= c.Beats() {
			break
		}
		for _, s := range c.restrikes(rng, chord, keep) {
			notes = append(notes, models.Note{
				Pitch:    clampPitch(c.rootPitch(chord)),
				Start:    s.start,
				Duration: max(s.length-0.5, s.length*0.75),
				Velocity: c.Velocity(rng, 0.85),
			})
		}
	}
	return notes
}

// approach returns the scale tone just below the target, or the target a
// semitone below when the scale has no neighbour
func approach(scale []int, target int) int {
	best := target - 1
	for _, p := range scale {
		if p < target && target-p <= 2 {
			best = p
		}
	}
	return best
}
