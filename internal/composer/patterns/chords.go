package patterns

import (
	"math/rand/v2"
	"slices"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	compLow     = 50
	compHigh    = 79
	padLow      = 48
	arpLow      = 60
	arpHigh     = 84
	arpMaxTones = 4
)

// harmonyPart comps the chords with a rhythm template chosen per section
func harmonyPart(c *Context, rng *rand.Rand) []models.Note {
	names := compingTemplates[string(c.Profile.DrumStyle)]
	if len(names) == 0 {
		names = compingTemplates["standard"]
	}
	name := pick(rng, names)
	if c.Section.Contrast {
		name = "half"
	}
	if c.Section.Energy < 0.35 {
		name = "whole"
	}
	tmpl, _ := GetRhythmTemplate(name)
	half, _ := GetRhythmTemplate("half")
	keep := c.activity(0.45)
	barLen := float64(c.BeatsPerBar)

	var notes []models.Note
	var prev []int
	for bar := 0; bar < c.Section.Bars(); bar++ {
		start := float64(bar) * barLen
		hits := tmpl.hits(c.BeatsPerBar)
		// held chords pick up a second attack in busier sections
		if len(hits) == 1 && rng.Float64() < c.Density() {
			hits = half.hits(c.BeatsPerBar)
		}
		for i, h := range hits {
			at := start + h.offset
			chord := c.ChordAt(at)
			changed := onStrong(at-chord.Start, chord.Duration)
			if i > 0 && !changed && rng.Float64() >= keep {
				continue
			}
			voicing := leadVoicing(c.voice(chord, compLow), prev)
			prev = voicing
			dur := h.duration
			if end := chord.Start + chord.Duration; at+dur > end && at < end {
				dur = end - at
			}
			if i > 0 && !changed {
				// the note keeps its release so a push never runs into the next hit
				if pushed := c.Syncopate(rng, at, 1); pushed-at < dur-minDuration {
					dur -= pushed - at
					at = pushed
				}
			}
			velocity := c.Velocity(rng, h.accent*0.85)
			for _, p := range voicing {
				if p > compHigh {
					continue
				}
				notes = append(notes, models.Note{Pitch: p, Start: at, Duration: dur, Velocity: velocity})
			}
		}
	}
	return notes
}

// pad sustains a voicing across each chord and re-articulates it on the
// half bar when the section is busy
func pad(c *Context, rng *rand.Rand) []models.Note {
	keep := c.Density()

	var notes []models.Note
	var prev []int
	for _, chord := range c.Chords {
		if chord.Start >= c.Beats() {
			break
		}
		voicing := leadVoicing(c.voice(chord, padLow), prev)
		prev = voicing
		for _, s := range c.restrikes(rng, chord, keep) {
			velocity := c.Velocity(rng, 0.7)
			for _, p := range voicing {
				notes = append(notes, models.Note{
					Pitch:    p,
					Start:    s.start,
					Duration: s.length * 0.98,
					Velocity: velocity,
				})
			}
		}
	}
	return notes
}

// arpeggio breaks each chord into a pattern whose direction follows the
// section contour
func arpeggio(c *Context, rng *rand.Rand) []models.Note {
	base := 0.5
	if c.Section.Energy >= 0.7 {
		base = 0.25
	}
	step := c.Step(base)
	keep := c.activity(0.5)

	var notes []models.Note
	i := 0
	var order []int
	current := -1.0
	for t := 0.0; t < c.Beats()-epsilon; t += step {
		chord := c.ChordAt(t)
		if chord.Start != current {
			current = chord.Start
			order = arpOrder(c.ChordTones(t, arpLow, arpHigh), c.Contour, rng)
			i = 0
		}
		if len(order) == 0 {
			continue
		}
		pitch := order[i%len(order)]
		i++
		if !onStrong(t, 1) && rng.Float64() >= keep {
			continue
		}
		accent := 0.8
		if onStrong(t, 1) {
			accent = 0.95
		}
		at := t
		if !c.Downbeat(t) {
			at = c.Syncopate(rng, t, step)
		}
		notes = append(notes, models.Note{
			Pitch:    pitch,
			Start:    at,
			Duration: step*0.8 - (at - t),
			Velocity: c.Velocity(rng, accent),
		})
	}
	return notes
}

// arpOrder picks up to four ascending chord tones and orders them by
// contour: up, down, up-down, down-up or shuffled
func arpOrder(tones []int, contour Contour, rng *rand.Rand) []int {
	if len(tones) > arpMaxTones {
		first := rng.IntN(len(tones) - arpMaxTones + 1)
		tones = tones[first : first+arpMaxTones]
	}
	up := slices.Clone(tones)
	down := slices.Clone(tones)
	slices.Reverse(down)

	switch contour {
	case ContourAscending:
		return up
	case ContourDescending:
		return down
	case ContourArch:
		if len(down) > 2 {
			return append(up, down[1:len(down)-1]...)
		}
		return up
	case ContourValley:
		if len(up) > 2 {
			return append(down, up[1:len(up)-1]...)
		}
		return down
	}
	rng.Shuffle(len(up), func(a, b int) { up[a], up[b] = up[b], up[a] })
	return up
}

// voice stacks the chord upward from low
func (c *Context) voice(chord models.Chord, low int) []int {
	return harmony.Voicing(chord, c.Tonic, low)
}

// leadVoicing moves a voicing by octaves so its centre stays near the
// previous one
func leadVoicing(voicing, prev []int) []int {
	if len(prev) == 0 || len(voicing) == 0 {
		return voicing
	}
	diff := centre(prev) - centre(voicing)
	shift := 0
	switch {
	case diff > 6:
		shift = 12
	case diff < -6:
		shift = -12
	}
	if shift == 0 {
		return voicing
	}
	out := make([]int, len(voicing))
	for i, p := range voicing {
		out[i] = clampPitch(p + shift)
	}
	return out
}

func centre(pitches []int) int {
	sum := 0
	for _, p := range pitches {
		sum += p
	}
	return sum / len(pitches)
}
