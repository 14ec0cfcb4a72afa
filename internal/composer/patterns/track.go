package patterns

import (
	"fmt"
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/seed"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// shapeFloor is the share of notes kept at the thin end of a build or fade
const shapeFloor = 0.5

// Generator produces the notes of one role for one section, in
// section-relative beats
type Generator interface {
	Generate(c *Context, rng *rand.Rand) []models.Note
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(c *Context, rng *rand.Rand) []models.Note

// Generate calls f
func (f GeneratorFunc) Generate(c *Context, rng *rand.Rand) []models.Note {
	return f(c, rng)
}

var generators = map[models.Role]Generator{
	models.RoleLead:          GeneratorFunc(lead),
	models.RoleCounterMelody: GeneratorFunc(counterMelody),
	models.RoleHarmony:       GeneratorFunc(harmonyPart),
	models.RoleBass:          GeneratorFunc(bass),
	models.RoleDrums:         GeneratorFunc(drums),
	models.RolePad:           GeneratorFunc(pad),
	models.RoleArpeggio:      GeneratorFunc(arpeggio),
	models.RoleFX:            GeneratorFunc(fx),
}

// For returns the generator of a role. Roles outside the vocabulary get the
// lead generator.
func For(role models.Role) Generator {
	if g, ok := generators[role]; ok {
		return g
	}
	return generators[models.RoleLead]
}

// TrackSpec is everything needed to generate one track over the whole piece
type TrackSpec struct {
	Config      models.TrackConfig
	Sections    []models.Section
	Chords      [][]models.Chord // per section
	Profile     profile.Profile
	Tonic       models.PitchClass
	Mode        models.Mode
	BeatsPerBar int
	Seed        int64
}

// GenerateTrack runs the role generator over every section and lays the
// results end to end. Section i draws from the stream "section:<i>" of the
// track seed, so the same spec always gives the same notes.
func GenerateTrack(spec TrackSpec) []models.Note {
	gen := For(spec.Config.Role)
	beatsPerBar := spec.BeatsPerBar
	if beatsPerBar < 1 {
		beatsPerBar = models.CommonTime.BeatsPerBar()
	}

	var notes []models.Note
	for i, sec := range spec.Sections {
		rng := seed.Stream(spec.Seed, fmt.Sprintf("section:%d", i))

		mode := spec.Mode
		if sec.Contrast {
			mode = mode.Parallel()
		}
		var chords []models.Chord
		if i < len(spec.Chords) {
			chords = spec.Chords[i]
		}
		ctx := &Context{
			Section:     sec,
			Chords:      chords,
			Profile:     spec.Profile,
			Config:      spec.Config,
			Tonic:       spec.Tonic,
			Mode:        mode,
			BeatsPerBar: beatsPerBar,
			Contour:     pickContour(rng),
		}

		offset := float64(sec.StartBar * beatsPerBar)
		for _, n := range GenerateSection(gen, ctx, rng) {
			n.Start += offset
			notes = append(notes, n)
		}
	}
	models.SortNotes(notes)
	return notes
}

// GenerateSection runs a generator for one section, applies the section
// shape and clips the result to the section
func GenerateSection(gen Generator, c *Context, rng *rand.Rand) []models.Note {
	notes := gen.Generate(c, rng)
	notes = applyShape(notes, c, rng)
	return clip(notes, c.Beats())
}

// applyShape thins notes for build (sparse to full) and fade (full to
// sparse) sections. Bar downbeats are always kept.
func applyShape(notes []models.Note, c *Context, rng *rand.Rand) []models.Note {
	shape := c.Section.Shape
	if shape != models.ShapeBuild && shape != models.ShapeFade {
		return notes
	}
	total := c.Beats()
	out := notes[:0]
	for _, n := range notes {
		progress := n.Start / total
		keep := shapeFloor + (1-shapeFloor)*progress
		if shape == models.ShapeFade {
			keep = 1 - (1-shapeFloor)*progress
		}
		if c.Downbeat(n.Start) || rng.Float64() < keep {
			out = append(out, n)
		}
	}
	return out
}

// clip drops notes that start at or after the section end and shortens
// the ones that ring past it
func clip(notes []models.Note, end float64) []models.Note {
	out := notes[:0]
	for _, n := range notes {
		if n.Start < 0 || n.Start >= end-epsilon {
			continue
		}
		if n.End() > end {
			n.Duration = end - n.Start
		}
		if n.Duration < minDuration {
			continue
		}
		n.Pitch = clampPitch(n.Pitch)
		n.Velocity = clampVelocity(n.Velocity)
		out = append(out, n)
	}
	return out
}
