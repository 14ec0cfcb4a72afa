package patterns

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// General MIDI percussion keys
const (
	Kick       = 36
	SideStick  = 37
	Snare      = 38
	Clap       = 39
	LowTom     = 45
	ClosedHat  = 42
	PedalHat   = 44
	OpenHat    = 46
	MidTom     = 47
	HighTom    = 50
	Crash      = 49
	Ride       = 51
	Cowbell    = 56
	Shaker     = 70
	drumLength = 0.25
)

// skeleton is the fixed kick/snare placement of a style in a 4/4 bar.
// Only the timekeeping layer (hats, ride), ghosts, fills and crashes are
// left to the random stream.
type skeleton struct {
	kick      []float64
	snare     []float64
	backbeat  int     // snare voice
	timekeep  int     // hat or ride voice
	timeStep  float64 // timekeeping subdivision in beats
	swingFeel bool    // timekeeping on the triplet grid
}

var skeletons = map[profile.DrumStyle]skeleton{
	profile.DrumsStandard: {
		kick: []float64{0, 2}, snare: []float64{1, 3},
		backbeat: Snare, timekeep: ClosedHat, timeStep: 0.5,
	},
	profile.DrumsRock: {
		kick: []float64{0, 2, 2.5}, snare: []float64{1, 3},
		backbeat: Snare, timekeep: ClosedHat, timeStep: 0.5,
	},
	profile.DrumsHipHop: {
		kick: []float64{0, 1.75, 2.5}, snare: []float64{1, 3},
		backbeat: Snare, timekeep: ClosedHat, timeStep: 0.5,
	},
	profile.DrumsElectronic: {
		kick: []float64{0, 1, 2, 3}, snare: []float64{1, 3},
		backbeat: Clap, timekeep: ClosedHat, timeStep: 0.25,
	},
	profile.DrumsJazz: {
		kick: []float64{0, 2.5}, snare: []float64{1.67},
		backbeat: Snare, timekeep: Ride, timeStep: 1, swingFeel: true,
	},
	profile.DrumsFunk: {
		kick: []float64{0, 0.75, 2.5}, snare: []float64{1, 3},
		backbeat: Snare, timekeep: ClosedHat, timeStep: 0.25,
	},
	profile.DrumsLatin: {
		kick: []float64{0, 1.5, 3}, snare: []float64{1, 2.5},
		backbeat: SideStick, timekeep: ClosedHat, timeStep: 0.5,
	},
	profile.DrumsMetal: {
		kick: []float64{0, 0.75, 1.5, 2.25, 3, 3.75}, snare: []float64{1, 3},
		backbeat: Snare, timekeep: Ride, timeStep: 0.5,
	},
	profile.DrumsAmbient: {
		kick: []float64{0}, snare: []float64{3},
		backbeat: SideStick, timekeep: Shaker, timeStep: 1,
	},
}

func skeletonFor(style profile.DrumStyle, beatsPerBar int) skeleton {
	sk, ok := skeletons[style]
	if !ok {
		sk = skeletons[profile.DrumsStandard]
	}
	if beatsPerBar == 4 {
		return sk
	}
	// other meters keep the voices but rebuild the skeleton on the beat grid
	sk.kick = []float64{0}
	sk.snare = nil
	for b := 1; b < beatsPerBar; b++ {
		switch {
		case beatsPerBar%3 == 0 && b%3 == 0:
			sk.kick = append(sk.kick, float64(b))
		case beatsPerBar%3 != 0 && b%2 == 1:
			sk.snare = append(sk.snare, float64(b))
		}
	}
	if len(sk.snare) == 0 {
		sk.snare = []float64{float64(beatsPerBar - 1)}
	}
	return sk
}

// drums keeps the style skeleton in every bar and spends the randomness on
// hats, ghost notes, fills and crashes
func drums(c *Context, rng *rand.Rand) []models.Note {
	sk := skeletonFor(c.Profile.DrumStyle, c.BeatsPerBar)
	bars := c.Section.Bars()
	barLen := float64(c.BeatsPerBar)
	step := c.Step(sk.timeStep)
	keepHat := c.activity(0.35)
	// hats on this grid always sound; the rest are gated by density
	grid := max(step*2, 1)
	if sk.swingFeel {
		grid = 1
	}
	variation := c.Profile.RhythmicVariation

	var notes []models.Note
	add := func(pitch int, at float64, accent float64) {
		notes = append(notes, models.Note{
			Pitch: pitch, Start: at, Duration: drumLength, Velocity: c.Velocity(rng, accent),
		})
	}

	for bar := 0; bar < bars; bar++ {
		start := float64(bar) * barLen
		lastBar := bar == bars-1
		fill := lastBar && bars > 1 && rng.Float64() < 0.3+variation

		// half-time kick in contrast sections
		for i, k := range sk.kick {
			if c.Section.Contrast && i%2 == 1 {
				continue
			}
			add(Kick, start+k, 1.0)
		}
		for _, s := range sk.snare {
			if fill && s >= barLen-1 {
				continue
			}
			add(sk.backbeat, start+s, 0.95)
		}

		pushed := c.pushedAccents(rng, sk, barLen, fill)
		for t := 0.0; t < barLen-epsilon; t += step {
			if fill && t >= barLen-1 {
				break
			}
			if slices.ContainsFunc(pushed, func(at float64) bool { return math.Abs(at-t) < epsilon }) {
				continue
			}
			onBeat := onStrong(t, 1)
			if !onStrong(t, grid) && rng.Float64() >= keepHat {
				continue
			}
			accent := 0.6
			if onBeat {
				accent = 0.75
			}
			add(sk.timekeep, start+t, accent)
			if sk.swingFeel && onStrong(t, 1) && !onStrong(t, 2) {
				// skip note of the swing ride pattern
				if rng.Float64() < keepHat {
					add(sk.timekeep, start+t+0.67, 0.55)
				}
			}
		}
		for _, at := range pushed {
			add(sk.accentVoice(), start+at, 0.8)
		}

		if sk.swingFeel {
			for b := 1; b < c.BeatsPerBar; b += 2 {
				add(PedalHat, start+float64(b), 0.5)
			}
		}

		// ghost notes
		for t := 0.25; t < barLen-epsilon; t += 0.5 {
			if rng.Float64() < variation*0.4 {
				add(sk.backbeat, start+t, 0.4)
			}
		}

		if c.Profile.DrumStyle == profile.DrumsLatin && rng.Float64() < 0.5+variation {
			add(Cowbell, start, 0.7)
			add(Cowbell, start+barLen/2, 0.6)
		}

		if fill {
			notes = append(notes, drumFill(c, rng, start+barLen-1)...)
		}

		crashBar := (bar == 0 && c.Section.StartBar > 0) || (bar > 0 && bar%4 == 0)
		if crashBar && rng.Float64() < 0.4+c.Section.Energy*0.5 {
			add(Crash, start, 1.05)
		}
	}
	return notes
}

// pushedAccents places an accent on the off-beat after beats 1 and 3 with
// the profile's syncopation probability. Swing styles push onto the
// triplet.
func (c *Context) pushedAccents(rng *rand.Rand, sk skeleton, barLen float64, fill bool) []float64 {
	var out []float64
	for b := 0.0; b < barLen-epsilon; b += 2 {
		at := c.Syncopate(rng, b, 1)
		if at == b {
			continue
		}
		if sk.swingFeel {
			at = b + 0.67
		}
		if fill && at >= barLen-1 {
			continue
		}
		out = append(out, at)
	}
	return out
}

// accentVoice is the voice of a pushed accent: an open hat over closed hats,
// otherwise the timekeeping voice itself
func (sk skeleton) accentVoice() int {
	if sk.timekeep == ClosedHat {
		return OpenHat
	}
	return sk.timekeep
}

// drumFill is a one-beat descending tom run
func drumFill(c *Context, rng *rand.Rand, at float64) []models.Note {
	toms := []int{HighTom, MidTom, LowTom, Snare}
	step := 0.25
	if rng.Float64() < 0.4 {
		step = 0.5
	}
	var notes []models.Note
	i := 0
	for t := 0.0; t < 1-epsilon; t += step {
		notes = append(notes, models.Note{
			Pitch:    toms[i%len(toms)],
			Start:    at + t,
			Duration: step,
			Velocity: c.Velocity(rng, 0.8+0.1*float64(i)),
		})
		i++
	}
	return notes
}
