// Package harmony generates scale-degree chord progressions for sections.
package harmony

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/seed"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	// leanFloor is the minimum share of mood-leaning chords in a home-mode
	// section when the profile's brightness is strong
	leanFloor        = 0.75
	strongBrightness = 0.5

	susShare          = 0.15
	seventhChanceLow  = 0.25
	alterationChance  = 0.35
	neutralBrightness = 0.5
)

var baseProgressions = map[string][][]int{
	"pop":        {{1, 5, 6, 4}, {1, 6, 4, 5}, {6, 4, 1, 5}, {1, 4, 6, 5}},
	"rock":       {{1, 4, 5, 1}, {1, 5, 6, 4}, {1, 4, 1, 5}},
	"jazz":       {{2, 5, 1, 1}, {2, 5, 1, 6}, {1, 6, 2, 5}},
	"blues":      {{1, 1, 1, 1, 4, 4, 1, 1, 5, 4, 1, 5}},
	"lofi":       {{2, 5, 1, 6}, {4, 3, 2, 1}, {1, 6, 2, 5}},
	"hiphop":     {{1, 6, 4, 5}, {1, 4, 1, 5}, {6, 4, 1, 5}},
	"electronic": {{1, 6, 4, 5}, {6, 4, 1, 5}, {1, 5, 6, 4}},
	"classical":  {{1, 4, 5, 1}, {1, 6, 4, 5}, {1, 2, 5, 1}, {1, 5, 6, 3, 4, 1, 4, 5}},
	"ambient":    {{1, 4, 1, 4}, {1, 6, 4, 1}, {1, 5, 4, 1}},
	"cinematic":  {{1, 6, 3, 7}, {1, 4, 6, 5}, {6, 4, 1, 5}},
	"funk":       {{1, 4, 1, 4}, {1, 1, 4, 4}, {2, 5, 1, 1}},
	"rnb":        {{2, 5, 1, 6}, {1, 6, 2, 5}, {4, 5, 3, 6}},
	"metal":      {{1, 6, 7, 1}, {1, 4, 6, 5}, {1, 7, 6, 7}},
	"folk":       {{1, 4, 1, 5}, {1, 5, 6, 4}, {1, 4, 5, 1}},
	"latin":      {{1, 4, 5, 4}, {2, 5, 1, 1}, {1, 6, 2, 5}},
}

// Progression returns the chords of one section in section-relative beats.
// The progression depends only on the section name, so repeated sections
// share it.
func Progression(genre string, p profile.Profile, home models.Mode, sec models.Section, beatsPerBar int, seedValue int64) []models.Chord {
	rng := seed.Stream(seedValue, "harmony:"+string(sec.Name))

	mode := home.Heptatonic()
	if sec.Contrast {
		mode = mode.Parallel()
	}

	g := profile.CanonicalGenre(genre)
	options, ok := baseProgressions[g]
	if !ok {
		options = baseProgressions["pop"]
	}
	degrees := options[rng.IntN(len(options))]

	perBar := p.ChordsPerBar
	if perBar < 1 || beatsPerBar%2 != 0 || g == "blues" {
		perBar = 1
	}
	chordBeats := float64(beatsPerBar) / float64(perBar)

	cycle := make([]models.Chord, len(degrees))
	for i, d := range degrees {
		cycle[i] = Diatonic(mode, d, seventhFor(p, rng))
	}
	applyMood(cycle, mode, p, rng)
	applyAlterations(cycle, p, rng)
	if !sec.Contrast && abs(p.Brightness) >= strongBrightness {
		enforceLean(cycle, mode, p.Brightness < 0)
	}

	slots := sec.Bars() * perBar
	chords := make([]models.Chord, 0, slots)
	for i := 0; i < slots; i++ {
		c := cycle[i%len(cycle)]
		c.Start = float64(i) * chordBeats
		c.Duration = chordBeats
		chords = append(chords, c)
	}

	if sec.Name == models.SectionOutro && len(chords) > 0 {
		last := &chords[len(chords)-1]
		tonic := Diatonic(mode, 1, len(last.Quality.Intervals()) > 3)
		tonic.Start, tonic.Duration = last.Start, last.Duration
		*last = tonic
	}
	return chords
}

// Diatonic builds the chord on a scale degree of a heptatonic mode
func Diatonic(mode models.Mode, degree int, seventh bool) models.Chord {
	scale := mode.Heptatonic().Intervals()
	d := ((degree-1)%7 + 7) % 7
	root := scale[d]

	third := interval(scale, d, 2)
	fifth := interval(scale, d, 4)
	q := triadQuality(third, fifth)
	if seventh {
		q = seventhQuality(third, fifth, interval(scale, d, 6))
	}
	return models.Chord{Degree: d + 1, Quality: q, Root: root}
}

func interval(scale []int, d, steps int) int {
	idx := d + steps
	iv := scale[idx%7] - scale[d]
	if idx >= 7 {
		iv += 12
	}
	return iv
}

func triadQuality(third, fifth int) models.ChordQuality {
	switch {
	case third == 4 && fifth == 8:
		return models.QualityAugmented
	case third == 4:
		return models.QualityMajor
	case fifth == 6:
		return models.QualityDiminished
	}
	return models.QualityMinor
}

func seventhQuality(third, fifth, seventh int) models.ChordQuality {
	switch {
	case third == 4 && seventh == 10:
		return models.QualityDominant7
	case third == 4:
		return models.QualityMajor7
	case fifth == 6 && seventh == 10:
		return models.QualityHalfDiminished
	case fifth == 6:
		return models.QualityDiminished
	}
	return models.QualityMinor7
}

func seventhFor(p profile.Profile, rng *rand.Rand) bool {
	switch {
	case p.HarmonicComplexity >= 2:
		return true
	case p.HarmonicComplexity == 1:
		chance := seventhChanceLow
		if p.Brightness > 0 {
			chance *= 2
		}
		return rng.Float64() < chance
	}
	return false
}

// applyMood substitutes chords toward the profile's brightness: dark
// profiles swap major chords for their relative minor (sometimes sus4),
// bright profiles swap minor chords for their relative major
func applyMood(cycle []models.Chord, mode models.Mode, p profile.Profile, rng *rand.Rand) {
	if p.Brightness == 0 || p.SubstitutionRate <= 0 {
		return
	}
	for i, c := range cycle {
		if rng.Float64() >= p.SubstitutionRate {
			continue
		}
		seventh := len(c.Quality.Intervals()) > 3
		switch {
		case p.Brightness < 0 && c.Quality.MajorLeaning():
			if rng.Float64() < susShare {
				cycle[i].Quality = models.QualitySus4
				continue
			}
			cycle[i] = relativeMinor(mode, c.Degree, seventh)
		case p.Brightness > 0 && c.Quality.MinorLeaning():
			cycle[i] = relativeMajor(mode, c.Degree, seventh)
		}
	}
}

func relativeMinor(mode models.Mode, degree int, seventh bool) models.Chord {
	c := Diatonic(mode, degree-2, seventh)
	if !c.Quality.MinorLeaning() {
		c.Quality = models.QualityMinor
		if seventh {
			c.Quality = models.QualityMinor7
		}
	}
	return c
}

func relativeMajor(mode models.Mode, degree int, seventh bool) models.Chord {
	c := Diatonic(mode, degree+2, seventh)
	if !c.Quality.MajorLeaning() {
		c.Quality = models.QualityMajor
		if seventh {
			c.Quality = models.QualityMajor7
		}
	}
	return c
}

// applyAlterations swaps in extended chords at complexity 3, keeping the
// chord's major/minor family; sus chords only replace chords of neutral
// profiles
func applyAlterations(cycle []models.Chord, p profile.Profile, rng *rand.Rand) {
	if p.HarmonicComplexity < 3 || len(p.Alterations) == 0 {
		return
	}
	for i, c := range cycle {
		if rng.Float64() >= alterationChance {
			continue
		}
		alt := p.Alterations[rng.IntN(len(p.Alterations))]
		switch {
		case alt.MinorLeaning() && c.Quality.MinorLeaning():
		case alt.MajorLeaning() && c.Quality.MajorLeaning():
		case !alt.MinorLeaning() && !alt.MajorLeaning() && abs(p.Brightness) < neutralBrightness:
		default:
			continue
		}
		cycle[i].Quality = alt
	}
}

// enforceLean substitutes the remaining opposite chords, in order, until the
// cycle reaches leanFloor
func enforceLean(cycle []models.Chord, mode models.Mode, minor bool) {
	leaning := func(c models.Chord) bool {
		if minor {
			return c.Quality.MinorLeaning()
		}
		return c.Quality.MajorLeaning()
	}
	count := 0
	for _, c := range cycle {
		if leaning(c) {
			count++
		}
	}
	for i := 0; i < len(cycle) && float64(count) < leanFloor*float64(len(cycle)); i++ {
		if leaning(cycle[i]) {
			continue
		}
		seventh := len(cycle[i].Quality.Intervals()) > 3
		if minor {
			cycle[i] = relativeMinor(mode, cycle[i].Degree, seventh)
		} else {
			cycle[i] = relativeMajor(mode, cycle[i].Degree, seventh)
		}
		count++
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
