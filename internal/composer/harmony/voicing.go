package harmony

import "github.com/Conceptual-Machines/magda-composer/internal/models"

// Voicing stacks the chord upward from the first root at or above low
func Voicing(c models.Chord, tonic models.PitchClass, low int) []int {
	root := c.RootPitchClass(tonic)
	base := low + ((root-low)%12+12)%12

	intervals := c.Quality.Intervals()
	pitches := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		if p := base + iv; p <= 127 {
			pitches = append(pitches, p)
		}
	}
	return pitches
}

// ChordTonePitches lists every pitch in [lo, hi] whose pitch class belongs
// to the chord
func ChordTonePitches(c models.Chord, tonic models.PitchClass, lo, hi int) []int {
	return collect(c.Tones(tonic), lo, hi)
}

// ScalePitches lists every pitch in [lo, hi] in the mode built on tonic
func ScalePitches(tonic models.PitchClass, mode models.Mode, lo, hi int) []int {
	intervals := mode.Intervals()
	classes := make([]int, len(intervals))
	for i, iv := range intervals {
		classes[i] = (int(tonic) + iv) % 12
	}
	return collect(classes, lo, hi)
}

// Nearest returns the pitch in candidates closest to target
func Nearest(candidates []int, target int) int {
	if len(candidates) == 0 {
		return target
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if absInt(p-target) < absInt(best-target) {
			best = p
		}
	}
	return best
}

func collect(classes []int, lo, hi int) []int {
	member := [12]bool{}
	for _, pc := range classes {
		member[((pc%12)+12)%12] = true
	}
	var out []int
	for p := max(lo, 0); p <= min(hi, 127); p++ {
		if member[p%12] {
			out = append(out, p)
		}
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
