// Package quality scores a generated track set. Assess is a pure function
// of its input.
package quality

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// Subscore weights and thresholds
const (
	WeightDiversity = 0.20
	WeightDensity   = 0.35
	WeightBalance   = 0.25
	WeightVelocity  = 0.20

	Threshold = 0.75

	// onsets per bar a track must reach, as a share of capacity x density
	densityExpectation = 0.6
	// below this ratio of expected onsets a track is too sparse
	sparseRatio = 0.5
	// a track with fewer onsets per bar than this is starved
	starvedPerBar = 0.2
	// a sibling with at least this many onsets per bar counts as populated
	populatedPerBar = 1.0
	// velocity standard deviation that earns full marks
	velocitySpread = 8.0
	// below this standard deviation velocity is flat
	flatVelocity = 2.0
)

// capacity is the onsets per bar a role plays at density 1
var capacity = map[models.Role]float64{
	models.RoleDrums:         16,
	models.RoleArpeggio:      16,
	models.RoleBass:          8,
	models.RoleLead:          8,
	models.RoleCounterMelody: 6,
	models.RoleHarmony:       4,
	models.RoleFX:            2,
	models.RolePad:           1,
}

// idealRoles is how many distinct roles a genre usually carries
var idealRoles = map[string]int{
	"classical":  3,
	"ambient":    4,
	"folk":       4,
	"jazz":       4,
	"blues":      4,
	"lofi":       4,
	"rock":       4,
	"metal":      4,
	"pop":        5,
	"hiphop":     5,
	"rnb":        5,
	"funk":       5,
	"latin":      5,
	"electronic": 6,
	"cinematic":  6,
}

const defaultIdealRoles = 5

// Options carries what the assessor needs beyond the tracks
type Options struct {
	Genre         string
	TotalBars     int
	BeatsPerBar   int
	Iteration     int
	MaxIterations int
	// Threshold overrides the package Threshold when positive
	Threshold float64
}

// Assess scores tracks and flags the deficient ones
func Assess(tracks []models.Track, opts Options) models.QualityReport {
	bars := max(opts.TotalBars, 1)
	perBar := make([]float64, len(tracks))
	for i, t := range tracks {
		perBar[i] = float64(onsets(t.Notes)) / float64(bars)
	}

	var flags []models.TrackFlag
	flag := func(i int, reason models.FlagReason, detail string) {
		flags = append(flags, models.TrackFlag{
			Track: i, Name: tracks[i].Name, Role: tracks[i].Role, Reason: reason, Detail: detail,
		})
	}

	populated := 0
	for _, pb := range perBar {
		if pb >= populatedPerBar {
			populated++
		}
	}

	var densitySum, velocitySum float64
	balanced := 0
	for i, t := range tracks {
		if len(t.Notes) == 0 {
			flag(i, models.FlagEmpty, "no notes generated")
			continue
		}

		expected := expectedPerBar(t)
		ratio := min(perBar[i]/expected, 1)
		densitySum += ratio
		if ratio < sparseRatio {
			flag(i, models.FlagTooSparse, fmt.Sprintf("%.2f onsets/bar, expected %.2f", perBar[i], expected))
		}

		otherPopulated := populated
		if perBar[i] >= populatedPerBar {
			otherPopulated--
		}
		if perBar[i] < starvedPerBar && otherPopulated > 0 {
			flag(i, models.FlagStarved, fmt.Sprintf("%.2f onsets/bar while siblings play", perBar[i]))
		} else {
			balanced++
		}

		sd := velocityStdDev(t.Notes)
		velocitySum += min(sd/velocitySpread, 1)
		if len(t.Notes) > 1 && sd < flatVelocity {
			flag(i, models.FlagFlatVelocity, fmt.Sprintf("velocity stddev %.2f", sd))
		}
	}

	report := models.QualityReport{Flags: flags}
	if n := float64(len(tracks)); n > 0 {
		report.Diversity = diversity(tracks, opts.Genre)
		report.DensityCompleteness = densitySum / n
		report.Balance = float64(balanced) / n
		report.VelocityVariation = velocitySum / n
	}
	report.Overall = clamp01(WeightDiversity*report.Diversity +
		WeightDensity*report.DensityCompleteness +
		WeightBalance*report.Balance +
		WeightVelocity*report.VelocityVariation)
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = Threshold
	}
	report.NeedsRefinement = report.Overall < threshold && opts.Iteration < opts.MaxIterations
	return report
}

// expectedPerBar is the onset rate a track's target density asks for
func expectedPerBar(t models.Track) float64 {
	c, ok := capacity[t.Role]
	if !ok {
		c = capacity[models.RoleLead]
	}
	density := t.Density
	if density <= 0 {
		density = 0.5
	}
	return max(c*density*densityExpectation, 0.05)
}

// diversity is distinct roles over the smaller of the track count and the
// genre's ideal
func diversity(tracks []models.Track, genre string) float64 {
	distinct := make(map[models.Role]bool)
	for _, t := range tracks {
		distinct[t.Role] = true
	}
	ideal, ok := idealRoles[profile.CanonicalGenre(genre)]
	if !ok {
		ideal = defaultIdealRoles
	}
	target := min(len(tracks), ideal)
	if target == 0 {
		return 0
	}
	return clamp01(float64(len(distinct)) / float64(target))
}

// onsets counts distinct note start times
func onsets(notes []models.Note) int {
	seen := make(map[int64]bool, len(notes))
	for _, n := range notes {
		// 1/960 beat resolution
		seen[int64(math.Round(n.Start*960))] = true
	}
	return len(seen)
}

func velocityStdDev(notes []models.Note) float64 {
	if len(notes) < 2 {
		return 0
	}
	mean := 0.0
	for _, n := range notes {
		mean += float64(n.Velocity)
	}
	mean /= float64(len(notes))
	sum := 0.0
	for _, n := range notes {
		d := float64(n.Velocity) - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(notes)))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
