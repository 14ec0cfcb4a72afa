package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const bars = 8

func track(role models.Role, density float64, perBar int, velocities ...int) models.Track {
	if len(velocities) == 0 {
		velocities = []int{64, 80, 96, 72, 110, 58}
	}
	var notes []models.Note
	for b := 0; b < bars; b++ {
		for i := 0; i < perBar; i++ {
			notes = append(notes, models.Note{
				Pitch:    60,
				Start:    float64(b*4) + float64(i)*4/float64(perBar),
				Duration: 0.25,
				Velocity: velocities[len(notes)%len(velocities)],
			})
		}
	}
	return models.Track{Name: string(role), Role: role, Density: density, Notes: notes}
}

func band() []models.Track {
	return []models.Track{
		track(models.RoleLead, 0.6, 4),
		track(models.RoleHarmony, 0.5, 2),
		track(models.RoleBass, 0.6, 4),
		track(models.RoleDrums, 0.75, 8),
	}
}

var jazz = Options{Genre: "jazz", TotalBars: bars, BeatsPerBar: 4, Iteration: 0, MaxIterations: 2}

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, WeightDiversity+WeightDensity+WeightBalance+WeightVelocity, 1e-9)
}

func TestAssess_HealthyBand(t *testing.T) {
	report := Assess(band(), jazz)

	assert.Empty(t, report.Flags)
	assert.InDelta(t, 1.0, report.Diversity, 1e-9)
	assert.InDelta(t, 1.0, report.DensityCompleteness, 1e-9)
	assert.InDelta(t, 1.0, report.Balance, 1e-9)
	assert.GreaterOrEqual(t, report.Overall, Threshold)
	assert.False(t, report.NeedsRefinement)
}

func TestAssess_Flags(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]models.Track) []models.Track
		track  int
		reason models.FlagReason
	}{
		{
			name: "empty track",
			mutate: func(ts []models.Track) []models.Track {
				ts[1].Notes = nil
				return ts
			},
			track:  1,
			reason: models.FlagEmpty,
		},
		{
			name: "too sparse lead",
			mutate: func(ts []models.Track) []models.Track {
				ts[0] = track(models.RoleLead, 0.9, 1)
				return ts
			},
			track:  0,
			reason: models.FlagTooSparse,
		},
		{
			name: "starved bass",
			mutate: func(ts []models.Track) []models.Track {
				ts[2].Notes = ts[2].Notes[:1]
				return ts
			},
			track:  2,
			reason: models.FlagStarved,
		},
		{
			name: "flat drums",
			mutate: func(ts []models.Track) []models.Track {
				ts[3] = track(models.RoleDrums, 0.75, 8, 100)
				return ts
			},
			track:  3,
			reason: models.FlagFlatVelocity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Assess(tt.mutate(band()), jazz)

			require.NotEmpty(t, report.Flags)
			assert.Contains(t, report.ReasonsFor(tt.track), tt.reason)
			assert.Contains(t, report.FlaggedTracks(), tt.track)
		})
	}
}

func TestAssess_AllEmpty(t *testing.T) {
	tracks := band()
	for i := range tracks {
		tracks[i].Notes = nil
	}
	report := Assess(tracks, jazz)

	assert.Len(t, report.Flags, 4)
	assert.Zero(t, report.DensityCompleteness)
	assert.Zero(t, report.Balance)
	assert.Less(t, report.Overall, Threshold)
	assert.True(t, report.NeedsRefinement)
}

func TestAssess_NeedsRefinementRespectsBudget(t *testing.T) {
	tracks := band()
	for i := range tracks {
		tracks[i].Notes = nil
	}

	last := jazz
	last.Iteration = last.MaxIterations
	report := Assess(tracks, last)

	assert.Less(t, report.Overall, Threshold)
	assert.False(t, report.NeedsRefinement)
}

func TestAssess_DiversityCountsDistinctRoles(t *testing.T) {
	tracks := []models.Track{
		track(models.RolePad, 0.4, 1),
		track(models.RolePad, 0.4, 1),
		track(models.RoleLead, 0.6, 4),
		track(models.RoleBass, 0.6, 4),
	}
	report := Assess(tracks, Options{Genre: "pop", TotalBars: bars, BeatsPerBar: 4, MaxIterations: 2})
	assert.InDelta(t, 0.75, report.Diversity, 1e-9)

	solo := Assess(tracks[2:3], Options{Genre: "classical", TotalBars: bars, BeatsPerBar: 4})
	assert.InDelta(t, 1.0, solo.Diversity, 1e-9)
}

func TestAssess_ThinLeadIsFlagged(t *testing.T) {
	// one onset a bar at density 0.6 is under half the expected rate
	tracks := band()
	tracks[0] = track(models.RoleLead, 0.6, 1)
	report := Assess(tracks, jazz)

	assert.Contains(t, report.ReasonsFor(0), models.FlagTooSparse)
	assert.Less(t, report.DensityCompleteness, 1.0)
}

func TestAssess_NarrowVelocityLosesCredit(t *testing.T) {
	tracks := band()
	for i, tr := range tracks {
		tracks[i] = track(tr.Role, tr.Density, len(tr.Notes)/bars, 70, 76, 82, 76)
	}
	report := Assess(tracks, jazz)

	// stddev about 4.2: not flat, but short of full marks
	assert.Empty(t, report.Flags)
	assert.Greater(t, report.VelocityVariation, 0.4)
	assert.Less(t, report.VelocityVariation, 0.6)
}

func TestAssess_Pure(t *testing.T) {
	tracks := band()
	tracks[0] = track(models.RoleLead, 0.9, 1)
	assert.Equal(t, Assess(tracks, jazz), Assess(tracks, jazz))
}

func TestAssess_NoTracks(t *testing.T) {
	report := Assess(nil, jazz)
	assert.Zero(t, report.Overall)
	assert.Empty(t, report.Flags)
}
