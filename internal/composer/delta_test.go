package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

func TestParseDelta(t *testing.T) {
	tests := []struct {
		text string
		want Delta
	}{
		{
			text: "add strings",
			want: Delta{Add: []TrackRequest{{Role: models.RolePad, Instrument: "strings"}}},
		},
		{
			text: "Add a bass",
			want: Delta{Add: []TrackRequest{{Role: models.RoleBass}}},
		},
		{
			text: "make drums louder",
			want: Delta{VelocityScale: map[models.Role]float64{models.RoleDrums: LouderScale}},
		},
		{
			text: "softer bass",
			want: Delta{VelocityScale: map[models.Role]float64{models.RoleBass: SofterScale}},
		},
		{
			text: "busier arpeggio",
			want: Delta{DensityScale: map[models.Role]float64{models.RoleArpeggio: BusierScale}},
		},
		{
			text: "remove fx",
			want: Delta{Remove: []models.Role{models.RoleFX}},
		},
		{
			text: "regenerate lead",
			want: Delta{Regenerate: []models.Role{models.RoleLead}},
		},
		{
			text: "remove fx, regenerate the melody and add piano",
			want: Delta{
				Add:        []TrackRequest{{Role: models.RoleHarmony, Instrument: "piano"}},
				Remove:     []models.Role{models.RoleFX},
				Regenerate: []models.Role{models.RoleLead},
			},
		},
		{
			text: "make the pads sparser",
			want: Delta{DensityScale: map[models.Role]float64{models.RolePad: SparserScale}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseDelta(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDelta_Errors(t *testing.T) {
	for _, text := range []string{"", "make it nicer", "add", "louder please", "drums"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseDelta(text)
			assert.ErrorIs(t, err, ErrInvalidDelta)
		})
	}
}

func TestParseDelta_StacksRepeatedScales(t *testing.T) {
	got, err := ParseDelta("louder drums, louder drums")
	require.NoError(t, err)
	assert.InDelta(t, LouderScale*LouderScale, got.VelocityScale[models.RoleDrums], 1e-9)
}
