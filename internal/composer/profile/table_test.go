package profile

import (
	"testing"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLookupFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		genre     string
		mood      string
		wantGenre string
		wantMood  string
	}{
		{"known pair", "jazz", "mellow", "jazz", MoodCalm},
		{"unknown mood keeps genre row", "jazz", "quizzical", "jazz", ""},
		{"unknown genre uses default", "polka-step", "", "default", ""},
		{"unknown genre still applies mood", "polka-step", "sad", "default", MoodSad},
		{"alias", "Hip-Hop", "Dark", "hiphop", MoodDark},
		{"multi-word mood", "pop", "very happy", "pop", MoodHappy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Lookup(tt.genre, tt.mood)
			assert.Equal(t, tt.wantGenre, p.Genre)
			assert.Equal(t, tt.wantMood, p.Mood)
		})
	}
}

func TestLookupAlwaysInRange(t *testing.T) {
	genres := []string{"", "pop", "rock", "jazz", "blues", "lofi", "hiphop", "electronic",
		"classical", "ambient", "cinematic", "funk", "rnb", "metal", "folk", "latin", "unknown"}
	moods := []string{"", "sad", "happy", "calm", "energetic", "dark", "epic", "romantic", "odd"}

	for _, g := range genres {
		for _, m := range moods {
			p := Lookup(g, m)
			assert.GreaterOrEqual(t, p.HarmonicComplexity, 0, "%s/%s", g, m)
			assert.LessOrEqual(t, p.HarmonicComplexity, 3, "%s/%s", g, m)
			assert.GreaterOrEqual(t, p.VelocityMin, 1)
			assert.LessOrEqual(t, p.VelocityMax, 127)
			assert.Less(t, p.VelocityMin, p.VelocityMax)
			assert.Greater(t, p.DensityMultiplier, 0.0)
			assert.GreaterOrEqual(t, p.ChordsPerBar, 1)
			assert.NotEmpty(t, p.DrumStyle)
			assert.NotEmpty(t, p.BassStyle)
		}
	}
}

func TestMoodDrivesBrightness(t *testing.T) {
	sad := Lookup("piano", "sad")
	happy := Lookup("piano", "happy")

	assert.Less(t, sad.Brightness, 0.0)
	assert.Greater(t, happy.Brightness, 0.0)
	assert.Equal(t, models.ModeMinor, sad.Mode(""))
	assert.Equal(t, models.ModeMajor, happy.Mode(""))
	assert.Less(t, sad.VelocityMax, happy.VelocityMax)
}

func TestModePrefersExplicitKey(t *testing.T) {
	p := Lookup("pop", "sad")
	assert.Equal(t, models.ModeDorian, p.Mode(models.ModeDorian))
	assert.Equal(t, models.ModeMinor, p.Mode("nonsense"))
}

func TestGenreDefaultMode(t *testing.T) {
	assert.Equal(t, models.ModeMixolydian, Lookup("blues", "").Mode(""))
	assert.Equal(t, models.ModeMajor, Lookup("pop", "").Mode(""))
}

func TestVelocityRange(t *testing.T) {
	p := Profile{VelocityMin: 5, VelocityMax: 120}
	lo, hi := p.VelocityRange(10)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 127, hi)
}
