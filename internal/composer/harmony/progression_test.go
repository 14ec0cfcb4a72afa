package harmony

import (
	"testing"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verse(bars int) models.Section {
	return models.Section{Name: models.SectionVerse, StartBar: 0, EndBar: bars}
}

func TestDiatonicQualities(t *testing.T) {
	tests := []struct {
		name    string
		mode    models.Mode
		degree  int
		seventh bool
		want    models.ChordQuality
		root    int
	}{
		{"major I", models.ModeMajor, 1, false, models.QualityMajor, 0},
		{"major ii", models.ModeMajor, 2, false, models.QualityMinor, 2},
		{"major vii", models.ModeMajor, 7, false, models.QualityDiminished, 11},
		{"major V7", models.ModeMajor, 5, true, models.QualityDominant7, 7},
		{"major Imaj7", models.ModeMajor, 1, true, models.QualityMajor7, 0},
		{"major ii7", models.ModeMajor, 2, true, models.QualityMinor7, 2},
		{"major vii half-dim", models.ModeMajor, 7, true, models.QualityHalfDiminished, 11},
		{"minor i", models.ModeMinor, 1, false, models.QualityMinor, 0},
		{"minor VI", models.ModeMinor, 6, false, models.QualityMajor, 8},
		{"degree wraps", models.ModeMajor, 8, false, models.QualityMajor, 0},
		{"pentatonic uses parent", models.ModePentatonicMinor, 3, false, models.QualityMajor, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Diatonic(tt.mode, tt.degree, tt.seventh)
			assert.Equal(t, tt.want, c.Quality)
			assert.Equal(t, tt.root, c.Root)
		})
	}
}

func TestProgressionFillsSection(t *testing.T) {
	p := profile.Lookup("jazz", "")
	chords := Progression("jazz", p, models.ModeMajor, verse(8), 4, 99)

	require.Len(t, chords, 16, "jazz places two chords per bar")
	for i, c := range chords {
		assert.InDelta(t, float64(i)*2, c.Start, 1e-9)
		assert.InDelta(t, 2, c.Duration, 1e-9)
		assert.GreaterOrEqual(t, c.Degree, 1)
		assert.LessOrEqual(t, c.Degree, 7)
	}
}

func TestOddMeterUsesOneChordPerBar(t *testing.T) {
	p := profile.Lookup("jazz", "")
	chords := Progression("jazz", p, models.ModeMajor, verse(4), 3, 5)
	require.Len(t, chords, 4)
	assert.InDelta(t, 3, chords[1].Start, 1e-9)
}

func TestRepeatedSectionsShareProgression(t *testing.T) {
	p := profile.Lookup("pop", "happy")
	first := models.Section{Name: models.SectionChorus, StartBar: 8, EndBar: 16}
	second := models.Section{Name: models.SectionChorus, Occurrence: 1, StartBar: 24, EndBar: 32}

	a := Progression("pop", p, models.ModeMajor, first, 4, 1234)
	b := Progression("pop", p, models.ModeMajor, second, 4, 1234)
	assert.Equal(t, a, b)
}

func TestContrastUsesParallelMode(t *testing.T) {
	p := profile.Lookup("rock", "")
	home := models.Section{Name: models.SectionVerse, StartBar: 0, EndBar: 4}
	bridge := models.Section{Name: models.SectionBridge, StartBar: 4, EndBar: 8, Contrast: true}

	for s := int64(0); s < 20; s++ {
		for _, c := range Progression("rock", p, models.ModeMajor, home, 4, s) {
			if c.Degree == 1 {
				assert.Equal(t, models.QualityMajor, c.Quality)
			}
		}
		for _, c := range Progression("rock", p, models.ModeMajor, bridge, 4, s) {
			if c.Degree == 1 {
				assert.Equal(t, models.QualityMinor, c.Quality)
			}
		}
	}
}

func TestMoodSensitivity(t *testing.T) {
	genres := []string{"piano", "pop", "jazz", "rock", "lofi", "cinematic", "electronic", "blues", "unknown"}

	for _, genre := range genres {
		t.Run(genre, func(t *testing.T) {
			sad := profile.Lookup(genre, "sad")
			happy := profile.Lookup(genre, "happy")

			for s := int64(0); s < 50; s++ {
				sadChords := Progression(genre, sad, sad.Mode(""), verse(8), 4, s)
				assert.GreaterOrEqual(t, share(sadChords, models.ChordQuality.MinorLeaning), 0.7, "sad seed=%d", s)

				happyChords := Progression(genre, happy, happy.Mode(""), verse(8), 4, s)
				assert.GreaterOrEqual(t, share(happyChords, models.ChordQuality.MajorLeaning), 0.7, "happy seed=%d", s)
			}
		})
	}
}

func TestOutroEndsOnTonic(t *testing.T) {
	p := profile.Lookup("pop", "")
	outro := models.Section{Name: models.SectionOutro, StartBar: 28, EndBar: 32}
	chords := Progression("pop", p, models.ModeMajor, outro, 4, 3)
	require.NotEmpty(t, chords)
	assert.Equal(t, 1, chords[len(chords)-1].Degree)
}

func share(chords []models.Chord, lean func(models.ChordQuality) bool) float64 {
	n := 0
	for _, c := range chords {
		if lean(c.Quality) {
			n++
		}
	}
	return float64(n) / float64(len(chords))
}
