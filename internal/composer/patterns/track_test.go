package patterns

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/harmony"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/structure"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

func pieceSpec(t *testing.T, genre string, role models.Role, bars int) TrackSpec {
	t.Helper()
	sections, err := structure.Build(bars, genre, models.EnergyMedium)
	require.NoError(t, err)

	p := profile.Lookup(genre, "")
	mode := p.Mode("")
	chords := make([][]models.Chord, len(sections))
	for i, s := range sections {
		chords[i] = harmony.Progression(genre, p, mode, s, 4, 42)
	}
	return TrackSpec{
		Config:      models.TrackConfig{Role: role, Density: 0.6},
		Sections:    sections,
		Chords:      chords,
		Profile:     p,
		Tonic:       2,
		Mode:        mode,
		BeatsPerBar: 4,
		Seed:        7,
	}
}

// diatonicSpec is a single plain section over I-IV-V-vi in C major
func diatonicSpec(role models.Role) TrackSpec {
	var chords []models.Chord
	for i, degree := range []int{1, 4, 5, 6, 1, 4, 5, 6} {
		c := harmony.Diatonic(models.ModeMajor, degree, false)
		c.Start, c.Duration = float64(i*4), 4
		chords = append(chords, c)
	}
	return TrackSpec{
		Config: models.TrackConfig{Role: role, Density: 0.7},
		Sections: []models.Section{
			{Name: models.SectionMain, StartBar: 0, EndBar: 8, Energy: 0.6, Density: 0.7},
		},
		Chords:      [][]models.Chord{chords},
		Profile:     profile.Lookup("pop", ""),
		Tonic:       0,
		Mode:        models.ModeMajor,
		BeatsPerBar: 4,
		Seed:        99,
	}
}

func TestGenerateTrack_EveryRoleStaysInsideItsSections(t *testing.T) {
	genres := []string{"pop", "jazz", "rock", "electronic", "ambient", "funk", "latin", "metal", "hiphop"}

	for _, genre := range genres {
		for _, role := range models.RolePriority {
			t.Run(genre+"/"+string(role), func(t *testing.T) {
				spec := pieceSpec(t, genre, role, 40)
				notes := GenerateTrack(spec)
				require.NotEmpty(t, notes)

				for i, n := range notes {
					assert.GreaterOrEqual(t, n.Start, 0.0)
					assert.Greater(t, n.Duration, 0.0)
					assert.True(t, n.Pitch >= 0 && n.Pitch <= 127, "pitch %d", n.Pitch)
					assert.True(t, n.Velocity >= 1 && n.Velocity <= 127, "velocity %d", n.Velocity)

					bar := int(math.Floor(n.Start / 4))
					for _, s := range spec.Sections {
						if bar >= s.StartBar && bar < s.EndBar {
							assert.LessOrEqual(t, n.End(), float64(s.EndBar*4)+1e-9,
								"note at %.3f crosses the end of %s", n.Start, s.Name)
						}
					}

					if i > 0 {
						prev := notes[i-1]
						ordered := prev.Start < n.Start || (prev.Start == n.Start && prev.Pitch <= n.Pitch)
						assert.True(t, ordered, "notes out of order at %d", i)
					}
				}
			})
		}
	}
}

func TestGenerateTrack_Reproducible(t *testing.T) {
	spec := pieceSpec(t, "pop", models.RoleLead, 24)

	first := GenerateTrack(spec)
	second := GenerateTrack(spec)
	assert.Equal(t, first, second)

	spec.Seed++
	assert.NotEqual(t, first, GenerateTrack(spec))
}

func TestDrums_SkeletonInEveryBar(t *testing.T) {
	spec := diatonicSpec(models.RoleDrums)
	notes := GenerateTrack(spec)

	hits := make(map[float64]bool)
	for _, n := range notes {
		if n.Pitch == Kick {
			hits[n.Start] = true
		}
	}
	for bar := 0; bar < 8; bar++ {
		start := float64(bar * 4)
		assert.True(t, hits[start], "kick missing on beat 1 of bar %d", bar)
		assert.True(t, hits[start+2], "kick missing on beat 3 of bar %d", bar)
	}
}

func TestDrums_OnlyPercussionKeys(t *testing.T) {
	allowed := map[int]bool{
		Kick: true, SideStick: true, Snare: true, Clap: true, LowTom: true, ClosedHat: true,
		PedalHat: true, OpenHat: true, MidTom: true, HighTom: true, Crash: true, Ride: true,
		Cowbell: true, Shaker: true,
	}
	for _, genre := range []string{"pop", "jazz", "latin", "ambient"} {
		for _, n := range GenerateTrack(pieceSpec(t, genre, models.RoleDrums, 32)) {
			assert.True(t, allowed[n.Pitch], "%s: unexpected drum key %d", genre, n.Pitch)
		}
	}
}

func TestHarmonicRoles_UseChordTones(t *testing.T) {
	for _, role := range []models.Role{models.RolePad, models.RoleHarmony, models.RoleArpeggio} {
		t.Run(string(role), func(t *testing.T) {
			spec := diatonicSpec(role)
			chords := spec.Chords[0]
			notes := GenerateTrack(spec)
			require.NotEmpty(t, notes)

			for _, n := range notes {
				chord, ok := models.ChordAt(chords, n.Start)
				require.True(t, ok)
				assert.Contains(t, chord.Tones(0), n.Pitch%12, "pitch %d at %.2f", n.Pitch, n.Start)
			}
		})
	}
}

func TestMelodicRoles_StayInScale(t *testing.T) {
	major := []int{0, 2, 4, 5, 7, 9, 11}
	for _, role := range []models.Role{models.RoleLead, models.RoleCounterMelody} {
		t.Run(string(role), func(t *testing.T) {
			notes := GenerateTrack(diatonicSpec(role))
			require.NotEmpty(t, notes)
			for _, n := range notes {
				assert.Contains(t, major, n.Pitch%12)
			}
		})
	}
}

func TestBass_Register(t *testing.T) {
	for _, genre := range []string{"pop", "jazz", "funk", "rock", "electronic", "ambient"} {
		t.Run(genre, func(t *testing.T) {
			for _, n := range GenerateTrack(pieceSpec(t, genre, models.RoleBass, 32)) {
				assert.GreaterOrEqual(t, n.Pitch, bassLow-2)
				assert.LessOrEqual(t, n.Pitch, 60)
			}
		})
	}
}

func denseSixteenths(c *Context, _ *rand.Rand) []models.Note {
	var notes []models.Note
	for t := 0.0; t < c.Beats(); t += 0.25 {
		notes = append(notes, models.Note{Pitch: 60, Start: t, Duration: 0.25, Velocity: 80})
	}
	return notes
}

func TestGenerateSection_Shapes(t *testing.T) {
	tests := []struct {
		name         string
		shape        models.Shape
		firstIsLower bool
	}{
		{"build ramps up", models.ShapeBuild, true},
		{"fade ramps down", models.ShapeFade, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Context{
				Section:     models.Section{StartBar: 0, EndBar: 32, Density: 1, Shape: tt.shape},
				BeatsPerBar: 4,
			}
			notes := GenerateSection(GeneratorFunc(denseSixteenths), c, rand.New(rand.NewPCG(1, 2)))

			half := c.Beats() / 2
			first, second := 0, 0
			for _, n := range notes {
				if n.Start < half {
					first++
				} else {
					second++
				}
			}
			assert.Less(t, len(notes), 512)
			if tt.firstIsLower {
				assert.Less(t, first, second)
			} else {
				assert.Greater(t, first, second)
			}
		})
	}
}

func TestGenerateSection_ClipsToSectionEnd(t *testing.T) {
	overrun := GeneratorFunc(func(c *Context, _ *rand.Rand) []models.Note {
		return []models.Note{
			{Pitch: 60, Start: 0, Duration: 2, Velocity: 90},
			{Pitch: 62, Start: 7, Duration: 4, Velocity: 90},
			{Pitch: 64, Start: 8, Duration: 1, Velocity: 90},
			{Pitch: 65, Start: 7.99, Duration: 1, Velocity: 200},
		}
	})
	c := &Context{Section: models.Section{StartBar: 0, EndBar: 2}, BeatsPerBar: 4}

	notes := GenerateSection(overrun, c, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, notes, 2)
	assert.Equal(t, 2.0, notes[0].Duration)
	assert.InDelta(t, 1.0, notes[1].Duration, 1e-9)
}

func TestContext_DensityAndStep(t *testing.T) {
	p := profile.Lookup("pop", "")
	cfg := models.TrackConfig{Density: 0.5}

	plain := &Context{Section: models.Section{Density: 0.6}, Profile: p, Config: cfg}
	peak := &Context{Section: models.Section{Density: 0.6, Shape: models.ShapePeak}, Profile: p, Config: cfg}
	contrast := &Context{Section: models.Section{Contrast: true}}

	assert.InDelta(t, 0.5*p.DensityMultiplier*0.6, plain.Density(), 1e-9)
	assert.InDelta(t, 0.5*p.DensityMultiplier, peak.Density(), 1e-9)
	assert.Equal(t, 0.5, plain.Step(0.5))
	assert.Equal(t, 1.0, contrast.Step(0.5))
}

func TestArpOrder_FollowsContour(t *testing.T) {
	tones := []int{60, 64, 67, 72}
	rng := rand.New(rand.NewPCG(3, 4))

	assert.Equal(t, []int{60, 64, 67, 72}, arpOrder(tones, ContourAscending, rng))
	assert.Equal(t, []int{72, 67, 64, 60}, arpOrder(tones, ContourDescending, rng))
	assert.Equal(t, []int{60, 64, 67, 72, 67, 64}, arpOrder(tones, ContourArch, rng))
	assert.Equal(t, []int{72, 67, 64, 60, 64, 67}, arpOrder(tones, ContourValley, rng))
	assert.ElementsMatch(t, tones, arpOrder(tones, ContourFree, rng))
}

func TestRhythmTemplate_HitsScaleToMeter(t *testing.T) {
	tmpl, ok := GetRhythmTemplate("quarters")
	require.True(t, ok)

	hits := tmpl.hits(3)
	require.Len(t, hits, 4)
	assert.InDelta(t, 0.75, hits[1].offset, 1e-9)
	for _, h := range hits {
		assert.Less(t, h.offset, 3.0)
		assert.Greater(t, h.duration, 0.0)
	}
}

func TestGenerateTrack_DensityRaisesNoteCount(t *testing.T) {
	// one genre per bass style
	genres := map[string]profile.BassStyle{
		"pop":        profile.BassStandard,
		"jazz":       profile.BassWalking,
		"funk":       profile.BassFunky,
		"rock":       profile.BassPower,
		"electronic": profile.BassSynth,
		"ambient":    profile.BassAmbient,
	}

	for genre, style := range genres {
		for _, role := range models.RolePriority {
			t.Run(genre+"/"+string(role), func(t *testing.T) {
				spec := pieceSpec(t, genre, role, 40)
				require.Equal(t, style, spec.Profile.BassStyle)

				sparse, busy := 0, 0
				for s := int64(1); s <= 5; s++ {
					spec.Seed = s
					spec.Config.Density = 0.05
					sparse += len(GenerateTrack(spec))
					spec.Config.Density = 1
					busy += len(GenerateTrack(spec))
				}
				assert.Greater(t, busy, sparse)
			})
		}
	}
}

func startTimes(notes []models.Note) []float64 {
	out := make([]float64, len(notes))
	for i, n := range notes {
		out[i] = n.Start
	}
	return out
}

func TestGenerateTrack_SyncopationMovesOnsets(t *testing.T) {
	roles := []models.Role{
		models.RoleHarmony, models.RoleArpeggio, models.RoleDrums, models.RolePad, models.RoleFX,
		models.RoleLead, models.RoleBass,
	}
	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			spec := pieceSpec(t, "pop", role, 40)
			spec.Config.Density = 1

			spec.Profile.Syncopation = 0
			straight := GenerateTrack(spec)
			spec.Profile.Syncopation = 1
			pushed := GenerateTrack(spec)

			assert.NotEqual(t, startTimes(straight), startTimes(pushed))
		})
	}
}

func TestDrums_SyncopationKeepsSkeleton(t *testing.T) {
	spec := diatonicSpec(models.RoleDrums)
	spec.Profile.Syncopation = 1
	notes := GenerateTrack(spec)

	kicks, opens := 0, 0
	for _, n := range notes {
		switch n.Pitch {
		case Kick:
			kicks++
		case OpenHat:
			opens++
			assert.InDelta(t, 0.5, math.Mod(n.Start, 1), 1e-9, "open hat at %.2f", n.Start)
		}
	}
	assert.GreaterOrEqual(t, kicks, 16)
	assert.Positive(t, opens)
}

func TestWalkingBass_AnchorsChordChanges(t *testing.T) {
	spec := pieceSpec(t, "jazz", models.RoleBass, 16)
	spec.Config.Density = 0.05
	notes := GenerateTrack(spec)

	starts := make(map[float64]bool)
	for _, n := range notes {
		starts[n.Start] = true
	}
	for i, sec := range spec.Sections {
		if sec.Shape == models.ShapeBuild || sec.Shape == models.ShapeFade {
			continue
		}
		offset := float64(sec.StartBar * 4)
		for _, chord := range spec.Chords[i] {
			if chord.Start >= float64(sec.Bars()*4) {
				break
			}
			assert.True(t, starts[offset+chord.Start], "no bass note on the chord at %.1f", offset+chord.Start)
		}
	}
}
