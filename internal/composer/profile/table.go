// Package profile maps a genre and mood onto the parameters that shape
// generation.
package profile

import (
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// DrumStyle selects the canonical kick/snare skeleton
type DrumStyle string

// Drum styles
const (
	DrumsStandard   DrumStyle = "standard"
	DrumsRock       DrumStyle = "rock"
	DrumsHipHop     DrumStyle = "hiphop"
	DrumsElectronic DrumStyle = "electronic"
	DrumsJazz       DrumStyle = "jazz"
	DrumsFunk       DrumStyle = "funk"
	DrumsLatin      DrumStyle = "latin"
	DrumsMetal      DrumStyle = "metal"
	DrumsAmbient    DrumStyle = "ambient"
)

// BassStyle selects the bass line family
type BassStyle string

// Bass styles
const (
	BassStandard BassStyle = "standard"
	BassWalking  BassStyle = "walking"
	BassFunky    BassStyle = "funky"
	BassPower    BassStyle = "power"
	BassSynth    BassStyle = "synth"
	BassAmbient  BassStyle = "ambient"
)

// Profile is the parameter bundle for one genre/mood pair
type Profile struct {
	Genre string
	Mood  string

	Syncopation        float64 // probability an onset is pushed off the strong subdivision
	RhythmicVariation  float64 // probability of fills, passing notes and leaps
	DensityMultiplier  float64
	VelocityMin        int
	VelocityMax        int
	HarmonicComplexity int // 0 triads .. 3 extended/altered
	Alterations        []models.ChordQuality
	TempoBias          int

	Brightness       float64 // -1 minor-leaning .. +1 major-leaning
	SubstitutionRate float64 // probability of a mood-driven chord substitution
	Swing            float64 // off-beat delay in beats applied by humanization
	ChordsPerBar     int
	DefaultTempo     int
	HomeMode         models.Mode
	DrumStyle        DrumStyle
	BassStyle        BassStyle
}

// VelocityRange returns the min/max velocity, optionally widened
func (p Profile) VelocityRange(widen int) (int, int) {
	lo, hi := p.VelocityMin-widen, p.VelocityMax+widen
	if lo < 1 {
		lo = 1
	}
	if hi > 127 {
		hi = 127
	}
	return lo, hi
}

// Mode picks the home mode: an explicit key mode wins, otherwise the mood's
// brightness, otherwise the genre's default
func (p Profile) Mode(requested models.Mode) models.Mode {
	if requested != "" && requested.Known() {
		return requested
	}
	switch {
	case p.Brightness <= -0.3:
		return models.ModeMinor
	case p.Brightness >= 0.3:
		return models.ModeMajor
	}
	if p.HomeMode != "" {
		return p.HomeMode
	}
	return models.ModeMajor
}

var globalDefault = Profile{
	Genre:              "default",
	Syncopation:        0.15,
	RhythmicVariation:  0.2,
	DensityMultiplier:  1.0,
	VelocityMin:        60,
	VelocityMax:        100,
	HarmonicComplexity: 1,
	Alterations:        []models.ChordQuality{models.QualitySus4, models.QualityAdd9},
	SubstitutionRate:   0.3,
	Swing:              0.02,
	ChordsPerBar:       1,
	DefaultTempo:       110,
	HomeMode:           models.ModeMajor,
	DrumStyle:          DrumsStandard,
	BassStyle:          BassStandard,
}

// genreDefaults holds the genre-only rows; fields left zero inherit from
// globalDefault
var genreDefaults = map[string]Profile{
	"pop": {
		Syncopation: 0.2, DensityMultiplier: 1.0, VelocityMin: 65, VelocityMax: 105,
		HarmonicComplexity: 1, DefaultTempo: 112,
	},
	"rock": {
		Syncopation: 0.15, DensityMultiplier: 1.1, VelocityMin: 75, VelocityMax: 115,
		HarmonicComplexity: 0, DefaultTempo: 124, DrumStyle: DrumsRock, BassStyle: BassPower,
	},
	"jazz": {
		Syncopation: 0.35, RhythmicVariation: 0.35, DensityMultiplier: 0.95, VelocityMin: 55, VelocityMax: 100,
		HarmonicComplexity: 2, Alterations: []models.ChordQuality{models.QualityMajor9, models.QualityMinor9, models.QualityDominant9},
		Swing: 0.1, ChordsPerBar: 2, DefaultTempo: 120, DrumStyle: DrumsJazz, BassStyle: BassWalking,
	},
	"blues": {
		Syncopation: 0.25, RhythmicVariation: 0.3, VelocityMin: 60, VelocityMax: 105,
		HarmonicComplexity: 2, Swing: 0.08, DefaultTempo: 96, HomeMode: models.ModeMixolydian,
		DrumStyle: DrumsJazz, BassStyle: BassWalking,
	},
	"lofi": {
		Syncopation: 0.3, DensityMultiplier: 0.8, VelocityMin: 50, VelocityMax: 90,
		HarmonicComplexity: 2, Swing: 0.06, DefaultTempo: 82, HomeMode: models.ModeDorian,
		DrumStyle: DrumsHipHop, BassStyle: BassStandard,
	},
	"hiphop": {
		Syncopation: 0.3, DensityMultiplier: 0.9, VelocityMin: 65, VelocityMax: 110,
		HarmonicComplexity: 1, Swing: 0.05, DefaultTempo: 90, HomeMode: models.ModeMinor,
		DrumStyle: DrumsHipHop, BassStyle: BassSynth,
	},
	"electronic": {
		Syncopation: 0.2, DensityMultiplier: 1.15, VelocityMin: 70, VelocityMax: 115,
		HarmonicComplexity: 1, DefaultTempo: 126, HomeMode: models.ModeMinor,
		DrumStyle: DrumsElectronic, BassStyle: BassSynth,
	},
	"classical": {
		Syncopation: 0.05, RhythmicVariation: 0.25, DensityMultiplier: 0.9, VelocityMin: 45, VelocityMax: 100,
		HarmonicComplexity: 1, DefaultTempo: 96, DrumStyle: DrumsAmbient, BassStyle: BassStandard,
	},
	"ambient": {
		Syncopation: 0.05, RhythmicVariation: 0.1, DensityMultiplier: 0.6, VelocityMin: 40, VelocityMax: 80,
		HarmonicComplexity: 2, Alterations: []models.ChordQuality{models.QualitySus2, models.QualityAdd9, models.QualityMajor9},
		DefaultTempo: 70, HomeMode: models.ModeLydian, DrumStyle: DrumsAmbient, BassStyle: BassAmbient,
	},
	"cinematic": {
		Syncopation: 0.1, RhythmicVariation: 0.25, DensityMultiplier: 1.0, VelocityMin: 45, VelocityMax: 120,
		HarmonicComplexity: 3, Alterations: []models.ChordQuality{models.QualitySus2, models.QualitySus4, models.QualityAdd9, models.QualityMinor9},
		DefaultTempo: 100, HomeMode: models.ModeMinor, DrumStyle: DrumsAmbient, BassStyle: BassAmbient,
	},
	"funk": {
		Syncopation: 0.45, RhythmicVariation: 0.3, DensityMultiplier: 1.1, VelocityMin: 70, VelocityMax: 115,
		HarmonicComplexity: 2, Swing: 0.03, ChordsPerBar: 2, DefaultTempo: 104, HomeMode: models.ModeDorian,
		DrumStyle: DrumsFunk, BassStyle: BassFunky,
	},
	"rnb": {
		Syncopation: 0.3, DensityMultiplier: 0.9, VelocityMin: 55, VelocityMax: 100,
		HarmonicComplexity: 2, Swing: 0.05, DefaultTempo: 88, HomeMode: models.ModeDorian,
		DrumStyle: DrumsHipHop, BassStyle: BassFunky,
	},
	"metal": {
		Syncopation: 0.1, DensityMultiplier: 1.25, VelocityMin: 85, VelocityMax: 127,
		HarmonicComplexity: 0, DefaultTempo: 150, HomeMode: models.ModeMinor,
		DrumStyle: DrumsMetal, BassStyle: BassPower,
	},
	"folk": {
		Syncopation: 0.1, DensityMultiplier: 0.9, VelocityMin: 55, VelocityMax: 95,
		HarmonicComplexity: 0, DefaultTempo: 100,
	},
	"latin": {
		Syncopation: 0.4, RhythmicVariation: 0.3, DensityMultiplier: 1.05, VelocityMin: 65, VelocityMax: 110,
		HarmonicComplexity: 2, DefaultTempo: 100, DrumStyle: DrumsLatin, BassStyle: BassFunky,
	},
}

var genreAliases = map[string]string{
	"hip-hop":    "hiphop",
	"hip hop":    "hiphop",
	"rap":        "hiphop",
	"lo-fi":      "lofi",
	"lo fi":      "lofi",
	"edm":        "electronic",
	"house":      "electronic",
	"techno":     "electronic",
	"trance":     "electronic",
	"r&b":        "rnb",
	"soul":       "rnb",
	"orchestral": "cinematic",
	"epic":       "cinematic",
	"soundtrack": "cinematic",
	"piano":      "classical",
	"acoustic":   "folk",
	"country":    "folk",
	"bossa":      "latin",
	"salsa":      "latin",
	"reggaeton":  "latin",
	"heavy":      "metal",
	"chill":      "lofi",
}

// CanonicalGenre returns the table key for a genre, or "" when unknown
func CanonicalGenre(genre string) string {
	g := strings.ToLower(strings.TrimSpace(genre))
	if _, ok := genreDefaults[g]; ok {
		return g
	}
	if alias, ok := genreAliases[g]; ok {
		return alias
	}
	return ""
}

// Lookup returns the profile for a genre/mood pair. Unknown moods fall back to
// the genre row and unknown genres to the global default; it never fails.
func Lookup(genre, mood string) Profile {
	canonical := CanonicalGenre(genre)

	p := globalDefault
	if row, ok := genreDefaults[canonical]; ok {
		p = merge(globalDefault, row)
		p.Genre = canonical
	}

	category := MoodCategory(mood)
	if category == "" {
		return p
	}
	p.Mood = category
	moodOverlays[category](&p)
	if tweak, ok := combos[canonical+"/"+category]; ok {
		tweak(&p)
	}
	return p.normalized()
}

func (p Profile) normalized() Profile {
	p.HarmonicComplexity = min(max(p.HarmonicComplexity, 0), 3)
	p.VelocityMin = min(max(p.VelocityMin, 1), 120)
	p.VelocityMax = min(max(p.VelocityMax, p.VelocityMin+5), 127)
	p.Syncopation = min(max(p.Syncopation, 0), 0.9)
	return p
}

func merge(base, row Profile) Profile {
	out := base
	if row.Syncopation != 0 {
		out.Syncopation = row.Syncopation
	}
	if row.RhythmicVariation != 0 {
		out.RhythmicVariation = row.RhythmicVariation
	}
	if row.DensityMultiplier != 0 {
		out.DensityMultiplier = row.DensityMultiplier
	}
	if row.VelocityMin != 0 {
		out.VelocityMin = row.VelocityMin
	}
	if row.VelocityMax != 0 {
		out.VelocityMax = row.VelocityMax
	}
	out.HarmonicComplexity = row.HarmonicComplexity
	if len(row.Alterations) > 0 {
		out.Alterations = row.Alterations
	}
	if row.Swing != 0 {
		out.Swing = row.Swing
	}
	if row.ChordsPerBar != 0 {
		out.ChordsPerBar = row.ChordsPerBar
	}
	if row.DefaultTempo != 0 {
		out.DefaultTempo = row.DefaultTempo
	}
	if row.HomeMode != "" {
		out.HomeMode = row.HomeMode
	}
	if row.DrumStyle != "" {
		out.DrumStyle = row.DrumStyle
	}
	if row.BassStyle != "" {
		out.BassStyle = row.BassStyle
	}
	return out
}
