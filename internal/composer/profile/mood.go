package profile

import (
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// Mood categories the table distinguishes
const (
	MoodSad       = "sad"
	MoodHappy     = "happy"
	MoodCalm      = "calm"
	MoodEnergetic = "energetic"
	MoodDark      = "dark"
	MoodEpic      = "epic"
	MoodRomantic  = "romantic"
)

var moodSynonyms = map[string]string{
	"sad":         MoodSad,
	"melancholic": MoodSad,
	"melancholy":  MoodSad,
	"sorrowful":   MoodSad,
	"somber":      MoodSad,
	"sombre":      MoodSad,
	"lonely":      MoodSad,
	"gloomy":      MoodSad,
	"heartbroken": MoodSad,
	"depressed":   MoodSad,
	"nostalgic":   MoodSad,
	"wistful":     MoodSad,

	"happy":     MoodHappy,
	"joyful":    MoodHappy,
	"cheerful":  MoodHappy,
	"uplifting": MoodHappy,
	"bright":    MoodHappy,
	"playful":   MoodHappy,
	"hopeful":   MoodHappy,
	"euphoric":  MoodHappy,
	"fun":       MoodHappy,

	"calm":     MoodCalm,
	"peaceful": MoodCalm,
	"relaxed":  MoodCalm,
	"relaxing": MoodCalm,
	"chill":    MoodCalm,
	"mellow":   MoodCalm,
	"serene":   MoodCalm,
	"dreamy":   MoodCalm,
	"soft":     MoodCalm,

	"energetic":  MoodEnergetic,
	"excited":    MoodEnergetic,
	"exciting":   MoodEnergetic,
	"aggressive": MoodEnergetic,
	"powerful":   MoodEnergetic,
	"intense":    MoodEnergetic,
	"driving":    MoodEnergetic,
	"angry":      MoodEnergetic,

	"dark":        MoodDark,
	"mysterious":  MoodDark,
	"tense":       MoodDark,
	"ominous":     MoodDark,
	"eerie":       MoodDark,
	"suspense":    MoodDark,
	"suspenseful": MoodDark,
	"haunting":    MoodDark,

	"epic":       MoodEpic,
	"dramatic":   MoodEpic,
	"heroic":     MoodEpic,
	"triumphant": MoodEpic,
	"majestic":   MoodEpic,
	"grand":      MoodEpic,

	"romantic":    MoodRomantic,
	"tender":      MoodRomantic,
	"warm":        MoodRomantic,
	"sentimental": MoodRomantic,
	"loving":      MoodRomantic,
	"intimate":    MoodRomantic,
}

// MoodCategory resolves a free-text mood to a table category, or "" when the
// mood is unknown
func MoodCategory(mood string) string {
	m := strings.ToLower(strings.TrimSpace(mood))
	if m == "" {
		return ""
	}
	if c, ok := moodSynonyms[m]; ok {
		return c
	}
	// "very sad", "sad and slow"
	for _, word := range strings.FieldsFunc(m, func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == '/'
	}) {
		if c, ok := moodSynonyms[word]; ok {
			return c
		}
	}
	return ""
}

var moodOverlays = map[string]func(p *Profile){
	MoodSad: func(p *Profile) {
		p.Brightness = -0.8
		p.SubstitutionRate = 0.85
		p.DensityMultiplier *= 0.8
		p.Syncopation *= 0.7
		p.VelocityMin -= 10
		p.VelocityMax -= 12
		p.TempoBias = -12
	},
	MoodHappy: func(p *Profile) {
		p.Brightness = 0.8
		p.SubstitutionRate = 0.6
		p.DensityMultiplier *= 1.05
		p.VelocityMin += 5
		p.VelocityMax += 5
		p.TempoBias = 8
	},
	MoodCalm: func(p *Profile) {
		p.Brightness = 0.1
		p.SubstitutionRate = 0.3
		p.DensityMultiplier *= 0.85
		p.Syncopation *= 0.8
		p.RhythmicVariation *= 0.8
		p.VelocityMin -= 8
		p.VelocityMax -= 10
		p.TempoBias = -10
	},
	MoodEnergetic: func(p *Profile) {
		p.Brightness = 0.3
		p.SubstitutionRate = 0.3
		p.DensityMultiplier *= 1.2
		p.Syncopation *= 1.2
		p.VelocityMin += 10
		p.VelocityMax += 10
		p.TempoBias = 12
	},
	MoodDark: func(p *Profile) {
		p.Brightness = -0.6
		p.SubstitutionRate = 0.7
		p.DensityMultiplier *= 0.9
		p.HarmonicComplexity++
		p.Alterations = []models.ChordQuality{models.QualitySus2, models.QualityMinor9, models.QualityHalfDiminished}
		p.TempoBias = -6
	},
	MoodEpic: func(p *Profile) {
		p.Brightness = 0.2
		p.SubstitutionRate = 0.4
		p.DensityMultiplier *= 1.1
		p.VelocityMin -= 5
		p.VelocityMax += 10
		if p.HarmonicComplexity < 2 {
			p.HarmonicComplexity = 2
		}
	},
	MoodRomantic: func(p *Profile) {
		p.Brightness = 0.3
		p.SubstitutionRate = 0.5
		p.DensityMultiplier *= 0.9
		p.HarmonicComplexity++
		p.VelocityMax -= 5
		p.TempoBias = -8
	},
}

// combos adjust specific genre/mood pairs after the mood overlay
var combos = map[string]func(p *Profile){
	"jazz/calm": func(p *Profile) {
		p.Swing = 0.12
		p.Alterations = []models.ChordQuality{models.QualityMajor9, models.QualityMinor9}
	},
	"lofi/calm": func(p *Profile) {
		p.Swing = 0.08
		p.DensityMultiplier = 0.7
	},
	"electronic/energetic": func(p *Profile) {
		p.DensityMultiplier = 1.35
		p.Swing = 0
	},
	"rock/energetic": func(p *Profile) {
		p.BassStyle = BassPower
		p.VelocityMin = 85
	},
	"classical/sad": func(p *Profile) {
		p.RhythmicVariation = 0.3
		p.DensityMultiplier = 0.75
	},
	"cinematic/epic": func(p *Profile) {
		p.DensityMultiplier = 1.2
		p.VelocityMax = 127
	},
	"ambient/calm": func(p *Profile) {
		p.DensityMultiplier = 0.5
		p.Syncopation = 0
	},
	"pop/happy": func(p *Profile) {
		p.Syncopation = 0.25
	},
}
