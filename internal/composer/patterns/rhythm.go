package patterns

// RhythmTemplate is a one-bar onset pattern for comping and arpeggio parts
type RhythmTemplate struct {
	Name string
	// Offsets within a 4/4 bar, in beats
	Offsets []float64
	// Velocity multipliers (1.0 = normal)
	Accents []float64
	// Fraction of the gap to the next onset the note sounds for
	Articulation float64
}

const (
	articulationHigh    = 0.9
	articulationMedium  = 0.8
	articulationMidHigh = 0.85
	articulationShort   = 0.45
)

var rhythmTemplates = map[string]RhythmTemplate{
	"whole": {
		Name:         "whole",
		Offsets:      []float64{0},
		Accents:      []float64{1.0},
		Articulation: 1.0,
	},
	"half": {
		Name:         "half",
		Offsets:      []float64{0, 2},
		Accents:      []float64{1.0, 0.9},
		Articulation: 1.0,
	},
	"quarters": {
		Name:         "quarters",
		Offsets:      []float64{0, 1, 2, 3},
		Accents:      []float64{1.0, 0.8, 0.9, 0.8},
		Articulation: articulationHigh,
	},
	"8ths": {
		Name:         "8ths",
		Offsets:      []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5},
		Accents:      []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7},
		Articulation: articulationMidHigh,
	},
	"16ths": {
		Name:         "16ths",
		Offsets:      []float64{0, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.25, 2.5, 2.75, 3, 3.25, 3.5, 3.75},
		Accents:      []float64{1.0, 0.6, 0.8, 0.6, 0.9, 0.6, 0.8, 0.6, 0.95, 0.6, 0.8, 0.6, 0.9, 0.6, 0.8, 0.6},
		Articulation: articulationMedium,
	},
	"swing": {
		Name:         "swing",
		Offsets:      []float64{0, 0.67, 1, 1.67, 2, 2.67, 3, 3.67},
		Accents:      []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7},
		Articulation: articulationMidHigh,
	},
	"tresillo": {
		Name:         "tresillo",
		Offsets:      []float64{0, 1.5, 3},
		Accents:      []float64{1.0, 0.9, 0.95},
		Articulation: articulationHigh,
	},
	"offbeat": {
		Name:         "offbeat",
		Offsets:      []float64{0.5, 1.5, 2.5, 3.5},
		Accents:      []float64{0.9, 0.85, 0.9, 0.85},
		Articulation: articulationShort,
	},
	"syncopated": {
		Name:         "syncopated",
		Offsets:      []float64{0, 0.5, 1.5, 2, 3, 3.5},
		Accents:      []float64{1.0, 0.8, 0.9, 0.85, 0.95, 0.8},
		Articulation: articulationMidHigh,
	},
	"anticipation": {
		Name:         "anticipation",
		Offsets:      []float64{0, 1, 1.75, 3, 3.75},
		Accents:      []float64{1.0, 0.8, 0.9, 0.85, 0.9},
		Articulation: articulationMidHigh,
	},
	"charleston": {
		Name:         "charleston",
		Offsets:      []float64{0, 1.5},
		Accents:      []float64{1.0, 0.85},
		Articulation: articulationMidHigh,
	},
}

// compingTemplates are the harmony rhythms per drum style family
var compingTemplates = map[string][]string{
	"jazz":       {"charleston", "anticipation", "swing"},
	"funk":       {"syncopated", "offbeat", "16ths"},
	"latin":      {"tresillo", "syncopated"},
	"electronic": {"offbeat", "8ths"},
	"hiphop":     {"anticipation", "half"},
	"ambient":    {"whole"},
	"rock":       {"8ths", "quarters"},
	"metal":      {"8ths"},
	"standard":   {"quarters", "half", "syncopated"},
}

// GetRhythmTemplate returns a rhythm template by name
func GetRhythmTemplate(name string) (RhythmTemplate, bool) {
	tmpl, ok := rhythmTemplates[name]
	return tmpl, ok
}

// hit is one onset of a template laid over a bar
type hit struct {
	offset   float64
	duration float64
	accent   float64
}

// hits lays a template over a bar of beatsPerBar beats. Offsets are scaled
// from 4/4 and each note lasts Articulation of the gap to the next onset.
func (t RhythmTemplate) hits(beatsPerBar int) []hit {
	scale := float64(beatsPerBar) / 4
	bar := float64(beatsPerBar)

	out := make([]hit, 0, len(t.Offsets))
	for i, off := range t.Offsets {
		pos := off * scale
		if pos >= bar {
			break
		}
		next := bar
		if i+1 < len(t.Offsets) {
			next = min(t.Offsets[i+1]*scale, bar)
		}
		accent := 1.0
		if i < len(t.Accents) {
			accent = t.Accents[i]
		}
		out = append(out, hit{
			offset:   pos,
			duration: max((next-pos)*t.Articulation, minDuration),
			accent:   accent,
		})
	}
	return out
}
