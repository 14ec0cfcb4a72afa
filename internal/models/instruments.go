package models

import "strings"

// General MIDI program numbers (zero based) for the instrument identifiers
// the planner hands out
var gmPrograms = map[string]int{
	"piano":             0,
	"bright_piano":      1,
	"electric_piano":    4,
	"harpsichord":       6,
	"vibraphone":        11,
	"marimba":           12,
	"organ":             16,
	"rock_organ":        18,
	"acoustic_guitar":   24,
	"nylon_guitar":      24,
	"clean_guitar":      27,
	"electric_guitar":   27,
	"overdrive_guitar":  29,
	"distortion_guitar": 30,
	"acoustic_bass":     32,
	"fingered_bass":     33,
	"bass":              33,
	"picked_bass":       34,
	"fretless_bass":     35,
	"slap_bass":         36,
	"synth_bass":        38,
	"violin":            40,
	"cello":             42,
	"strings":           48,
	"slow_strings":      49,
	"choir":             52,
	"trumpet":           56,
	"trombone":          57,
	"french_horn":       60,
	"brass":             61,
	"saxophone":         65,
	"alto_sax":          65,
	"tenor_sax":         66,
	"oboe":              68,
	"clarinet":          71,
	"flute":             73,
	"pan_flute":         75,
	"synth_lead":        80,
	"saw_lead":          81,
	"synth_pad":         88,
	"warm_pad":          89,
	"choir_pad":         91,
	"fx_atmosphere":     99,
	"fx":                99,
	"fx_sci_fi":         103,
	"drums":             0,
}

// ProgramFor returns the General MIDI program for an instrument identifier.
// Unknown instruments fall back to acoustic piano.
func ProgramFor(instrument string) int {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(instrument), " ", "_"))
	if p, ok := gmPrograms[name]; ok {
		return p
	}
	return 0
}

// KnownInstrument reports whether an instrument identifier is in the table
func KnownInstrument(instrument string) bool {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(instrument), " ", "_"))
	_, ok := gmPrograms[name]
	return ok
}
