package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PitchClass is a pitch class in semitones above C (0-11)
type PitchClass int

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClassAliases = map[string]PitchClass{
	"DB": 1, "EB": 3, "GB": 6, "AB": 8, "BB": 10, "CB": 11, "FB": 4, "E#": 5, "B#": 0,
}

// ParsePitchClass parses note names like "C", "f#", "Bb"
func ParsePitchClass(s string) (PitchClass, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range pitchClassNames {
		if n == name {
			return PitchClass(i), nil
		}
	}
	if pc, ok := pitchClassAliases[name]; ok {
		return pc, nil
	}
	return 0, fmt.Errorf("unknown pitch class %q", s)
}

func (p PitchClass) String() string {
	return pitchClassNames[((int(p)%12)+12)%12]
}

// MarshalJSON encodes the pitch class by name
func (p PitchClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either a note name or a semitone number
func (p *PitchClass) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		pc, err := ParsePitchClass(name)
		if err != nil {
			return err
		}
		*p = pc
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pitch class must be a note name or number: %w", err)
	}
	*p = PitchClass(((n % 12) + 12) % 12)
	return nil
}

// Mode is a scale/mode name
type Mode string

// Supported modes
const (
	ModeMajor           Mode = "major"
	ModeMinor           Mode = "minor"
	ModeDorian          Mode = "dorian"
	ModePhrygian        Mode = "phrygian"
	ModeLydian          Mode = "lydian"
	ModeMixolydian      Mode = "mixolydian"
	ModeLocrian         Mode = "locrian"
	ModeHarmonicMinor   Mode = "harmonic_minor"
	ModePentatonicMajor Mode = "pentatonic_major"
	ModePentatonicMinor Mode = "pentatonic_minor"
	ModeBlues           Mode = "blues"
)

var modeIntervals = map[Mode][]int{
	ModeMajor:           {0, 2, 4, 5, 7, 9, 11},
	ModeMinor:           {0, 2, 3, 5, 7, 8, 10},
	ModeDorian:          {0, 2, 3, 5, 7, 9, 10},
	ModePhrygian:        {0, 1, 3, 5, 7, 8, 10},
	ModeLydian:          {0, 2, 4, 6, 7, 9, 11},
	ModeMixolydian:      {0, 2, 4, 5, 7, 9, 10},
	ModeLocrian:         {0, 1, 3, 5, 6, 8, 10},
	ModeHarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	ModePentatonicMajor: {0, 2, 4, 7, 9},
	ModePentatonicMinor: {0, 3, 5, 7, 10},
	ModeBlues:           {0, 3, 5, 6, 7, 10},
}

// Intervals returns the scale intervals of the mode, defaulting to major
func (m Mode) Intervals() []int {
	if iv, ok := modeIntervals[m]; ok {
		return iv
	}
	return modeIntervals[ModeMajor]
}

// Known reports whether the mode is in the scale table
func (m Mode) Known() bool {
	_, ok := modeIntervals[m]
	return ok
}

// IsMinor reports whether the mode has a minor third above the tonic
func (m Mode) IsMinor() bool {
	for _, iv := range m.Intervals() {
		if iv == 3 {
			return true
		}
	}
	return false
}

// Heptatonic returns the seven-note parent mode used for harmonization
func (m Mode) Heptatonic() Mode {
	switch m {
	case ModePentatonicMajor:
		return ModeMajor
	case ModePentatonicMinor, ModeBlues:
		return ModeMinor
	case "":
		return ModeMajor
	}
	if len(m.Intervals()) == 7 {
		return m
	}
	return ModeMajor
}

// Parallel returns the parallel major or minor of the mode
func (m Mode) Parallel() Mode {
	if m.Heptatonic().IsMinor() {
		return ModeMajor
	}
	return ModeMinor
}

// Key is a tonic plus a mode. An empty mode lets the mood decide.
type Key struct {
	Root PitchClass `json:"root"`
	Mode Mode       `json:"mode,omitempty"`
}

func (k Key) String() string {
	if k.Mode == "" {
		return k.Root.String()
	}
	return fmt.Sprintf("%s %s", k.Root, k.Mode)
}

// TimeSignature is numerator/denominator
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// CommonTime is 4/4
var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

// BeatsPerBar returns the number of beats in one bar
func (t TimeSignature) BeatsPerBar() int {
	return t.Numerator
}

// OrDefault returns 4/4 for a zero value
func (t TimeSignature) OrDefault() TimeSignature {
	if t.Numerator == 0 && t.Denominator == 0 {
		return CommonTime
	}
	return t
}

func (t TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}

// Energy is an ordinal energy level
type Energy int

// Energy levels
const (
	EnergyVeryLow Energy = iota - 2
	EnergyLow
	EnergyMedium
	EnergyHigh
	EnergyVeryHigh
)

var energyNames = map[Energy]string{
	EnergyVeryLow:  "very_low",
	EnergyLow:      "low",
	EnergyMedium:   "medium",
	EnergyHigh:     "high",
	EnergyVeryHigh: "very_high",
}

// ParseEnergy parses an energy name; unknown names map to medium
func ParseEnergy(s string) Energy {
	name := strings.ToLower(strings.TrimSpace(s))
	for e, n := range energyNames {
		if n == name {
			return e
		}
	}
	return EnergyMedium
}

// Value maps the level onto 0.1..0.9
func (e Energy) Value() float64 {
	if e < EnergyVeryLow {
		e = EnergyVeryLow
	}
	if e > EnergyVeryHigh {
		e = EnergyVeryHigh
	}
	return 0.5 + float64(e)*0.2
}

func (e Energy) String() string {
	if n, ok := energyNames[e]; ok {
		return n
	}
	return energyNames[EnergyMedium]
}

// MarshalText encodes the level by name
func (e Energy) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a level name
func (e *Energy) UnmarshalText(text []byte) error {
	*e = ParseEnergy(string(text))
	return nil
}
