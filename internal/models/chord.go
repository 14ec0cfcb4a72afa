package models

// ChordQuality names the interval structure of a chord
type ChordQuality string

// Chord qualities
const (
	QualityMajor          ChordQuality = "maj"
	QualityMinor          ChordQuality = "min"
	QualityDiminished     ChordQuality = "dim"
	QualityAugmented      ChordQuality = "aug"
	QualitySus2           ChordQuality = "sus2"
	QualitySus4           ChordQuality = "sus4"
	QualityMajor7         ChordQuality = "maj7"
	QualityMinor7         ChordQuality = "min7"
	QualityDominant7      ChordQuality = "dom7"
	QualityHalfDiminished ChordQuality = "m7b5"
	QualityAdd9           ChordQuality = "add9"
	QualityMajor9         ChordQuality = "maj9"
	QualityMinor9         ChordQuality = "min9"
	QualityDominant9      ChordQuality = "dom9"
)

var qualityIntervals = map[ChordQuality][]int{
	QualityMajor:          {0, 4, 7},
	QualityMinor:          {0, 3, 7},
	QualityDiminished:     {0, 3, 6},
	QualityAugmented:      {0, 4, 8},
	QualitySus2:           {0, 2, 7},
	QualitySus4:           {0, 5, 7},
	QualityMajor7:         {0, 4, 7, 11},
	QualityMinor7:         {0, 3, 7, 10},
	QualityDominant7:      {0, 4, 7, 10},
	QualityHalfDiminished: {0, 3, 6, 10},
	QualityAdd9:           {0, 4, 7, 14},
	QualityMajor9:         {0, 4, 7, 11, 14},
	QualityMinor9:         {0, 3, 7, 10, 14},
	QualityDominant9:      {0, 4, 7, 10, 14},
}

// Intervals returns the semitone offsets from the chord root
func (q ChordQuality) Intervals() []int {
	if iv, ok := qualityIntervals[q]; ok {
		return iv
	}
	return qualityIntervals[QualityMajor]
}

// MinorLeaning reports whether the chord has a minor third
func (q ChordQuality) MinorLeaning() bool {
	switch q {
	case QualityMinor, QualityMinor7, QualityMinor9, QualityDiminished, QualityHalfDiminished:
		return true
	}
	return false
}

// MajorLeaning reports whether the chord has a major third
func (q ChordQuality) MajorLeaning() bool {
	switch q {
	case QualityMajor, QualityMajor7, QualityDominant7, QualityAdd9, QualityMajor9, QualityDominant9, QualityAugmented:
		return true
	}
	return false
}

// Chord is a scale-degree chord placed in section-relative beats
type Chord struct {
	Degree   int          `json:"degree"`
	Quality  ChordQuality `json:"quality"`
	Root     int          `json:"root"` // semitones above the tonic
	Start    float64      `json:"start"`
	Duration float64      `json:"duration"`
}

// Tones returns the chord's pitch classes for the given tonic, root first
func (c Chord) Tones(tonic PitchClass) []int {
	intervals := c.Quality.Intervals()
	tones := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		tones = append(tones, (int(tonic)+c.Root+iv)%12)
	}
	return tones
}

// RootPitchClass returns the pitch class of the chord root
func (c Chord) RootPitchClass(tonic PitchClass) int {
	return (int(tonic) + c.Root) % 12
}

// ChordAt returns the chord sounding at a section-relative beat
func ChordAt(chords []Chord, beat float64) (Chord, bool) {
	for i := len(chords) - 1; i >= 0; i-- {
		if chords[i].Start <= beat+1e-9 {
			return chords[i], true
		}
	}
	if len(chords) > 0 {
		return chords[0], true
	}
	return Chord{}, false
}
