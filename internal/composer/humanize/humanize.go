// Package humanize perturbs generated notes so they sound performed rather
// than quantized.
package humanize

import (
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/seed"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// Tunable constants
const (
	DownbeatAccent   = 8
	DurationJitter   = 0.03
	MinDuration      = 1.0 / 32
	sigmaClip        = 3.0
	offbeatTolerance = 0.06
	gridTolerance    = 1e-6
	defaultTempo     = 120.0
)

// timingSigmaMS is the per-role standard deviation of onset jitter
var timingSigmaMS = map[models.Role]float64{
	models.RoleDrums:         8,
	models.RoleBass:          10,
	models.RoleArpeggio:      10,
	models.RoleHarmony:       12,
	models.RoleLead:          15,
	models.RoleCounterMelody: 15,
	models.RolePad:           20,
	models.RoleFX:            20,
}

// velocitySigma is the per-role standard deviation of velocity jitter
var velocitySigma = map[models.Role]float64{
	models.RoleDrums:         6,
	models.RoleBass:          5,
	models.RoleArpeggio:      5,
	models.RoleHarmony:       5,
	models.RoleLead:          7,
	models.RoleCounterMelody: 6,
	models.RolePad:           4,
	models.RoleFX:            4,
}

// Window is a [Start, End) range in beats a note must stay inside
type Window struct {
	Start float64
	End   float64
}

// Options carries the piece context humanization needs
type Options struct {
	Tempo       float64
	BeatsPerBar int
	Swing       float64 // beats added to off-beat drum and bass notes
	Windows     []Window
}

// SectionWindows converts sections to beat windows
func SectionWindows(sections []models.Section, beatsPerBar int) []Window {
	out := make([]Window, len(sections))
	for i, s := range sections {
		out[i] = Window{
			Start: float64(s.StartBar * beatsPerBar),
			End:   float64(s.EndBar * beatsPerBar),
		}
	}
	return out
}

// Humanize returns a humanized copy of notes. All randomness comes from the
// role's stream of seedValue, so the same input and seed always give the
// same output.
func Humanize(notes []models.Note, role models.Role, seedValue int64, opts Options) []models.Note {
	rng := seed.Stream(seedValue, "humanize:"+string(role))

	tempo := opts.Tempo
	if tempo <= 0 {
		tempo = defaultTempo
	}
	beatsPerBar := opts.BeatsPerBar
	if beatsPerBar < 1 {
		beatsPerBar = models.CommonTime.BeatsPerBar()
	}

	secondsPerBeat := 60 / tempo
	timingSigma := sigmaOr(timingSigmaMS, role, 12) / 1000 / secondsPerBeat
	velSigma := sigmaOr(velocitySigma, role, 5)
	swings := role == models.RoleDrums || role == models.RoleBass

	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		original := n.Start
		window := windowFor(opts.Windows, original)

		offset := clipSigma(rng.NormFloat64()*timingSigma, timingSigma)
		if swings && opts.Swing > 0 && nearOffbeat(original) {
			offset += opts.Swing
		}
		n.Start = original + offset

		velocity := float64(n.Velocity) + rng.NormFloat64()*velSigma
		if onGrid(original, float64(beatsPerBar)) {
			velocity += DownbeatAccent
		}
		n.Velocity = min(max(int(math.Round(velocity)), 1), 127)

		n.Duration = max(n.Duration*(1+rng.NormFloat64()*DurationJitter), MinDuration)

		out = append(out, fit(n, window))
	}
	models.SortNotes(out)
	return out
}

// fit keeps a note inside its window without dropping it
func fit(n models.Note, w Window) models.Note {
	if n.Start < w.Start {
		n.Start = w.Start
	}
	if w.End > w.Start {
		if n.Start > w.End-MinDuration {
			n.Start = w.End - MinDuration
		}
		if n.End() > w.End {
			n.Duration = w.End - n.Start
		}
	}
	if n.Start < 0 {
		n.Start = 0
	}
	n.Duration = max(n.Duration, MinDuration)
	return n
}

// windowFor returns the window containing beat, or an open window from 0
func windowFor(windows []Window, beat float64) Window {
	for _, w := range windows {
		if beat >= w.Start && beat < w.End {
			return w
		}
	}
	return Window{Start: 0, End: math.Inf(1)}
}

func nearOffbeat(beat float64) bool {
	frac := beat - math.Floor(beat)
	return math.Abs(frac-0.5) <= offbeatTolerance
}

func onGrid(beat, grid float64) bool {
	r := math.Mod(beat, grid)
	return r < gridTolerance || grid-r < gridTolerance
}

func clipSigma(v, sigma float64) float64 {
	limit := sigmaClip * sigma
	return min(max(v, -limit), limit)
}

func sigmaOr(table map[models.Role]float64, role models.Role, fallback float64) float64 {
	if s, ok := table[role]; ok {
		return s
	}
	return fallback
}
