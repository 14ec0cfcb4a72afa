// Package duration converts between wall-clock time and musical time.
package duration

import (
	"errors"
	"fmt"
	"math"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// ErrInvalidDuration is returned for non-positive or out-of-domain tempo,
// duration or time signature input
var ErrInvalidDuration = errors.New("invalid duration")

// Limits shared by callers that clamp or default durations
const (
	MinTempo       = 20
	MaxTempo       = 300
	MinSeconds     = 5.0
	MaxSeconds     = 600.0
	DefaultSeconds = 60.0
	MaxBars        = 200

	secondsPerMinute = 60.0
)

// Unit is the unit of a musical amount
type Unit int

// Units accepted by ToSeconds
const (
	Bars Unit = iota
	Beats
	Minutes
	Seconds
)

func (u Unit) String() string {
	switch u {
	case Bars:
		return "bars"
	case Beats:
		return "beats"
	case Minutes:
		return "minutes"
	case Seconds:
		return "seconds"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Conversion is the result of converting seconds to whole bars
type Conversion struct {
	Bars  int     `json:"bars"`
	Exact float64 `json:"exact"`
	// Delta is Bars - Exact; callers may warn when it is large
	Delta float64 `json:"delta"`
}

var validDenominators = map[int]bool{2: true, 4: true, 8: true, 16: true}

func validate(tempo float64, sig models.TimeSignature) error {
	if math.IsNaN(tempo) || tempo <= 0 {
		return fmt.Errorf("%w: tempo must be positive, got %v", ErrInvalidDuration, tempo)
	}
	if tempo < MinTempo || tempo > MaxTempo {
		return fmt.Errorf("%w: tempo %v outside [%d, %d]", ErrInvalidDuration, tempo, MinTempo, MaxTempo)
	}
	if sig.Numerator < 1 {
		return fmt.Errorf("%w: time signature numerator must be >= 1, got %d", ErrInvalidDuration, sig.Numerator)
	}
	if !validDenominators[sig.Denominator] {
		return fmt.Errorf("%w: time signature denominator must be 2, 4, 8 or 16, got %d", ErrInvalidDuration, sig.Denominator)
	}
	return nil
}

// SecondsPerBeat returns the length of one beat at the tempo
func SecondsPerBeat(tempo float64) float64 {
	return secondsPerMinute / tempo
}

// ToSeconds converts an amount in the given unit to seconds
func ToSeconds(amount float64, unit Unit, tempo float64, sig models.TimeSignature) (float64, error) {
	if err := validate(tempo, sig); err != nil {
		return 0, err
	}
	if math.IsNaN(amount) || amount <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidDuration, unit, amount)
	}

	switch unit {
	case Bars:
		return amount * float64(sig.BeatsPerBar()) * SecondsPerBeat(tempo), nil
	case Beats:
		return amount * SecondsPerBeat(tempo), nil
	case Minutes:
		return amount * secondsPerMinute, nil
	case Seconds:
		return amount, nil
	}
	return 0, fmt.Errorf("%w: unknown unit %s", ErrInvalidDuration, unit)
}

// ToBars converts seconds to the nearest whole number of bars (at least one)
// and reports the rounding delta
func ToBars(seconds, tempo float64, sig models.TimeSignature) (Conversion, error) {
	if err := validate(tempo, sig); err != nil {
		return Conversion{}, err
	}
	if math.IsNaN(seconds) || seconds <= 0 {
		return Conversion{}, fmt.Errorf("%w: seconds must be positive, got %v", ErrInvalidDuration, seconds)
	}

	secondsPerBar := float64(sig.BeatsPerBar()) * SecondsPerBeat(tempo)
	exact := seconds / secondsPerBar
	bars := int(math.Round(exact))
	if bars < 1 {
		bars = 1
	}
	return Conversion{Bars: bars, Exact: exact, Delta: float64(bars) - exact}, nil
}

// ClampToLimits clamps seconds into [MinSeconds, MaxSeconds]
func ClampToLimits(seconds float64) (float64, bool) {
	switch {
	case seconds < MinSeconds:
		return MinSeconds, true
	case seconds > MaxSeconds:
		return MaxSeconds, true
	}
	return seconds, false
}

// Resolution is the bar count the engine will generate for a request
type Resolution struct {
	Bars          int
	Seconds       float64
	RoundingDelta float64
	Adjusted      bool
}

// Resolve turns a requested duration into a bar count. Explicit bars are
// capped at MaxBars; seconds are clamped to the system limits first and a
// zero request falls back to DefaultSeconds.
func Resolve(req models.DurationRequest, tempo float64, sig models.TimeSignature) (Resolution, error) {
	if err := validate(tempo, sig); err != nil {
		return Resolution{}, err
	}
	if req.Bars < 0 || req.Seconds < 0 || math.IsNaN(req.Seconds) {
		return Resolution{}, fmt.Errorf("%w: requested duration must not be negative", ErrInvalidDuration)
	}

	if req.Bars > 0 {
		bars, adjusted := req.Bars, false
		if bars > MaxBars {
			bars, adjusted = MaxBars, true
		}
		secs, err := ToSeconds(float64(bars), Bars, tempo, sig)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Bars: bars, Seconds: secs, Adjusted: adjusted}, nil
	}

	secs := req.Seconds
	if secs == 0 {
		secs = DefaultSeconds
	}
	clamped, adjusted := ClampToLimits(secs)

	conv, err := ToBars(clamped, tempo, sig)
	if err != nil {
		return Resolution{}, err
	}
	if conv.Bars > MaxBars {
		conv.Bars = MaxBars
		adjusted = true
	}
	return Resolution{Bars: conv.Bars, Seconds: clamped, RoundingDelta: conv.Delta, Adjusted: adjusted}, nil
}
