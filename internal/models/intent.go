package models

import (
	"fmt"
	"sort"
	"strings"
)

// DurationRequest is the requested length of a piece. Bars wins over
// Seconds; both zero means "use the default".
type DurationRequest struct {
	Seconds float64 `json:"seconds,omitempty"`
	Bars    int     `json:"bars,omitempty"`
}

// MusicIntent is the validated, structured description of a composition
type MusicIntent struct {
	Genre         string          `json:"genre"`
	Moods         []string        `json:"moods,omitempty"`
	Energy        Energy          `json:"energy"`
	Tempo         int             `json:"tempo"`
	Key           Key             `json:"key"`
	TimeSignature TimeSignature   `json:"time_signature"`
	TrackCount    int             `json:"track_count,omitempty"` // 0 lets the planner decide
	Duration      DurationRequest `json:"duration"`

	// Free text handed to the planner's creative suggestion prompt
	Description string `json:"description,omitempty"`
	// Optional instrument overrides per role
	Instruments map[Role]string `json:"instruments,omitempty"`
}

// PrimaryMood returns the first mood, lower-cased, or ""
func (i MusicIntent) PrimaryMood() string {
	if len(i.Moods) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(i.Moods[0]))
}

// NormalizedGenre returns the lower-cased genre
func (i MusicIntent) NormalizedGenre() string {
	return strings.ToLower(strings.TrimSpace(i.Genre))
}

// Fingerprint is a stable textual digest of the intent used for seeding
func (i MusicIntent) Fingerprint() string {
	moods := append([]string(nil), i.Moods...)
	sort.Strings(moods)

	roles := make([]string, 0, len(i.Instruments))
	for r, inst := range i.Instruments {
		roles = append(roles, string(r)+"="+inst)
	}
	sort.Strings(roles)

	sig := i.TimeSignature.OrDefault()
	return fmt.Sprintf("%s|%s|%s|%d|%s|%s|%d|%.3f|%d|%s|%s",
		i.NormalizedGenre(),
		strings.ToLower(strings.Join(moods, ",")),
		i.Energy,
		i.Tempo,
		i.Key,
		sig,
		i.TrackCount,
		i.Duration.Seconds,
		i.Duration.Bars,
		strings.Join(roles, ","),
		i.Description,
	)
}
