package composer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// Velocity and density factors applied by instruction keywords
const (
	LouderScale  = 1.2
	SofterScale  = 0.8
	BusierScale  = 1.3
	SparserScale = 0.7
)

type action int

const (
	actionNone action = iota
	actionAdd
	actionRemove
	actionRegenerate
	actionLouder
	actionSofter
	actionBusier
	actionSparser
)

var actionWords = map[string]action{
	"add":        actionAdd,
	"include":    actionAdd,
	"remove":     actionRemove,
	"drop":       actionRemove,
	"delete":     actionRemove,
	"without":    actionRemove,
	"mute":       actionRemove,
	"regenerate": actionRegenerate,
	"redo":       actionRegenerate,
	"rewrite":    actionRegenerate,
	"change":     actionRegenerate,
	"vary":       actionRegenerate,
	"new":        actionRegenerate,
	"louder":     actionLouder,
	"stronger":   actionLouder,
	"harder":     actionLouder,
	"softer":     actionSofter,
	"quieter":    actionSofter,
	"gentler":    actionSofter,
	"busier":     actionBusier,
	"denser":     actionBusier,
	"fuller":     actionBusier,
	"sparser":    actionSparser,
	"simpler":    actionSparser,
	"thinner":    actionSparser,
	"lighter":    actionSparser,
}

// instrumentRoles maps instrument words to the role and instrument a new
// track gets
var instrumentRoles = map[string]TrackRequest{
	"strings":   {Role: models.RolePad, Instrument: "strings"},
	"choir":     {Role: models.RolePad, Instrument: "choir"},
	"pads":      {Role: models.RolePad},
	"piano":     {Role: models.RoleHarmony, Instrument: "piano"},
	"keys":      {Role: models.RoleHarmony, Instrument: "electric_piano"},
	"organ":     {Role: models.RoleHarmony, Instrument: "organ"},
	"guitar":    {Role: models.RoleHarmony, Instrument: "clean_guitar"},
	"sax":       {Role: models.RoleLead, Instrument: "saxophone"},
	"saxophone": {Role: models.RoleLead, Instrument: "saxophone"},
	"trumpet":   {Role: models.RoleLead, Instrument: "trumpet"},
	"violin":    {Role: models.RoleLead, Instrument: "violin"},
	"synth":     {Role: models.RoleLead, Instrument: "synth_lead"},
	"flute":     {Role: models.RoleCounterMelody, Instrument: "flute"},
	"clarinet":  {Role: models.RoleCounterMelody, Instrument: "clarinet"},
	"cello":     {Role: models.RoleCounterMelody, Instrument: "cello"},
	"brass":     {Role: models.RoleHarmony, Instrument: "brass"},
	"vibes":     {Role: models.RoleArpeggio, Instrument: "vibraphone"},
	"arpeggios": {Role: models.RoleArpeggio},
	"drum":      {Role: models.RoleDrums},
	"fx":        {Role: models.RoleFX},
}

var clauseSplit = regexp.MustCompile(`\s*(?:,|;|\.|\bthen\b|\band\b|\balso\b)\s*`)

// ParseDelta reads a short edit instruction such as "add strings",
// "make drums louder" or "remove fx, regenerate lead". Each clause needs an
// action word and an instrument or role word.
func ParseDelta(text string) (Delta, error) {
	var d Delta
	for _, clause := range clauseSplit.Split(strings.ToLower(text), -1) {
		if strings.TrimSpace(clause) == "" {
			continue
		}
		if err := d.parseClause(clause); err != nil {
			return Delta{}, err
		}
	}
	if d.IsEmpty() {
		return Delta{}, fmt.Errorf("%w: no edit found in %q", ErrInvalidDelta, text)
	}
	return d, nil
}

func (d *Delta) parseClause(clause string) error {
	words := strings.FieldsFunc(clause, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '_' || r == '-')
	})

	act := actionNone
	var target *TrackRequest
	for _, w := range words {
		if a, ok := actionWords[w]; ok && act == actionNone {
			act = a
			continue
		}
		if target != nil {
			continue
		}
		if req, ok := lookupTarget(w); ok {
			target = &req
		}
	}

	switch {
	case target == nil:
		return fmt.Errorf("%w: no instrument or role in %q", ErrInvalidDelta, clause)
	case act == actionNone:
		return fmt.Errorf("%w: no action in %q", ErrInvalidDelta, clause)
	}

	role := target.Role
	switch act {
	case actionAdd:
		d.Add = append(d.Add, *target)
	case actionRemove:
		d.Remove = appendRole(d.Remove, role)
	case actionRegenerate:
		d.Regenerate = appendRole(d.Regenerate, role)
	case actionLouder:
		d.VelocityScale = scaleRole(d.VelocityScale, role, LouderScale)
	case actionSofter:
		d.VelocityScale = scaleRole(d.VelocityScale, role, SofterScale)
	case actionBusier:
		d.DensityScale = scaleRole(d.DensityScale, role, BusierScale)
	case actionSparser:
		d.DensityScale = scaleRole(d.DensityScale, role, SparserScale)
	}
	return nil
}

// lookupTarget resolves a word to a role, trying role names first and then
// instrument words with a trailing plural stripped
func lookupTarget(word string) (TrackRequest, bool) {
	if role, ok := models.ParseRole(word); ok {
		return TrackRequest{Role: role}, true
	}
	if req, ok := instrumentRoles[word]; ok {
		return req, true
	}
	if singular := strings.TrimSuffix(word, "s"); singular != word {
		if role, ok := models.ParseRole(singular); ok {
			return TrackRequest{Role: role}, true
		}
		if req, ok := instrumentRoles[singular]; ok {
			return req, true
		}
	}
	return TrackRequest{}, false
}

func appendRole(roles []models.Role, role models.Role) []models.Role {
	for _, r := range roles {
		if r == role {
			return roles
		}
	}
	return append(roles, role)
}

func scaleRole(scales map[models.Role]float64, role models.Role, factor float64) map[models.Role]float64 {
	if scales == nil {
		scales = make(map[models.Role]float64)
	}
	if current, ok := scales[role]; ok {
		scales[role] = current * factor
	} else {
		scales[role] = factor
	}
	return scales
}
