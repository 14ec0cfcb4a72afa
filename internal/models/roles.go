package models

import "strings"

// Role is the musical function of a track
type Role string

// Track roles
const (
	RoleLead          Role = "lead"
	RoleCounterMelody Role = "counter_melody"
	RoleHarmony       Role = "harmony"
	RoleBass          Role = "bass"
	RoleDrums         Role = "drums"
	RolePad           Role = "pad"
	RoleArpeggio      Role = "arpeggio"
	RoleFX            Role = "fx"
)

// PercussionChannel is the reserved General MIDI percussion channel (zero based)
const PercussionChannel = 9

// RolePriority is the fixed order used when choosing roles and when
// reassigning duplicates
var RolePriority = []Role{
	RoleLead,
	RoleHarmony,
	RoleBass,
	RoleDrums,
	RoleArpeggio,
	RolePad,
	RoleCounterMelody,
	RoleFX,
}

var roleAliases = map[string]Role{
	"melody":         RoleLead,
	"counter":        RoleCounterMelody,
	"countermelody":  RoleCounterMelody,
	"counter-melody": RoleCounterMelody,
	"chords":         RoleHarmony,
	"comping":        RoleHarmony,
	"percussion":     RoleDrums,
	"beat":           RoleDrums,
	"arp":            RoleArpeggio,
	"effects":        RoleFX,
	"atmosphere":     RoleFX,
}

// ParseRole resolves a role name (or a common alias) to a Role
func ParseRole(s string) (Role, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, r := range RolePriority {
		if string(r) == name {
			return r, true
		}
	}
	if r, ok := roleAliases[name]; ok {
		return r, true
	}
	return "", false
}

// IsHarmonic reports whether more than one track may share this role
func (r Role) IsHarmonic() bool {
	return r == RoleHarmony || r == RolePad
}

// IsPercussion reports whether the role maps to the percussion channel
func (r Role) IsPercussion() bool {
	return r == RoleDrums
}

// Valid reports whether r belongs to the role vocabulary
func (r Role) Valid() bool {
	for _, known := range RolePriority {
		if known == r {
			return true
		}
	}
	return false
}
