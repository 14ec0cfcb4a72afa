package planner

import (
	"sort"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/composer/profile"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// MaxTracks is the largest plan the engine accepts
const MaxTracks = 8

var defaultDensity = map[models.Role]float64{
	models.RoleLead:          0.6,
	models.RoleCounterMelody: 0.45,
	models.RoleHarmony:       0.5,
	models.RoleBass:          0.6,
	models.RoleDrums:         0.75,
	models.RolePad:           0.35,
	models.RoleArpeggio:      0.7,
	models.RoleFX:            0.2,
}

var defaultInstruments = map[models.Role]string{
	models.RoleLead:          "piano",
	models.RoleCounterMelody: "flute",
	models.RoleHarmony:       "electric_piano",
	models.RoleBass:          "bass",
	models.RoleDrums:         "drums",
	models.RolePad:           "synth_pad",
	models.RoleArpeggio:      "synth_lead",
	models.RoleFX:            "fx_atmosphere",
}

var genreInstruments = map[string]map[models.Role]string{
	"jazz": {
		models.RoleLead:          "piano",
		models.RoleHarmony:       "electric_piano",
		models.RoleBass:          "acoustic_bass",
		models.RoleCounterMelody: "saxophone",
		models.RolePad:           "strings",
		models.RoleArpeggio:      "vibraphone",
	},
	"blues": {
		models.RoleLead:          "electric_guitar",
		models.RoleHarmony:       "organ",
		models.RoleBass:          "fingered_bass",
		models.RoleCounterMelody: "tenor_sax",
	},
	"rock": {
		models.RoleLead:     "overdrive_guitar",
		models.RoleHarmony:  "electric_guitar",
		models.RoleBass:     "picked_bass",
		models.RolePad:      "rock_organ",
		models.RoleArpeggio: "clean_guitar",
	},
	"metal": {
		models.RoleLead:    "distortion_guitar",
		models.RoleHarmony: "overdrive_guitar",
		models.RoleBass:    "picked_bass",
	},
	"electronic": {
		models.RoleLead:     "saw_lead",
		models.RoleHarmony:  "synth_pad",
		models.RoleBass:     "synth_bass",
		models.RolePad:      "warm_pad",
		models.RoleArpeggio: "synth_lead",
		models.RoleFX:       "fx_sci_fi",
	},
	"hiphop": {
		models.RoleLead:    "electric_piano",
		models.RoleHarmony: "piano",
		models.RoleBass:    "synth_bass",
		models.RolePad:     "warm_pad",
	},
	"lofi": {
		models.RoleLead:    "electric_piano",
		models.RoleHarmony: "piano",
		models.RoleBass:    "fingered_bass",
		models.RolePad:     "warm_pad",
	},
	"classical": {
		models.RoleLead:          "piano",
		models.RoleHarmony:       "strings",
		models.RoleBass:          "cello",
		models.RoleCounterMelody: "violin",
		models.RolePad:           "slow_strings",
		models.RoleArpeggio:      "harpsichord",
	},
	"ambient": {
		models.RoleLead:     "vibraphone",
		models.RoleHarmony:  "strings",
		models.RoleBass:     "fretless_bass",
		models.RolePad:      "synth_pad",
		models.RoleArpeggio: "marimba",
		models.RoleFX:       "fx_atmosphere",
	},
	"cinematic": {
		models.RoleLead:          "strings",
		models.RoleCounterMelody: "french_horn",
		models.RoleHarmony:       "brass",
		models.RoleBass:          "cello",
		models.RolePad:           "choir",
		models.RoleArpeggio:      "piano",
	},
	"funk": {
		models.RoleLead:          "clean_guitar",
		models.RoleHarmony:       "electric_piano",
		models.RoleBass:          "slap_bass",
		models.RoleCounterMelody: "trumpet",
	},
	"rnb": {
		models.RoleLead:    "electric_piano",
		models.RoleHarmony: "piano",
		models.RoleBass:    "fingered_bass",
		models.RolePad:     "warm_pad",
	},
	"folk": {
		models.RoleLead:          "acoustic_guitar",
		models.RoleHarmony:       "nylon_guitar",
		models.RoleBass:          "acoustic_bass",
		models.RoleCounterMelody: "violin",
	},
	"latin": {
		models.RoleLead:     "trumpet",
		models.RoleHarmony:  "nylon_guitar",
		models.RoleBass:     "acoustic_bass",
		models.RoleArpeggio: "marimba",
	},
}

// genreRoleOrder overrides the role priority for genres where drums matter
// less than sustained textures
var genreRoleOrder = map[string][]models.Role{
	"ambient": {
		models.RolePad, models.RoleLead, models.RoleHarmony, models.RoleFX,
		models.RoleBass, models.RoleArpeggio, models.RoleCounterMelody, models.RoleDrums,
	},
	"classical": {
		models.RoleLead, models.RoleHarmony, models.RoleBass, models.RoleCounterMelody,
		models.RolePad, models.RoleArpeggio, models.RoleFX, models.RoleDrums,
	},
	"cinematic": {
		models.RoleLead, models.RoleHarmony, models.RolePad, models.RoleBass,
		models.RoleDrums, models.RoleCounterMelody, models.RoleArpeggio, models.RoleFX,
	},
	"jazz": {
		models.RoleLead, models.RoleHarmony, models.RoleBass, models.RoleDrums,
		models.RoleCounterMelody, models.RolePad, models.RoleArpeggio, models.RoleFX,
	},
}

var rhythmicGenres = map[string]bool{
	"lofi": true, "rock": true, "funk": true, "pop": true, "rnb": true,
	"electronic": true, "hiphop": true, "metal": true, "latin": true,
}

var richGenres = map[string]bool{"cinematic": true, "electronic": true}

var (
	soloWords   = []string{"solo", "just", "only", "alone"}
	simpleWords = []string{"simple", "minimal", "sparse", "stripped"}
	richWords   = []string{"epic", "orchestral", "full", "rich", "lush", "complex", "cinematic"}
)

// InstrumentFor returns the default instrument for a role in a genre
func InstrumentFor(role models.Role, genre string) string {
	if table, ok := genreInstruments[profile.CanonicalGenre(genre)]; ok {
		if inst, ok := table[role]; ok {
			return inst
		}
	}
	return defaultInstruments[role]
}

// DefaultDensity returns the target density for a role
func DefaultDensity(role models.Role) float64 {
	if d, ok := defaultDensity[role]; ok {
		return d
	}
	return 0.5
}

// ConfigFor builds a track config for a role; an empty instrument picks the
// genre default
func ConfigFor(role models.Role, instrument, genre string) models.TrackConfig {
	if strings.TrimSpace(instrument) == "" {
		instrument = InstrumentFor(role, genre)
	}
	return models.TrackConfig{
		Role:       role,
		Instrument: instrument,
		Program:    models.ProgramFor(instrument),
		Density:    DefaultDensity(role),
	}
}

// RoleOrder returns the order in which roles are added for a genre
func RoleOrder(genre string) []models.Role {
	if order, ok := genreRoleOrder[profile.CanonicalGenre(genre)]; ok {
		return order
	}
	return models.RolePriority
}

// TrackCount decides how many tracks a rule plan has. An explicit count is
// honoured; otherwise keywords and genre pick a band and energy picks
// inside it.
func TrackCount(intent models.MusicIntent) int {
	if intent.TrackCount > 0 {
		return min(intent.TrackCount, MaxTracks)
	}

	text := strings.ToLower(intent.Description + " " + strings.Join(intent.Moods, " ") + " " + intent.Genre)
	genre := profile.CanonicalGenre(intent.Genre)
	high := intent.Energy >= models.EnergyHigh

	switch {
	case containsAny(text, soloWords):
		return 1
	case containsAny(text, simpleWords):
		return 2
	case containsAny(text, richWords) || richGenres[genre]:
		switch {
		case intent.Energy <= models.EnergyLow:
			return 6
		case high:
			return 8
		}
		return 7
	}
	if high {
		return 5
	}
	return 4
}

// RulePlan is the deterministic plan used without a text generator and as
// the fallback when the generator's answer is unusable
func RulePlan(intent models.MusicIntent) []models.TrackConfig {
	count := TrackCount(intent)
	order := RoleOrder(intent.Genre)

	roles := make([]models.Role, 0, count)
	for i := 0; i < count; i++ {
		roles = append(roles, order[i%len(order)])
	}

	genre := profile.CanonicalGenre(intent.Genre)
	if rhythmicGenres[genre] && count >= 3 && !hasRole(roles, models.RoleDrums) {
		roles[len(roles)-1] = models.RoleDrums
	}

	configs := make([]models.TrackConfig, 0, count)
	for i, role := range roles {
		cfg := ConfigFor(role, intent.Instruments[role], intent.Genre)
		cfg.Priority = i + 1
		configs = append(configs, cfg)
	}
	return configs
}

// Dedupe reassigns duplicated non-harmonic roles to the next unused role in
// priority order. Harmony and pad may repeat.
func Dedupe(configs []models.TrackConfig, genre string) []models.TrackConfig {
	used := make(map[models.Role]bool, len(configs))
	out := make([]models.TrackConfig, len(configs))
	copy(out, configs)

	for i, cfg := range out {
		if !used[cfg.Role] || cfg.Role.IsHarmonic() {
			used[cfg.Role] = true
			continue
		}
		replacement := models.RoleHarmony
		for _, r := range models.RolePriority {
			if !used[r] {
				replacement = r
				break
			}
		}
		fresh := ConfigFor(replacement, "", genre)
		fresh.Priority = cfg.Priority
		out[i] = fresh
		used[replacement] = true
	}
	return out
}

// Reconcile trims (lowest priority first) or pads a plan to exactly count
// tracks
func Reconcile(configs []models.TrackConfig, count int, intent models.MusicIntent) []models.TrackConfig {
	out := append([]models.TrackConfig(nil), configs...)
	if len(out) > count {
		sortByPriority(out)
		return out[:count]
	}

	used := make(map[models.Role]bool, len(out))
	for _, cfg := range out {
		used[cfg.Role] = true
	}
	for _, role := range RoleOrder(intent.Genre) {
		if len(out) >= count {
			break
		}
		if used[role] {
			continue
		}
		cfg := ConfigFor(role, intent.Instruments[role], intent.Genre)
		cfg.Priority = len(out) + 1
		out = append(out, cfg)
		used[role] = true
	}
	for len(out) < count {
		cfg := ConfigFor(models.RoleHarmony, "", intent.Genre)
		cfg.Priority = len(out) + 1
		out = append(out, cfg)
	}
	return out
}

func sortByPriority(configs []models.TrackConfig) {
	sort.SliceStable(configs, func(a, b int) bool {
		return configs[a].Priority < configs[b].Priority
	})
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range strings.Fields(text) {
		for _, k := range words {
			if w == k {
				return true
			}
		}
	}
	return false
}
