package llm

// GetTrackPlanDSLGrammar returns the Lark grammar definition for the Track Plan DSL
// One track() call per planned track, separated by semicolons
// Roles are the closed role vocabulary; instrument is a free identifier string
func GetTrackPlanDSLGrammar() string {
	return `
// Track Plan DSL Grammar - one call per instrument track
// SYNTAX:
//   track(role=lead, instrument="piano", priority=1, density=0.6)
//   track(role=bass, instrument="acoustic_bass", priority=3, density=0.55)
//
// ROLES: lead, counter_melody, harmony, bass, drums, pad, arpeggio, fx
// priority: 1 = most important
// density: 0.0 - 1.0 target note density

// ---------- Start rule ----------
start: track_call (";" track_call)*

// ---------- Track ----------
track_call: "track" "(" track_params ")"

track_params: track_named_params

track_named_params: track_named_param ("," SP track_named_param)*
track_named_param: "role" "=" ROLE_NAME
                 | "instrument" "=" STRING
                 | "priority" "=" NUMBER
                 | "density" "=" NUMBER

// ---------- Roles ----------
ROLE_NAME: "lead" | "counter_melody" | "harmony" | "bass"
         | "drums" | "pad" | "arpeggio" | "fx"

// ---------- Terminals ----------
SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
`
}
