package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// Builder builds prompts for the track planner
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildTrackPlanPrompt builds the system prompt: role guidance followed by
// the DSL output format
func (b *Builder) BuildTrackPlanPrompt() (string, error) {
	planner, err := b.loader.GetTrackPlannerPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load track planner prompt: %w", err)
	}
	format, err := b.loader.GetTrackPlanFormatInstructions()
	if err != nil {
		return "", fmt.Errorf("failed to load track plan format: %w", err)
	}
	return planner + "\n\n" + format, nil
}

// BuildTrackPlanUserPrompt renders the intent as the user message
func (b *Builder) BuildTrackPlanUserPrompt(intent models.MusicIntent, totalBars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genre: %s\n", intent.Genre)
	if len(intent.Moods) > 0 {
		fmt.Fprintf(&sb, "Moods: %s\n", strings.Join(intent.Moods, ", "))
	}
	fmt.Fprintf(&sb, "Energy: %s\n", intent.Energy)
	if intent.Tempo > 0 {
		fmt.Fprintf(&sb, "Tempo: %d BPM\n", intent.Tempo)
	}
	fmt.Fprintf(&sb, "Key: %s\n", intent.Key)
	fmt.Fprintf(&sb, "Time signature: %s\n", intent.TimeSignature.OrDefault())
	if totalBars > 0 {
		fmt.Fprintf(&sb, "Length: %d bars\n", totalBars)
	}
	if intent.TrackCount > 0 {
		fmt.Fprintf(&sb, "**CRITICAL**: Return EXACTLY %d tracks.\n", intent.TrackCount)
	}
	if len(intent.Instruments) > 0 {
		pairs := make([]string, 0, len(intent.Instruments))
		for role, inst := range intent.Instruments {
			pairs = append(pairs, fmt.Sprintf("%s=%s", role, inst))
		}
		sort.Strings(pairs)
		fmt.Fprintf(&sb, "Requested instruments: %s\n", strings.Join(pairs, ", "))
	}
	if d := strings.TrimSpace(intent.Description); d != "" {
		fmt.Fprintf(&sb, "Description: %s\n", d)
	}
	return strings.TrimRight(sb.String(), "\n")
}
