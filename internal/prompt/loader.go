package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/magda-composer/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetTrackPlannerPrompt loads the track planner system prompt
func (l *Loader) GetTrackPlannerPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.TrackPlannerPromptTxt)), nil
}

// GetTrackPlanFormatInstructions loads the DSL output format instructions
func (l *Loader) GetTrackPlanFormatInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.TrackPlanFormatTxt)), nil
}
