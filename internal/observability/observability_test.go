package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Conceptual-Machines/magda-composer/internal/config"
)

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name  string
		model string
		usage TokenUsage
		want  float64
	}{
		{"input and output", "gpt-5-mini", TokenUsage{Input: 2000, Output: 1000}, 0.0005 + 0.002},
		{"reasoning billed as input", "gpt-5-mini", TokenUsage{Reasoning: 1000}, 0.00025},
		{"case insensitive", "Gemini-2.5-Flash", TokenUsage{Input: 1000}, 0.0003},
		{"unknown model uses default", "mystery", TokenUsage{Output: 1000}, 0.002},
		{"zero", "gpt-5", TokenUsage{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateCost(tt.model, tt.usage), 1e-12)
		})
	}
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.002500", FormatCost(0.0025))
	assert.Equal(t, "$0.000000", FormatCost(0))
}

func TestLangfuseDisabled(t *testing.T) {
	client := InitializeLangfuse(context.Background(), &config.Config{})
	assert.False(t, client.IsEnabled())
	assert.Same(t, client, GetClient())

	// every call on a disabled client is a no-op
	trace := client.StartTrace(context.Background(), "track_plan", nil)
	gen := trace.Generation("planner", map[string]interface{}{"genre": "jazz"})
	gen.Input("prompt")
	gen.LogCompletion("gpt-5-mini", nil, "track(role=lead)", TokenUsage{Total: 10}, nil)
	gen.SetLevel("ERROR")
	gen.Finish()
	trace.Finish()
}
