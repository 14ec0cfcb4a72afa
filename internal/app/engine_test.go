package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/planner"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

func intent() models.MusicIntent {
	return models.MusicIntent{Genre: "pop", Moods: []string{"happy"}, Tempo: 110, Duration: models.DurationRequest{Bars: 8}}
}

func TestNewPlanner_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"no model", &config.Config{PlannerTimeout: time.Second}},
		{"missing key", &config.Config{PlannerModel: "gpt-5-mini", PlannerTimeout: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(context.Background(), tt.cfg, nil)
			plan := p.Plan(context.Background(), intent(), 8)
			assert.Equal(t, planner.SourceRules, plan.Source)
			assert.False(t, plan.Degraded)
			assert.NotEmpty(t, plan.Tracks)
		})
	}
}

func TestNewComposer_AppliesConfig(t *testing.T) {
	cfg := &config.Config{MaxIterations: 3, PlannerTimeout: time.Second}
	c := NewComposer(context.Background(), cfg, nil, composer.WithSeed(5))
	assert.Equal(t, 3, c.MaxIterations())

	state, report, err := c.Compose(context.Background(), intent())
	require.NoError(t, err)
	assert.Equal(t, int64(5), state.Seed)
	assert.NotNil(t, report)
}
