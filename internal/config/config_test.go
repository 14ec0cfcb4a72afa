package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "PLANNER_MODEL", "PLANNER_TIMEOUT_MS", "MAX_ITERATIONS", "AUTH_MODE", "MEMORY_STORE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.PlannerModel)
	assert.Equal(t, 8*time.Second, cfg.PlannerTimeout)
	assert.Equal(t, 2, cfg.MaxIterations)
	assert.Equal(t, 500, cfg.MemoryStoreLimit)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PLANNER_MODEL", "gemini-2.5-flash")
	t.Setenv("PLANNER_TIMEOUT_MS", "2500")
	t.Setenv("MAX_ITERATIONS", "4")
	t.Setenv("PARALLEL_GENERATION", "true")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("MEMORY_STORE_LIMIT", "not-a-number")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "gemini-2.5-flash", cfg.PlannerModel)
	assert.Equal(t, 2500*time.Millisecond, cfg.PlannerTimeout)
	assert.Equal(t, 4, cfg.MaxIterations)
	assert.True(t, cfg.ParallelGeneration)
	assert.True(t, cfg.IsJWTMode())
	assert.False(t, cfg.IsGatewayMode())
	assert.Equal(t, 500, cfg.MemoryStoreLimit)
}
