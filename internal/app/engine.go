// Package app assembles the composition engine from configuration. It is
// shared by the HTTP server and the compose CLI.
package app

import (
	"context"
	"log"

	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/composer/planner"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/observability"
)

// NewPlanner returns a planner that asks cfg.PlannerModel for plans, or a
// rule-only planner when no model is configured or its provider cannot be
// created. usage may be nil.
func NewPlanner(ctx context.Context, cfg *config.Config, usage llm.UsageRecorder) *planner.Planner {
	opts := []planner.Option{planner.WithTimeout(cfg.PlannerTimeout)}
	if cfg.PlannerModel == "" {
		log.Println("🎼 Track planner: rules only (PLANNER_MODEL not set)")
		return planner.New(opts...)
	}

	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, err := factory.GetProvider(ctx, cfg.PlannerModel, "")
	if err != nil {
		log.Printf("⚠️  Track planner: falling back to rules: %v", err)
		return planner.New(opts...)
	}

	genOpts := []llm.TextGeneratorOption{
		llm.WithTrackPlanGrammar(),
		llm.WithLangfuse(observability.InitializeLangfuse(ctx, cfg)),
	}
	if usage != nil {
		genOpts = append(genOpts, llm.WithUsageRecorder(usage))
	}
	generator := llm.NewTextGenerator(provider, cfg.PlannerModel, genOpts...)

	log.Printf("🎼 Track planner: %s via %s", cfg.PlannerModel, provider.Name())
	return planner.New(append(opts, planner.WithTextGenerator(generator))...)
}

// NewComposer builds the engine described by cfg. Extra options are applied
// last.
func NewComposer(ctx context.Context, cfg *config.Config, usage llm.UsageRecorder, extra ...composer.Option) *composer.Composer {
	opts := []composer.Option{
		composer.WithPlanner(NewPlanner(ctx, cfg, usage)),
		composer.WithMaxIterations(cfg.MaxIterations),
		composer.WithParallel(cfg.ParallelGeneration),
	}
	return composer.New(append(opts, extra...)...)
}
