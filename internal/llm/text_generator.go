package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-composer/internal/observability"
)

const trackPlanToolName = "track_plan"

// TextRequest is a single text-generation request
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// TextGenerator adapts a Provider to the one-call text capability used by
// the track planner
type TextGenerator struct {
	provider Provider
	model    string
	grammar  *CFGConfig
	langfuse *observability.LangfuseClient
	usage    UsageRecorder
}

// UsageRecorder receives the token usage of every answered call
type UsageRecorder interface {
	RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int)
}

// TextGeneratorOption configures a TextGenerator
type TextGeneratorOption func(*TextGenerator)

// WithTrackPlanGrammar constrains OpenAI answers to the track-plan DSL
func WithTrackPlanGrammar() TextGeneratorOption {
	return func(g *TextGenerator) {
		g.grammar = &CFGConfig{
			ToolName:    trackPlanToolName,
			Description: "Emit the track plan as track(...) calls separated by semicolons",
			Grammar:     GetTrackPlanDSLGrammar(),
			Syntax:      "lark",
		}
	}
}

// WithLangfuse records every call as a Langfuse generation
func WithLangfuse(client *observability.LangfuseClient) TextGeneratorOption {
	return func(g *TextGenerator) {
		g.langfuse = client
	}
}

// WithUsageRecorder reports token usage to metrics
func WithUsageRecorder(r UsageRecorder) TextGeneratorOption {
	return func(g *TextGenerator) {
		g.usage = r
	}
}

// NewTextGenerator wraps a provider for a model
func NewTextGenerator(provider Provider, model string, opts ...TextGeneratorOption) *TextGenerator {
	g := &TextGenerator{
		provider: provider,
		model:    model,
		langfuse: observability.GetClient(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateText runs one completion and returns its text. Any failure comes
// back as an error with an empty string.
func (g *TextGenerator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	input := []map[string]any{
		{"role": userRole, "content": req.UserPrompt},
	}
	request := &GenerationRequest{
		Model:           g.model,
		InputArray:      input,
		ReasoningMode:   reasoningMinimal,
		SystemPrompt:    req.SystemPrompt,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if g.grammar != nil && g.provider.Name() == providerNameOpenAI {
		request.CFGGrammar = g.grammar
	}

	trace := g.langfuse.StartTrace(ctx, "track_plan", map[string]interface{}{
		"provider": g.provider.Name(),
		"model":    g.model,
	})
	defer trace.Finish()
	generation := trace.Generation("generate_text", map[string]interface{}{
		"cfg": request.CFGGrammar != nil,
	})
	defer generation.Finish()

	resp, err := g.provider.Generate(ctx, request)
	if err != nil {
		generation.SetLevel("ERROR")
		generation.Metadata(map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("%s generation failed: %w", g.provider.Name(), err)
	}

	text := strings.TrimSpace(resp.RawOutput)
	generation.LogCompletion(g.model, input, text, observability.TokenUsage{
		Input:     resp.Usage.InputTokens,
		Output:    resp.Usage.OutputTokens,
		Reasoning: resp.Usage.ReasoningTokens,
		Total:     resp.Usage.TotalTokens,
	}, nil)
	if g.usage != nil {
		g.usage.RecordTokenUsage(ctx, g.model, int(resp.Usage.TotalTokens), int(resp.Usage.InputTokens),
			int(resp.Usage.OutputTokens), int(resp.Usage.ReasoningTokens))
	}

	if text == "" {
		return "", fmt.Errorf("%s returned an empty answer", g.provider.Name())
	}
	return text, nil
}
