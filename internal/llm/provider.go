package llm

import (
	"context"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Generate runs a single non-streaming text generation. When CFGGrammar
	// is set the provider constrains the output to the grammar and returns
	// the raw DSL in RawOutput.
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model         string
	InputArray    []map[string]any
	ReasoningMode string
	SystemPrompt  string
	// CFG Grammar for DSL output
	CFGGrammar *CFGConfig

	Temperature     float64 // 0 keeps the provider default
	MaxOutputTokens int     // 0 keeps the provider default
}

// CFGConfig contains context-free grammar configuration
type CFGConfig struct {
	ToolName    string // Name of the tool that will receive the DSL output
	Description string // Description of what the tool does
	Grammar     string // Lark grammar definition
	Syntax      string // "lark" or "regex" (default: "lark")
}

// Usage is the token accounting of one generation
type Usage struct {
	InputTokens     int64 `json:"input_tokens"`
	OutputTokens    int64 `json:"output_tokens"`
	ReasoningTokens int64 `json:"reasoning_tokens,omitempty"`
	TotalTokens     int64 `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string `json:"-"` // Raw text or DSL output
	Usage     Usage  `json:"usage"`
}
