package llm

import (
	"context"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func TestGeminiProvider_BuildContents(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	tests := []struct {
		name       string
		inputArray []map[string]any
		wantLen    int
		wantErr    bool
	}{
		{
			name:       "single user message",
			inputArray: []map[string]any{{"role": "user", "content": "test content"}},
			wantLen:    1,
		},
		{
			name:       "developer role converted to user",
			inputArray: []map[string]any{{"role": "developer", "content": "system message"}},
			wantLen:    1,
		},
		{
			name: "invalid message skipped",
			inputArray: []map[string]any{
				{"role": "user", "content": "valid"},
				{"role": "user"},
			},
			wantLen: 1,
		},
		{
			name:       "nothing usable",
			inputArray: []map[string]any{{"content": "no role"}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, err := provider.buildGeminiContents(tt.inputArray)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, contents, tt.wantLen)
			for _, content := range contents {
				assert.Equal(t, "user", content.Role)
				assert.NotEmpty(t, content.Parts)
			}
		})
	}
}

func TestGeminiProvider_BuildConfig(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	config := provider.buildConfig(&GenerationRequest{SystemPrompt: "plan", Temperature: 0.3, MaxOutputTokens: 500})
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.3, float64(*config.Temperature), 1e-6)
	assert.Equal(t, int32(500), config.MaxOutputTokens)
	assert.Equal(t, "plan", config.SystemInstruction.Parts[0].Text)

	config = provider.buildConfig(&GenerationRequest{})
	assert.Nil(t, config.Temperature)
}

func TestGeminiProvider_ProcessResponse(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	transaction := sentry.StartTransaction(context.Background(), "test")
	defer transaction.Finish()

	_, err := provider.processGeminiResponse(&genai.GenerateContentResponse{}, time.Now(), transaction)
	assert.Error(t, err)

	resp, err := provider.processGeminiResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "```\ntrack(role=bass)\n```"}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     40,
			CandidatesTokenCount: 10,
			TotalTokenCount:      50,
		},
	}, time.Now(), transaction)
	require.NoError(t, err)
	assert.Equal(t, "track(role=bass)", resp.RawOutput)
	assert.Equal(t, int64(50), resp.Usage.TotalTokens)
}

func TestNewGeminiProvider_InvalidKey(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "invalid-key")

	// client creation does not contact the API
	if err != nil {
		assert.Error(t, err)
	} else {
		assert.Equal(t, "gemini", provider.Name())
	}
}
