package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &GenerationResponse{}, nil
}

func TestProviderFactory_ByModel(t *testing.T) {
	factory := NewProviderFactory("openai-key", "gemini-key")

	tests := []struct {
		model string
		want  string
	}{
		{"gpt-5-mini", "openai"},
		{"gpt-4.1-mini", "openai"},
		{"gemini-2.5-flash", "gemini"},
		{"something-else", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := factory.GetProvider(context.Background(), tt.model, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, provider.Name())
		})
	}
}

func TestProviderFactory_MissingKeys(t *testing.T) {
	factory := NewProviderFactory("", "")

	_, err := factory.GetProvider(context.Background(), "gpt-5-mini", "")
	assert.Error(t, err)

	_, err = factory.GetProvider(context.Background(), "gemini-2.5-flash", "")
	assert.Error(t, err)

	_, err = factory.GetProvider(context.Background(), "", "anthropic")
	assert.Error(t, err)
}

func TestMockProviderGenerate(t *testing.T) {
	callCount := 0
	mock := &MockProvider{
		name: "test",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			callCount++
			if request.Model != "test-model" {
				return nil, errors.New("unexpected model")
			}
			return &GenerationResponse{RawOutput: "ok", Usage: Usage{TotalTokens: 3}}, nil
		},
	}

	resp, err := mock.Generate(context.Background(), &GenerationRequest{Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "ok", resp.RawOutput)
	assert.Equal(t, int64(3), resp.Usage.TotalTokens)
}
