package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextGenerator_BuildsRequest(t *testing.T) {
	var got *GenerationRequest
	mock := &MockProvider{
		name: "openai",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			got = request
			return &GenerationResponse{RawOutput: "  track(role=lead)  "}, nil
		},
	}

	gen := NewTextGenerator(mock, "gpt-5-mini", WithTrackPlanGrammar())
	text, err := gen.GenerateText(context.Background(), TextRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Temperature:  0.3,
		MaxTokens:    500,
		Timeout:      time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "track(role=lead)", text)

	require.NotNil(t, got)
	assert.Equal(t, "gpt-5-mini", got.Model)
	assert.Equal(t, "system", got.SystemPrompt)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 500, got.MaxOutputTokens)
	require.Len(t, got.InputArray, 1)
	assert.Equal(t, "user", got.InputArray[0]["content"])
	require.NotNil(t, got.CFGGrammar)
	assert.Equal(t, "track_plan", got.CFGGrammar.ToolName)
}

func TestTextGenerator_GrammarOnlyForOpenAI(t *testing.T) {
	var got *GenerationRequest
	mock := &MockProvider{
		name: "gemini",
		generateFunc: func(_ context.Context, request *GenerationRequest) (*GenerationResponse, error) {
			got = request
			return &GenerationResponse{RawOutput: "track(role=lead)"}, nil
		},
	}

	_, err := NewTextGenerator(mock, "gemini-2.5-flash", WithTrackPlanGrammar()).
		GenerateText(context.Background(), TextRequest{UserPrompt: "u"})
	require.NoError(t, err)
	assert.Nil(t, got.CFGGrammar)
}

func TestTextGenerator_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		resp *GenerationResponse
		err  error
	}{
		{"provider error", nil, boom},
		{"empty answer", &GenerationResponse{RawOutput: "   "}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockProvider{
				name: "openai",
				generateFunc: func(context.Context, *GenerationRequest) (*GenerationResponse, error) {
					return tt.resp, tt.err
				},
			}
			text, err := NewTextGenerator(mock, "gpt-5-mini").GenerateText(context.Background(), TextRequest{})
			assert.Error(t, err)
			assert.Empty(t, text)
			if tt.err != nil {
				assert.ErrorIs(t, err, boom)
			}
		})
	}
}

func TestTextGenerator_AppliesTimeout(t *testing.T) {
	mock := &MockProvider{
		name: "openai",
		generateFunc: func(ctx context.Context, _ *GenerationRequest) (*GenerationResponse, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
			return &GenerationResponse{RawOutput: "x"}, nil
		},
	}

	_, err := NewTextGenerator(mock, "gpt-5-mini").GenerateText(context.Background(), TextRequest{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
}

type usageSpy struct {
	model string
	total int
	calls int
}

func (s *usageSpy) RecordTokenUsage(_ context.Context, model string, totalTokens, _, _, _ int) {
	s.model = model
	s.total = totalTokens
	s.calls++
}

func TestTextGenerator_RecordsUsage(t *testing.T) {
	mock := &MockProvider{
		name: "openai",
		generateFunc: func(_ context.Context, _ *GenerationRequest) (*GenerationResponse, error) {
			return &GenerationResponse{
				RawOutput: "track(role=bass)",
				Usage:     Usage{InputTokens: 40, OutputTokens: 12, TotalTokens: 52},
			}, nil
		},
	}
	spy := &usageSpy{}

	_, err := NewTextGenerator(mock, "gpt-5-mini", WithUsageRecorder(spy)).
		GenerateText(context.Background(), TextRequest{UserPrompt: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, spy.calls)
	assert.Equal(t, "gpt-5-mini", spy.model)
	assert.Equal(t, 52, spy.total)
}
