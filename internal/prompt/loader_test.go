package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetTrackPlannerPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetTrackPlannerPrompt()

	if err != nil {
		t.Fatalf("GetTrackPlannerPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetTrackPlannerPrompt() returned empty string")
	}

	if !strings.Contains(content, "music producer") {
		t.Error("GetTrackPlannerPrompt() does not contain expected content")
	}

	if strings.HasPrefix(content, "\n") || strings.HasSuffix(content, "\n") {
		t.Error("GetTrackPlannerPrompt() was not trimmed")
	}
}

func TestGetTrackPlanFormatInstructions(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetTrackPlanFormatInstructions()

	if err != nil {
		t.Fatalf("GetTrackPlanFormatInstructions() returned error: %v", err)
	}

	if !strings.Contains(content, "OUTPUT FORMAT") || !strings.Contains(content, "track(") {
		t.Error("GetTrackPlanFormatInstructions() does not contain expected content")
	}
}
