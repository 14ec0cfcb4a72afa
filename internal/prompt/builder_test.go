package prompt

import (
	"strings"
	"testing"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

func TestNewPromptBuilder(t *testing.T) {
	builder := NewPromptBuilder()
	if builder == nil {
		t.Fatal("NewPromptBuilder() returned nil")
		return
	}
	if builder.loader == nil {
		t.Fatal("NewPromptBuilder() created builder with nil loader")
	}
}

func TestBuildTrackPlanPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	prompt, err := builder.BuildTrackPlanPrompt()

	if err != nil {
		t.Fatalf("BuildTrackPlanPrompt() returned error: %v", err)
	}

	if !strings.Contains(prompt, "ROLES") {
		t.Error("BuildTrackPlanPrompt() does not contain role guidance")
	}

	if !strings.Contains(prompt, "OUTPUT FORMAT") {
		t.Error("BuildTrackPlanPrompt() does not contain format instructions")
	}

	if strings.Index(prompt, "ROLES") > strings.Index(prompt, "OUTPUT FORMAT") {
		t.Error("format instructions should follow the role guidance")
	}
}

func TestBuildTrackPlanUserPrompt(t *testing.T) {
	builder := NewPromptBuilder()
	intent := models.MusicIntent{
		Genre:       "jazz",
		Moods:       []string{"mellow", "warm"},
		Tempo:       96,
		TrackCount:  4,
		Instruments: map[models.Role]string{models.RoleLead: "saxophone"},
		Description: "late night club",
	}

	prompt := builder.BuildTrackPlanUserPrompt(intent, 32)

	for _, want := range []string{
		"Genre: jazz",
		"Moods: mellow, warm",
		"Tempo: 96 BPM",
		"Time signature: 4/4",
		"Length: 32 bars",
		"EXACTLY 4 tracks",
		"lead=saxophone",
		"Description: late night club",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("BuildTrackPlanUserPrompt() missing %q in:\n%s", want, prompt)
		}
	}
}

func TestBuildTrackPlanUserPromptOmitsEmptyFields(t *testing.T) {
	builder := NewPromptBuilder()
	prompt := builder.BuildTrackPlanUserPrompt(models.MusicIntent{Genre: "pop"}, 0)

	for _, absent := range []string{"Moods:", "Tempo:", "Length:", "EXACTLY", "Description:"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("BuildTrackPlanUserPrompt() should omit %q", absent)
		}
	}
}
