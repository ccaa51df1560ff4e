package prompt

import (
	"strings"
	"testing"
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

func TestBuildSystemPromptRoot(t *testing.T) {
	builder := NewPromptBuilder()
	prompt, err := builder.BuildSystemPrompt(false)

	if err != nil {
		t.Fatalf("BuildSystemPrompt(false) returned error: %v", err)
	}

	if prompt == "" {
		t.Fatal("BuildSystemPrompt(false) returned empty string")
	}

	if !strings.Contains(prompt, "evolutionary music collaborator") {
		t.Error("root prompt missing system section")
	}
	if !strings.Contains(prompt, "single JSON object") {
		t.Error("root prompt missing output format section")
	}
	if strings.Contains(prompt, "evolving an existing generation") {
		t.Error("root prompt should not include iteration instructions")
	}
}

func TestBuildSystemPromptIteration(t *testing.T) {
	builder := NewPromptBuilder()
	prompt, err := builder.BuildSystemPrompt(true)

	if err != nil {
		t.Fatalf("BuildSystemPrompt(true) returned error: %v", err)
	}

	if !strings.Contains(prompt, "evolving an existing generation") {
		t.Error("iteration prompt missing iteration instructions")
	}
	if !strings.Contains(prompt, "Scale selection heuristics") {
		t.Error("iteration prompt missing heuristics section")
	}
}
