package prompt

import (
	"strings"

	"github.com/evotone-audio/evotone-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputFormatInstructions loads output format instructions
func (l *Loader) GetOutputFormatInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.OutputFormatInstructionsTxt)), nil
}

// GetIterationInstructions loads the evolution-step instructions
func (l *Loader) GetIterationInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.IterationInstructionsTxt)), nil
}

// GetEmotionScaleHeuristics loads the emotion-to-scale heuristics CSV
func (l *Loader) GetEmotionScaleHeuristics() (string, error) {
	return strings.TrimSpace(string(embedded.EmotionScaleHeuristicsCsv)), nil
}
