package prompt

import "strings"

// Builder assembles the system prompt sent to a model for one
// generation step
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildSystemPrompt builds the system prompt for a generation step.
// Root steps get the core prompt, scale heuristics, and output format;
// iteration steps additionally get the evolution instructions.
func (b *Builder) BuildSystemPrompt(iteration bool) (string, error) {
	sections := make([]string, 0, 4)

	system, err := b.loader.GetSystemPrompt()
	if err != nil {
		return "", err
	}
	sections = append(sections, system)

	heuristics, err := b.loader.GetEmotionScaleHeuristics()
	if err != nil {
		return "", err
	}
	sections = append(sections, "Scale selection heuristics:\n"+heuristics)

	if iteration {
		iter, err := b.loader.GetIterationInstructions()
		if err != nil {
			return "", err
		}
		sections = append(sections, iter)
	}

	format, err := b.loader.GetOutputFormatInstructions()
	if err != nil {
		return "", err
	}
	sections = append(sections, format)

	return strings.Join(sections, "\n\n"), nil
}
