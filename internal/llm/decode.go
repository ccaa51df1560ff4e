package llm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evotone-audio/evotone-api/internal/models"
)

// ErrMalformedOutput marks a collaborator failure: the model produced
// output that cannot be decoded or that violates the generation schema.
// Callers must surface this and leave the generation list untouched -
// there is no silent fallback to the local engine.
var ErrMalformedOutput = errors.New("model output violates generation schema")

// DecodeOutput parses and validates raw model output against the
// generation schema. Fitness scores are clamped (range recovery), but
// structural violations are hard failures.
func DecodeOutput(raw string) (GenerationOutput, error) {
	if raw == "" {
		return GenerationOutput{}, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}

	var out GenerationOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return GenerationOutput{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if err := out.Params.Validate(); err != nil {
		return GenerationOutput{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	for _, m := range out.Mutations {
		if !validMutationType(m) {
			return GenerationOutput{}, fmt.Errorf("%w: unknown mutation tag %q", ErrMalformedOutput, m)
		}
	}

	out.Fitness = out.Fitness.Clamp()
	return out, nil
}

func validMutationType(m models.MutationType) bool {
	switch m {
	case models.MutationHarmonic, models.MutationRhythmic, models.MutationTimbral,
		models.MutationStructural, models.MutationTextural, models.MutationRadical:
		return true
	}
	return false
}
