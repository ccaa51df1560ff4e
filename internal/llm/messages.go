package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildUserMessage renders the request as the single user turn sent to the
// model. Root steps carry prompt + emotion; iteration steps additionally
// carry the parent's parameters, fitness, and the listener's feedback.
func buildUserMessage(request *GenerationRequest) (string, error) {
	emotionJSON, err := json.Marshal(request.Emotion)
	if err != nil {
		return "", fmt.Errorf("failed to encode emotional vector: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Prompt: %s\n", request.Prompt)
	fmt.Fprintf(&b, "Emotional vector: %s\n", emotionJSON)

	if request.Parent != nil {
		parentParams, err := json.Marshal(request.Parent.Params)
		if err != nil {
			return "", fmt.Errorf("failed to encode parent parameters: %w", err)
		}
		parentFitness, err := json.Marshal(request.Parent.Fitness)
		if err != nil {
			return "", fmt.Errorf("failed to encode parent fitness: %w", err)
		}

		fmt.Fprintf(&b, "\nIterating on generation %d.\n", request.Parent.Number)
		fmt.Fprintf(&b, "Parent parameters: %s\n", parentParams)
		fmt.Fprintf(&b, "Parent fitness: %s\n", parentFitness)
		fmt.Fprintf(&b, "Creative temperature: %.2f\n", request.Temperature)
		if len(request.Parent.Locked.Fields()) > 0 {
			locked := make([]string, 0)
			for _, f := range request.Parent.Locked.Fields() {
				locked = append(locked, string(f))
			}
			fmt.Fprintf(&b, "Locked fields (must keep the parent's values): %s\n", strings.Join(locked, ", "))
		}
		if request.Feedback != "" {
			fmt.Fprintf(&b, "Listener feedback: %s\n", request.Feedback)
		}
	}

	return b.String(), nil
}
