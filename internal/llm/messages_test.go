package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotone-audio/evotone-api/internal/models"
)

func baseRequest() *GenerationRequest {
	return &GenerationRequest{
		Model:        "gpt-5",
		Prompt:       "ambient dusk",
		Emotion:      models.EmotionalVector{Energy: 0.2, Warmth: 0.8, Space: 0.9},
		Temperature:  0.5,
		SystemPrompt: "You compose synthesizer music.",
	}
}

func TestBuildUserMessageRoot(t *testing.T) {
	msg, err := buildUserMessage(baseRequest())
	require.NoError(t, err)

	assert.Contains(t, msg, "ambient dusk")
	assert.Contains(t, msg, "\"warmth\":0.8")
	assert.NotContains(t, msg, "Iterating on generation")
	assert.NotContains(t, msg, "Listener feedback")
}

func TestBuildUserMessageIteration(t *testing.T) {
	req := baseRequest()
	req.Temperature = 0.7
	req.Feedback = "make it darker"
	req.Parent = &models.Generation{
		Number: 3,
		Params: models.MusicParameters{
			Tempo: 96,
			Key:   models.Key{Root: "A", Minor: true},
			Scale: []string{"A", "B", "C", "D", "E", "F", "G"},
		},
		Fitness: models.FitnessScores{Coherence: 0.8},
		Locked:  models.LockSet{models.FieldTempo: true, models.FieldKey: true},
	}

	msg, err := buildUserMessage(req)
	require.NoError(t, err)

	assert.Contains(t, msg, "Iterating on generation 3")
	assert.Contains(t, msg, "\"coherence\":0.8")
	assert.Contains(t, msg, "Creative temperature: 0.70")
	assert.Contains(t, msg, "Locked fields")
	assert.Contains(t, msg, "tempo")
	assert.Contains(t, msg, "key")
	assert.Contains(t, msg, "Listener feedback: make it darker")
}
