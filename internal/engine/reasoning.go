package engine

import (
	"fmt"
	"strings"

	"github.com/evotone-audio/evotone-api/internal/models"
)

const dominantThreshold = 0.6

// Narrative fragments keyed by dominant emotion dimension. No ML behind
// this, just conditionals describing which thresholds fired.
var dimensionReadings = map[string]string{
	"energy":     "high energy calls for driving tempo and a bright filter",
	"tension":    "tension pushes toward chromatic centers and tight delays",
	"warmth":     "warmth favors rounded oscillators and humanized timing",
	"complexity": "complexity earns extra voices and longer melodic lines",
	"darkness":   "darkness pulls the tonality minor and steepens the rolloff",
	"hope":       "hope steers the key selection toward the brighter end",
	"chaos":      "chaos unlocks irregular meters and unpredictable steps",
	"space":      "space opens the reverb and stretches the envelopes",
}

// rootReasoning builds the four narrative fields for generation zero
func rootReasoning(emotion models.EmotionalVector, prompt string, params models.MusicParameters) models.CreativeReasoning {
	dominant := emotion.Dominant(dominantThreshold)

	analysis := fmt.Sprintf("The prompt %q resolves into a balanced emotional field.", prompt)
	if len(dominant) > 0 {
		readings := make([]string, 0, len(dominant))
		for _, d := range dominant {
			readings = append(readings, dimensionReadings[d])
		}
		analysis = fmt.Sprintf("The prompt %q is dominated by %s: %s.",
			prompt, strings.Join(dominant, ", "), strings.Join(readings, "; "))
	}

	intention := fmt.Sprintf("Establish a %s foundation in %s at %.0f BPM with %d voice(s).",
		qualityWord(params.Key), params.Key, params.Tempo, len(params.Synths))

	strategy := fmt.Sprintf("First sketch: %d pattern layer(s) in %s, letting the emotional vector drive every derivation.",
		len(params.Patterns), params.TimeSignature)

	reflection := "A starting point, not a destination. The weakest dimensions will steer the first mutations."

	return models.CreativeReasoning{
		Analysis:   analysis,
		Intention:  intention,
		Strategy:   strategy,
		Reflection: reflection,
	}
}

// evolveReasoning describes the weakest parent dimension and chosen strategy
func evolveReasoning(parentFitness models.FitnessScores, strategy models.MutationStrategy, feedback string) models.CreativeReasoning {
	weakest := weakestDimensionName(parentFitness)

	analysis := fmt.Sprintf("The parent's weakest dimension is %s.", weakest)
	if feedback != "" {
		analysis = fmt.Sprintf("Listener feedback %q takes precedence over the parent's weakest dimension (%s).",
			feedback, weakest)
	}

	return models.CreativeReasoning{
		Analysis:   analysis,
		Intention:  fmt.Sprintf("Apply a %s mutation at intensity %.2f.", strategy.Type, strategy.Intensity),
		Strategy:   strategy.Description,
		Reflection: fmt.Sprintf("Touching %d field(s); locked fields are carried through unchanged.", len(strategy.TargetFields)),
	}
}

func weakestDimensionName(f models.FitnessScores) string {
	weakest := fitnessDimensions[0]
	for _, dim := range fitnessDimensions[1:] {
		if dim.value(f) < weakest.value(f) {
			weakest = dim
		}
	}
	return weakest.name
}

func qualityWord(k models.Key) string {
	if k.Minor {
		return "brooding minor"
	}
	return "open major"
}
