package engine

import (
	"strings"

	"github.com/evotone-audio/evotone-api/internal/models"
)

const radicalTemperatureGate = 0.8

// feedbackClass maps a recognized phrase class onto a fixed strategy.
// Feedback always overrides temperature-derived intensity.
type feedbackClass struct {
	keywords    []string
	mutation    models.MutationType
	intensity   float64
	description string
}

// Ordered: the first class whose keyword appears in the feedback wins
var feedbackClasses = []feedbackClass{
	{
		keywords:    []string{"darker", "heavier", "sadder", "minor", "gloomier"},
		mutation:    models.MutationHarmonic,
		intensity:   0.6,
		description: "darkening the harmonic palette per listener feedback",
	},
	{
		keywords:    []string{"faster", "more energy", "energetic", "upbeat", "punchier"},
		mutation:    models.MutationRhythmic,
		intensity:   0.6,
		description: "raising rhythmic energy per listener feedback",
	},
	{
		keywords:    []string{"simpler", "calmer", "less busy", "strip", "minimal"},
		mutation:    models.MutationStructural,
		intensity:   0.7,
		description: "simplifying the arrangement per listener feedback",
	},
	{
		keywords:    []string{"weird", "experimental", "strange", "crazy", "unusual"},
		mutation:    models.MutationRadical,
		intensity:   0.9,
		description: "going experimental per listener feedback",
	},
}

// fitnessDimension pairs a score accessor with the mutation type that
// targets it. Order is the fixed tie-break order.
type fitnessDimension struct {
	name     string
	value    func(models.FitnessScores) float64
	mutation models.MutationType
}

var fitnessDimensions = []fitnessDimension{
	{"emotionalResonance", func(f models.FitnessScores) float64 { return f.EmotionalResonance }, models.MutationTimbral},
	{"coherence", func(f models.FitnessScores) float64 { return f.Coherence }, models.MutationStructural},
	{"interest", func(f models.FitnessScores) float64 { return f.Interest }, models.MutationRhythmic},
	{"surprise", func(f models.FitnessScores) float64 { return f.Surprise }, models.MutationHarmonic},
	{"technicalQuality", func(f models.FitnessScores) float64 { return f.TechnicalQuality }, models.MutationTextural},
}

// targetFieldTable is the fixed lookup from mutation type to the fields it
// intends to touch
var targetFieldTable = map[models.MutationType][]models.MutableField{
	models.MutationHarmonic:   {models.FieldKey, models.FieldScale},
	models.MutationRhythmic:   {models.FieldTempo, models.FieldPatterns},
	models.MutationTimbral:    {models.FieldSynths, models.FieldEffects},
	models.MutationStructural: {models.FieldPatterns},
	models.MutationTextural:   {models.FieldEffects},
	models.MutationRadical:    {models.FieldTempo, models.FieldScale},
}

// TargetFields returns the fields a mutation type intends to touch
func TargetFields(t models.MutationType) []models.MutableField {
	return append([]models.MutableField(nil), targetFieldTable[t]...)
}

// SelectStrategy chooses the next mutation. Precedence, first match wins:
// recognized feedback phrase, then high creative temperature, then the
// parent's weakest fitness dimension.
func SelectStrategy(parentFitness models.FitnessScores, temperature float64, feedback string) models.MutationStrategy {
	if strategy, ok := strategyFromFeedback(feedback); ok {
		return strategy
	}

	if temperature > radicalTemperatureGate {
		intensity := 0.7 + temperature*0.3
		if intensity > 1 {
			intensity = 1
		}
		return models.MutationStrategy{
			Type:         models.MutationRadical,
			Description:  "high creative temperature: tearing up the sketch and starting over",
			Intensity:    intensity,
			TargetFields: TargetFields(models.MutationRadical),
		}
	}

	weakest := fitnessDimensions[0]
	for _, dim := range fitnessDimensions[1:] {
		if dim.value(parentFitness) < weakest.value(parentFitness) {
			weakest = dim
		}
	}

	return models.MutationStrategy{
		Type:         weakest.mutation,
		Description:  "shoring up the weakest dimension: " + weakest.name,
		Intensity:    0.3 + temperature*0.4,
		TargetFields: TargetFields(weakest.mutation),
	}
}

func strategyFromFeedback(feedback string) (models.MutationStrategy, bool) {
	if feedback == "" {
		return models.MutationStrategy{}, false
	}
	lowered := strings.ToLower(feedback)
	for _, class := range feedbackClasses {
		for _, kw := range class.keywords {
			if strings.Contains(lowered, kw) {
				return models.MutationStrategy{
					Type:         class.mutation,
					Description:  class.description,
					Intensity:    class.intensity,
					TargetFields: TargetFields(class.mutation),
				}, true
			}
		}
	}
	return models.MutationStrategy{}, false
}
