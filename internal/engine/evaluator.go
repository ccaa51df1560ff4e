package engine

import (
	"math"

	"github.com/evotone-audio/evotone-api/internal/models"
)

const (
	resonanceBase = 0.5
	coherenceBase = 0.6
	interestBase  = 0.4
	surpriseBase  = 0.3
	qualityBase   = 0.6

	saneAttackMax  = 2.0 // seconds
	saneReleaseMax = 5.0
	feedbackCeil   = 0.8
)

// Evaluate scores a parameter set against the emotional vector it was meant
// to express. Deterministic: identical inputs always yield identical scores.
// The five dimensions are independent heuristic proxies, not measurements.
func Evaluate(params models.MusicParameters, emotion models.EmotionalVector) models.FitnessScores {
	return models.FitnessScores{
		EmotionalResonance: scoreResonance(params, emotion),
		Coherence:          scoreCoherence(params),
		Interest:           scoreInterest(params),
		Surprise:           scoreSurprise(params),
		TechnicalQuality:   scoreTechnicalQuality(params),
	}.Clamp()
}

// scoreResonance rewards tempo tracking energy and reverb tracking space
func scoreResonance(params models.MusicParameters, emotion models.EmotionalVector) float64 {
	tempoNorm := (params.Tempo - tempoFloor) / tempoSpan
	score := resonanceBase
	score += (1 - math.Abs(tempoNorm-emotion.Energy)) * 0.25
	score += (1 - math.Abs(params.Effects.Reverb.Wet-emotion.Space)) * 0.25
	return score
}

// scoreCoherence rewards voices whose levels sit close together
func scoreCoherence(params models.MusicParameters) float64 {
	if len(params.Synths) == 0 {
		return coherenceBase
	}

	mean := 0.0
	for _, v := range params.Synths {
		mean += v.Volume
	}
	mean /= float64(len(params.Synths))

	variance := 0.0
	for _, v := range params.Synths {
		d := v.Volume - mean
		variance += d * d
	}
	variance /= float64(len(params.Synths))

	stddev := math.Sqrt(variance)
	return coherenceBase + 0.3*math.Max(0, 1-stddev/6)
}

// scoreInterest rewards layer count and rhythmic variety, both capped
func scoreInterest(params models.MusicParameters) float64 {
	layerBonus := math.Min(0.3, float64(len(params.Patterns))*0.1)

	distinct := map[string]bool{}
	for _, p := range params.Patterns {
		for _, d := range p.Durations {
			distinct[d] = true
		}
	}
	varietyBonus := math.Min(0.2, float64(len(distinct))*0.05)

	return interestBase + layerBonus + varietyBonus
}

// scoreSurprise rewards irregular meter and non-diatonic scale lengths
func scoreSurprise(params models.MusicParameters) float64 {
	score := surpriseBase
	if params.TimeSignature.IsIrregular() {
		score += 0.25
	}
	if len(params.Scale) != 7 {
		score += 0.2
	}
	return score
}

// scoreTechnicalQuality rewards sane envelopes and restrained feedback
func scoreTechnicalQuality(params models.MusicParameters) float64 {
	score := qualityBase

	sane := true
	for _, v := range params.Synths {
		if v.Envelope.Attack >= saneAttackMax || v.Envelope.Release >= saneReleaseMax {
			sane = false
			break
		}
	}
	if sane {
		score += 0.2
	}

	if params.Effects.Reverb.Wet < feedbackCeil && params.Effects.Delay.Feedback < feedbackCeil {
		score += 0.2
	}
	return score
}
