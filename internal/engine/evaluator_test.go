package engine

import (
	"testing"

	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateScoresInRange(t *testing.T) {
	rng := newTestRand(3)
	synth := NewSynthesizer(newTestRand(4))

	for i := 0; i < 100; i++ {
		emotion := randomEmotion(rng)
		params := synth.Synthesize(emotion, "")
		fitness := Evaluate(params, emotion)

		for name, score := range map[string]float64{
			"emotionalResonance": fitness.EmotionalResonance,
			"coherence":          fitness.Coherence,
			"interest":           fitness.Interest,
			"surprise":           fitness.Surprise,
			"technicalQuality":   fitness.TechnicalQuality,
		} {
			assert.GreaterOrEqual(t, score, 0.0, name)
			assert.LessOrEqual(t, score, 1.0, name)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	emotion := models.EmotionalVector{Energy: 0.7, Space: 0.4, Complexity: 0.5}
	params := NewSynthesizer(newTestRand(5)).Synthesize(emotion, "")

	first := Evaluate(params, emotion)
	second := Evaluate(params, emotion)
	assert.Equal(t, first, second, "evaluator must have no hidden randomness")
}

func TestResonanceRewardsTempoMatch(t *testing.T) {
	emotion := models.EmotionalVector{Energy: 0.5, Space: 0.5}
	matched := baseParams()
	matched.Tempo = 120 // tempoNorm 0.5 == energy
	matched.Effects.Reverb.Wet = 0.5

	mismatched := baseParams()
	mismatched.Tempo = 180
	mismatched.Effects.Reverb.Wet = 0.0

	assert.Greater(t,
		Evaluate(matched, emotion).EmotionalResonance,
		Evaluate(mismatched, emotion).EmotionalResonance)
}

func TestCoherenceRewardsEvenLevels(t *testing.T) {
	even := baseParams()
	even.Synths = []models.SynthVoice{
		{Volume: -10, Envelope: saneEnvelope()},
		{Volume: -11, Envelope: saneEnvelope()},
	}

	uneven := baseParams()
	uneven.Synths = []models.SynthVoice{
		{Volume: -2, Envelope: saneEnvelope()},
		{Volume: -30, Envelope: saneEnvelope()},
	}

	emotion := models.EmotionalVector{}
	assert.Greater(t, Evaluate(even, emotion).Coherence, Evaluate(uneven, emotion).Coherence)
}

func TestSurpriseRewardsIrregularity(t *testing.T) {
	plain := baseParams()

	odd := baseParams()
	odd.TimeSignature = models.TimeSignature{Beats: 7, Unit: 8}
	odd.Scale = []string{"C", "D", "E", "G", "A"} // pentatonic, non-diatonic length

	emotion := models.EmotionalVector{}
	assert.Greater(t, Evaluate(odd, emotion).Surprise, Evaluate(plain, emotion).Surprise)
}

func TestTechnicalQualityPenalizesWildEnvelopes(t *testing.T) {
	sane := baseParams()

	wild := baseParams()
	wild.Synths = []models.SynthVoice{
		{Volume: -10, Envelope: models.Envelope{Attack: 3.0, Release: 8.0}},
	}
	wild.Effects.Delay.Feedback = 0.9

	emotion := models.EmotionalVector{}
	assert.Greater(t, Evaluate(sane, emotion).TechnicalQuality, Evaluate(wild, emotion).TechnicalQuality)
}

func saneEnvelope() models.Envelope {
	return models.Envelope{Attack: 0.05, Decay: 0.2, Sustain: 0.5, Release: 0.8}
}

func baseParams() models.MusicParameters {
	return models.MusicParameters{
		Tempo:         120,
		Key:           models.Key{Root: "C"},
		Scale:         []string{"C", "D", "E", "F", "G", "A", "B"},
		TimeSignature: models.TimeSignature{Beats: 4, Unit: 4},
		Effects: models.EffectSettings{
			Reverb: models.ReverbSettings{RoomSize: 0.5, Dampening: 0.5, Wet: 0.3},
			Delay:  models.DelaySettings{Time: "8n", Feedback: 0.3, Wet: 0.2},
			Filter: models.FilterSettings{Cutoff: 2000, Type: "lowpass", Rolloff: -12},
		},
		Synths: []models.SynthVoice{{Role: "bass", Oscillator: "sine", Volume: -8, Envelope: saneEnvelope()}},
		Patterns: []models.NotePattern{{
			Name:       "bass",
			Notes:      []string{"C2", "G2", "F2", "C2"},
			Durations:  []string{"4n", "8n", "4n", "2n"},
			Velocities: []float64{0.6, 0.6, 0.6, 0.6},
			Offsets:    []float64{0, 0, 0, 0},
		}},
	}
}
