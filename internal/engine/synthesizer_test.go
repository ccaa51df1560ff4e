package engine

import (
	"math/rand"
	"testing"

	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func randomEmotion(rng *rand.Rand) models.EmotionalVector {
	return models.EmotionalVector{
		Energy:     rng.Float64(),
		Tension:    rng.Float64(),
		Warmth:     rng.Float64(),
		Complexity: rng.Float64(),
		Darkness:   rng.Float64(),
		Hope:       rng.Float64(),
		Chaos:      rng.Float64(),
		Space:      rng.Float64(),
	}
}

func TestSynthesizeStructuralValidity(t *testing.T) {
	rng := newTestRand(1)
	synth := NewSynthesizer(newTestRand(2))

	for i := 0; i < 200; i++ {
		emotion := randomEmotion(rng)
		params := synth.Synthesize(emotion, "test prompt")

		require.NoError(t, params.Validate(), "vector %+v", emotion)
		assert.GreaterOrEqual(t, params.Tempo, 60.0)
		assert.LessOrEqual(t, params.Tempo, 180.0)
		assert.NotEmpty(t, params.Scale)
		assert.NotEmpty(t, params.Synths)

		for _, p := range params.Patterns {
			n := p.Len()
			assert.Len(t, p.Durations, n)
			assert.Len(t, p.Velocities, n)
			assert.Len(t, p.Offsets, n)
			for _, v := range p.Velocities {
				assert.GreaterOrEqual(t, v, 0.1)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestSynthesizeScenarioA(t *testing.T) {
	// energy 0.8 → 60 + 0.8*120 = 156 BPM, major key, 4/4
	emotion := models.EmotionalVector{
		Energy: 0.8, Tension: 0.2, Warmth: 0.5, Complexity: 0.5,
		Darkness: 0.2, Hope: 0.5, Chaos: 0.1, Space: 0.3,
	}
	synth := NewSynthesizer(newTestRand(7))
	params := synth.Synthesize(emotion, "bright and driving")

	assert.InDelta(t, 156.0, params.Tempo, 1e-9)
	assert.False(t, params.Key.Minor, "darkness below 0.5 must choose a major key")
	assert.Equal(t, models.TimeSignature{Beats: 4, Unit: 4}, params.TimeSignature)
}

func TestSynthesizeScenarioBIrregularMeter(t *testing.T) {
	emotion := models.EmotionalVector{
		Energy: 0.5, Tension: 0.5, Warmth: 0.5, Complexity: 0.5,
		Darkness: 0.5, Hope: 0.5, Chaos: 0.9, Space: 0.5,
	}
	allowed := map[string]bool{"5/4": true, "7/8": true, "6/8": true, "9/8": true}

	for seed := int64(0); seed < 50; seed++ {
		synth := NewSynthesizer(newTestRand(seed))
		params := synth.Synthesize(emotion, "chaotic")
		assert.True(t, allowed[params.TimeSignature.String()],
			"seed %d produced %s, want an irregular meter", seed, params.TimeSignature)
	}
}

func TestDeriveKeyBranches(t *testing.T) {
	tests := []struct {
		name      string
		emotion   models.EmotionalVector
		wantRoot  string
		wantMinor bool
	}{
		{
			name:      "high tension overrides to chromatic choice",
			emotion:   models.EmotionalVector{Tension: 0.8, Darkness: 0.2},
			wantRoot:  "F#",
			wantMinor: false,
		},
		{
			name:      "high tension and dark goes minor",
			emotion:   models.EmotionalVector{Tension: 0.8, Darkness: 0.8},
			wantRoot:  "F#",
			wantMinor: true,
		},
		{
			name:      "dark without tension selects from minor set",
			emotion:   models.EmotionalVector{Darkness: 0.7, Hope: 0},
			wantRoot:  "A",
			wantMinor: true,
		},
		{
			name:      "bright hopeful selects from major set",
			emotion:   models.EmotionalVector{Darkness: 0.1, Hope: 0},
			wantRoot:  "C",
			wantMinor: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := deriveKey(tt.emotion)
			assert.Equal(t, tt.wantRoot, key.Root)
			assert.Equal(t, tt.wantMinor, key.Minor)
		})
	}
}

func TestDeriveScaleFirstMatchWins(t *testing.T) {
	tests := []struct {
		name    string
		emotion models.EmotionalVector
		wantLen int
		want3rd string // third scale degree distinguishes the modes from C
	}{
		{"complexity wins over darkness", models.EmotionalVector{Complexity: 0.9, Darkness: 0.9}, 7, "D#"},
		{"harmonic minor when dark and tense", models.EmotionalVector{Darkness: 0.7, Tension: 0.6}, 7, "D#"},
		{"natural minor when dark only", models.EmotionalVector{Darkness: 0.7, Tension: 0.2}, 7, "D#"},
		{"mixolydian when warm", models.EmotionalVector{Warmth: 0.7}, 7, "E"},
		{"plain major otherwise", models.EmotionalVector{}, 7, "E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale := deriveScale(tt.emotion, "C")
			require.Len(t, scale, tt.wantLen)
			assert.Equal(t, "C", scale[0])
			assert.Equal(t, tt.want3rd, scale[2])
		})
	}
}

func TestDeriveScaleAlteredVsHarmonicMinor(t *testing.T) {
	altered := deriveScale(models.EmotionalVector{Complexity: 0.9}, "C")
	harmonic := deriveScale(models.EmotionalVector{Darkness: 0.7, Tension: 0.6}, "C")
	assert.NotEqual(t, altered, harmonic)
	assert.Equal(t, "C#", altered[1], "altered scale starts with a flat second")
	assert.Equal(t, "B", harmonic[6], "harmonic minor has a raised seventh")
}

func TestDeriveSynthsVoiceCount(t *testing.T) {
	tests := []struct {
		complexity float64
		want       int
	}{
		{0.1, 1},
		{0.5, 2},
		{0.9, 3},
	}
	for _, tt := range tests {
		voices := deriveSynths(models.EmotionalVector{Complexity: tt.complexity})
		assert.Len(t, voices, tt.want, "complexity %v", tt.complexity)
		assert.Equal(t, "bass", voices[0].Role)
	}
}

func TestDeriveEffectsScaling(t *testing.T) {
	spacious := deriveEffects(models.EmotionalVector{Space: 0.9})
	dry := deriveEffects(models.EmotionalVector{Space: 0.1})
	assert.Greater(t, spacious.Reverb.Wet, dry.Reverb.Wet)
	assert.Greater(t, spacious.Reverb.RoomSize, dry.Reverb.RoomSize)

	warm := deriveEffects(models.EmotionalVector{Warmth: 0.8})
	assert.Equal(t, "lowpass", warm.Filter.Type)
	cold := deriveEffects(models.EmotionalVector{Warmth: 0.2})
	assert.Equal(t, "bandpass", cold.Filter.Type)

	dark := deriveEffects(models.EmotionalVector{Darkness: 0.8})
	assert.Equal(t, -24, dark.Filter.Rolloff)

	tense := deriveEffects(models.EmotionalVector{Tension: 0.8})
	assert.Equal(t, "16n", tense.Delay.Time)
}

func TestMelodyPatternOnlyAboveComplexityGate(t *testing.T) {
	synth := NewSynthesizer(newTestRand(11))
	sparse := synth.Synthesize(models.EmotionalVector{Complexity: 0.2}, "sparse")
	assert.Len(t, sparse.Patterns, 1)

	dense := synth.Synthesize(models.EmotionalVector{Complexity: 0.8}, "dense")
	assert.Len(t, dense.Patterns, 2)
	assert.Equal(t, "melody", dense.Patterns[1].Name)
	assert.GreaterOrEqual(t, dense.Patterns[1].Len(), 4)
}

func TestBassPatternLengthScalesWithComplexity(t *testing.T) {
	synth := NewSynthesizer(newTestRand(13))
	short := synth.Synthesize(models.EmotionalVector{Complexity: 0.2}, "")
	assert.Equal(t, 4, short.Patterns[0].Len())

	long := synth.Synthesize(models.EmotionalVector{Complexity: 0.7}, "")
	assert.Equal(t, 8, long.Patterns[0].Len())
}

func TestDeterministicWithSameSeed(t *testing.T) {
	emotion := models.EmotionalVector{
		Energy: 0.6, Tension: 0.4, Warmth: 0.7, Complexity: 0.6,
		Darkness: 0.3, Hope: 0.5, Chaos: 0.7, Space: 0.4,
	}
	a := NewSynthesizer(newTestRand(99)).Synthesize(emotion, "p")
	b := NewSynthesizer(newTestRand(99)).Synthesize(emotion, "p")
	assert.Equal(t, a, b, "same seed must replay the same parameters")
}
