package engine

import (
	"testing"

	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allMutationTypes() []models.MutationType {
	return []models.MutationType{
		models.MutationHarmonic, models.MutationRhythmic, models.MutationTimbral,
		models.MutationStructural, models.MutationTextural, models.MutationRadical,
	}
}

func strategyOf(t models.MutationType, intensity float64) models.MutationStrategy {
	return models.MutationStrategy{
		Type:         t,
		Intensity:    intensity,
		TargetFields: TargetFields(t),
	}
}

func TestApplyNeverMutatesInput(t *testing.T) {
	for _, mt := range allMutationTypes() {
		t.Run(string(mt), func(t *testing.T) {
			original := baseParams()
			snapshot := original.Clone()

			mut := NewMutator(newTestRand(17))
			_ = mut.Apply(original, strategyOf(mt, 0.9), nil)

			assert.Equal(t, snapshot, original, "input must be structurally unchanged")
		})
	}
}

func TestLockingLawForEveryMutationType(t *testing.T) {
	locked := models.LockSet{}
	for _, f := range models.AllMutableFields() {
		locked[f] = true
	}

	for _, mt := range allMutationTypes() {
		t.Run(string(mt), func(t *testing.T) {
			input := baseParams()
			mut := NewMutator(newTestRand(19))
			out := mut.Apply(input, strategyOf(mt, 0.9), locked)
			assert.Equal(t, input, out, "with every field locked, output must equal input")
		})
	}
}

func TestPartialLockPreservesLockedField(t *testing.T) {
	input := baseParams()
	locked := models.LockSet{models.FieldTempo: true}

	mut := NewMutator(newTestRand(23))
	out := mut.Apply(input, strategyOf(models.MutationRhythmic, 0.9), locked)

	assert.Equal(t, input.Tempo, out.Tempo, "locked tempo must survive a rhythmic mutation")
	for _, d := range out.Patterns[0].Durations {
		assert.Contains(t, durationVocab, d, "rewritten durations come from the vocabulary")
	}
}

func TestStructuralScenarioD(t *testing.T) {
	// intensity 0.65 with exactly 2 layers: simplify fires, add does not
	input := baseParams()
	input.Patterns = append(input.Patterns, input.Patterns[0])
	require.Len(t, input.Patterns, 2)

	mut := NewMutator(newTestRand(29))
	out := mut.Apply(input, strategyOf(models.MutationStructural, 0.65), nil)
	assert.Len(t, out.Patterns, 1)
}

func TestStructuralDuplicateBranch(t *testing.T) {
	// intensity above 0.7 with a single layer duplicates the first layer
	input := baseParams()
	require.Len(t, input.Patterns, 1)

	mut := NewMutator(newTestRand(31))
	out := mut.Apply(input, strategyOf(models.MutationStructural, 0.75), nil)
	// one layer: simplify branch can't fire, duplicate does
	require.Len(t, out.Patterns, 2)
	assert.Equal(t, input.Patterns[0].Notes, out.Patterns[1].Notes)
}

func TestStructuralAtMostOneActionFires(t *testing.T) {
	input := baseParams()
	input.Patterns = append(input.Patterns, input.Patterns[0], input.Patterns[0])
	require.Len(t, input.Patterns, 3)

	mut := NewMutator(newTestRand(37))
	out := mut.Apply(input, strategyOf(models.MutationStructural, 0.8), nil)
	assert.Len(t, out.Patterns, 2, "simplify fires and suppresses the add branch")
}

func TestRhythmicClampsTempo(t *testing.T) {
	input := baseParams()
	input.Tempo = models.TempoMax

	for seed := int64(0); seed < 30; seed++ {
		mut := NewMutator(newTestRand(seed))
		out := mut.Apply(input, strategyOf(models.MutationRhythmic, 1.0), nil)
		assert.GreaterOrEqual(t, out.Tempo, models.TempoMin)
		assert.LessOrEqual(t, out.Tempo, models.TempoMax)
	}
}

func TestTimbralRerollsOscillatorsAtHighIntensity(t *testing.T) {
	input := baseParams()
	mut := NewMutator(newTestRand(41))
	out := mut.Apply(input, strategyOf(models.MutationTimbral, 0.9), nil)

	for _, v := range out.Synths {
		assert.Contains(t, []string{"sine", "triangle", "sawtooth", "square"}, v.Oscillator)
		assert.GreaterOrEqual(t, v.Envelope.Attack, envelopeTimeFloor)
		assert.LessOrEqual(t, v.Envelope.Attack, saneAttackMax)
		assert.LessOrEqual(t, v.Envelope.Release, saneReleaseMax)
	}
	assert.LessOrEqual(t, out.Effects.Delay.Feedback, delayFeedbackCeil)
}

func TestTimbralSubtleKeepsOscillator(t *testing.T) {
	input := baseParams()
	mut := NewMutator(newTestRand(43))
	out := mut.Apply(input, strategyOf(models.MutationTimbral, 0.3), nil)
	assert.Equal(t, input.Synths[0].Oscillator, out.Synths[0].Oscillator)
}

func TestTexturalTouchesOnlyEffectWetness(t *testing.T) {
	input := baseParams()
	mut := NewMutator(newTestRand(47))
	out := mut.Apply(input, strategyOf(models.MutationTextural, 0.8), nil)

	assert.Equal(t, input.Patterns, out.Patterns, "textural never changes layer count or content")
	assert.Equal(t, input.Tempo, out.Tempo)
	assert.GreaterOrEqual(t, out.Effects.Reverb.Wet, 0.0)
	assert.LessOrEqual(t, out.Effects.Reverb.Wet, 1.0)
}

func TestRadicalRegeneratesScaleAndTempoOnly(t *testing.T) {
	input := baseParams()
	mut := NewMutator(newTestRand(53))
	out := mut.Apply(input, strategyOf(models.MutationRadical, 1.0), nil)

	assert.GreaterOrEqual(t, len(out.Scale), 5)
	assert.LessOrEqual(t, len(out.Scale), 7)
	assert.GreaterOrEqual(t, out.Tempo, models.TempoMin)
	assert.LessOrEqual(t, out.Tempo, models.TempoMax)

	// everything outside scale and tempo is untouched
	assert.Equal(t, input.Synths, out.Synths)
	assert.Equal(t, input.Patterns, out.Patterns)
	assert.Equal(t, input.Effects, out.Effects)
	assert.Equal(t, input.Key, out.Key)
}

func TestRadicalHonorsLocks(t *testing.T) {
	input := baseParams()
	locked := models.LockSet{models.FieldScale: true}

	mut := NewMutator(newTestRand(59))
	out := mut.Apply(input, strategyOf(models.MutationRadical, 1.0), locked)
	assert.Equal(t, input.Scale, out.Scale)
	assert.NotEqual(t, input.Tempo, out.Tempo)
}

func TestHarmonicSubtleMovesKeyByFifth(t *testing.T) {
	input := baseParams() // C major
	mut := NewMutator(newTestRand(61))
	out := mut.Apply(input, strategyOf(models.MutationHarmonic, 0.3), nil)

	assert.Contains(t, []string{"G", "F"}, out.Key.Root, "subtle key change moves one fifth either way")
	assert.Equal(t, input.Key.Minor, out.Key.Minor, "subtle change keeps the quality")
	// subtle scale change alters exactly one pitch
	diff := 0
	for i := range input.Scale {
		if input.Scale[i] != out.Scale[i] {
			diff++
		}
	}
	assert.Equal(t, 1, diff)
}
