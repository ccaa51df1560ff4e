package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGeneration() Generation {
	parent := "parent-id"
	return Generation{
		ID:        "gen-id",
		ParentID:  &parent,
		Number:    3,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Code:      "Tone.Transport.bpm.value = 120.0;",
		Params: MusicParameters{
			Tempo:         120,
			Key:           Key{Root: "A", Minor: true},
			Scale:         []string{"A", "B", "C", "D", "E", "F", "G"},
			TimeSignature: TimeSignature{Beats: 7, Unit: 8},
			Effects: EffectSettings{
				Reverb: ReverbSettings{RoomSize: 0.6, Dampening: 0.4, Wet: 0.3},
				Delay:  DelaySettings{Time: "8n", Feedback: 0.25, Wet: 0.15},
				Filter: FilterSettings{Cutoff: 1800, Type: "lowpass", Rolloff: -24},
			},
			Synths: []SynthVoice{{Role: "bass", Oscillator: "sine", Volume: -8,
				Envelope: Envelope{Attack: 0.05, Decay: 0.2, Sustain: 0.5, Release: 0.8}}},
			Patterns: []NotePattern{{
				Name:       "bass",
				Notes:      []string{"A2", "E2"},
				Durations:  []string{"4n", "8n"},
				Velocities: []float64{0.6, 0.7},
				Offsets:    []float64{0, 0.02},
			}},
		},
		Reasoning: CreativeReasoning{Analysis: "a", Intention: "i", Strategy: "s", Reflection: "r"},
		Fitness:   FitnessScores{EmotionalResonance: 0.7, Coherence: 0.8, Interest: 0.5, Surprise: 0.6, TechnicalQuality: 0.9},
		Prompt:    "night drive",
		Emotion:   EmotionalVector{Energy: 0.4, Darkness: 0.7, Space: 0.6},
		Mutations: []MutationType{MutationHarmonic, MutationTimbral, MutationStructural},
		Locked:    LockSet{FieldKey: true, FieldTempo: true},
		Branch:    "main",
		Tags:      []string{"nocturne"},
	}
}

func TestGenerationRecordRoundTrip(t *testing.T) {
	original := sampleGeneration()

	rec, err := NewGenerationRecord("session-1", original)
	require.NoError(t, err)
	assert.Equal(t, "session-1", rec.SessionID)
	assert.Equal(t, original.ID, rec.ID)
	assert.Equal(t, original.Number, rec.Number)

	restored, err := rec.ToGeneration()
	require.NoError(t, err)
	assert.Equal(t, original, restored, "round-trip must reproduce an equivalent generation")
}

func TestLockSetCloneIsIndependent(t *testing.T) {
	parent := LockSet{FieldKey: true}
	child := parent.Clone()
	child[FieldTempo] = true

	assert.False(t, parent.Contains(FieldTempo))
	assert.True(t, child.Contains(FieldKey))
}

func TestLockSetFieldsCanonicalOrder(t *testing.T) {
	l := LockSet{FieldPatterns: true, FieldTempo: true}
	assert.Equal(t, []MutableField{FieldTempo, FieldPatterns}, l.Fields())
}

func TestMusicParametersCloneIsDeep(t *testing.T) {
	a := sampleGeneration().Params
	b := a.Clone()
	b.Scale[0] = "X"
	b.Patterns[0].Notes[0] = "X9"
	b.Synths[0].Volume = -30

	assert.Equal(t, "A", a.Scale[0])
	assert.Equal(t, "A2", a.Patterns[0].Notes[0])
	assert.Equal(t, -8.0, a.Synths[0].Volume)
}

func TestParseMutableField(t *testing.T) {
	f, ok := ParseMutableField("tempo")
	require.True(t, ok)
	assert.Equal(t, FieldTempo, f)

	_, ok = ParseMutableField("tempos")
	assert.False(t, ok)
}

func TestEmotionalVectorValidate(t *testing.T) {
	assert.NoError(t, EmotionalVector{Energy: 0.5}.Validate())
	assert.Error(t, EmotionalVector{Energy: -0.1}.Validate())
	assert.Error(t, EmotionalVector{Chaos: 1.1}.Validate())
}

func TestSessionLineage(t *testing.T) {
	rootID := "root"
	childID := "child"
	s := Session{
		Generations: []Generation{
			{ID: rootID},
			{ID: childID, ParentID: &rootID, Number: 1},
		},
		CurrentID: childID,
	}
	assert.Equal(t, []string{childID, rootID}, s.Lineage(childID))

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, childID, cur.ID)
}
