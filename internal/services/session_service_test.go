package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotone-audio/evotone-api/internal/models"
)

func parentGeneration() *models.Generation {
	return &models.Generation{
		ID:     "parent-1",
		Number: 2,
		Params: models.MusicParameters{
			Tempo: 132,
			Key:   models.Key{Root: "E", Minor: true},
			Scale: []string{"E", "F#", "G", "A", "B", "C", "D"},
			TimeSignature: models.TimeSignature{Beats: 4, Unit: 4},
			Synths: []models.SynthVoice{
				{Role: "bass", Oscillator: "triangle", Volume: -8},
			},
			Patterns: []models.NotePattern{
				{
					Name:       "bass",
					Notes:      []string{"E2", "B2", "A2", "E2"},
					Durations:  []string{"4n", "4n", "4n", "4n"},
					Velocities: []float64{0.7, 0.7, 0.7, 0.7},
					Offsets:    []float64{0, 0, 0, 0},
				},
			},
		},
		Emotion: models.EmotionalVector{Darkness: 0.8, Energy: 0.6},
		Locked:  models.LockSet{models.FieldTempo: true, models.FieldScale: true},
	}
}

func TestRestoreLockedFields(t *testing.T) {
	parent := parentGeneration()
	modified := parent.Params.Clone()
	modified.Tempo = 80
	modified.Scale = []string{"C", "D", "E"}
	modified.Key = models.Key{Root: "C", Minor: false}

	restoreLockedFields(&modified, parent)

	assert.InDelta(t, 132.0, modified.Tempo, 0.001)
	assert.Equal(t, parent.Params.Scale, modified.Scale)
	// key is not locked, the model's choice stands
	assert.Equal(t, "C", modified.Key.Root)
}

func TestRestoreLockedFieldsCopiesScale(t *testing.T) {
	parent := parentGeneration()
	modified := parent.Params.Clone()
	modified.Scale = []string{"C"}

	restoreLockedFields(&modified, parent)
	modified.Scale[0] = "Z"

	assert.Equal(t, "E", parent.Params.Scale[0])
}

func TestClonePatternsIndependence(t *testing.T) {
	original := parentGeneration().Params.Patterns
	cloned := clonePatterns(original)

	cloned[0].Notes[0] = "C9"
	cloned[0].Velocities[0] = 0.1

	assert.Equal(t, "E2", original[0].Notes[0])
	assert.InDelta(t, 0.7, original[0].Velocities[0], 0.001)
}

func TestHasChildrenAndCountBranches(t *testing.T) {
	rootID := "root"
	childID := "child"
	session := &models.Session{
		Generations: []models.Generation{
			{ID: rootID, Branch: "main"},
			{ID: childID, ParentID: &rootID, Branch: "main"},
			{ID: "alt", ParentID: &rootID, Branch: "branch-1"},
		},
	}

	assert.True(t, hasChildren(session, rootID))
	assert.False(t, hasChildren(session, childID))
	assert.Equal(t, 1, countBranches(session))
}

func TestSessionToRecordRoundTrip(t *testing.T) {
	session := &models.Session{
		ID:      "s-1",
		Prompt:  "late night rain",
		Emotion: models.EmotionalVector{Space: 0.9, Darkness: 0.5},
		Settings: models.SessionSettings{
			CreativeTemperature: 0.4,
			GenerationsToRun:    5,
			AllowBranching:      true,
		},
		Memory: models.SessionMemory{
			AvoidedPatterns: []string{"harsh noise"},
			StyleWeights:    map[string]float64{"harmonic": 2},
		},
		CurrentID: "g-3",
	}

	rec, err := sessionToRecord(session)
	require.NoError(t, err)
	assert.Equal(t, "s-1", rec.ID)
	assert.Equal(t, "g-3", rec.CurrentID)

	var emotion models.EmotionalVector
	require.NoError(t, json.Unmarshal([]byte(rec.Emotion), &emotion))
	assert.InDelta(t, 0.9, emotion.Space, 0.001)

	var settings models.SessionSettings
	require.NoError(t, json.Unmarshal([]byte(rec.Settings), &settings))
	assert.Equal(t, session.Settings, settings)

	var memory models.SessionMemory
	require.NoError(t, json.Unmarshal([]byte(rec.Memory), &memory))
	assert.Equal(t, []string{"harsh noise"}, memory.AvoidedPatterns)
	assert.InDelta(t, 2.0, memory.StyleWeights["harmonic"], 0.001)
}
