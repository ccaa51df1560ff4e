package models

import "fmt"

// Tempo bounds for any generation, before and after mutation
const (
	TempoMin = 40.0
	TempoMax = 200.0
)

// Key is a root pitch class plus a major/minor quality indicator
type Key struct {
	Root  string `json:"root"`  // e.g. "C", "F#"
	Minor bool   `json:"minor"` // true for minor quality
}

// String renders the key the way clients display it ("Cm", "F#")
func (k Key) String() string {
	if k.Minor {
		return k.Root + "m"
	}
	return k.Root
}

// TimeSignature is beats-per-bar over beat-unit
type TimeSignature struct {
	Beats int `json:"beats"`
	Unit  int `json:"unit"`
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.Unit)
}

// IsIrregular reports whether the meter is outside plain 4/4
func (ts TimeSignature) IsIrregular() bool {
	return !(ts.Beats == 4 && ts.Unit == 4)
}

// ReverbSettings, all fields normalized to [0,1]
type ReverbSettings struct {
	RoomSize  float64 `json:"roomSize"`
	Dampening float64 `json:"dampening"`
	Wet       float64 `json:"wet"`
}

// DelaySettings: Time is a subdivision token ("8n", "16n", "4n")
type DelaySettings struct {
	Time     string  `json:"time"`
	Feedback float64 `json:"feedback"`
	Wet      float64 `json:"wet"`
}

// FilterSettings: Cutoff in Hz, Type "lowpass" or "bandpass"
type FilterSettings struct {
	Cutoff  float64 `json:"cutoff"`
	Type    string  `json:"type"`
	Rolloff int     `json:"rolloff"` // -12 or -24 dB/octave
}

// EffectSettings groups the three effect sends
type EffectSettings struct {
	Reverb ReverbSettings `json:"reverb"`
	Delay  DelaySettings  `json:"delay"`
	Filter FilterSettings `json:"filter"`
}

// Envelope is a standard ADSR envelope, times in seconds
type Envelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// SynthVoice describes a single synthesizer voice
type SynthVoice struct {
	Role       string   `json:"role"` // "bass", "lead", "texture"
	Oscillator string   `json:"oscillator"`
	Envelope   Envelope `json:"envelope"`
	Volume     float64  `json:"volume"` // dB, typically negative
}

// NotePattern holds four parallel arrays describing a sequenced line.
// Invariant: the arrays always have equal length.
type NotePattern struct {
	Name       string    `json:"name"`
	Notes      []string  `json:"notes"`      // note names with octave, e.g. "C3"
	Durations  []string  `json:"durations"`  // duration tokens, e.g. "8n"
	Velocities []float64 `json:"velocities"` // [0,1]
	Offsets    []float64 `json:"offsets"`    // timing offsets in seconds
}

// Len returns the pattern step count
func (p NotePattern) Len() int {
	return len(p.Notes)
}

// MusicParameters is the full set of derived musical parameters that the
// playback collaborator renders. Values are treated as immutable once
// attached to a generation; mutation always clones first.
type MusicParameters struct {
	Tempo         float64        `json:"tempo"` // BPM
	Key           Key            `json:"key"`
	Scale         []string       `json:"scale"` // ordered pitch names, len >= 1
	TimeSignature TimeSignature  `json:"timeSignature"`
	Effects       EffectSettings `json:"effects"`
	Synths        []SynthVoice   `json:"synths"`   // len >= 1
	Patterns      []NotePattern  `json:"patterns"` // ordered layers
}

// Clone produces a deep, independent copy
func (m MusicParameters) Clone() MusicParameters {
	out := m
	out.Scale = append([]string(nil), m.Scale...)
	out.Synths = append([]SynthVoice(nil), m.Synths...)
	out.Patterns = make([]NotePattern, len(m.Patterns))
	for i, p := range m.Patterns {
		out.Patterns[i] = NotePattern{
			Name:       p.Name,
			Notes:      append([]string(nil), p.Notes...),
			Durations:  append([]string(nil), p.Durations...),
			Velocities: append([]float64(nil), p.Velocities...),
			Offsets:    append([]float64(nil), p.Offsets...),
		}
	}
	return out
}

// Validate checks the structural invariants that every generation must hold
func (m MusicParameters) Validate() error {
	if m.Tempo < TempoMin || m.Tempo > TempoMax {
		return fmt.Errorf("tempo out of range [%v,%v]: %v", TempoMin, TempoMax, m.Tempo)
	}
	if len(m.Scale) == 0 {
		return fmt.Errorf("scale must not be empty")
	}
	if len(m.Synths) == 0 {
		return fmt.Errorf("at least one synth voice is required")
	}
	if m.TimeSignature.Beats <= 0 || m.TimeSignature.Unit <= 0 {
		return fmt.Errorf("invalid time signature: %s", m.TimeSignature)
	}
	for i, p := range m.Patterns {
		n := len(p.Notes)
		if len(p.Durations) != n || len(p.Velocities) != n || len(p.Offsets) != n {
			return fmt.Errorf("pattern %d (%s): parallel arrays have mismatched lengths", i, p.Name)
		}
	}
	return nil
}
