package models

import "time"

// FitnessScores are five heuristic proxies for perceived quality, each in
// [0,1]. They are self-assigned, not measured from audio.
type FitnessScores struct {
	EmotionalResonance float64 `json:"emotionalResonance"`
	Coherence          float64 `json:"coherence"`
	Interest           float64 `json:"interest"`
	Surprise           float64 `json:"surprise"`
	TechnicalQuality   float64 `json:"technicalQuality"`
}

// Clamp forces every score back into [0,1]
func (f FitnessScores) Clamp() FitnessScores {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return FitnessScores{
		EmotionalResonance: clamp(f.EmotionalResonance),
		Coherence:          clamp(f.Coherence),
		Interest:           clamp(f.Interest),
		Surprise:           clamp(f.Surprise),
		TechnicalQuality:   clamp(f.TechnicalQuality),
	}
}

// CreativeReasoning is the narrative the engine attaches to each generation
type CreativeReasoning struct {
	Analysis   string `json:"analysis"`
	Intention  string `json:"intention"`
	Strategy   string `json:"strategy"`
	Reflection string `json:"reflection"`
}

// MutationType is the closed set of mutation categories
type MutationType string

const (
	MutationHarmonic   MutationType = "harmonic"
	MutationRhythmic   MutationType = "rhythmic"
	MutationTimbral    MutationType = "timbral"
	MutationStructural MutationType = "structural"
	MutationTextural   MutationType = "textural"
	MutationRadical    MutationType = "radical"
)

// MutableField is a typed enumeration of lockable parameter categories.
// Using typed constants instead of raw strings keeps lock checks typo-safe
// while preserving per-field lock granularity.
type MutableField string

const (
	FieldTempo         MutableField = "tempo"
	FieldKey           MutableField = "key"
	FieldScale         MutableField = "scale"
	FieldTimeSignature MutableField = "timeSignature"
	FieldEffects       MutableField = "effects"
	FieldSynths        MutableField = "synths"
	FieldPatterns      MutableField = "patterns"
)

// AllMutableFields lists every lockable field in canonical order
func AllMutableFields() []MutableField {
	return []MutableField{
		FieldTempo, FieldKey, FieldScale, FieldTimeSignature,
		FieldEffects, FieldSynths, FieldPatterns,
	}
}

// ParseMutableField validates a client-supplied field name
func ParseMutableField(s string) (MutableField, bool) {
	for _, f := range AllMutableFields() {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// LockSet is the set of fields excluded from mutation
type LockSet map[MutableField]bool

// Contains reports whether a field is locked. Nil-safe.
func (l LockSet) Contains(f MutableField) bool {
	return l != nil && l[f]
}

// Clone copies the set so children never alias the parent's locks
func (l LockSet) Clone() LockSet {
	out := make(LockSet, len(l))
	for f, v := range l {
		if v {
			out[f] = true
		}
	}
	return out
}

// Fields returns the locked fields in canonical order (for serialization)
func (l LockSet) Fields() []MutableField {
	var out []MutableField
	for _, f := range AllMutableFields() {
		if l.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// MutationStrategy describes how the next generation should differ from
// its parent: a category, a human-readable description, an intensity in
// [0,1], and the fields the mutation intends to touch.
type MutationStrategy struct {
	Type         MutationType   `json:"type"`
	Description  string         `json:"description"`
	Intensity    float64        `json:"intensity"`
	TargetFields []MutableField `json:"targetFields"`
}

// Generation is one immutable snapshot of musical parameters plus its
// narrative and scores, linked to at most one parent. Evolution always
// produces a new Generation value; nothing mutates an existing one.
type Generation struct {
	ID        string            `json:"id"`
	ParentID  *string           `json:"parentId"` // nil marks a root
	Number    int               `json:"generationNumber"`
	CreatedAt time.Time         `json:"createdAt"`
	Code      string            `json:"code"` // executable rendering for playback
	Params    MusicParameters   `json:"params"`
	Reasoning CreativeReasoning `json:"reasoning"`
	Fitness   FitnessScores     `json:"fitness"`
	Prompt    string            `json:"prompt"`
	Emotion   EmotionalVector   `json:"emotion"`
	Mutations []MutationType    `json:"mutations"` // cumulative lineage tags
	Locked    LockSet           `json:"locked"`
	Branch    string            `json:"branch"`
	Tags      []string          `json:"tags"`
}
