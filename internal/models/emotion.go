package models

import "fmt"

// EmotionalVector is the 8-dimensional mood descriptor that drives every
// parameter derivation. All dimensions are normalized to [0,1].
type EmotionalVector struct {
	Energy     float64 `json:"energy"`
	Tension    float64 `json:"tension"`
	Warmth     float64 `json:"warmth"`
	Complexity float64 `json:"complexity"`
	Darkness   float64 `json:"darkness"`
	Hope       float64 `json:"hope"`
	Chaos      float64 `json:"chaos"`
	Space      float64 `json:"space"`
}

// Validate checks that every dimension is inside [0,1]
func (e EmotionalVector) Validate() error {
	dims := map[string]float64{
		"energy":     e.Energy,
		"tension":    e.Tension,
		"warmth":     e.Warmth,
		"complexity": e.Complexity,
		"darkness":   e.Darkness,
		"hope":       e.Hope,
		"chaos":      e.Chaos,
		"space":      e.Space,
	}
	for name, v := range dims {
		if v < 0 || v > 1 {
			return fmt.Errorf("emotional vector dimension %q out of range: %v", name, v)
		}
	}
	return nil
}

// Dominant returns the dimension names whose value exceeds the threshold,
// in a fixed order so reasoning text is stable for identical inputs.
func (e EmotionalVector) Dominant(threshold float64) []string {
	ordered := []struct {
		name  string
		value float64
	}{
		{"energy", e.Energy},
		{"tension", e.Tension},
		{"warmth", e.Warmth},
		{"complexity", e.Complexity},
		{"darkness", e.Darkness},
		{"hope", e.Hope},
		{"chaos", e.Chaos},
		{"space", e.Space},
	}

	var dominant []string
	for _, d := range ordered {
		if d.value > threshold {
			dominant = append(dominant, d.name)
		}
	}
	return dominant
}
