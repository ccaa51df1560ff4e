package engine

import (
	"math/rand"

	"github.com/evotone-audio/evotone-api/internal/models"
)

const (
	subtleIntensityGate  = 0.5
	simplifyGate         = 0.6
	duplicateGate        = 0.7
	maxPatternLayers     = 4
	subtleRerollFraction = 0.3

	delayFeedbackCeil = 0.95
	envelopeTimeFloor = 0.001
)

var oscillatorShapes = []string{"sine", "triangle", "sawtooth", "square"}

// circleOfFifths orders roots so a subtle key change moves one step
var circleOfFifths = []string{"C", "G", "D", "A", "E", "B", "F#", "C#", "G#", "D#", "A#", "F"}

// Named modes a dramatic harmonic mutation can land on
var modeTable = [][]int{
	intervalsMajor,
	intervalsNaturalMinor,
	intervalsHarmonicMinor,
	intervalsMixolydian,
	intervalsAltered,
}

// Mutator applies a mutation strategy to a parameter set. Apply never
// modifies its input; it clones first and returns an independent value.
type Mutator struct {
	rng *rand.Rand
}

// NewMutator creates a mutator around the given random source
func NewMutator(rng *rand.Rand) *Mutator {
	return &Mutator{rng: rng}
}

// Apply produces a mutated copy of params. Fields named in locked are left
// untouched for every mutation type. Perturbed numerics are re-clamped to
// their valid ranges.
func (m *Mutator) Apply(params models.MusicParameters, strategy models.MutationStrategy, locked models.LockSet) models.MusicParameters {
	out := params.Clone()

	switch strategy.Type {
	case models.MutationHarmonic:
		m.applyHarmonic(&out, strategy.Intensity, locked)
	case models.MutationRhythmic:
		m.applyRhythmic(&out, strategy.Intensity, locked)
	case models.MutationTimbral:
		m.applyTimbral(&out, strategy.Intensity, locked)
	case models.MutationStructural:
		m.applyStructural(&out, strategy.Intensity, locked)
	case models.MutationTextural:
		m.applyTextural(&out, strategy.Intensity, locked)
	case models.MutationRadical:
		m.applyRadical(&out, locked)
	}
	return out
}

// perturb implements current + uniform(-0.5,0.5) * intensity * scaleFactor
func (m *Mutator) perturb(v, intensity, scaleFactor float64) float64 {
	return v + (m.rng.Float64()-0.5)*intensity*scaleFactor
}

func (m *Mutator) applyHarmonic(p *models.MusicParameters, intensity float64, locked models.LockSet) {
	if !locked.Contains(models.FieldScale) {
		if intensity <= subtleIntensityGate {
			// subtle: alter a single pitch chromatically
			if len(p.Scale) > 0 {
				idx := m.rng.Intn(len(p.Scale))
				p.Scale[idx] = shiftPitch(p.Scale[idx], 1-2*m.rng.Intn(2))
			}
		} else {
			// dramatic: switch to a different named mode
			p.Scale = scaleFromIntervals(p.Key.Root, modeTable[m.rng.Intn(len(modeTable))])
		}
	}

	if !locked.Contains(models.FieldKey) {
		if intensity <= subtleIntensityGate {
			p.Key.Root = fifthAway(p.Key.Root, m.rng)
		} else {
			p.Key = models.Key{
				Root:  chromatic[m.rng.Intn(len(chromatic))],
				Minor: m.rng.Float64() < 0.5,
			}
		}
	}
}

func (m *Mutator) applyRhythmic(p *models.MusicParameters, intensity float64, locked models.LockSet) {
	if !locked.Contains(models.FieldTempo) {
		p.Tempo = clampRange(m.perturb(p.Tempo, intensity, 60), models.TempoMin, models.TempoMax)
	}

	if !locked.Contains(models.FieldPatterns) {
		for pi := range p.Patterns {
			for si := range p.Patterns[pi].Durations {
				if intensity > subtleIntensityGate || m.rng.Float64() < subtleRerollFraction {
					p.Patterns[pi].Durations[si] = durationVocab[m.rng.Intn(len(durationVocab))]
				}
			}
		}
	}
}

func (m *Mutator) applyTimbral(p *models.MusicParameters, intensity float64, locked models.LockSet) {
	if !locked.Contains(models.FieldSynths) {
		for i := range p.Synths {
			if intensity > subtleIntensityGate {
				p.Synths[i].Oscillator = oscillatorShapes[m.rng.Intn(len(oscillatorShapes))]
			}
			env := &p.Synths[i].Envelope
			env.Attack = clampRange(m.perturb(env.Attack, intensity, 0.2), envelopeTimeFloor, saneAttackMax)
			env.Release = clampRange(m.perturb(env.Release, intensity, 0.5), envelopeTimeFloor, saneReleaseMax)
		}
	}

	if !locked.Contains(models.FieldEffects) {
		p.Effects.Reverb.RoomSize = clamp01(m.perturb(p.Effects.Reverb.RoomSize, intensity, 0.4))
		p.Effects.Delay.Feedback = clampRange(m.perturb(p.Effects.Delay.Feedback, intensity, 0.4), 0, delayFeedbackCeil)
	}
}

// applyStructural fires at most one of simplify / duplicate per call
func (m *Mutator) applyStructural(p *models.MusicParameters, intensity float64, locked models.LockSet) {
	if locked.Contains(models.FieldPatterns) {
		return
	}
	if intensity > simplifyGate && len(p.Patterns) > 1 {
		p.Patterns = p.Patterns[:len(p.Patterns)-1]
	} else if intensity > duplicateGate && len(p.Patterns) < maxPatternLayers {
		dup := p.Patterns[0]
		clone := models.NotePattern{
			Name:       dup.Name + "-double",
			Notes:      append([]string(nil), dup.Notes...),
			Durations:  append([]string(nil), dup.Durations...),
			Velocities: append([]float64(nil), dup.Velocities...),
			Offsets:    append([]float64(nil), dup.Offsets...),
		}
		p.Patterns = append(p.Patterns, clone)
	}
}

func (m *Mutator) applyTextural(p *models.MusicParameters, intensity float64, locked models.LockSet) {
	if locked.Contains(models.FieldEffects) {
		return
	}
	p.Effects.Reverb.Wet = clamp01(m.perturb(p.Effects.Reverb.Wet, intensity, 0.3))
	p.Effects.Delay.Wet = clamp01(m.perturb(p.Effects.Delay.Wet, intensity, 0.3))
}

// applyRadical regenerates scale and tempo from scratch; every other
// category's transform is skipped
func (m *Mutator) applyRadical(p *models.MusicParameters, locked models.LockSet) {
	if !locked.Contains(models.FieldScale) {
		length := 5 + m.rng.Intn(3) // 5..7 pitches
		scale := make([]string, 0, length)
		step := m.rng.Intn(len(chromatic))
		for i := 0; i < length; i++ {
			scale = append(scale, chromatic[step%len(chromatic)])
			step += 1 + m.rng.Intn(3)
		}
		p.Scale = scale
	}
	if !locked.Contains(models.FieldTempo) {
		p.Tempo = models.TempoMin + m.rng.Float64()*(models.TempoMax-models.TempoMin)
	}
}

func shiftPitch(note string, semitones int) string {
	for i, n := range chromatic {
		if n == note {
			idx := (i + semitones + len(chromatic)) % len(chromatic)
			return chromatic[idx]
		}
	}
	return note
}

// fifthAway moves one step on the circle of fifths, direction random,
// keeping the same major/minor quality
func fifthAway(root string, rng *rand.Rand) string {
	for i, n := range circleOfFifths {
		if n == root {
			step := 1
			if rng.Float64() < 0.5 {
				step = -1
			}
			idx := (i + step + len(circleOfFifths)) % len(circleOfFifths)
			return circleOfFifths[idx]
		}
	}
	return circleOfFifths[rng.Intn(len(circleOfFifths))]
}
