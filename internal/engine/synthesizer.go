// Package engine implements the evolutionary generation core: emotion to
// parameter synthesis, fitness evaluation, mutation strategy selection and
// application, and the generation lifecycle. Every operation is a pure
// in-memory computation; randomness comes from an injected source so tests
// can replay exact sequences.
package engine

import (
	"math/rand"
	"strconv"

	"github.com/evotone-audio/evotone-api/internal/models"
)

const (
	tempoFloor = 60.0
	tempoSpan  = 120.0 // energy 0..1 maps onto 60..180 BPM

	bassPatternShort = 4
	bassPatternLong  = 8

	chaoticStepChance = 0.3
)

var chromatic = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var (
	majorKeyRoots = []string{"C", "G", "D", "A", "E", "F", "Bb", "Eb"}
	minorKeyRoots = []string{"A", "E", "B", "F#", "C#", "D", "G", "C"}
)

// Scale interval tables, semitones from the root
var (
	intervalsMajor         = []int{0, 2, 4, 5, 7, 9, 11}
	intervalsNaturalMinor  = []int{0, 2, 3, 5, 7, 8, 10}
	intervalsHarmonicMinor = []int{0, 2, 3, 5, 7, 8, 11}
	intervalsMixolydian    = []int{0, 2, 4, 5, 7, 9, 10}
	intervalsAltered       = []int{0, 1, 3, 4, 6, 8, 10}
)

var irregularMeters = []models.TimeSignature{
	{Beats: 5, Unit: 4},
	{Beats: 7, Unit: 8},
	{Beats: 6, Unit: 8},
	{Beats: 9, Unit: 8},
}

// durationVocab is the small vocabulary patterns draw step lengths from,
// ordered short to long
var durationVocab = []string{"16n", "8n", "4n", "2n"}

// Synthesizer derives MusicParameters from an emotional vector and prompt.
// Pattern generation consumes the injected random source; everything else
// is deterministic in the inputs.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer around the given random source
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// Synthesize maps an emotional vector onto a structurally valid parameter
// set. It never fails for vectors inside the documented ranges; out-of-range
// derivations are clamped, not errored.
func (s *Synthesizer) Synthesize(emotion models.EmotionalVector, prompt string) models.MusicParameters {
	key := deriveKey(emotion)
	scale := deriveScale(emotion, key.Root)

	params := models.MusicParameters{
		Tempo:         tempoFloor + emotion.Energy*tempoSpan,
		Key:           key,
		Scale:         scale,
		TimeSignature: s.deriveTimeSignature(emotion),
		Effects:       deriveEffects(emotion),
		Synths:        deriveSynths(emotion),
	}
	params.Patterns = s.derivePatterns(emotion, scale)
	return params
}

// deriveKey picks the tonal center. Tension above 0.7 overrides the mood
// sets with a fixed chromatic choice; otherwise hope selects fractionally
// from the major or minor set depending on darkness.
func deriveKey(emotion models.EmotionalVector) models.Key {
	if emotion.Tension > 0.7 {
		return models.Key{Root: "F#", Minor: emotion.Darkness > 0.5}
	}

	roots := majorKeyRoots
	minor := false
	if emotion.Darkness > 0.5 {
		roots = minorKeyRoots
		minor = true
	}

	idx := int(emotion.Hope * float64(len(roots)))
	if idx >= len(roots) {
		idx = len(roots) - 1
	}
	return models.Key{Root: roots[idx], Minor: minor}
}

// deriveScale walks an ordered guard chain; exactly one branch fires
func deriveScale(emotion models.EmotionalVector, root string) []string {
	switch {
	case emotion.Complexity > 0.8:
		return scaleFromIntervals(root, intervalsAltered)
	case emotion.Darkness > 0.6:
		if emotion.Tension > 0.5 {
			return scaleFromIntervals(root, intervalsHarmonicMinor)
		}
		return scaleFromIntervals(root, intervalsNaturalMinor)
	case emotion.Warmth > 0.6:
		return scaleFromIntervals(root, intervalsMixolydian)
	default:
		return scaleFromIntervals(root, intervalsMajor)
	}
}

func scaleFromIntervals(root string, intervals []int) []string {
	rootIdx := 0
	for i, n := range chromatic {
		if n == root {
			rootIdx = i
			break
		}
	}
	// Flat spellings normalize onto sharps for lookup
	if rootIdx == 0 && root != "C" {
		switch root {
		case "Bb":
			rootIdx = 10
		case "Eb":
			rootIdx = 3
		case "Ab":
			rootIdx = 8
		case "Db":
			rootIdx = 1
		}
	}

	scale := make([]string, len(intervals))
	for i, iv := range intervals {
		scale[i] = chromatic[(rootIdx+iv)%len(chromatic)]
	}
	return scale
}

func (s *Synthesizer) deriveTimeSignature(emotion models.EmotionalVector) models.TimeSignature {
	if emotion.Chaos > 0.6 {
		return irregularMeters[s.rng.Intn(len(irregularMeters))]
	}
	return models.TimeSignature{Beats: 4, Unit: 4}
}

func deriveEffects(emotion models.EmotionalVector) models.EffectSettings {
	filterType := "bandpass"
	if emotion.Warmth > 0.5 {
		filterType = "lowpass"
	}
	rolloff := -12
	if emotion.Darkness > 0.5 {
		rolloff = -24
	}

	delayTime := "8n"
	if emotion.Tension > 0.6 {
		delayTime = "16n"
	}

	return models.EffectSettings{
		Reverb: models.ReverbSettings{
			RoomSize:  clamp01(0.3 + emotion.Space*0.6),
			Dampening: clamp01(0.2 + emotion.Warmth*0.6),
			Wet:       clamp01(0.1 + emotion.Space*0.5),
		},
		Delay: models.DelaySettings{
			Time:     delayTime,
			Feedback: clamp01(0.1 + emotion.Complexity*0.5),
			Wet:      clamp01(0.05 + emotion.Space*0.3),
		},
		Filter: models.FilterSettings{
			Cutoff:  400 + emotion.Energy*7600, // Hz
			Type:    filterType,
			Rolloff: rolloff,
		},
	}
}

// deriveSynths emits one to three voices depending on complexity
func deriveSynths(emotion models.EmotionalVector) []models.SynthVoice {
	bassOsc := "triangle"
	if emotion.Warmth > 0.5 {
		bassOsc = "sine"
	}

	synths := []models.SynthVoice{
		{
			Role:       "bass",
			Oscillator: bassOsc,
			Envelope: models.Envelope{
				Attack:  0.02 + emotion.Space*0.3,
				Decay:   0.2,
				Sustain: 0.5,
				Release: 0.4 + (1-emotion.Energy)*1.2,
			},
			Volume: -8,
		},
	}

	if emotion.Complexity > 0.3 {
		leadOsc := "square"
		if emotion.Chaos > 0.5 {
			leadOsc = "sawtooth"
		}
		role := "lead"
		if emotion.Tension > 0.5 {
			role = "fm-lead"
		}
		synths = append(synths, models.SynthVoice{
			Role:       role,
			Oscillator: leadOsc,
			Envelope: models.Envelope{
				Attack:  0.05 + emotion.Space*0.2,
				Decay:   0.15,
				Sustain: 0.3,
				Release: 0.3 + emotion.Space*0.8,
			},
			Volume: -12,
		})
	}

	if emotion.Complexity > 0.6 {
		texOsc := "triangle"
		role := "percussive"
		if emotion.Chaos > 0.7 {
			texOsc = "noise"
			role = "texture"
		}
		synths = append(synths, models.SynthVoice{
			Role:       role,
			Oscillator: texOsc,
			Envelope:   models.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0, Release: 0.1},
			Volume:     -18,
		})
	}
	return synths
}

// bassProgression walks root, fifth, fourth, root as scale-degree indices
var bassProgression = []int{0, 4, 3, 0}

func (s *Synthesizer) derivePatterns(emotion models.EmotionalVector, scale []string) []models.NotePattern {
	patterns := []models.NotePattern{s.deriveBassPattern(emotion, scale)}
	if emotion.Complexity > 0.3 {
		patterns = append(patterns, s.deriveMelodyPattern(emotion, scale))
	}
	return patterns
}

func (s *Synthesizer) deriveBassPattern(emotion models.EmotionalVector, scale []string) models.NotePattern {
	length := bassPatternShort
	if emotion.Complexity > 0.5 {
		length = bassPatternLong
	}

	p := newPattern("bass", length)
	for i := 0; i < length; i++ {
		degree := bassProgression[i%len(bassProgression)]
		if emotion.Chaos > 0.6 && s.rng.Float64() < chaoticStepChance {
			degree = s.rng.Intn(len(scale))
		}
		p.Notes[i] = noteAt(scale, degree, 2)
		p.Durations[i] = s.chooseDuration(emotion)
		p.Velocities[i] = s.chooseVelocity(emotion)
		p.Offsets[i] = s.chooseOffset(emotion, i)
	}
	return p
}

func (s *Synthesizer) deriveMelodyPattern(emotion models.EmotionalVector, scale []string) models.NotePattern {
	length := 4 + int(emotion.Complexity*12)
	octave := 3
	if emotion.Energy > 0.6 {
		octave = 4
	}

	p := newPattern("melody", length)
	pos := len(scale) / 2
	for i := 0; i < length; i++ {
		switch {
		case emotion.Chaos > 0.5:
			pos = s.rng.Intn(len(scale))
		case emotion.Tension > 0.5:
			pos++
			if pos >= len(scale) {
				pos = len(scale) - 1
			}
		default:
			// biased walk, reflecting at the scale boundaries
			if s.rng.Float64() < 0.5 {
				pos--
			} else {
				pos++
			}
			if pos < 0 {
				pos = 1
			}
			if pos >= len(scale) {
				pos = len(scale) - 2
			}
		}
		p.Notes[i] = noteAt(scale, pos, octave)
		p.Durations[i] = s.chooseDuration(emotion)
		p.Velocities[i] = s.chooseVelocity(emotion)
		p.Offsets[i] = s.chooseOffset(emotion, i)
	}
	return p
}

// chooseDuration draws from the vocabulary with energy biasing short and
// space biasing long
func (s *Synthesizer) chooseDuration(emotion models.EmotionalVector) string {
	bias := 1.5 + emotion.Space*1.5 - emotion.Energy*1.5
	idx := int(bias + (s.rng.Float64()-0.5)*2)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(durationVocab) {
		idx = len(durationVocab) - 1
	}
	return durationVocab[idx]
}

func (s *Synthesizer) chooseVelocity(emotion models.EmotionalVector) float64 {
	v := 0.5 + emotion.Energy*0.3 + (s.rng.Float64()-0.5)*emotion.Chaos*0.3
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}

// chooseOffset humanizes warm material and swings odd steps
func (s *Synthesizer) chooseOffset(emotion models.EmotionalVector, step int) float64 {
	offset := 0.0
	if emotion.Warmth > 0.5 {
		offset += (s.rng.Float64() - 0.5) * 0.01
	}
	if emotion.Warmth > 0.6 && step%2 == 1 {
		offset += 0.02
	}
	return offset
}

func newPattern(name string, length int) models.NotePattern {
	return models.NotePattern{
		Name:       name,
		Notes:      make([]string, length),
		Durations:  make([]string, length),
		Velocities: make([]float64, length),
		Offsets:    make([]float64, length),
	}
}

func noteAt(scale []string, degree, octave int) string {
	if degree < 0 {
		degree = 0
	}
	if degree >= len(scale) {
		degree = len(scale) - 1
	}
	return scale[degree] + strconv.Itoa(octave)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
