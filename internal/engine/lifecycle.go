package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNilParent is a programmer error: evolve needs a materialized parent
	ErrNilParent = errors.New("evolve requires a non-nil parent generation")
)

// Engine orchestrates the synthesize → evaluate → select → mutate pipeline.
// It is stateless between calls apart from the injected random source, so a
// fresh instance per request is cheap and callers own serialization.
type Engine struct {
	rng   *rand.Rand
	synth *Synthesizer
	mut   *Mutator
	now   func() time.Time
}

// New creates an engine around the given random source
func New(rng *rand.Rand) *Engine {
	return &Engine{
		rng:   rng,
		synth: NewSynthesizer(rng),
		mut:   NewMutator(rng),
		now:   time.Now,
	}
}

// CreateRoot builds Generation 0 for a fresh session: synthesize parameters
// from the emotional vector, score them, and attach reasoning narrative.
func (e *Engine) CreateRoot(prompt string, emotion models.EmotionalVector) (models.Generation, error) {
	if err := emotion.Validate(); err != nil {
		return models.Generation{}, fmt.Errorf("invalid input: %w", err)
	}

	params := e.synth.Synthesize(emotion, prompt)
	fitness := Evaluate(params, emotion)

	return models.Generation{
		ID:        uuid.New().String(),
		ParentID:  nil,
		Number:    0,
		CreatedAt: e.now(),
		Code:      RenderCode(params),
		Params:    params,
		Reasoning: rootReasoning(emotion, prompt, params),
		Fitness:   fitness,
		Prompt:    prompt,
		Emotion:   emotion,
		Mutations: []models.MutationType{},
		Locked:    models.LockSet{},
		Branch:    "main",
	}, nil
}

// Evolve derives a child generation from parent: pick a strategy, mutate a
// clone of the parent's parameters, re-score, and link lineage. The parent
// value is never modified.
func (e *Engine) Evolve(parent *models.Generation, temperature float64, feedback string) (models.Generation, error) {
	if parent == nil {
		return models.Generation{}, ErrNilParent
	}
	if temperature < 0 || temperature > 1 {
		return models.Generation{}, fmt.Errorf("invalid input: creative temperature out of range: %v", temperature)
	}

	strategy := SelectStrategy(parent.Fitness, temperature, feedback)
	params := e.mut.Apply(parent.Params, strategy, parent.Locked)
	fitness := Evaluate(params, parent.Emotion)

	parentID := parent.ID
	mutations := make([]models.MutationType, 0, len(parent.Mutations)+1)
	mutations = append(mutations, parent.Mutations...)
	mutations = append(mutations, strategy.Type)

	return models.Generation{
		ID:        uuid.New().String(),
		ParentID:  &parentID,
		Number:    parent.Number + 1,
		CreatedAt: e.now(),
		Code:      RenderCode(params),
		Params:    params,
		Reasoning: evolveReasoning(parent.Fitness, strategy, feedback),
		Fitness:   fitness,
		Prompt:    parent.Prompt,
		Emotion:   parent.Emotion,
		Mutations: mutations,
		Locked:    parent.Locked.Clone(),
		Branch:    parent.Branch,
	}, nil
}
