package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evotone-audio/evotone-api/internal/config"
	"github.com/evotone-audio/evotone-api/internal/engine"
	"github.com/evotone-audio/evotone-api/internal/llm"
	"github.com/evotone-audio/evotone-api/internal/logger"
	"github.com/evotone-audio/evotone-api/internal/metrics"
	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/evotone-audio/evotone-api/internal/observability"
	"github.com/evotone-audio/evotone-api/internal/prompt"
)

var (
	// ErrSessionNotFound marks an unknown session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrGenerationNotFound marks an unknown generation id within a session
	ErrGenerationNotFound = errors.New("generation not found")
	// ErrNoCurrentGeneration marks a session whose current pointer is unset
	// or dangling
	ErrNoCurrentGeneration = errors.New("session has no current generation")
	// ErrBranchingDisabled marks a branch attempt on a session created with
	// AllowBranching=false
	ErrBranchingDisabled = errors.New("branching is disabled for this session")
)

// EvolveOptions steer one evolution step
type EvolveOptions struct {
	Feedback string
	UseAI    bool
	Model    string
}

// SessionService owns session lifecycle and serializes evolution per
// session. The engine mutates nothing shared, so one mutex per session id
// is the only coordination needed.
type SessionService struct {
	db  *gorm.DB
	cfg *config.Config

	promptBuilder *prompt.Builder
	cloudwatch    *metrics.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// injection points for tests
	engineFactory   func() *engine.Engine
	providerFactory func(ctx context.Context, cfg *config.Config, model string) (llm.Provider, error)
}

// NewSessionService creates a session service backed by the given database
func NewSessionService(db *gorm.DB, cfg *config.Config) *SessionService {
	cw, err := metrics.NewClient(context.Background(), cfg.Environment)
	if err != nil {
		logger.Warn("CloudWatch metrics unavailable", logger.Fields{"error": err.Error()})
	}
	return &SessionService{
		db:            db,
		cfg:           cfg,
		promptBuilder: prompt.NewPromptBuilder(),
		cloudwatch:    cw,
		locks:         make(map[string]*sync.Mutex),
		engineFactory: func() *engine.Engine {
			return engine.New(rand.New(rand.NewSource(time.Now().UnixNano())))
		},
		providerFactory: llm.NewProvider,
	}
}

// sessionLock returns the mutex guarding one session's evolution
func (s *SessionService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// CreateSession creates a session and its root generation
func (s *SessionService) CreateSession(prompt string, emotion models.EmotionalVector, settings models.SessionSettings) (*models.Session, error) {
	eng := s.engineFactory()
	root, err := eng.CreateRoot(prompt, emotion)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Prompt:    prompt,
		Emotion:   emotion,
		Settings:  settings,
		Memory: models.SessionMemory{
			StyleWeights: make(map[string]float64),
		},
		Generations: []models.Generation{root},
		CurrentID:   root.ID,
	}

	if err := s.persistSession(session); err != nil {
		return nil, err
	}

	logger.Info("Session created", logger.Fields{
		"session_id": session.ID,
		"root_id":    root.ID,
	})
	return session, nil
}

// GetSession loads a full session aggregate
func (s *SessionService) GetSession(sessionID string) (*models.Session, error) {
	return s.loadSession(sessionID)
}

// ListSessions returns session records without their generation lists
func (s *SessionService) ListSessions() ([]models.SessionRecord, error) {
	var records []models.SessionRecord
	if err := s.db.Order("created_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Evolve produces the next generation from the session's current pointer.
// With UseAI set, the remote collaborator's output replaces the local
// engine's; a malformed model response surfaces as an error and the
// generation list stays untouched.
func (s *SessionService) Evolve(ctx context.Context, sessionID string, opts EvolveOptions) (*models.Generation, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	parent, ok := session.Current()
	if !ok {
		return nil, ErrNoCurrentGeneration
	}

	start := time.Now()
	var child models.Generation
	if opts.UseAI {
		child, err = s.evolveWithAI(ctx, session, parent, opts)
	} else {
		eng := s.engineFactory()
		child, err = eng.Evolve(parent, session.Settings.CreativeTemperature, opts.Feedback)
	}
	if err != nil {
		return nil, err
	}

	if err := s.appendGeneration(session, child); err != nil {
		return nil, err
	}

	var mutation models.MutationType
	if len(child.Mutations) > 0 {
		mutation = child.Mutations[len(child.Mutations)-1]
	}
	mode := "local"
	if opts.UseAI {
		mode = "ai"
	}
	logger.LogEvolutionStep(ctx, sessionID, child.Number, string(mutation), time.Since(start), nil)
	if s.cloudwatch != nil {
		s.cloudwatch.RecordEvolutionStep(mode, mutation, time.Since(start), true)
		s.cloudwatch.RecordFitness(child.Fitness)
	}

	return &child, nil
}

// evolveWithAI runs one evolution step through the remote collaborator
func (s *SessionService) evolveWithAI(ctx context.Context, session *models.Session, parent *models.Generation, opts EvolveOptions) (models.Generation, error) {
	model := opts.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	provider, err := s.providerFactory(ctx, s.cfg, model)
	if err != nil {
		return models.Generation{}, err
	}

	systemPrompt, err := s.promptBuilder.BuildSystemPrompt(true)
	if err != nil {
		return models.Generation{}, err
	}

	request := &llm.GenerationRequest{
		Model:        model,
		Prompt:       session.Prompt,
		Emotion:      session.Emotion,
		Parent:       parent,
		Feedback:     opts.Feedback,
		Temperature:  session.Settings.CreativeTemperature,
		SystemPrompt: systemPrompt,
		OutputSchema: &llm.OutputSchema{
			Name:   "generation_output",
			Schema: llm.GetGenerationOutputSchema(),
		},
	}

	trace := observability.GetClient().StartTrace(ctx, "session.evolve", map[string]interface{}{
		"session_id":        session.ID,
		"parent_generation": parent.Number,
		"provider":          provider.Name(),
	})
	defer trace.Finish()
	gen := trace.Generation("llm.generate", map[string]interface{}{"model": model})

	resp, err := provider.Generate(ctx, request)
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		return models.Generation{}, fmt.Errorf("remote collaborator failed: %w", err)
	}
	gen.LogModelUsage(model, session.Prompt, resp.RawOutput,
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
	gen.Finish()
	if s.cloudwatch != nil {
		s.cloudwatch.RecordTokenUsage(model, resp.Usage.TotalTokens,
			resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	params := resp.Output.Params
	// Locked fields keep the parent's values no matter what the model
	// returned
	restoreLockedFields(&params, parent)

	parentID := parent.ID
	mutations := make([]models.MutationType, 0, len(parent.Mutations)+len(resp.Output.Mutations))
	mutations = append(mutations, parent.Mutations...)
	mutations = append(mutations, resp.Output.Mutations...)

	return models.Generation{
		ID:        uuid.New().String(),
		ParentID:  &parentID,
		Number:    parent.Number + 1,
		CreatedAt: time.Now(),
		Code:      engine.RenderCode(params),
		Params:    params,
		Reasoning: resp.Output.Reasoning,
		Fitness:   resp.Output.Fitness,
		Prompt:    session.Prompt,
		Emotion:   session.Emotion,
		Mutations: mutations,
		Locked:    parent.Locked.Clone(),
		Branch:    parent.Branch,
	}, nil
}

// restoreLockedFields copies locked field values back from the parent
func restoreLockedFields(params *models.MusicParameters, parent *models.Generation) {
	for _, field := range parent.Locked.Fields() {
		switch field {
		case models.FieldTempo:
			params.Tempo = parent.Params.Tempo
		case models.FieldKey:
			params.Key = parent.Params.Key
		case models.FieldScale:
			params.Scale = append([]string(nil), parent.Params.Scale...)
		case models.FieldTimeSignature:
			params.TimeSignature = parent.Params.TimeSignature
		case models.FieldEffects:
			params.Effects = parent.Params.Effects
		case models.FieldSynths:
			params.Synths = cloneSynths(parent.Params.Synths)
		case models.FieldPatterns:
			params.Patterns = clonePatterns(parent.Params.Patterns)
		}
	}
}

func cloneSynths(synths []models.SynthVoice) []models.SynthVoice {
	out := make([]models.SynthVoice, len(synths))
	copy(out, synths)
	return out
}

func clonePatterns(patterns []models.NotePattern) []models.NotePattern {
	out := make([]models.NotePattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, models.NotePattern{
			Name:       p.Name,
			Notes:      append([]string(nil), p.Notes...),
			Durations:  append([]string(nil), p.Durations...),
			Velocities: append([]float64(nil), p.Velocities...),
			Offsets:    append([]float64(nil), p.Offsets...),
		})
	}
	return out
}

// RunAutonomous evolves n generations sequentially from the current
// pointer. The context is checked between iterations only; a cancelled
// run returns the generations produced so far alongside the ctx error.
func (s *SessionService) RunAutonomous(ctx context.Context, sessionID string, n int) ([]models.Generation, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid input: generation count must be positive, got %d", n)
	}

	produced := make([]models.Generation, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return produced, err
		}
		child, err := s.Evolve(ctx, sessionID, EvolveOptions{})
		if err != nil {
			return produced, err
		}
		produced = append(produced, *child)
	}
	return produced, nil
}

// SelectGeneration moves the session's current pointer
func (s *SessionService) SelectGeneration(sessionID, generationID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if _, ok := session.Find(generationID); !ok {
		return ErrGenerationNotFound
	}
	session.CurrentID = generationID
	return s.updateSessionRecord(session)
}

// Branch evolves a new child from the given generation and moves the
// current pointer to it. Branching from a generation that already has
// children starts a fresh branch label.
func (s *SessionService) Branch(ctx context.Context, sessionID, fromID string) (*models.Generation, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Settings.AllowBranching {
		return nil, ErrBranchingDisabled
	}
	parent, ok := session.Find(fromID)
	if !ok {
		return nil, ErrGenerationNotFound
	}

	eng := s.engineFactory()
	child, err := eng.Evolve(parent, session.Settings.CreativeTemperature, "")
	if err != nil {
		return nil, err
	}

	if hasChildren(session, fromID) {
		child.Branch = fmt.Sprintf("branch-%d", countBranches(session)+1)
	}

	if err := s.appendGeneration(session, child); err != nil {
		return nil, err
	}
	return &child, nil
}

func hasChildren(session *models.Session, id string) bool {
	for i := range session.Generations {
		if session.Generations[i].ParentID != nil && *session.Generations[i].ParentID == id {
			return true
		}
	}
	return false
}

func countBranches(session *models.Session) int {
	seen := make(map[string]bool)
	for i := range session.Generations {
		if b := session.Generations[i].Branch; b != "main" && b != "" {
			seen[b] = true
		}
	}
	return len(seen)
}

// LockFields locks the named fields on the session's current generation.
// Children inherit the lock set.
func (s *SessionService) LockFields(sessionID string, fields []string) (models.LockSet, error) {
	return s.setLocks(sessionID, fields, true)
}

// UnlockFields unlocks the named fields on the session's current generation
func (s *SessionService) UnlockFields(sessionID string, fields []string) (models.LockSet, error) {
	return s.setLocks(sessionID, fields, false)
}

func (s *SessionService) setLocks(sessionID string, fields []string, locked bool) (models.LockSet, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	current, ok := session.Current()
	if !ok {
		return nil, ErrNoCurrentGeneration
	}

	set := current.Locked.Clone()
	for _, raw := range fields {
		field, ok := models.ParseMutableField(raw)
		if !ok {
			return nil, fmt.Errorf("invalid input: unknown lockable field %q", raw)
		}
		if locked {
			set[field] = true
		} else {
			delete(set, field)
		}
	}
	current.Locked = set

	if err := s.updateGenerationRecord(sessionID, *current); err != nil {
		return nil, err
	}
	return set, nil
}

// RecordFeedback writes a feedback signal into session memory. Positive
// feedback records the generation's emotional brief as a preferred mood
// and its mutation tags as successful; negative feedback records the
// text as an avoided pattern. Memory is write-only: nothing here feeds
// back into synthesis or mutation choice.
func (s *SessionService) RecordFeedback(sessionID, generationID string, positive bool, text string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	gen, ok := session.Find(generationID)
	if !ok {
		return ErrGenerationNotFound
	}

	if positive {
		session.Memory.PreferredMoods = append(session.Memory.PreferredMoods, gen.Emotion)
		session.Memory.SuccessfulMutations = append(session.Memory.SuccessfulMutations, gen.Mutations...)
		for _, m := range gen.Mutations {
			session.Memory.StyleWeights[string(m)]++
		}
	} else if text != "" {
		session.Memory.AvoidedPatterns = append(session.Memory.AvoidedPatterns, text)
	}

	return s.updateSessionRecord(session)
}

// Export returns the full session aggregate for serialization
func (s *SessionService) Export(sessionID string) (*models.Session, error) {
	return s.loadSession(sessionID)
}

// Import persists a previously exported session aggregate. Importing the
// export of a session reproduces an equivalent session under the same id.
func (s *SessionService) Import(session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("invalid input: session id is required")
	}
	if _, ok := session.Find(session.CurrentID); !ok && session.CurrentID != "" {
		return fmt.Errorf("invalid input: current generation %s not in session", session.CurrentID)
	}
	return s.persistSession(session)
}

// --- persistence ---

func (s *SessionService) loadSession(sessionID string) (*models.Session, error) {
	var rec models.SessionRecord
	if err := s.db.First(&rec, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session := &models.Session{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Prompt:    rec.Prompt,
		CurrentID: rec.CurrentID,
	}
	if err := json.Unmarshal([]byte(rec.Emotion), &session.Emotion); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rec.Settings), &session.Settings); err != nil {
		return nil, err
	}
	if rec.Memory != "" {
		if err := json.Unmarshal([]byte(rec.Memory), &session.Memory); err != nil {
			return nil, err
		}
	}
	if session.Memory.StyleWeights == nil {
		session.Memory.StyleWeights = make(map[string]float64)
	}

	var genRecords []models.GenerationRecord
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at asc, number asc").
		Find(&genRecords).Error; err != nil {
		return nil, err
	}
	session.Generations = make([]models.Generation, 0, len(genRecords))
	for _, gr := range genRecords {
		g, err := gr.ToGeneration()
		if err != nil {
			return nil, err
		}
		session.Generations = append(session.Generations, g)
	}
	return session, nil
}

func (s *SessionService) persistSession(session *models.Session) error {
	rec, err := sessionToRecord(session)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		for _, g := range session.Generations {
			gr, err := models.NewGenerationRecord(session.ID, g)
			if err != nil {
				return err
			}
			if err := tx.Save(&gr).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// appendGeneration persists a new child and moves the current pointer to it
func (s *SessionService) appendGeneration(session *models.Session, child models.Generation) error {
	gr, err := models.NewGenerationRecord(session.ID, child)
	if err != nil {
		return err
	}
	session.Generations = append(session.Generations, child)
	session.CurrentID = child.ID
	rec, err := sessionToRecord(session)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&gr).Error; err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
}

func (s *SessionService) updateSessionRecord(session *models.Session) error {
	rec, err := sessionToRecord(session)
	if err != nil {
		return err
	}
	return s.db.Save(&rec).Error
}

func (s *SessionService) updateGenerationRecord(sessionID string, g models.Generation) error {
	gr, err := models.NewGenerationRecord(sessionID, g)
	if err != nil {
		return err
	}
	return s.db.Save(&gr).Error
}

func sessionToRecord(session *models.Session) (models.SessionRecord, error) {
	emotion, err := json.Marshal(session.Emotion)
	if err != nil {
		return models.SessionRecord{}, err
	}
	settings, err := json.Marshal(session.Settings)
	if err != nil {
		return models.SessionRecord{}, err
	}
	memory, err := json.Marshal(session.Memory)
	if err != nil {
		return models.SessionRecord{}, err
	}
	return models.SessionRecord{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		Prompt:    session.Prompt,
		Emotion:   string(emotion),
		Settings:  string(settings),
		Memory:    string(memory),
		CurrentID: session.CurrentID,
	}, nil
}
