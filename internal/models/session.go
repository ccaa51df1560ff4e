package models

import "time"

// SessionSettings are the client-tunable knobs of an evolution session.
// Only CreativeTemperature is consumed by the core engine; the rest steer
// the session service loop.
type SessionSettings struct {
	AutonomyLevel       float64 `json:"autonomyLevel"`
	GenerationsToRun    int     `json:"generationsToRun"`
	CreativeTemperature float64 `json:"creativeTemperature"`
	AllowBranching      bool    `json:"allowBranching"`
}

// SessionMemory accumulates feedback signals. It is written by feedback
// recording but never read back to influence synthesis or mutation choice.
type SessionMemory struct {
	PreferredMoods      []EmotionalVector  `json:"preferredMoods"`
	SuccessfulMutations []MutationType     `json:"successfulMutations"`
	AvoidedPatterns     []string           `json:"avoidedPatterns"`
	StyleWeights        map[string]float64 `json:"styleWeights"`
}

// Session owns an ordered list of generations (insertion order, not tree
// order) and the current-generation pointer. Generations form a forest:
// each has at most one parent, parents may have several children.
type Session struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	Prompt      string          `json:"prompt"`
	Emotion     EmotionalVector `json:"emotion"`
	Settings    SessionSettings `json:"settings"`
	Memory      SessionMemory   `json:"memory"`
	Generations []Generation    `json:"generations"`
	CurrentID   string          `json:"currentId"`
}

// Current returns the generation the current pointer refers to
func (s *Session) Current() (*Generation, bool) {
	return s.Find(s.CurrentID)
}

// Find looks a generation up by id
func (s *Session) Find(id string) (*Generation, bool) {
	for i := range s.Generations {
		if s.Generations[i].ID == id {
			return &s.Generations[i], true
		}
	}
	return nil, false
}

// Lineage resolves the parent chain from a generation back to its root,
// returning ids starting at the generation itself
func (s *Session) Lineage(id string) []string {
	var chain []string
	cur, ok := s.Find(id)
	for ok {
		chain = append(chain, cur.ID)
		if cur.ParentID == nil {
			break
		}
		cur, ok = s.Find(*cur.ParentID)
	}
	return chain
}
