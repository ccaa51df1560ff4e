package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// SessionRecord is the persisted form of a Session. The nested aggregate
// (settings, memory) is stored as a JSON column; generations live in their
// own table so lineage queries don't deserialize the whole session.
type SessionRecord struct {
	ID        string         `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    string         `gorm:"index" json:"user_id"`
	Prompt    string         `gorm:"type:text;not null" json:"prompt"`
	Emotion   string         `gorm:"type:jsonb;not null" json:"-"`
	Settings  string         `gorm:"type:jsonb;not null" json:"-"`
	Memory    string         `gorm:"type:jsonb" json:"-"`
	CurrentID string         `json:"current_id"`
}

// GenerationRecord is the persisted form of a Generation. Params, reasoning,
// fitness and the emotional vector are JSON columns; identity and lineage
// fields are real columns so the tree can be walked in SQL.
type GenerationRecord struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SessionID string    `gorm:"not null;index" json:"session_id"`
	ParentID  *string   `gorm:"index" json:"parent_id"`
	Number    int       `gorm:"not null" json:"generation_number"`
	Branch    string    `json:"branch"`
	Prompt    string    `gorm:"type:text" json:"prompt"`
	Code      string    `gorm:"type:text" json:"code"`
	Params    string    `gorm:"type:jsonb;not null" json:"-"`
	Reasoning string    `gorm:"type:jsonb" json:"-"`
	Fitness   string    `gorm:"type:jsonb" json:"-"`
	Emotion   string    `gorm:"type:jsonb" json:"-"`
	Mutations string    `gorm:"type:jsonb" json:"-"`
	Locked    string    `gorm:"type:jsonb" json:"-"`
	Tags      string    `gorm:"type:jsonb" json:"-"`
}

// NewGenerationRecord serializes a Generation for storage
func NewGenerationRecord(sessionID string, g Generation) (GenerationRecord, error) {
	rec := GenerationRecord{
		ID:        g.ID,
		CreatedAt: g.CreatedAt,
		SessionID: sessionID,
		ParentID:  g.ParentID,
		Number:    g.Number,
		Branch:    g.Branch,
		Prompt:    g.Prompt,
		Code:      g.Code,
	}

	fields := []struct {
		dst *string
		src any
	}{
		{&rec.Params, g.Params},
		{&rec.Reasoning, g.Reasoning},
		{&rec.Fitness, g.Fitness},
		{&rec.Emotion, g.Emotion},
		{&rec.Mutations, g.Mutations},
		{&rec.Locked, g.Locked.Fields()},
		{&rec.Tags, g.Tags},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return GenerationRecord{}, err
		}
		*f.dst = string(b)
	}
	return rec, nil
}

// ToGeneration deserializes the record back into the in-memory aggregate.
// Round-trip through the record must reproduce an equivalent Generation.
func (r GenerationRecord) ToGeneration() (Generation, error) {
	g := Generation{
		ID:        r.ID,
		ParentID:  r.ParentID,
		Number:    r.Number,
		CreatedAt: r.CreatedAt,
		Code:      r.Code,
		Prompt:    r.Prompt,
		Branch:    r.Branch,
		Locked:    LockSet{},
	}

	var lockedFields []MutableField
	fields := []struct {
		src string
		dst any
	}{
		{r.Params, &g.Params},
		{r.Reasoning, &g.Reasoning},
		{r.Fitness, &g.Fitness},
		{r.Emotion, &g.Emotion},
		{r.Mutations, &g.Mutations},
		{r.Locked, &lockedFields},
		{r.Tags, &g.Tags},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return Generation{}, err
		}
	}
	for _, f := range lockedFields {
		g.Locked[f] = true
	}
	return g, nil
}
