package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/evotone-audio/evotone-api/internal/llm"
	"github.com/evotone-audio/evotone-api/internal/logger"
	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/evotone-audio/evotone-api/internal/services"
)

const defaultAutonomousCount = 5

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type CreateSessionRequest struct {
	Prompt   string                 `json:"prompt" binding:"required"`
	Emotion  models.EmotionalVector `json:"emotion" binding:"required"`
	Settings models.SessionSettings `json:"settings"`
}

// CreateSession creates a session and returns it with its root generation
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.CreateSession(req.Prompt, req.Emotion, req.Settings)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the full session aggregate
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListSessions returns session summaries without generation lists
func (h *SessionHandler) ListSessions(c *gin.Context) {
	records, err := h.sessions.ListSessions()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": records})
}

type EvolveRequest struct {
	Feedback string `json:"feedback"`
	UseAI    bool   `json:"use_ai"`
	Model    string `json:"model"`
}

// Evolve produces the next generation from the session's current pointer
func (h *SessionHandler) Evolve(c *gin.Context) {
	var req EvolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	child, err := h.sessions.Evolve(c.Request.Context(), c.Param("id"), services.EvolveOptions{
		Feedback: req.Feedback,
		UseAI:    req.UseAI,
		Model:    req.Model,
	})
	if err != nil {
		if errors.Is(err, llm.ErrMalformedOutput) {
			logger.Error("Collaborator returned malformed output", err, logger.WithContext(c))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, child)
}

type AutonomousRequest struct {
	Count int `json:"count"`
}

// RunAutonomous evolves several generations sequentially
func (h *SessionHandler) RunAutonomous(c *gin.Context) {
	var req AutonomousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = defaultAutonomousCount
	}

	produced, err := h.sessions.RunAutonomous(c.Request.Context(), c.Param("id"), req.Count)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"generations": produced})
}

type SelectRequest struct {
	GenerationID string `json:"generation_id" binding:"required"`
	Branch       bool   `json:"branch"`
}

// SelectGeneration moves the current pointer; with branch set it also
// evolves a new child on a fresh branch label
func (h *SessionHandler) SelectGeneration(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Branch {
		child, err := h.sessions.Branch(c.Request.Context(), c.Param("id"), req.GenerationID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, child)
		return
	}

	if err := h.sessions.SelectGeneration(c.Param("id"), req.GenerationID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_id": req.GenerationID})
}

type LocksRequest struct {
	Lock   []string `json:"lock"`
	Unlock []string `json:"unlock"`
}

// UpdateLocks locks and unlocks fields on the current generation
func (h *SessionHandler) UpdateLocks(c *gin.Context) {
	var req LocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := c.Param("id")
	var set models.LockSet
	var err error
	if len(req.Lock) > 0 {
		set, err = h.sessions.LockFields(sessionID, req.Lock)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if len(req.Unlock) > 0 {
		set, err = h.sessions.UnlockFields(sessionID, req.Unlock)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"locked": set.Fields()})
}

type FeedbackRequest struct {
	GenerationID string `json:"generation_id" binding:"required"`
	Positive     bool   `json:"positive"`
	Text         string `json:"text"`
}

// RecordFeedback writes a feedback signal into session memory
func (h *SessionHandler) RecordFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.RecordFeedback(c.Param("id"), req.GenerationID, req.Positive, req.Text); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrGenerationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoCurrentGeneration),
		errors.Is(err, services.ErrBranchingDisabled),
		strings.Contains(err.Error(), "invalid input"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
