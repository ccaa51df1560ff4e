package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evotone-audio/evotone-api/internal/models"
	"github.com/evotone-audio/evotone-api/internal/services"
)

type ExportHandler struct {
	sessions *services.SessionService
}

func NewExportHandler(sessions *services.SessionService) *ExportHandler {
	return &ExportHandler{sessions: sessions}
}

// Export returns the serialized session aggregate
func (h *ExportHandler) Export(c *gin.Context) {
	session, err := h.sessions.Export(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Import restores a previously exported session
func (h *ExportHandler) Import(c *gin.Context) {
	var session models.Session
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Import(&session); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": session.ID})
}

// GetGenerationCode returns the playable code snippet for one generation
func (h *ExportHandler) GetGenerationCode(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	gen, ok := session.Find(c.Param("gid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrGenerationNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     gen.ID,
		"number": gen.Number,
		"code":   gen.Code,
		"params": gen.Params,
	})
}
