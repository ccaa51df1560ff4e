package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/evotone-audio/evotone-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	respondServiceError(c, err)
	return w
}

func TestRespondServiceErrorNotFound(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, performError(services.ErrSessionNotFound).Code)
	assert.Equal(t, http.StatusNotFound, performError(services.ErrGenerationNotFound).Code)
}

func TestRespondServiceErrorBadRequest(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, performError(services.ErrNoCurrentGeneration).Code)
	assert.Equal(t, http.StatusBadRequest, performError(services.ErrBranchingDisabled).Code)
	assert.Equal(t, http.StatusBadRequest,
		performError(errors.New("invalid input: creative temperature out of range")).Code)
}

func TestRespondServiceErrorInternal(t *testing.T) {
	w := performError(errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// internal details must not leak to the client
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCreateSessionRejectsInvalidBody(t *testing.T) {
	handler := NewSessionHandler(nil)
	router := gin.New()
	router.POST("/api/v1/sessions", handler.CreateSession)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
		strings.NewReader(`{"emotion": {"energy": 0.5}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvolveRejectsInvalidBody(t *testing.T) {
	handler := NewSessionHandler(nil)
	router := gin.New()
	router.POST("/api/v1/sessions/:id/evolve", handler.Evolve)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/evolve",
		strings.NewReader(`{"use_ai": "yes"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	handler := NewHealthHandler(nil, "test")
	router := gin.New()
	router.GET("/health", handler.HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "not configured")
}
