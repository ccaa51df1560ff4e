package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/evotone-audio/evotone-api/internal/api/handlers"
	apimiddleware "github.com/evotone-audio/evotone-api/internal/api/middleware"
	"github.com/evotone-audio/evotone-api/internal/config"
	"github.com/evotone-audio/evotone-api/internal/services"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db, version)
	router.GET("/health", healthHandler.HealthCheck)

	sessionService := services.NewSessionService(db, cfg)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	exportHandler := handlers.NewExportHandler(sessionService)

	v1 := router.Group("/api/v1")
	switch cfg.AuthMode {
	case "gateway":
		v1.Use(apimiddleware.GatewayAuth())
	case "jwt":
		v1.Use(apimiddleware.JWTAuth(cfg))
	default:
		v1.Use(apimiddleware.NoAuth())
	}
	{
		v1.POST("/sessions", sessionHandler.CreateSession)
		v1.GET("/sessions", sessionHandler.ListSessions)
		v1.GET("/sessions/:id", sessionHandler.GetSession)
		v1.POST("/sessions/:id/evolve", sessionHandler.Evolve)
		v1.POST("/sessions/:id/autonomous", sessionHandler.RunAutonomous)
		v1.POST("/sessions/:id/select", sessionHandler.SelectGeneration)
		v1.POST("/sessions/:id/locks", sessionHandler.UpdateLocks)
		v1.POST("/sessions/:id/feedback", sessionHandler.RecordFeedback)
		v1.GET("/sessions/:id/export", exportHandler.Export)
		v1.POST("/sessions/import", exportHandler.Import)
		v1.GET("/sessions/:id/generations/:gid/code", exportHandler.GetGenerationCode)
	}

	return router
}
