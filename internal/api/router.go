package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

// SetupRouter wires the HTTP API. recorder may be nil.
func SetupRouter(cfg *config.Config, c *composer.Composer, s store.Store, recorder *metrics.Recorder, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	plannerMode := "rules"
	if cfg.PlannerModel != "" {
		plannerMode = "llm"
	}
	storeBackend := "memory"
	if cfg.DatabaseURL != "" {
		storeBackend = "postgres"
	}

	// Health check
	healthHandler := handlers.NewHealthHandler(plannerMode, storeBackend)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, handlers.EngineInfo{
		MaxIterations:      c.MaxIterations(),
		ParallelGeneration: cfg.ParallelGeneration,
		Planner:            plannerMode,
		Store:              storeBackend,
	})
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.Auth(cfg))
	{
		compositionHandler := handlers.NewCompositionHandler(c, s, recorder)
		v1.POST("/compositions", compositionHandler.Create)
		v1.GET("/compositions/:id", compositionHandler.Get)
		v1.POST("/compositions/:id/extend", compositionHandler.Extend)
		v1.GET("/compositions/:id/midi", compositionHandler.MIDI)
		v1.DELETE("/compositions/:id", compositionHandler.Delete)
	}

	return router
}
