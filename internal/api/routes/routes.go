package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sherlock-service/sherlock_service/internal/api/handlers"
	"github.com/sherlock-service/sherlock_service/internal/api/middleware"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/di"
	"github.com/sherlock-service/sherlock_service/pkg/tracing"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	if container.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware - order matters for security
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	healthHandler := handlers.NewHealthHandler(container.Health, container.Scorer.Ready, di.Version)
	scoreHandler := handlers.NewScoreHandler(container.Pipeline, container.Logger)

	// Health checks (no auth required)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Decision API
	api := router.Group("/api/v1")
	api.Use(middleware.BearerAuth(container.Secrets))
	{
		api.POST("/transactions/score", scoreHandler.Score)
	}

	return router
}
