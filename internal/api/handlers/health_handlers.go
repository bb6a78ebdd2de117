package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sherlock-service/sherlock_service/pkg/health"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker     *health.HealthChecker
	modelLoaded func() bool
	version     string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *health.HealthChecker, modelLoaded func() bool, version string) *HealthHandler {
	return &HealthHandler{
		checker:     checker,
		modelLoaded: modelLoaded,
		version:     version,
	}
}

var startTime = time.Now()

// Health performs comprehensive health checks
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, checks := h.checker.Check(ctx)

	response := health.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Ready checks if the application is ready to serve traffic. The model is
// reported but never gates readiness since the heuristic fallback keeps the
// decision path available.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, checks := h.checker.Check(ctx)
	ready := status != health.StatusUnhealthy

	readyStatus := "ready"
	if !ready {
		readyStatus = "not_ready"
	}

	response := map[string]interface{}{
		"status":       readyStatus,
		"timestamp":    time.Now(),
		"model_loaded": h.modelLoaded(),
		"checks":       checks,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Live checks if the application is alive
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
	})
}
