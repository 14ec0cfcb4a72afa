package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and which optional backends are active
type HealthHandler struct {
	planner string
	store   string
}

// NewHealthHandler creates a HealthHandler. planner is "llm" or "rules",
// store is "memory" or "postgres".
func NewHealthHandler(planner, store string) *HealthHandler {
	return &HealthHandler{planner: planner, store: store}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"planner": h.planner,
		"store":   h.store,
	})
}
