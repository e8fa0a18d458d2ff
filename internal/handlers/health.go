package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is anything that can report its own health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports the state of the database and caches.
type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// Health answers 200 when every dependency responds, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = "unavailable"
			continue
		}
		deps[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{"status": overall, "dependencies": deps})
}
