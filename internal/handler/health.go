package handler

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		checks: checks,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": c.Name + ": " + err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
