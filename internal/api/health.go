package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindspacehq/mindspace/internal/store"
)

// HealthHandler reports service health.
type HealthHandler struct {
	repo      store.Repository
	aiEnabled bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, aiEnabled bool) *HealthHandler {
	return &HealthHandler{repo: repo, aiEnabled: aiEnabled}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health reports database connectivity and whether a real model is wired.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ok"
	dbOK := true
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("Database health check failed", "error", err)
		status = http.StatusServiceUnavailable
		state = "degraded"
		dbOK = false
	}

	JSON(w, status, map[string]interface{}{
		"status":     state,
		"database":   dbOK,
		"ai_enabled": h.aiEnabled,
	})
}
