// Package api provides HTTP handlers for the MindSpace API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo      store.Repository
	companion ai.Companion
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, companion ai.Companion) *Handler {
	return &Handler{
		repo:      repo,
		companion: companion,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
