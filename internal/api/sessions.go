package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/identity"
	"github.com/mindspacehq/mindspace/internal/store"
)

// SessionHandler handles journal session endpoints.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers session and migration routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{sessionID}", h.GetSession)
		r.Put("/sessions/{sessionID}/messages", h.SaveMessages)
		r.Delete("/sessions/{sessionID}", h.DeleteSession)
		r.Post("/migrate", h.Migrate)
	})
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	ID     string `json:"id,omitempty"`
}

type saveMessagesRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type migrateRequest struct {
	UserID   string           `json:"user_id"`
	Sessions []domain.Session `json:"sessions"`
}

// ListSessions returns the user's sessions ordered by recency.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	sessions, err := h.repo.ListSessions(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	JSON(w, http.StatusOK, sessions)
}

// CreateSession creates a new journal session. Clients may supply their own
// session id so locally-created entries keep their identity server-side.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = identity.UserIDFromContext(r.Context())
	}

	session, err := h.repo.CreateSession(r.Context(), userID, req.Title, req.ID)
	if err != nil {
		slog.Error("Failed to create session", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	slog.Info("Session created", "session_id", session.ID, "user_id", userID)
	JSON(w, http.StatusCreated, session)
}

// GetSession returns one session with its full message history.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.repo.GetSession(r.Context(), sessionID, userID)
	if errors.Is(err, store.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to get session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	JSON(w, http.StatusOK, session)
}

// SaveMessages replaces the session's full message list and returns the
// refreshed session, its title re-derived from the first user message.
func (h *SessionHandler) SaveMessages(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req saveMessagesRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.repo.ReplaceMessages(r.Context(), sessionID, userID, req.Messages)
	if errors.Is(err, store.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to save messages", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to save messages")
		return
	}
	JSON(w, http.StatusOK, session)
}

// DeleteSession removes a session and its messages.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	err := h.repo.DeleteSession(r.Context(), sessionID, userID)
	if errors.Is(err, store.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to delete session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	slog.Info("Session deleted", "session_id", sessionID, "user_id", userID)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Migrate bulk-imports locally-stored sessions. Sessions whose id already
// exists for the user are skipped, so a retried batch cannot duplicate data.
func (h *SessionHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = identity.UserIDFromContext(r.Context())
	}

	imported, skipped, err := h.repo.ImportSessions(r.Context(), userID, req.Sessions)
	if err != nil {
		slog.Error("Failed to import sessions", "error", err, "user_id", userID,
			"imported", imported, "skipped", skipped)
		Error(w, http.StatusInternalServerError, "failed to import sessions")
		return
	}

	slog.Info("Sessions imported", "user_id", userID, "imported", imported, "skipped", skipped)
	JSON(w, http.StatusOK, map[string]int{"imported": imported, "skipped": skipped})
}
