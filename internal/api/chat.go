package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/history"
)

// ChatHandler handles AI companion endpoints.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers companion routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/opening-prompt", h.OpeningPrompt)
		r.Post("/insights/unified", h.UnifiedInsights)
	})
}

type chatRequest struct {
	Messages       []ai.Turn `json:"messages"`
	UserID         string    `json:"user_id"`
	ContextSummary string    `json:"context_summary,omitempty"`
}

type chatResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat returns the companion's reply to the conversation so far. Long
// conversations are split: older turns are condensed into a context summary
// and only the recent window reaches the model.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		Error(w, http.StatusBadRequest, "messages cannot be empty")
		return
	}

	ctx := r.Context()
	turns := req.Messages
	summary := req.ContextSummary

	if len(turns) > history.MaxContextMessages {
		old, recent := history.Split(turns, history.MaxContextMessages)
		condensed, err := h.companion.Summarize(ctx, old)
		if err != nil {
			// A failed summary degrades to a plain truncation.
			slog.Warn("Failed to summarize older history", "error", err)
		} else if condensed != "" {
			summary = condensed
		}
		turns = recent
	}

	reply, err := h.companion.Chat(ctx, turns, ai.ChatOptions{ContextSummary: summary})
	if err != nil {
		slog.Error("Companion chat failed", "error", err, "user_id", req.UserID)
		Error(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	JSON(w, http.StatusOK, chatResponse{Message: reply, Timestamp: time.Now().UTC()})
}

// OpeningPrompt returns the companion's fixed conversation opener.
func (h *ChatHandler) OpeningPrompt(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"message": ai.OpeningPrompt})
}

// UnifiedInsights generates the combined word-cloud and constellation
// analysis. Requires a real model; the mock companion cannot serve it.
func (h *ChatHandler) UnifiedInsights(w http.ResponseWriter, r *http.Request) {
	if !h.companion.CanGenerateInsights() {
		Error(w, http.StatusServiceUnavailable, "insights require an AI-enabled server")
		return
	}

	var req ai.InsightsRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		Error(w, http.StatusBadRequest, "entries cannot be empty")
		return
	}

	insights, err := h.companion.GenerateInsights(r.Context(), req)
	if err != nil {
		slog.Error("Failed to generate insights", "error", err)
		Error(w, http.StatusInternalServerError, "failed to generate insights")
		return
	}
	JSON(w, http.StatusOK, insights)
}
