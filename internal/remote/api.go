package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/domain"
)

// APIClient talks to the MindSpace HTTP API. Besides the SessionClient
// contract it carries the batch-import call used by migration and the AI
// endpoints (chat, opening prompt, insights), which are served by the API
// regardless of which storage backend is active.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient creates a client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api").
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
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

type chatRequest struct {
	Messages       []ai.Turn `json:"messages"`
	UserID         string    `json:"user_id"`
	ContextSummary string    `json:"context_summary,omitempty"`
}

type chatResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ListSessions returns the user's sessions ordered by recency.
func (c *APIClient) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := c.do(ctx, http.MethodGet, "/sessions?user_id="+url.QueryEscape(userID), nil, &sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session, keeping existingID when supplied.
func (c *APIClient) CreateSession(ctx context.Context, userID, title, existingID string) (string, error) {
	var created domain.Session
	req := createSessionRequest{UserID: userID, Title: title, ID: existingID}
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// GetSession fetches one session's messages, or ErrNotFound.
func (c *APIClient) GetSession(ctx context.Context, sessionID, userID string) ([]domain.ChatMessage, error) {
	var session domain.Session
	path := "/sessions/" + url.PathEscape(sessionID) + "?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// SaveMessages replaces the session's full message list.
func (c *APIClient) SaveMessages(ctx context.Context, sessionID, userID string, messages []domain.ChatMessage) error {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages?user_id=" + url.QueryEscape(userID)
	return c.do(ctx, http.MethodPut, path, saveMessagesRequest{Messages: messages}, nil)
}

// DeleteSession removes the session and its messages.
func (c *APIClient) DeleteSession(ctx context.Context, sessionID, userID string) error {
	path := "/sessions/" + url.PathEscape(sessionID) + "?user_id=" + url.QueryEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// MigrateSessions submits one batch of sessions to the bulk-import endpoint.
// Sessions whose id already exists for the user are skipped server-side.
func (c *APIClient) MigrateSessions(ctx context.Context, userID string, sessions []domain.Session) (ImportResult, error) {
	var result ImportResult
	req := migrateRequest{UserID: userID, Sessions: sessions}
	if err := c.do(ctx, http.MethodPost, "/migrate", req, &result); err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// Chat sends a bounded conversation to the AI companion and returns its reply.
func (c *APIClient) Chat(ctx context.Context, userID string, turns []ai.Turn, contextSummary string) (string, error) {
	var resp chatResponse
	req := chatRequest{Messages: turns, UserID: userID, ContextSummary: contextSummary}
	if err := c.do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// OpeningPrompt fetches the companion's conversation opener.
func (c *APIClient) OpeningPrompt(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/opening-prompt", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UnifiedInsights generates the combined word-cloud and constellation
// analysis for the given journal history.
func (c *APIClient) UnifiedInsights(ctx context.Context, req ai.InsightsRequest) (*ai.UnifiedInsights, error) {
	var insights ai.UnifiedInsights
	if err := c.do(ctx, http.MethodPost, "/insights/unified", req, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, errorMessage(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the server's error string from a non-success body.
func errorMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Sprintf("%s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
