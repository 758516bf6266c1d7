// Package remote talks to durable journal backends. Two implementations
// satisfy the same contract so the storage facade can swap them without
// behavior change: APIClient (the MindSpace HTTP API) and HostedClient
// (row-level access to a hosted database).
package remote

import (
	"context"
	"errors"

	"github.com/mindspacehq/mindspace/internal/domain"
)

// ErrNotFound reports that a session does not exist in the backend.
var ErrNotFound = errors.New("session not found")

// SessionClient is the contract both durable backends satisfy. Failures are
// surfaced to the caller, which decides on fallback or retry.
type SessionClient interface {
	// ListSessions returns the user's sessions ordered by recency
	// (updated_at descending), each with its full message history.
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)

	// CreateSession creates a session. existingID may be supplied to keep a
	// locally generated id (used by migration); pass "" to let the backend
	// generate one. Returns the session id.
	CreateSession(ctx context.Context, userID, title, existingID string) (string, error)

	// GetSession returns the session's messages ordered by timestamp
	// ascending, or ErrNotFound.
	GetSession(ctx context.Context, sessionID, userID string) ([]domain.ChatMessage, error)

	// SaveMessages atomically replaces the session's full message list and
	// bumps its updated_at.
	SaveMessages(ctx context.Context, sessionID, userID string, messages []domain.ChatMessage) error

	// DeleteSession removes the session and its messages together.
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

// ImportResult reports the outcome of a batch session import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
