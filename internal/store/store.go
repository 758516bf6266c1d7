// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/mindspacehq/mindspace/internal/domain"
)

// ErrSessionNotFound is returned when a session does not exist for the user.
var ErrSessionNotFound = errors.New("session not found")

// Repository defines the interface for persisting journal sessions.
type Repository interface {
	// ListSessions retrieves a user's sessions with full message history,
	// ordered by updated_at descending.
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)

	// CreateSession creates a session. id may be caller-supplied (migration
	// keeps local ids); pass "" to generate one.
	CreateSession(ctx context.Context, userID, title, id string) (domain.Session, error)

	// GetSession retrieves one session with its messages ordered by
	// timestamp ascending, or ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID, userID string) (domain.Session, error)

	// ReplaceMessages replaces all messages in a session, re-derives its
	// title, bumps updated_at, and returns the refreshed session.
	ReplaceMessages(ctx context.Context, sessionID, userID string, messages []domain.ChatMessage) (domain.Session, error)

	// DeleteSession removes a session and its messages together.
	DeleteSession(ctx context.Context, sessionID, userID string) error

	// ImportSessions bulk-imports sessions, skipping ids that already exist
	// for the user so re-submission after a partial failure cannot
	// duplicate data.
	ImportSessions(ctx context.Context, userID string, sessions []domain.Session) (imported, skipped int, err error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
