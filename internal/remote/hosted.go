package remote

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/shared"
)

// HostedClient implements SessionClient with row-level operations on a hosted
// database: a sessions table plus a messages table with delete-then-insert
// replace semantics for message sets.
type HostedClient struct {
	db *sql.DB
}

// NewHostedClient opens the hosted database at dbPath, creating the schema
// if needed.
func NewHostedClient(dbPath string) (*HostedClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open hosted database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping hosted database: %w", err)
	}

	c := &HostedClient{db: db}
	if err := c.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize hosted schema: %w", err)
	}
	return c, nil
}

func (c *HostedClient) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT 'New Entry',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *HostedClient) Close() error {
	return c.db.Close()
}

// ListSessions returns the user's sessions ordered by recency.
func (c *HostedClient) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM sessions WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		s.CreatedAt = parseTimestamp(createdAt)
		s.UpdatedAt = parseTimestamp(updatedAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	for i := range sessions {
		messages, err := c.sessionMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}
	return sessions, nil
}

// CreateSession inserts a session row, keeping existingID when supplied.
func (c *HostedClient) CreateSession(ctx context.Context, userID, title, existingID string) (string, error) {
	id := existingID
	if id == "" {
		id = domain.NewID()
	}
	if title == "" {
		title = domain.DefaultTitle
	}

	now := formatTimestamp(time.Now().UTC())
	query := `INSERT INTO sessions (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := c.db.ExecContext(ctx, query, id, userID, title, now, now); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// GetSession returns the session's messages, or ErrNotFound.
func (c *HostedClient) GetSession(ctx context.Context, sessionID, _ string) ([]domain.ChatMessage, error) {
	var id string
	err := c.db.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = ?`, sessionID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return c.sessionMessages(ctx, sessionID)
}

// SaveMessages replaces the session's message set (delete-then-insert) and
// bumps updated_at, in one transaction. The hosted database is shared across
// devices, so a write lock held past the busy timeout gets a bounded retry.
func (c *HostedClient) SaveMessages(ctx context.Context, sessionID, _ string, messages []domain.ChatMessage) error {
	return shared.RetrySQLite(ctx, 3, func() error {
		return c.saveMessagesOnce(ctx, sessionID, messages)
	})
}

func (c *HostedClient) saveMessagesOnce(ctx context.Context, sessionID string, messages []domain.ChatMessage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	insert := `INSERT INTO messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`
	for _, m := range messages {
		id := m.ID
		if id == "" {
			id = domain.NewID()
		}
		if _, err := tx.ExecContext(ctx, insert, id, sessionID, m.Role, m.Content, formatTimestamp(m.Timestamp)); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	now := formatTimestamp(time.Now().UTC())
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID); err != nil {
		return fmt.Errorf("bump updated_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// DeleteSession removes the session and its messages together.
func (c *HostedClient) DeleteSession(ctx context.Context, sessionID, _ string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	// Explicit message delete: cascade depends on foreign_keys pragma state.
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (c *HostedClient) sessionMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, role, content, timestamp
		FROM messages WHERE session_id = ? ORDER BY timestamp ASC`

	rows, err := c.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		var ts string
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Timestamp = parseTimestamp(ts)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// Timestamps are stored as ISO-8601 strings so values round-trip the wire
// format unchanged.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
