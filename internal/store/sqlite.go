package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mindspacehq/mindspace/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT 'New Entry',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_updated ON sessions(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session_ts ON messages(session_id, timestamp);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListSessions retrieves a user's sessions ordered by updated_at descending.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM sessions WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	for i := range sessions {
		messages, err := s.sessionMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}
	return sessions, nil
}

// CreateSession creates a session, generating an id when none is supplied.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID, title, id string) (domain.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if title == "" {
		title = domain.DefaultTitle
	}
	now := time.Now().UTC()

	query := `INSERT INTO sessions (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, userID, title, formatTime(now), formatTime(now)); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	return domain.Session{
		ID:        id,
		Title:     title,
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetSession retrieves one session with its messages.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID, userID string) (domain.Session, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM sessions WHERE id = ? AND user_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID, userID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	session.Messages, err = s.sessionMessages(ctx, session.ID)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// ReplaceMessages replaces all messages in a session and bumps updated_at.
func (s *SQLiteStore) ReplaceMessages(ctx context.Context, sessionID, userID string, messages []domain.ChatMessage) (domain.Session, error) {
	var exists string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE id = ? AND user_id = ?`, sessionID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("check session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return domain.Session{}, fmt.Errorf("clear messages: %w", err)
	}

	insert := `INSERT INTO messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`
	for _, m := range messages {
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, insert, id, sessionID, m.Role, m.Content, formatTime(ts)); err != nil {
			return domain.Session{}, fmt.Errorf("insert message: %w", err)
		}
	}

	// Re-derive the title from the first user message; the default title is
	// kept until one exists.
	now := formatTime(time.Now().UTC())
	if title := domain.DeriveTitle(messages); title != domain.DefaultTitle {
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, now, sessionID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("bump session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit replace: %w", err)
	}
	return s.GetSession(ctx, sessionID, userID)
}

// DeleteSession removes a session and its messages together.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// ImportSessions bulk-imports sessions, skipping ids that already exist.
func (s *SQLiteStore) ImportSessions(ctx context.Context, userID string, sessions []domain.Session) (int, int, error) {
	imported, skipped := 0, 0
	for _, session := range sessions {
		var exists string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM sessions WHERE id = ? AND user_id = ?`, session.ID, userID).Scan(&exists)
		if err == nil {
			skipped++
			continue
		}
		if err != sql.ErrNoRows {
			return imported, skipped, fmt.Errorf("check existing session: %w", err)
		}

		title := session.Title
		if title == "" {
			title = domain.DefaultTitle
		}
		created, err := s.CreateSession(ctx, userID, title, session.ID)
		if err != nil {
			return imported, skipped, err
		}
		if len(session.Messages) > 0 {
			if _, err := s.ReplaceMessages(ctx, created.ID, userID, session.Messages); err != nil {
				return imported, skipped, err
			}
		}
		imported++
	}
	return imported, skipped, nil
}

func (s *SQLiteStore) sessionMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, role, content, timestamp
		FROM messages WHERE session_id = ? ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
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
		m.Timestamp = parseTime(ts)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var s domain.Session
	var createdAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Title, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("scan session row: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// Timestamps are stored as ISO-8601 strings so values round-trip the wire
// format unchanged.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
