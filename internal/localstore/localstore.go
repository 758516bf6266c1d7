// Package localstore persists journal data on the device itself. It is the
// fallback backend when no durable backend is reachable, and the source for
// the one-time migration into one.
//
// Layout mirrors a flat key-value namespace: one JSON file per session
// ("session-<id>.json" holding the raw message array) plus two single-value
// keys ("current-session", "migrated").
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mindspacehq/mindspace/internal/domain"
)

const (
	sessionPrefix  = "session-"
	sessionSuffix  = ".json"
	currentKeyFile = "current-session"
	migratedFile   = "migrated"
)

// Store reads and writes journal state under a single directory.
type Store struct {
	dir string
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("localstore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the per-user state directory for the application.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "mindspace"), nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, sessionPrefix+sessionID+sessionSuffix)
}

// Sessions enumerates every on-device session, deriving title and timestamps
// from the stored messages, sorted by UpdatedAt descending. Unreadable or
// malformed session files are skipped.
func (s *Store) Sessions() ([]domain.Session, error) {
	ids, err := s.SessionIDs()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		messages, ok, err := s.Messages(id)
		if err != nil || !ok {
			continue
		}
		sessions = append(sessions, domain.SessionFromMessages(id, messages, now))
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// SessionIDs lists the ids of all stored sessions.
func (s *Store) SessionIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan state directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, sessionPrefix) || !strings.HasSuffix(name, sessionSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, sessionPrefix), sessionSuffix)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// HasSessions reports whether any on-device session exists.
func (s *Store) HasSessions() (bool, error) {
	ids, err := s.SessionIDs()
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// Messages reads one session's message list. The second return value is false
// when the session is not stored locally.
func (s *Store) Messages(sessionID string) ([]domain.ChatMessage, bool, error) {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var messages []domain.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return messages, true, nil
}

// SaveMessages replaces the full message list stored for a session.
func (s *Store) SaveMessages(sessionID string, messages []domain.ChatMessage) error {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := os.WriteFile(s.sessionPath(sessionID), data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}
	return nil
}

// DeleteSession removes a session's local copy. Deleting a session that is
// not stored is not an error.
func (s *Store) DeleteSession(sessionID string) error {
	if err := os.Remove(s.sessionPath(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// CurrentSessionID returns the last-viewed session pointer, or "" if unset.
func (s *Store) CurrentSessionID() string {
	return s.readValue(currentKeyFile)
}

// SetCurrentSessionID persists the last-viewed session pointer.
func (s *Store) SetCurrentSessionID(sessionID string) error {
	return s.writeValue(currentKeyFile, sessionID)
}

// MigrationComplete reports whether the one-time migration already ran to
// completion on this device.
func (s *Store) MigrationComplete() bool {
	return s.readValue(migratedFile) == "true"
}

// SetMigrationComplete marks the one-time migration as done for this device.
func (s *Store) SetMigrationComplete() error {
	return s.writeValue(migratedFile, "true")
}

// ClearMigrationFlag resets the completion marker so a future run may migrate
// again. Intended for explicit administrative use only.
func (s *Store) ClearMigrationFlag() error {
	if err := os.Remove(filepath.Join(s.dir, migratedFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear migration flag: %w", err)
	}
	return nil
}

func (s *Store) readValue(name string) string {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) writeValue(name, value string) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
