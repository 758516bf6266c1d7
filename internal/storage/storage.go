// Package storage presents one CRUD contract for journal sessions regardless
// of which backend is reachable. The backend is ranked at startup (hosted
// database > HTTP API > device-local); when the API path fails, operations
// silently degrade to the on-device store instead of failing visibly.
package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/localstore"
	"github.com/mindspacehq/mindspace/internal/remote"
)

// Mode identifies which durable backend the facade talks to. It is resolved
// once at startup from configuration, not re-checked per call.
type Mode int

const (
	// ModeLocalOnly keeps everything on the device.
	ModeLocalOnly Mode = iota
	// ModeAPI uses the MindSpace HTTP API, falling back to the device store
	// on failure.
	ModeAPI
	// ModeHosted uses row-level access to a hosted database; its errors are
	// surfaced, not recovered locally.
	ModeHosted
)

func (m Mode) String() string {
	switch m {
	case ModeHosted:
		return "hosted"
	case ModeAPI:
		return "api"
	default:
		return "local"
	}
}

// Facade unifies the durable backend and the on-device store behind one
// session contract.
type Facade struct {
	mode   Mode
	client remote.SessionClient // nil when mode is ModeLocalOnly
	local  *localstore.Store
	logger *slog.Logger
}

// New builds a facade for the resolved mode. client may be nil only for
// ModeLocalOnly.
func New(mode Mode, client remote.SessionClient, local *localstore.Store, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{mode: mode, client: client, local: local, logger: logger}
}

// Mode returns the backend mode the facade was built with.
func (f *Facade) Mode() Mode {
	return f.mode
}

// Sessions returns the user's sessions sorted by UpdatedAt descending. On API
// failure it returns all device-local sessions — the local namespace is not
// segmented by user, so on a shared device this may include another local
// account's entries.
func (f *Facade) Sessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if f.mode == ModeLocalOnly {
		return f.local.Sessions()
	}

	sessions, err := f.client.ListSessions(ctx, userID)
	if err != nil {
		if f.mode == ModeHosted {
			return nil, err
		}
		f.logger.Debug("session list falling back to device store", "error", err)
		return f.local.Sessions()
	}
	return sessions, nil
}

// CreateSession creates a session and returns its id. On API failure an id is
// generated locally and registered as the current-session pointer; no session
// record is written until messages are saved.
func (f *Facade) CreateSession(ctx context.Context, userID, title string) (string, error) {
	if title == "" {
		title = domain.DefaultTitle
	}
	if f.mode == ModeLocalOnly {
		return f.createLocal()
	}

	id, err := f.client.CreateSession(ctx, userID, title, "")
	if err != nil {
		if f.mode == ModeHosted {
			return "", err
		}
		f.logger.Debug("session create falling back to local id", "error", err)
		return f.createLocal()
	}
	return id, nil
}

func (f *Facade) createLocal() (string, error) {
	id := domain.NewID()
	if err := f.local.SetCurrentSessionID(id); err != nil {
		return "", err
	}
	return id, nil
}

// Session returns the session's messages, or nil when it exists neither in
// the resolved backend nor locally.
func (f *Facade) Session(ctx context.Context, sessionID, userID string) ([]domain.ChatMessage, error) {
	if f.mode == ModeLocalOnly {
		return f.localSession(sessionID)
	}

	messages, err := f.client.GetSession(ctx, sessionID, userID)
	if err != nil {
		if f.mode == ModeHosted {
			if errors.Is(err, remote.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		f.logger.Debug("session fetch falling back to device store", "error", err)
		return f.localSession(sessionID)
	}
	return messages, nil
}

func (f *Facade) localSession(sessionID string) ([]domain.ChatMessage, error) {
	messages, ok, err := f.local.Messages(sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return messages, nil
}

// SaveMessages replaces the session's full message list; this is the unit of
// persistence, not an append. On API failure the full list is written to the
// device store under the session's key.
func (f *Facade) SaveMessages(ctx context.Context, sessionID, userID string, messages []domain.ChatMessage) error {
	if f.mode == ModeLocalOnly {
		return f.local.SaveMessages(sessionID, messages)
	}

	if err := f.client.SaveMessages(ctx, sessionID, userID, messages); err != nil {
		if f.mode == ModeHosted {
			return err
		}
		f.logger.Debug("message save falling back to device store", "error", err, "session_id", sessionID)
		return f.local.SaveMessages(sessionID, messages)
	}
	return nil
}

// DeleteSession removes the session from whichever backend holds it; on API
// failure the device-local copy is removed instead.
func (f *Facade) DeleteSession(ctx context.Context, sessionID, userID string) error {
	if f.mode == ModeLocalOnly {
		return f.local.DeleteSession(sessionID)
	}

	if err := f.client.DeleteSession(ctx, sessionID, userID); err != nil {
		if f.mode == ModeHosted {
			return err
		}
		f.logger.Debug("session delete falling back to device store", "error", err, "session_id", sessionID)
		return f.local.DeleteSession(sessionID)
	}
	return nil
}

// CurrentSessionID returns the device-wide last-viewed session pointer.
func (f *Facade) CurrentSessionID() string {
	return f.local.CurrentSessionID()
}

// SetCurrentSessionID persists the device-wide last-viewed session pointer.
func (f *Facade) SetCurrentSessionID(sessionID string) error {
	return f.local.SetCurrentSessionID(sessionID)
}
