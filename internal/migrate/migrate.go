// Package migrate moves device-local journal sessions into a durable
// backend, exactly once per device. Local copies are deleted only after the
// whole run succeeds, and a persisted completion flag prevents re-runs across
// restarts.
package migrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/localstore"
	"github.com/mindspacehq/mindspace/internal/remote"
)

const (
	batchSize  = 5
	maxRetries = 3
	retryDelay = 1000 * time.Millisecond
)

// Status is the in-memory single-flight token. The engine itself is not
// reentrant-safe; callers must not start a run while one is in flight.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result reports a migration run's outcome. Err is set only when the run
// aborted; sessions durably written before the failing batch stay in the
// backend and their local copies are retained for a future attempt.
type Result struct {
	Imported int
	Skipped  int
	Done     bool
	Err      error
}

// BatchImporter submits one batch of sessions to the API's bulk-import
// endpoint. The endpoint skips ids that already exist, so re-running after a
// partial failure cannot duplicate sessions.
type BatchImporter interface {
	MigrateSessions(ctx context.Context, userID string, sessions []domain.Session) (remote.ImportResult, error)
}

// Config wires the engine's collaborators. When Hosted is set the engine
// migrates one session at a time through it; otherwise it batches through API.
type Config struct {
	Local  *localstore.Store
	Hosted remote.SessionClient
	API    BatchImporter
	Logger *slog.Logger

	// Sleep suspends between retry attempts; tests inject a fake. Defaults
	// to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine drives the one-time migration.
type Engine struct {
	local  *localstore.Store
	hosted remote.SessionClient
	api    BatchImporter
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds an engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Engine{
		local:  cfg.Local,
		hosted: cfg.Hosted,
		api:    cfg.API,
		logger: logger,
		sleep:  sleep,
	}
}

// Run migrates every device-local session into the durable backend. It
// returns immediately when the completion flag is set or no local sessions
// exist. On success the flag is persisted and every originally loaded
// session's local copy is removed; on failure neither happens.
func (e *Engine) Run(ctx context.Context, userID string) Result {
	if e.local.MigrationComplete() {
		return Result{Done: true}
	}
	if has, err := e.local.HasSessions(); err != nil || !has {
		if err != nil {
			return Result{Err: err}
		}
		return Result{Done: true}
	}

	sessions, err := e.local.Sessions()
	if err != nil {
		return Result{Err: err}
	}
	if len(sessions) == 0 {
		return Result{Done: true}
	}

	e.logger.Info("migrating device-local sessions", "count", len(sessions))

	var result Result
	if e.hosted != nil {
		result = e.runHosted(ctx, userID, sessions)
	} else {
		result = e.runBatched(ctx, userID, sessions)
	}
	if result.Err != nil {
		e.logger.Warn("migration aborted", "imported", result.Imported, "error", result.Err)
		return result
	}

	if err := e.local.SetMigrationComplete(); err != nil {
		result.Err = err
		return result
	}
	for _, s := range sessions {
		if err := e.local.DeleteSession(s.ID); err != nil {
			e.logger.Warn("failed to remove migrated local copy", "session_id", s.ID, "error", err)
		}
	}

	result.Done = true
	e.logger.Info("migration complete", "imported", result.Imported, "skipped", result.Skipped)
	return result
}

// runHosted migrates one session at a time; a per-session failure counts as
// skipped and does not abort the run.
func (e *Engine) runHosted(ctx context.Context, userID string, sessions []domain.Session) Result {
	var result Result
	for _, s := range sessions {
		if err := e.migrateOne(ctx, userID, s); err != nil {
			e.logger.Warn("skipping session", "session_id", s.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return result
}

func (e *Engine) migrateOne(ctx context.Context, userID string, s domain.Session) error {
	if _, err := e.hosted.CreateSession(ctx, userID, s.Title, s.ID); err != nil {
		return err
	}
	return e.hosted.SaveMessages(ctx, s.ID, userID, s.Messages)
}

// runBatched submits fixed-size batches to the bulk-import endpoint,
// sequentially, retrying each failed batch with exponential backoff. A batch
// that exhausts its retries aborts the whole run; batches confirmed before it
// are not rolled back.
func (e *Engine) runBatched(ctx context.Context, userID string, sessions []domain.Session) Result {
	var result Result
	for _, batch := range chunk(sessions, batchSize) {
		imported, err := e.migrateBatch(ctx, userID, batch)
		if err != nil {
			result.Err = err
			return result
		}
		result.Imported += imported.Imported
		result.Skipped += imported.Skipped
	}
	return result
}

func (e *Engine) migrateBatch(ctx context.Context, userID string, batch []domain.Session) (remote.ImportResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Delay doubles per attempt: 1s, 2s.
			delay := retryDelay << (attempt - 1)
			if err := e.sleep(ctx, delay); err != nil {
				return remote.ImportResult{}, err
			}
		}
		result, err := e.api.MigrateSessions(ctx, userID, batch)
		if err == nil {
			return result, nil
		}
		lastErr = err
		e.logger.Warn("batch import failed", "attempt", attempt+1, "error", err)
	}
	return remote.ImportResult{}, lastErr
}

func chunk(sessions []domain.Session, size int) [][]domain.Session {
	var out [][]domain.Session
	for len(sessions) > size {
		out = append(out, sessions[:size])
		sessions = sessions[size:]
	}
	if len(sessions) > 0 {
		out = append(out, sessions)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
