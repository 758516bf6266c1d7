package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/localstore"
	"github.com/mindspacehq/mindspace/internal/remote"
)

// fakeImporter scripts batch-import outcomes per call.
type fakeImporter struct {
	calls    int
	failures int // fail this many calls before succeeding
	batches  [][]domain.Session
}

var errImport = errors.New("import endpoint unavailable")

func (f *fakeImporter) MigrateSessions(_ context.Context, _ string, sessions []domain.Session) (remote.ImportResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return remote.ImportResult{}, errImport
	}
	f.batches = append(f.batches, sessions)
	return remote.ImportResult{Imported: len(sessions)}, nil
}

// fakeHosted implements remote.SessionClient for the per-session path.
type fakeHosted struct {
	failIDs map[string]bool
	created []string
	saved   []string
}

func (f *fakeHosted) ListSessions(context.Context, string) ([]domain.Session, error) {
	return nil, nil
}

func (f *fakeHosted) CreateSession(_ context.Context, _, _, existingID string) (string, error) {
	if f.failIDs[existingID] {
		return "", errors.New("duplicate id")
	}
	f.created = append(f.created, existingID)
	return existingID, nil
}

func (f *fakeHosted) GetSession(context.Context, string, string) ([]domain.ChatMessage, error) {
	return nil, remote.ErrNotFound
}

func (f *fakeHosted) SaveMessages(_ context.Context, sessionID, _ string, _ []domain.ChatMessage) error {
	f.saved = append(f.saved, sessionID)
	return nil
}

func (f *fakeHosted) DeleteSession(context.Context, string, string) error {
	return nil
}

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestLocal(t *testing.T, sessionIDs ...string) *localstore.Store {
	t.Helper()
	local, err := localstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range sessionIDs {
		messages := []domain.ChatMessage{
			{ID: id + "-m1", Role: domain.RoleUser, Content: "entry " + id, Timestamp: base.Add(time.Duration(i) * time.Minute)},
		}
		if err := local.SaveMessages(id, messages); err != nil {
			t.Fatal(err)
		}
	}
	return local
}

func TestRunEmptyLocalStoreReturnsImmediately(t *testing.T) {
	local := newTestLocal(t)
	importer := &fakeImporter{}
	e := New(Config{Local: local, API: importer})

	result := e.Run(context.Background(), "u1")
	if !result.Done || result.Imported != 0 || result.Skipped != 0 || result.Err != nil {
		t.Errorf("result = %+v, want clean done", result)
	}
	if importer.calls != 0 {
		t.Errorf("importer called %d times, want 0", importer.calls)
	}
	// An empty run must not mark the device migrated.
	if local.MigrationComplete() {
		t.Error("completion flag set by empty run")
	}
}

func TestRunBatchedSuccess(t *testing.T) {
	local := newTestLocal(t, "s1", "s2")
	importer := &fakeImporter{}
	e := New(Config{Local: local, API: importer})

	result := e.Run(context.Background(), "u1")
	if result.Err != nil {
		t.Fatalf("Run: %v", result.Err)
	}
	if result.Imported != 2 || result.Skipped != 0 || !result.Done {
		t.Errorf("result = %+v, want {2 0 true}", result)
	}
	if !local.MigrationComplete() {
		t.Error("completion flag not persisted")
	}
	for _, id := range []string{"s1", "s2"} {
		if _, ok, _ := local.Messages(id); ok {
			t.Errorf("local copy %s not removed", id)
		}
	}
}

func TestRunIdempotentAfterSuccess(t *testing.T) {
	local := newTestLocal(t, "s1")
	importer := &fakeImporter{}
	e := New(Config{Local: local, API: importer})

	if result := e.Run(context.Background(), "u1"); result.Err != nil {
		t.Fatal(result.Err)
	}
	callsAfterFirst := importer.calls

	result := e.Run(context.Background(), "u1")
	if result.Imported != 0 || result.Skipped != 0 || !result.Done || result.Err != nil {
		t.Errorf("second run = %+v, want {0 0 true}", result)
	}
	if importer.calls != callsAfterFirst {
		t.Error("second run invoked the remote client")
	}
}

func TestRunBatchesOfFive(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	local := newTestLocal(t, ids...)
	importer := &fakeImporter{}
	e := New(Config{Local: local, API: importer})

	result := e.Run(context.Background(), "u1")
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if result.Imported != 7 {
		t.Errorf("imported = %d, want 7", result.Imported)
	}
	if len(importer.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(importer.batches))
	}
	if len(importer.batches[0]) != 5 || len(importer.batches[1]) != 2 {
		t.Errorf("batch sizes = %d,%d, want 5,2", len(importer.batches[0]), len(importer.batches[1]))
	}
}

func TestRunRetriesWithExponentialBackoff(t *testing.T) {
	local := newTestLocal(t, "s1")
	importer := &fakeImporter{failures: 2}
	sleeper := &recordingSleep{}
	e := New(Config{Local: local, API: importer, Sleep: sleeper.sleep})

	result := e.Run(context.Background(), "u1")
	if result.Err != nil {
		t.Fatalf("run should succeed on third attempt: %v", result.Err)
	}
	if result.Imported != 1 || !result.Done {
		t.Errorf("result = %+v", result)
	}
	if len(sleeper.delays) != 2 || sleeper.delays[0] != time.Second || sleeper.delays[1] != 2*time.Second {
		t.Errorf("backoff delays = %v, want [1s 2s]", sleeper.delays)
	}
	if _, ok, _ := local.Messages("s1"); ok {
		t.Error("local copy retained after successful retry")
	}
}

func TestRunAbortsAfterExhaustedRetries(t *testing.T) {
	local := newTestLocal(t, "s1")
	importer := &fakeImporter{failures: 3}
	sleeper := &recordingSleep{}
	e := New(Config{Local: local, API: importer, Sleep: sleeper.sleep})

	result := e.Run(context.Background(), "u1")
	if result.Done {
		t.Error("run reported done despite exhausted retries")
	}
	if !errors.Is(result.Err, errImport) {
		t.Errorf("err = %v, want the last import error", result.Err)
	}
	if local.MigrationComplete() {
		t.Error("completion flag set by failed run")
	}
	if _, ok, _ := local.Messages("s1"); !ok {
		t.Error("local copy removed by failed run")
	}
	if importer.calls != maxRetries {
		t.Errorf("importer called %d times, want %d", importer.calls, maxRetries)
	}
}

func TestRunPartialFailureKeepsEarlierBatches(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	local := newTestLocal(t, ids...)
	// First batch succeeds; the second fails all its attempts
	// (call 1 ok, calls 2-4 fail).
	importer := &batchScriptImporter{okCalls: 1}
	sleeper := &recordingSleep{}
	e := New(Config{Local: local, API: importer, Sleep: sleeper.sleep})

	result := e.Run(context.Background(), "u1")
	if result.Done {
		t.Error("run reported done")
	}
	if result.Imported != 5 {
		t.Errorf("imported = %d, want the confirmed first batch of 5", result.Imported)
	}
	// Nothing local is deleted on a failed run, including already-imported
	// sessions; the batch endpoint de-duplicates by id on a future retry.
	for _, id := range ids {
		if _, ok, _ := local.Messages(id); !ok {
			t.Errorf("local copy %s removed by failed run", id)
		}
	}
}

// batchScriptImporter succeeds for the first okCalls calls, then always fails.
type batchScriptImporter struct {
	calls   int
	okCalls int
}

func (b *batchScriptImporter) MigrateSessions(_ context.Context, _ string, sessions []domain.Session) (remote.ImportResult, error) {
	b.calls++
	if b.calls <= b.okCalls {
		return remote.ImportResult{Imported: len(sessions)}, nil
	}
	return remote.ImportResult{}, errImport
}

func TestRunHostedPerSessionFailureCountsSkipped(t *testing.T) {
	local := newTestLocal(t, "good", "bad")
	hosted := &fakeHosted{failIDs: map[string]bool{"bad": true}}
	e := New(Config{Local: local, Hosted: hosted})

	result := e.Run(context.Background(), "u1")
	if result.Err != nil {
		t.Fatalf("Run: %v", result.Err)
	}
	if result.Imported != 1 || result.Skipped != 1 || !result.Done {
		t.Errorf("result = %+v, want {1 1 true}", result)
	}
	if !local.MigrationComplete() {
		t.Error("completion flag not set")
	}
	// Every originally loaded session's local copy is removed, including
	// the skipped one.
	for _, id := range []string{"good", "bad"} {
		if _, ok, _ := local.Messages(id); ok {
			t.Errorf("local copy %s retained", id)
		}
	}
}

func TestRunHostedCreatesThenSaves(t *testing.T) {
	local := newTestLocal(t, "s1")
	hosted := &fakeHosted{}
	e := New(Config{Local: local, Hosted: hosted})

	result := e.Run(context.Background(), "u1")
	if result.Err != nil || result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(hosted.created) != 1 || hosted.created[0] != "s1" {
		t.Errorf("created = %v, want [s1]", hosted.created)
	}
	if len(hosted.saved) != 1 || hosted.saved[0] != "s1" {
		t.Errorf("saved = %v, want [s1]", hosted.saved)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusRunning, "running"},
		{StatusDone, "done"},
		{StatusError, "error"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
