package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindspacehq/mindspace/internal/ai"
	"github.com/mindspacehq/mindspace/internal/domain"
	"github.com/mindspacehq/mindspace/internal/identity"
	"github.com/mindspacehq/mindspace/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	base := NewHandler(repo, ai.NewMockCompanion())
	r := chi.NewRouter()
	r.Use(identity.Middleware(true))
	NewSessionHandler(base).RegisterRoutes(r)
	NewChatHandler(base).RegisterRoutes(r)
	NewHealthHandler(repo, false).RegisterHealth(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateAndListSessions(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{
		"user_id": "u1",
		"title":   "",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[domain.Session](t, resp)
	if created.ID == "" || created.Title != domain.DefaultTitle {
		t.Errorf("created = %+v", created)
	}

	listResp, err := http.Get(srv.URL + "/api/sessions?user_id=u1")
	if err != nil {
		t.Fatal(err)
	}
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", listResp.StatusCode)
	}
	sessions := decodeBody[[]domain.Session](t, listResp)
	if len(sessions) != 1 || sessions[0].ID != created.ID {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestCreateSessionKeepsCallerID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{
		"user_id": "u1",
		"id":      "local-123",
	})
	created := decodeBody[domain.Session](t, resp)
	if created.ID != "local-123" {
		t.Errorf("id = %q, want local-123", created.ID)
	}
}

func TestSaveMessagesUpdatesTitle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{"user_id": "u1"})
	created := decodeBody[domain.Session](t, resp)

	payload := map[string]any{
		"messages": []domain.ChatMessage{
			{ID: "m1", Role: domain.RoleUser, Content: "Feeling hopeful about the new job", Timestamp: time.Now().UTC()},
		},
	}
	data, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPut,
		srv.URL+"/api/sessions/"+created.ID+"/messages?user_id=u1", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	saveResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if saveResp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", saveResp.StatusCode)
	}
	updated := decodeBody[domain.Session](t, saveResp)
	if updated.Title != "Feeling hopeful about the new job" {
		t.Errorf("title = %q", updated.Title)
	}
	if len(updated.Messages) != 1 {
		t.Errorf("messages = %+v", updated.Messages)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/sessions/ghost?user_id=u1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{"user_id": "u1"})
	created := decodeBody[domain.Session](t, resp)

	req, err := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/sessions/"+created.ID+"?user_id=u1", nil)
	if err != nil {
		t.Fatal(err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", delResp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/api/sessions/" + created.ID + "?user_id=u1")
	if err != nil {
		t.Fatal(err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", getResp.StatusCode)
	}
}

func TestMigrateCountsImportedAndSkipped(t *testing.T) {
	srv, _ := newTestServer(t)
	now := time.Now().UTC()

	sessions := []domain.Session{
		{ID: "s1", Title: "one", Messages: []domain.ChatMessage{
			{ID: "m1", Role: domain.RoleUser, Content: "hello", Timestamp: now},
		}},
		{ID: "s2", Title: "two"},
	}

	resp := postJSON(t, srv.URL+"/api/migrate", map[string]any{
		"user_id": "u1", "sessions": sessions,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("migrate status = %d", resp.StatusCode)
	}
	counts := decodeBody[map[string]int](t, resp)
	if counts["imported"] != 2 || counts["skipped"] != 0 {
		t.Errorf("counts = %v, want imported=2 skipped=0", counts)
	}

	resp = postJSON(t, srv.URL+"/api/migrate", map[string]any{
		"user_id": "u1", "sessions": sessions,
	})
	counts = decodeBody[map[string]int](t, resp)
	if counts["imported"] != 0 || counts["skipped"] != 2 {
		t.Errorf("retry counts = %v, want imported=0 skipped=2", counts)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
