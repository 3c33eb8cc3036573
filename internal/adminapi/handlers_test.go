package adminapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir

	st, err := store.NewSQLiteStore(filepath.Join(dir, "ops.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewServer(cfg, st), st
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleStatusOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleLogsUnavailableWithoutBuffer(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/api/v1/logs")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleConnectionHistoryEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/api/v1/history/connections")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("body = %q, want empty JSON array", rec.Body.String())
	}
}

func TestNotifyChannelCRUD(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/notify/channels",
		strings.NewReader(`{"name":"ops","type":"webhook","config":"{\"url\":\"http://example.invalid\"}"}`))
	createRec := httptest.NewRecorder()
	mux.ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body=%s", createRec.Code, createRec.Body.String())
	}

	listRec := doGet(t, s, "/api/v1/notify/channels")
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", listRec.Code)
	}
}
