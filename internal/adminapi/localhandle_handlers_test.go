package adminapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aesdsocketd/aesdsocketd/internal/localhandle"
	"github.com/aesdsocketd/aesdsocketd/internal/ringbuffer"
)

func TestHandleLocalWriteUnavailableWithoutHandle(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doPost(t, s, "/api/v1/local/write", `{"data":"hi\n"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleLocalWriteReadRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	s.local = localhandle.Open(ringbuffer.New())

	writeRec := doPost(t, s, "/api/v1/local/write", `{"data":"hello world\n"}`)
	if writeRec.Code != http.StatusOK {
		t.Fatalf("write status = %d, want 200, body=%s", writeRec.Code, writeRec.Body.String())
	}

	readRec := doGet(t, s, "/api/v1/local/read?length=64")
	if readRec.Code != http.StatusOK {
		t.Fatalf("read status = %d, want 200", readRec.Code)
	}
	if !strings.Contains(readRec.Body.String(), "hello world") {
		t.Fatalf("read body = %q, want it to contain the written record", readRec.Body.String())
	}
}

func TestHandleLocalSeekToRecord(t *testing.T) {
	s, _ := newTestServer(t)
	s.local = localhandle.Open(ringbuffer.New())

	doPost(t, s, "/api/v1/local/write", `{"data":"first\n"}`)
	doPost(t, s, "/api/v1/local/write", `{"data":"second\n"}`)

	seekRec := doPost(t, s, "/api/v1/local/seek", `{"to_record":true,"record":1}`)
	if seekRec.Code != http.StatusOK {
		t.Fatalf("seek status = %d, want 200, body=%s", seekRec.Code, seekRec.Body.String())
	}

	readRec := doGet(t, s, "/api/v1/local/read?length=64")
	if readRec.Code != http.StatusOK {
		t.Fatalf("read status = %d, want 200", readRec.Code)
	}
	if !strings.Contains(readRec.Body.String(), "second") {
		t.Fatalf("read body = %q, want the second record after seeking past the first", readRec.Body.String())
	}
}

func doPost(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
