package notify

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/model"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "ops.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSendTestDeliversWebhookAndRecordsHistory(t *testing.T) {
	var gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		json.NewDecoder(r.Body).Decode(&payload)
		gotEvent = payload.Event
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := newTestStore(t)
	cfg, _ := json.Marshal(WebhookConfig{URL: srv.URL})
	ch := &model.NotifyChannel{
		ID: "ch-1", Name: "test-hook", Type: model.NotifyChannelWebhook,
		Enabled: true, Config: string(cfg),
		CreatedAt: time.Now().UnixMilli(), UpdatedAt: time.Now().UnixMilli(),
	}
	if err := st.CreateNotifyChannel(ch); err != nil {
		t.Fatalf("CreateNotifyChannel: %v", err)
	}

	d := NewDispatcher(st)
	if err := d.SendTest("ch-1", ""); err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	if gotEvent != model.NotifyEventTest {
		t.Fatalf("webhook event = %q, want %q", gotEvent, model.NotifyEventTest)
	}

	history, err := st.ListNotifyHistory("ch-1", 10)
	if err != nil {
		t.Fatalf("ListNotifyHistory: %v", err)
	}
	if len(history) != 1 || history[0].Status != "sent" {
		t.Fatalf("expected one sent history record, got %+v", history)
	}
}

func TestSendTestUnknownChannel(t *testing.T) {
	st := newTestStore(t)
	d := NewDispatcher(st)
	if err := d.SendTest("missing", ""); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestFatalSkipsWhenNoChannelsEnabled(t *testing.T) {
	st := newTestStore(t)
	d := NewDispatcher(st)
	d.Fatal("disk full")

	history, err := st.ListNotifyHistory("", 10)
	if err != nil {
		t.Fatalf("ListNotifyHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no history with zero channels, got %d", len(history))
	}
}

// TestSendMailTLSHandshakeTimeout exercises the TLS-SMTP path's timeout
// plumbing against a listener that accepts the TCP connection but never
// speaks TLS, so the client's handshake has nothing to complete with.
// sendMailTLS must give up at its timeout rather than hang.
func TestSendMailTLSHandshakeTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		close(accepted)
		time.Sleep(2 * time.Second)
	}()

	start := time.Now()
	err = sendMailTLS(ln.Addr().String(), nil, "from@example.com", "to@example.com", []byte("body"), "example.com", 100*time.Millisecond)
	elapsed := time.Since(start)

	<-accepted
	if err == nil {
		t.Fatal("expected a handshake timeout error, got nil")
	}
	if elapsed > time.Second {
		t.Fatalf("sendMailTLS took %v, expected it to respect the 100ms timeout", elapsed)
	}
}

// TestSendMailTLSDialRefused checks that a closed port fails fast through
// the same dialer, rather than falling back to some default dial timeout.
func TestSendMailTLSDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if err := sendMailTLS(addr, nil, "from@example.com", "to@example.com", []byte("body"), "example.com", time.Second); err == nil {
		t.Fatal("expected a dial error for a closed port")
	}
}
