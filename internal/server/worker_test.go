package server

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
)

func newTestLog(t *testing.T) *recordlog.Log {
	t.Helper()
	rl, err := recordlog.Open(filepath.Join(t.TempDir(), "data.log"))
	if err != nil {
		t.Fatalf("recordlog.Open: %v", err)
	}
	t.Cleanup(func() { rl.Close() })
	return rl
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestWorkerEchoesDeltaPerRecord(t *testing.T) {
	rl := newTestLog(t)
	st := newTestStore(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	w := newWorker(serverConn, rl, st, nil, 0)
	done := make(chan struct{})
	go func() {
		w.run(context.Background())
		close(done)
	}()

	reader := bufio.NewReader(clientConn)

	if _, err := clientConn.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply 1: %v", err)
	}
	if line != "hello\n" {
		t.Fatalf("reply 1 = %q, want %q", line, "hello\n")
	}

	if _, err := clientConn.Write([]byte("world\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err = reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply 2: %v", err)
	}
	if line != "world\n" {
		t.Fatalf("reply 2 = %q, want only the second record (delta replay)", line)
	}

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after peer close")
	}

	if got := rl.Size(); got != int64(len("hello\nworld\n")) {
		t.Fatalf("log size = %d, want %d", got, len("hello\nworld\n"))
	}
}

func TestWorkerUnblocksOnContextCancel(t *testing.T) {
	rl := newTestLog(t)
	st := newTestStore(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(serverConn, rl, st, nil, 0)
	done := make(chan struct{})
	go func() {
		w.run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after context cancellation")
	}
}

func TestWorkerRejectsOversizedRecord(t *testing.T) {
	rl := newTestLog(t)
	st := newTestStore(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	w := newWorker(serverConn, rl, st, nil, 8)
	done := make(chan struct{})
	go func() {
		w.run(context.Background())
		close(done)
	}()

	go clientConn.Write([]byte("this record has no newline and exceeds the cap"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after exceeding max receive buffer")
	}
}
