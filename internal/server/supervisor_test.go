package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
)

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	rl := newTestLog(t)
	st := newTestStore(t)

	cfg := config.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.DataDir = filepath.Dir(rl.Path())
	cfg.SchedulerInterval = 20 * time.Millisecond

	return New(cfg, rl, st, nil)
}

func TestSupervisorAcceptsAndServesConnections(t *testing.T) {
	sup := newTestSupervisor(t)
	sup.config.ListenAddr = "127.0.0.1:0"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	sup.config.ListenAddr = addr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(buf[:n]) != "hello\n" {
		t.Fatalf("reply = %q, want %q", buf[:n], "hello\n")
	}

	if sup.OpenConnections() != 1 {
		t.Fatalf("OpenConnections = %d, want 1", sup.OpenConnections())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestSupervisorStartTimeSetOnRun(t *testing.T) {
	sup := newTestSupervisor(t)
	if !sup.StartTime().IsZero() {
		t.Fatalf("StartTime should be zero before Run")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	sup.config.ListenAddr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if sup.StartTime().IsZero() {
		t.Fatal("StartTime should be set once Run has started listening")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
