// Package adminapi is the localhost-only HTTP API used by the CLI's
// status/logs/history/notify subcommands to talk to a running
// aesdsocketd instance. It is deliberately separate from the raw TCP
// record-logging protocol server in internal/server: one speaks
// newline-framed bytes to arbitrary clients on the public port, the
// other speaks JSON to the operator on localhost.
package adminapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/localhandle"
	"github.com/aesdsocketd/aesdsocketd/internal/logbuf"
	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
	"github.com/aesdsocketd/aesdsocketd/internal/ringbuffer"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
)

// RuntimeInfo exposes process lifetime/connection metrics without the
// admin API needing to import the server package directly.
type RuntimeInfo interface {
	StartTime() time.Time
	OpenConnections() int
}

// NotifyDispatcher sends a test notification through a configured channel.
type NotifyDispatcher interface {
	SendTest(channelID, message string) error
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogBuffer attaches a log ring buffer for the /api/v1/logs endpoint.
func WithLogBuffer(buf *logbuf.Buffer) ServerOption {
	return func(s *Server) { s.logBuf = buf }
}

// WithRuntimeInfo attaches process runtime info for the health endpoint.
func WithRuntimeInfo(ri RuntimeInfo) ServerOption {
	return func(s *Server) { s.runtimeInfo = ri }
}

// WithNotifyDispatcher attaches a dispatcher for the channel test endpoint.
func WithNotifyDispatcher(nd NotifyDispatcher) ServerOption {
	return func(s *Server) { s.notifyDispatcher = nd }
}

// WithRecordLog attaches the shared record log for size reporting.
func WithRecordLog(l *recordlog.Log) ServerOption {
	return func(s *Server) { s.recordLog = l }
}

// WithRingBuffer attaches the shared local-handle ring buffer for entry
// count reporting.
func WithRingBuffer(b *ringbuffer.Buffer) ServerOption {
	return func(s *Server) { s.ring = b }
}

// WithLocalHandle attaches the in-process local handle so the CLI's
// "local" subcommands can drive it remotely over loopback HTTP, the same
// way the public TCP path drives the record log.
func WithLocalHandle(h *localhandle.Handle) ServerOption {
	return func(s *Server) { s.local = h }
}

// Server is the localhost admin HTTP API.
type Server struct {
	config *config.Config
	store  store.Store

	logBuf           *logbuf.Buffer
	runtimeInfo      RuntimeInfo
	notifyDispatcher NotifyDispatcher
	recordLog        *recordlog.Log
	ring             *ringbuffer.Buffer
	local            *localhandle.Handle

	httpServer *http.Server
}

// NewServer creates a new admin API server.
func NewServer(cfg *config.Config, st store.Store, opts ...ServerOption) *Server {
	s := &Server{config: cfg, store: st}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start listens on the configured CLI address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.CLIAddr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.httpServer.Shutdown(context.Background())
	}()

	if err := s.httpServer.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
