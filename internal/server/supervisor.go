// Package server implements the public-facing TCP record-logging service:
// the Supervisor accepts connections and hands each to its own worker
// goroutine, and runs the timestamp scheduler alongside them, following
// the same ticker-loop-plus-goroutine-per-unit-of-work shape the teacher
// uses for its agent, adapted from many concurrent monitors to many
// concurrent connections.
package server

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/model"
	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
	"github.com/aesdsocketd/aesdsocketd/internal/timestamp"
)

// Supervisor owns the listener, the in-flight connection workers, and the
// timestamp scheduler for one aesdsocketd instance.
type Supervisor struct {
	config   *config.Config
	log      *recordlog.Log
	store    store.Store
	notifier permanentIoNotifier

	scheduler *timestamp.Scheduler

	mu        sync.RWMutex
	startTime time.Time
	open      map[net.Conn]struct{}

	wg sync.WaitGroup
	ln net.Listener
}

// New builds a Supervisor. rl and st must already be open; the Supervisor
// does not own their lifecycle beyond using them. notifier may be nil.
func New(cfg *config.Config, rl *recordlog.Log, st store.Store, notifier permanentIoNotifier) *Supervisor {
	s := &Supervisor{
		config:   cfg,
		log:      rl,
		store:    st,
		notifier: notifier,
		open:     make(map[net.Conn]struct{}),
	}
	s.scheduler = timestamp.New(rl, cfg.SchedulerInterval, s.onSchedulerRun)
	return s
}

// StartTime reports when Run began accepting connections, satisfying
// adminapi.RuntimeInfo.
func (s *Supervisor) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// OpenConnections reports how many connections are currently being
// served, satisfying adminapi.RuntimeInfo.
func (s *Supervisor) OpenConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.open)
}

// Run listens on the configured address, serving connections and the
// timestamp scheduler until ctx is cancelled, then waits for every
// in-flight worker to finish before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln

	s.mu.Lock()
	s.startTime = time.Now()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scheduler.Run(ctx)
	}()

	log.Printf("[server] listening on %s", s.config.ListenAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				log.Printf("[server] accept error: %v", err)
				continue
			}
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			w := newWorker(conn, s.log, s.store, s.notifier, s.config.MaxRecvBuffer)
			w.run(ctx)
		}()
	}
}

func (s *Supervisor) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[conn] = struct{}{}
}

func (s *Supervisor) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, conn)
}

func (s *Supervisor) onSchedulerRun(at time.Time, err error) {
	if s.store == nil {
		return
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	run := &model.SchedulerRun{RanAt: at.UnixMilli(), Error: errMsg}
	if dbErr := s.store.InsertSchedulerRun(run); dbErr != nil {
		log.Printf("[server] failed to record scheduler run: %v", dbErr)
	}
}
