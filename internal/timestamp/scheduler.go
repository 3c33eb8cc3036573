// Package timestamp runs the periodic timestamp writer: every interval it
// appends a single "timestamp: %s\n" record to the shared record log, on
// the same path a connection worker would use. It is a single-ticker
// instance of the scheduler loop idiom the rest of this codebase uses for
// background work, simplified since there's exactly one timer instead of
// one per monitored target.
package timestamp

import (
	"context"
	"log"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
)

// TimeFormat is the layout used in the emitted record's timestamp, local
// time: "timestamp: 2023-07-01 10:30:00\n".
const TimeFormat = "2006-01-02 15:04:05"

// RunFunc is invoked once per tick, after the record has been appended,
// letting callers observe each run (e.g. to record it to the ops store).
type RunFunc func(at time.Time, err error)

// Scheduler appends a timestamp record to log at a fixed interval until its
// context is cancelled.
type Scheduler struct {
	log      *recordlog.Log
	interval time.Duration
	onRun    RunFunc
}

// New builds a Scheduler. onRun may be nil.
func New(log *recordlog.Log, interval time.Duration, onRun RunFunc) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{log: log, interval: interval, onRun: onRun}
}

// Run blocks, writing one timestamp record every interval, until ctx is
// cancelled. It does not write a record immediately on start; the first
// record lands after the first full interval elapses, matching the
// periodic-signal-driven writer this loop replaces.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	record := []byte("timestamp: " + now.Format(TimeFormat) + "\n")
	_, err := s.log.Append(record)
	if err != nil {
		log.Printf("[timestamp] failed to write record: %v", err)
	}
	if s.onRun != nil {
		s.onRun(now, err)
	}
}
