package store

import (
	"github.com/aesdsocketd/aesdsocketd/internal/model"
)

// Store defines the persistence interface for aesdsocketd's operational
// ledger: connection history, scheduler runs, and notification channels.
// It holds nothing from the record log itself — that lives in
// internal/recordlog, append-only on disk, entirely separate from this
// ops database.
type Store interface {
	// Connection operations
	InsertConnection(c *model.ConnectionRecord) (int64, error)
	CloseConnection(id int64, closedAt, bytesReceived, bytesSent int64, errMsg string) error
	ListConnections(limit int) ([]model.ConnectionRecord, error)

	// Scheduler run operations
	InsertSchedulerRun(r *model.SchedulerRun) error
	ListSchedulerRuns(limit int) ([]model.SchedulerRun, error)

	// Notify channel operations
	CreateNotifyChannel(ch *model.NotifyChannel) error
	GetNotifyChannel(id string) (*model.NotifyChannel, error)
	ListNotifyChannels() ([]model.NotifyChannel, error)
	ListEnabledNotifyChannels() ([]model.NotifyChannel, error)
	UpdateNotifyChannel(ch *model.NotifyChannel) error
	DeleteNotifyChannel(id string) error

	// Notify history operations
	InsertNotifyRecord(rec *model.NotifyRecord) error
	ListNotifyHistory(channelID string, limit int) ([]model.NotifyRecord, error)

	// Lifecycle
	Close() error
}
