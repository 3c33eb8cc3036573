package model

// ConnectionRecord describes one accepted TCP connection's lifetime, kept
// for the admin API's /api/v1/history/connections endpoint and the `aesdsocketd
// history` CLI.
type ConnectionRecord struct {
	ID            int64  `json:"id"`
	RemoteAddr    string `json:"remote_addr"`
	OpenedAt      int64  `json:"opened_at"`
	ClosedAt      int64  `json:"closed_at,omitempty"`
	BytesReceived int64  `json:"bytes_received"`
	BytesSent     int64  `json:"bytes_sent"`
	Error         string `json:"error,omitempty"`
}

// SchedulerRun records one tick of the timestamp scheduler.
type SchedulerRun struct {
	ID    int64  `json:"id"`
	RanAt int64  `json:"ran_at"`
	Error string `json:"error,omitempty"`
}

const (
	NotifyChannelWebhook = "webhook"
	NotifyChannelEmail   = "email"
)

// NotifyChannel is a configured destination for operational alerts (fatal
// or permanent-I/O errors surfaced by the record log or server
// supervisor).
type NotifyChannel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"` // "webhook" or "email"
	Enabled   bool   `json:"enabled"`
	Config    string `json:"config"` // JSON blob, shape depends on Type
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

const (
	NotifyEventFatal       = "fatal"
	NotifyEventPermanentIo = "permanent_io"
	NotifyEventRecovery    = "recovery"
	NotifyEventTest        = "test"
)

// NotifyRecord is one delivery attempt against a NotifyChannel.
type NotifyRecord struct {
	ID        int64  `json:"id"`
	ChannelID string `json:"channel_id"`
	EventType string `json:"event_type"`
	Message   string `json:"message"`
	Status    string `json:"status"` // "sent" or "failed"
	Error     string `json:"error,omitempty"`
	SentAt    int64  `json:"sent_at"`
}

// HealthInfo provides local process health information, served by the
// admin API's /api/v1/health and printed by `aesdsocketd health`.
type HealthInfo struct {
	Uptime            string  `json:"uptime"`
	GoVersion         string  `json:"go_version"`
	NumGoroutines     int     `json:"num_goroutines"`
	MemoryMB          float64 `json:"memory_mb"`
	RecordLogSizeMB   float64 `json:"record_log_size_mb"`
	RingBufferEntries int     `json:"ring_buffer_entries"`
	OpenConnections   int     `json:"open_connections"`
}
