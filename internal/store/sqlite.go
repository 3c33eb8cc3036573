// Package store is the operational ledger backing the admin API and CLI:
// connection history, scheduler run history, and notification channel
// configuration/delivery history. It is unrelated to the record log
// itself (internal/recordlog), which is the append-only file clients
// actually read and write.
package store

import (
	"database/sql"
	"fmt"

	"github.com/aesdsocketd/aesdsocketd/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Connection operations ---

func (s *SQLiteStore) InsertConnection(c *model.ConnectionRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO connections (remote_addr, opened_at, bytes_received, bytes_sent)
		 VALUES (?, ?, 0, 0)`,
		c.RemoteAddr, c.OpenedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) CloseConnection(id int64, closedAt, bytesReceived, bytesSent int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE connections SET closed_at = ?, bytes_received = ?, bytes_sent = ?, error = ? WHERE id = ?`,
		closedAt, bytesReceived, bytesSent, nullString(errMsg), id,
	)
	return err
}

func (s *SQLiteStore) ListConnections(limit int) ([]model.ConnectionRecord, error) {
	query := `SELECT id, remote_addr, opened_at, closed_at, bytes_received, bytes_sent, error
		 FROM connections ORDER BY opened_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ConnectionRecord
	for rows.Next() {
		var c model.ConnectionRecord
		var closedAt sql.NullInt64
		var errStr sql.NullString
		if err := rows.Scan(&c.ID, &c.RemoteAddr, &c.OpenedAt, &closedAt, &c.BytesReceived, &c.BytesSent, &errStr); err != nil {
			return nil, err
		}
		if closedAt.Valid {
			c.ClosedAt = closedAt.Int64
		}
		if errStr.Valid {
			c.Error = errStr.String
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

// --- Scheduler run operations ---

func (s *SQLiteStore) InsertSchedulerRun(r *model.SchedulerRun) error {
	_, err := s.db.Exec(
		`INSERT INTO scheduler_runs (ran_at, error) VALUES (?, ?)`,
		r.RanAt, nullString(r.Error),
	)
	return err
}

func (s *SQLiteStore) ListSchedulerRuns(limit int) ([]model.SchedulerRun, error) {
	query := `SELECT id, ran_at, error FROM scheduler_runs ORDER BY ran_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.SchedulerRun
	for rows.Next() {
		var r model.SchedulerRun
		var errStr sql.NullString
		if err := rows.Scan(&r.ID, &r.RanAt, &errStr); err != nil {
			return nil, err
		}
		if errStr.Valid {
			r.Error = errStr.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Notify channel operations ---

func (s *SQLiteStore) CreateNotifyChannel(ch *model.NotifyChannel) error {
	_, err := s.db.Exec(
		`INSERT INTO notify_channels (id, name, type, enabled, config, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.Type, boolToInt(ch.Enabled), ch.Config, ch.CreatedAt, ch.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetNotifyChannel(id string) (*model.NotifyChannel, error) {
	row := s.db.QueryRow(
		`SELECT id, name, type, enabled, config, created_at, updated_at FROM notify_channels WHERE id = ?`, id)
	return scanNotifyChannel(row)
}

func (s *SQLiteStore) ListNotifyChannels() ([]model.NotifyChannel, error) {
	rows, err := s.db.Query(
		`SELECT id, name, type, enabled, config, created_at, updated_at FROM notify_channels ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifyChannels(rows)
}

func (s *SQLiteStore) ListEnabledNotifyChannels() ([]model.NotifyChannel, error) {
	rows, err := s.db.Query(
		`SELECT id, name, type, enabled, config, created_at, updated_at FROM notify_channels WHERE enabled = 1 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifyChannels(rows)
}

func (s *SQLiteStore) UpdateNotifyChannel(ch *model.NotifyChannel) error {
	_, err := s.db.Exec(
		`UPDATE notify_channels SET name = ?, type = ?, enabled = ?, config = ?, updated_at = ? WHERE id = ?`,
		ch.Name, ch.Type, boolToInt(ch.Enabled), ch.Config, ch.UpdatedAt, ch.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteNotifyChannel(id string) error {
	_, err := s.db.Exec(`DELETE FROM notify_channels WHERE id = ?`, id)
	return err
}

// --- Notify history operations ---

func (s *SQLiteStore) InsertNotifyRecord(rec *model.NotifyRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO notify_history (channel_id, event_type, message, status, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChannelID, rec.EventType, rec.Message, rec.Status, nullString(rec.Error), rec.SentAt,
	)
	return err
}

func (s *SQLiteStore) ListNotifyHistory(channelID string, limit int) ([]model.NotifyRecord, error) {
	query := `SELECT id, channel_id, event_type, message, status, error, sent_at FROM notify_history`
	var args []any

	if channelID != "" {
		query += ` WHERE channel_id = ?`
		args = append(args, channelID)
	}
	query += ` ORDER BY sent_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.NotifyRecord
	for rows.Next() {
		var rec model.NotifyRecord
		var errStr sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ChannelID, &rec.EventType, &rec.Message, &rec.Status, &errStr, &rec.SentAt); err != nil {
			return nil, err
		}
		if errStr.Valid {
			rec.Error = errStr.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// --- Helper functions ---

type scannable interface {
	Scan(dest ...any) error
}

func scanNotifyChannel(row scannable) (*model.NotifyChannel, error) {
	var ch model.NotifyChannel
	var enabled int
	err := row.Scan(&ch.ID, &ch.Name, &ch.Type, &enabled, &ch.Config, &ch.CreatedAt, &ch.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ch.Enabled = enabled == 1
	return &ch, nil
}

func scanNotifyChannels(rows *sql.Rows) ([]model.NotifyChannel, error) {
	var channels []model.NotifyChannel
	for rows.Next() {
		ch, err := scanNotifyChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
