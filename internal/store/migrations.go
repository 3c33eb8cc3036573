package store

const schemaVersion = 1

const migrationSQL = `
CREATE TABLE IF NOT EXISTS connections (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    remote_addr     TEXT NOT NULL,
    opened_at       INTEGER NOT NULL,
    closed_at       INTEGER,
    bytes_received  INTEGER NOT NULL DEFAULT 0,
    bytes_sent      INTEGER NOT NULL DEFAULT 0,
    error           TEXT
);

CREATE INDEX IF NOT EXISTS idx_connections_opened ON connections(opened_at);

CREATE TABLE IF NOT EXISTS scheduler_runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ran_at      INTEGER NOT NULL,
    error       TEXT
);

CREATE INDEX IF NOT EXISTS idx_scheduler_runs_ran_at ON scheduler_runs(ran_at);

CREATE TABLE IF NOT EXISTS notify_channels (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL,
    enabled     INTEGER NOT NULL DEFAULT 1,
    config      TEXT NOT NULL DEFAULT '{}',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notify_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id  TEXT NOT NULL REFERENCES notify_channels(id),
    event_type  TEXT NOT NULL,
    message     TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    error       TEXT,
    sent_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notify_history_channel ON notify_history(channel_id, sent_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(migrationSQL)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO schema_version (rowid, version) VALUES (1, ?)`, schemaVersion)
	return err
}
