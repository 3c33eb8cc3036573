// Package config loads and saves the appliance's JSON configuration file,
// following the same DefaultConfig/Load/Save shape as the teacher's
// config package, adapted to this appliance's settings: the public TCP
// listen address, the local admin API address, and the record log's
// tunables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultDataDir    = "/var/lib/aesdsocketd"
	DefaultListenAddr = "0.0.0.0:9000"
	DefaultCLIAddr    = "127.0.0.1:9001"
	DefaultLogPath    = "/var/tmp/aesdsocketdata"
	ConfigFileName    = "config.json"

	// DefaultMaxRecvBuffer bounds how large a single connection's pending,
	// not-yet-newline-terminated receive buffer may grow before the
	// connection is dropped, resolving O-3 in favor of a generous but
	// finite cap rather than unbounded growth.
	DefaultMaxRecvBuffer = 1 << 20 // 1 MiB

	DefaultSchedulerInterval = 10 * time.Second
)

// Config holds all configuration for an aesdsocketd instance.
type Config struct {
	DataDir    string `json:"data_dir"`
	ListenAddr string `json:"listen_addr"` // public TCP record-logging service
	CLIAddr    string `json:"cli_addr"`    // local admin API (localhost only)

	LogFilePath       string        `json:"log_file_path"`
	MaxRecvBuffer     int           `json:"max_recv_buffer"`
	SchedulerInterval time.Duration `json:"scheduler_interval"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           DefaultDataDir,
		ListenAddr:        DefaultListenAddr,
		CLIAddr:           DefaultCLIAddr,
		LogFilePath:       DefaultLogPath,
		MaxRecvBuffer:     DefaultMaxRecvBuffer,
		SchedulerInterval: DefaultSchedulerInterval,
	}
}

// Load reads configuration from the data directory, falling back to
// defaults (and creating nothing) if no config file exists yet — unlike
// a clustered node, a single appliance instance doesn't need an explicit
// init step before it can run.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.DataDir = dataDir
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// Save writes configuration to the data directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(c.DataDir, ConfigFileName)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DBPath returns the path to the SQLite ops database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "aesdsocketd.db")
}
