package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/spf13/cobra"
)

type logEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

func newLogsCmd() *cobra.Command {
	var lines int
	var follow bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			if !follow {
				entries, err := fetchLogs(cfg.CLIAddr, lines)
				if err != nil {
					return err
				}
				printLogEntries(entries)
				return nil
			}

			return followLogs(cmd, cfg.CLIAddr, lines, pollInterval)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of log lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling and print new entries as they arrive")
	cmd.Flags().DurationVar(&pollInterval, "interval", time.Second, "poll interval in follow mode")
	return cmd
}

// followLogs polls the admin API on a ticker, the same wait-or-cancel
// shape the scheduler and workers use for their own loops, printing only
// entries not already seen (by timestamp) on each tick.
func followLogs(cmd *cobra.Command, cliAddr string, lines int, interval time.Duration) error {
	ctx := cmd.Context()

	var lastSeen time.Time
	print := func() error {
		entries, err := fetchLogs(cliAddr, lines)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !e.Time.After(lastSeen) {
				continue
			}
			printLogEntry(e)
			lastSeen = e.Time
		}
		return nil
	}

	if err := print(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := print(); err != nil {
				return err
			}
		}
	}
}

func fetchLogs(cliAddr string, lines int) ([]logEntry, error) {
	url := fmt.Sprintf("http://%s/api/v1/logs?lines=%d", cliAddr, lines)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
	}
	defer resp.Body.Close()

	var entries []logEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return entries, nil
}

func printLogEntries(entries []logEntry) {
	for _, e := range entries {
		printLogEntry(e)
	}
}

func printLogEntry(e logEntry) {
	fmt.Printf("%s  %s\n", e.Time.Format("15:04:05.000"), e.Message)
}
