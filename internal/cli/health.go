package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/model"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the running daemon's health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", cfg.CLIAddr))
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer resp.Body.Close()

			var health model.HealthInfo
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}

			fmt.Printf("Uptime:              %s\n", health.Uptime)
			fmt.Printf("Go Version:          %s\n", health.GoVersion)
			fmt.Printf("Goroutines:          %d\n", health.NumGoroutines)
			fmt.Printf("Memory:              %.1f MB\n", health.MemoryMB)
			fmt.Printf("Record Log Size:     %.2f MB\n", health.RecordLogSizeMB)
			fmt.Printf("Ring Buffer Records: %d\n", health.RingBufferEntries)
			fmt.Printf("Open Connections:    %d\n", health.OpenConnections)

			return nil
		},
	}
}
