package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's status overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/status", cfg.CLIAddr))
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer resp.Body.Close()

			var status map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}

			fmt.Printf("Listen:            %v\n", status["listen_addr"])
			fmt.Printf("Admin API:         %v\n", status["cli_addr"])
			fmt.Printf("Log file:          %v\n", status["log_path"])
			if v, ok := status["uptime"]; ok {
				fmt.Printf("Uptime:            %v\n", v)
			}
			if v, ok := status["open_connections"]; ok {
				fmt.Printf("Open connections:  %v\n", v)
			}
			if v, ok := status["record_log_bytes"]; ok {
				fmt.Printf("Record log bytes:  %v\n", v)
			}
			if v, ok := status["ring_buffer_entries"]; ok {
				fmt.Printf("Ring buffer records: %v\n", v)
			}

			return nil
		},
	}
}
