package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show connection and scheduler history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			if err := printConnectionHistory(cfg.CLIAddr, limit); err != nil {
				return err
			}
			fmt.Println()
			return printSchedulerHistory(cfg.CLIAddr, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "max rows to show per section")
	return cmd
}

func printConnectionHistory(cliAddr string, limit int) error {
	url := fmt.Sprintf("http://%s/api/v1/history/connections?limit=%d", cliAddr, limit)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
	}
	defer resp.Body.Close()

	var records []model.ConnectionRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Println("Connections:")
	if len(records) == 0 {
		fmt.Println("  (none)")
		return nil
	}

	fmt.Printf("  %-20s  %-22s  %-8s  %-8s  %s\n", "OPENED", "REMOTE", "RECV", "SENT", "ERROR")
	for _, c := range records {
		opened := time.UnixMilli(c.OpenedAt).Format("15:04:05")
		errStr := c.Error
		if len(errStr) > 40 {
			errStr = errStr[:37] + "..."
		}
		fmt.Printf("  %-20s  %-22s  %-8d  %-8d  %s\n", opened, c.RemoteAddr, c.BytesReceived, c.BytesSent, errStr)
	}
	return nil
}

func printSchedulerHistory(cliAddr string, limit int) error {
	url := fmt.Sprintf("http://%s/api/v1/history/scheduler?limit=%d", cliAddr, limit)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
	}
	defer resp.Body.Close()

	var runs []model.SchedulerRun
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Println("Scheduler runs:")
	if len(runs) == 0 {
		fmt.Println("  (none)")
		return nil
	}

	fmt.Printf("  %-20s  %s\n", "RAN AT", "ERROR")
	for _, r := range runs {
		ranAt := time.UnixMilli(r.RanAt).Format("15:04:05")
		fmt.Printf("  %-20s  %s\n", ranAt, r.Error)
	}
	return nil
}
