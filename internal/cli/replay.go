package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Dump the record log by round-tripping an empty record through the TCP service",
		Long:  "Connects to the record-logging port, sends a single newline, and prints everything replayed back — the whole accumulated log as of that connection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			conn, err := net.Dial("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer conn.Close()

			if _, err := conn.Write([]byte("\n")); err != nil {
				return fmt.Errorf("sending record: %w", err)
			}

			conn.SetReadDeadline(time.Now().Add(timeout))
			_, err = io.Copy(os.Stdout, conn)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					return nil
				}
				return fmt.Errorf("reading reply: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "how long to wait for the replayed log before giving up")
	return cmd
}
