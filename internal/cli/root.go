package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dataDir string

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aesdsocketd",
		Short:         "Newline-framed TCP record-logging appliance",
		Long:          "aesdsocketd accepts TCP connections, appends each newline-terminated record it receives to a shared log, and replays the log back to the client that sent each record.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", "/var/lib/aesdsocketd", "data directory path")

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newHealthCmd(),
		newHistoryCmd(),
		newLogsCmd(),
		newNotifyCmd(),
		newLocalCmd(),
		newReplayCmd(),
	)

	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
