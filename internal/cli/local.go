package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/spf13/cobra"
)

func newLocalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Drive the in-process local handle over the admin API",
	}

	cmd.AddCommand(newLocalWriteCmd(), newLocalReadCmd(), newLocalSeekCmd())
	return cmd
}

func newLocalWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <data>",
		Short: "Write a record to the local handle's ring buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			body, _ := json.Marshal(map[string]string{"data": args[0]})
			resp, err := http.Post(
				fmt.Sprintf("http://%s/api/v1/local/write", cfg.CLIAddr),
				"application/json",
				bytes.NewReader(body),
			)
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("write failed with status %d", resp.StatusCode)
			}
			fmt.Println("write ok")
			return nil
		},
	}
}

func newLocalReadCmd() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read from the local handle's current position",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://%s/api/v1/local/read?length=%d", cfg.CLIAddr, length)
			resp, err := http.Get(url)
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer resp.Body.Close()

			var out struct {
				Data string `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			fmt.Print(out.Data)
			return nil
		},
	}

	cmd.Flags().IntVarP(&length, "length", "n", 4096, "max bytes to read")
	return cmd
}

func newLocalSeekCmd() *cobra.Command {
	var (
		offset int64
		whence int
		record uint32
		recOff uint32
		toRec  bool
	)

	cmd := &cobra.Command{
		Use:   "seek",
		Short: "Reposition the local handle, or jump to a record with --to-record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}

			req := map[string]any{
				"offset":        offset,
				"whence":        whence,
				"to_record":     toRec,
				"record":        record,
				"record_offset": recOff,
			}
			body, _ := json.Marshal(req)

			resp, err := http.Post(
				fmt.Sprintf("http://%s/api/v1/local/seek", cfg.CLIAddr),
				"application/json",
				bytes.NewReader(body),
			)
			if err != nil {
				return fmt.Errorf("connecting to aesdsocketd: %w (is it running?)", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("seek failed with status %d", resp.StatusCode)
			}

			// A --to-record seek answers with a status only, not a position.
			if toRec {
				fmt.Printf("seek to record %d, offset %d: ok\n", record, recOff)
				return nil
			}

			var out struct {
				Position int64 `json:"position"`
			}
			json.NewDecoder(resp.Body).Decode(&out)
			fmt.Printf("position: %d\n", out.Position)
			return nil
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "seek offset")
	cmd.Flags().IntVar(&whence, "whence", 0, "0=set, 1=cur, 2=end (non-POSIX: size-offset)")
	cmd.Flags().BoolVar(&toRec, "to-record", false, "seek to a specific record via --record/--record-offset")
	cmd.Flags().Uint32Var(&record, "record", 0, "record index, used with --to-record")
	cmd.Flags().Uint32Var(&recOff, "record-offset", 0, "intra-record byte offset, used with --to-record")

	return cmd
}
