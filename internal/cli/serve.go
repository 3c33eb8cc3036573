package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/aesdsocketd/aesdsocketd/internal/adminapi"
	"github.com/aesdsocketd/aesdsocketd/internal/config"
	"github.com/aesdsocketd/aesdsocketd/internal/localhandle"
	"github.com/aesdsocketd/aesdsocketd/internal/logbuf"
	"github.com/aesdsocketd/aesdsocketd/internal/notify"
	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
	"github.com/aesdsocketd/aesdsocketd/internal/ringbuffer"
	"github.com/aesdsocketd/aesdsocketd/internal/server"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the aesdsocketd daemon",
		Long:  "Start the aesdsocketd daemon: accept TCP connections on the record-logging port, run the timestamp scheduler, and serve the admin API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if detach {
				return reexecDetached()
			}
			return runServe()
		},
	}

	cmd.Flags().BoolVarP(&detach, "daemon", "d", false, "detach and run in the background")
	return cmd
}

// reexecDetached re-invokes the current binary with -d stripped and a new
// session, then exits — the simplest self-daemonization a Go process can
// do without pulling in a process-supervision library.
func reexecDetached() error {
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "-d" && a != "--daemon" {
			args = append(args, a)
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	child := exec.Command(exe, args...)
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	child.Stdin = nil
	child.Stdout = nil
	child.Stderr = nil

	if err := child.Start(); err != nil {
		return fmt.Errorf("starting detached process: %w", err)
	}

	fmt.Printf("aesdsocketd started in background, pid %d\n", child.Process.Pid)
	return nil
}

func runServe() error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}

	logBuf := logbuf.New()
	log.SetOutput(io.MultiWriter(os.Stdout, logBuf))

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	rl, err := recordlog.Open(cfg.LogFilePath)
	if err != nil {
		return fmt.Errorf("opening record log: %w", err)
	}

	// The local handle exposes the same append/replay semantics over an
	// in-process ring buffer, entirely independent of the TCP path above;
	// the admin API exposes it remotely via its /api/v1/local endpoints.
	ring := ringbuffer.New()
	local := localhandle.Open(ring)

	dispatcher := notify.NewDispatcher(st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[serve] received signal %v, shutting down...", sig)
		cancel()
	}()

	sup := server.New(cfg, rl, st, dispatcher)

	admin := adminapi.NewServer(cfg, st,
		adminapi.WithLogBuffer(logBuf),
		adminapi.WithRuntimeInfo(sup),
		adminapi.WithNotifyDispatcher(dispatcher),
		adminapi.WithRecordLog(rl),
		adminapi.WithRingBuffer(ring),
		adminapi.WithLocalHandle(local),
	)
	go func() {
		if err := admin.Start(ctx); err != nil {
			log.Printf("[adminapi] server error: %v", err)
		}
	}()

	err = sup.Run(ctx)

	// Shutdown: remove the record log file per the documented sequence,
	// now that every worker and the scheduler have stopped.
	if removeErr := rl.Remove(); removeErr != nil {
		log.Printf("[serve] failed to remove record log: %v", removeErr)
	}

	return err
}
