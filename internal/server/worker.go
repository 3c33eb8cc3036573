package server

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"time"

	"github.com/aesdsocketd/aesdsocketd/internal/apperror"
	"github.com/aesdsocketd/aesdsocketd/internal/model"
	"github.com/aesdsocketd/aesdsocketd/internal/recordlog"
	"github.com/aesdsocketd/aesdsocketd/internal/store"
)

const initialRecvBuffer = 1024

// permanentIoNotifier is satisfied by *notify.Dispatcher; kept as a small
// local interface so this package doesn't need to import notify for a
// single best-effort call.
type permanentIoNotifier interface {
	PermanentIo(message string)
}

// worker owns one accepted connection: it frames incoming bytes on
// newlines, appends each completed record to the shared log, and after
// each append replays everything appended to the log since this worker's
// own last replay (O-2's per-worker delta semantics) back to the client.
//
// Go's net.Conn gives every connection its own goroutine with a blocking
// Read that a context cancellation unblocks by closing the socket, so
// there's no need for the non-blocking-with-EAGAIN-polling dance the
// original C driver used.
type worker struct {
	conn          net.Conn
	log           *recordlog.Log
	store         store.Store
	notifier      permanentIoNotifier
	maxRecvBuffer int
	connectionID  int64

	replayLen int64 // bytes of the log this worker has already replayed
}

func newWorker(conn net.Conn, rl *recordlog.Log, st store.Store, notifier permanentIoNotifier, maxRecvBuffer int) *worker {
	if maxRecvBuffer <= 0 {
		maxRecvBuffer = initialRecvBuffer
	}
	return &worker{conn: conn, log: rl, store: st, notifier: notifier, maxRecvBuffer: maxRecvBuffer}
}

// run drives the connection's life: accumulate bytes, append completed
// records, replay the delta, until the peer closes or ctx is cancelled.
func (w *worker) run(ctx context.Context) {
	remote := w.conn.RemoteAddr().String()
	opened := time.Now()

	if w.store != nil {
		id, err := w.store.InsertConnection(&model.ConnectionRecord{RemoteAddr: remote, OpenedAt: opened.UnixMilli()})
		if err != nil {
			log.Printf("[server] failed to record connection open: %v", err)
		}
		w.connectionID = id
	}

	unblock := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.conn.Close()
		case <-unblock:
		}
	}()
	defer close(unblock)
	defer w.conn.Close()

	var bytesReceived, bytesSent int64
	var accumulator []byte
	buf := make([]byte, initialRecvBuffer)

	var finalErr error
readLoop:
	for {
		n, err := w.conn.Read(buf)
		if n > 0 {
			bytesReceived += int64(n)
			accumulator = append(accumulator, buf[:n]...)

			for {
				nl := bytes.IndexByte(accumulator, '\n')
				if nl < 0 {
					break
				}
				record := accumulator[:nl+1]
				if _, appendErr := w.log.Append(record); appendErr != nil {
					finalErr = appendErr
					if w.notifier != nil && apperror.Is(appendErr, apperror.PermanentIo) {
						w.notifier.PermanentIo("record log append failed: " + appendErr.Error())
					}
					break readLoop
				}
				accumulator = append([]byte(nil), accumulator[nl+1:]...)

				sent, replayErr := w.replay()
				if replayErr != nil {
					finalErr = replayErr
					break readLoop
				}
				bytesSent += sent
			}

			if len(accumulator) > w.maxRecvBuffer {
				finalErr = apperror.New(apperror.PermanentIo, "receive buffer exceeded maximum size", nil)
				break readLoop
			}
		}
		if err != nil {
			if err != io.EOF {
				finalErr = apperror.New(apperror.PermanentIo, "reading from connection", err)
			}
			break
		}
	}

	if w.store != nil {
		errMsg := ""
		if finalErr != nil {
			errMsg = finalErr.Error()
		}
		if err := w.store.CloseConnection(w.connectionID, time.Now().UnixMilli(), bytesReceived, bytesSent, errMsg); err != nil {
			log.Printf("[server] failed to record connection close: %v", err)
		}
	}
	if finalErr != nil {
		log.Printf("[server] connection %s ended: %v", remote, finalErr)
	}
}

// replay streams everything appended to the log since this worker's last
// replay, advancing replayLen by however much was actually written.
func (w *worker) replay() (int64, error) {
	size := w.log.Size()
	if size <= w.replayLen {
		return 0, nil
	}
	n, err := w.log.ReadRange(w.replayLen, size-w.replayLen, w.conn)
	w.replayLen += n
	return n, err
}
