// Package recordlog implements the append-only, file-backed record store
// shared by every connection worker and the timestamp scheduler. A single
// mutex serializes all mutations and reads: record writes are short, the
// replay path only holds the lock for one transmission, and a coarse lock
// keeps the read-after-write consistency the design needs without a more
// elaborate scheme.
//
// Positional reads and writes (ReadAt/WriteAt) are used throughout instead
// of seek-then-read/write, so there's no shared file cursor to save and
// restore around a replay the way the original C implementation had to.
package recordlog

import (
	"io"
	"os"
	"sync"

	"github.com/aesdsocketd/aesdsocketd/internal/apperror"
)

// Log is an append-only byte store backed by a file.
type Log struct {
	mu   sync.Mutex
	file *os.File
	size int64
}

// Open opens (creating if necessary) the log file at path in append+read
// mode and returns a Log positioned at its current length.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, apperror.New(apperror.Fatal, "opening record log file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperror.New(apperror.Fatal, "statting record log file", err)
	}

	return &Log{file: f, size: info.Size()}, nil
}

// Path returns the underlying file's name.
func (l *Log) Path() string {
	return l.file.Name()
}

// Append writes p atomically to the end of the log and flushes it to the
// OS, returning the new total length. On failure the log's length remains
// at its pre-call value; no partial write is ever exposed to readers
// through Size or ReadRange.
func (l *Log) Append(p []byte) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.file.WriteAt(p, l.size)
	if err != nil {
		return l.size, apperror.New(apperror.PermanentIo, "writing record", err)
	}
	if err := l.file.Sync(); err != nil {
		return l.size, apperror.New(apperror.PermanentIo, "flushing record log", err)
	}

	l.size += int64(n)
	return l.size, nil
}

// Size returns the current byte length under the lock.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// ReadRange streams up to maxLen bytes starting at offset into w. w must
// not reacquire the log's lock (e.g. by calling back into Append/Size):
// doing so would deadlock, since the lock is held for the duration of the
// call.
func (l *Log) ReadRange(offset, maxLen int64, w io.Writer) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if offset < 0 || offset > l.size || maxLen <= 0 {
		return 0, nil
	}
	if offset+maxLen > l.size {
		maxLen = l.size - offset
	}

	buf := make([]byte, maxLen)
	n, err := l.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return 0, apperror.New(apperror.PermanentIo, "reading record log", err)
	}

	written, err := w.Write(buf[:n])
	if err != nil {
		return int64(written), apperror.New(apperror.PermanentIo, "replaying to sink", err)
	}
	return int64(written), nil
}

// Close closes the underlying file without removing it.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Remove closes and deletes the backing file, as graceful shutdown
// requires.
func (l *Log) Remove() error {
	l.mu.Lock()
	path := l.file.Name()
	err := l.file.Close()
	l.mu.Unlock()

	if err != nil {
		return apperror.New(apperror.PermanentIo, "closing record log", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperror.New(apperror.PermanentIo, "removing record log", err)
	}
	return nil
}
