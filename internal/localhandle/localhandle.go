// Package localhandle implements the character-device-style in-process
// handle over the ring buffer: open/release/read/write/seek and a
// seek-to-record ioctl. It mirrors the semantics of the kernel driver this
// appliance's local path is modeled on, including two of its more
// surprising choices (preserved verbatim, not "fixed"): a write whose tail
// has no newline is held for the next write rather than discarded, and
// SEEK_END computes size-offset instead of the POSIX size+offset.
package localhandle

import (
	"bytes"
	"context"
	"io"

	"github.com/aesdsocketd/aesdsocketd/internal/apperror"
	"github.com/aesdsocketd/aesdsocketd/internal/ringbuffer"
)

// Whence values for Seek, matching io.Seeker's.
const (
	SeekSet = io.SeekStart
	SeekCur = io.SeekCurrent
	SeekEnd = io.SeekEnd
)

// Handle is a per-open state pointing at a shared ring buffer.
type Handle struct {
	lock lockable

	ring        *ringbuffer.Buffer
	pos         int64
	accumulator []byte
}

// Open attaches a new handle to the shared ring buffer. The lock's
// semaphore is allocated here, not lazily, so two goroutines racing to
// take the lock before any prior acquisition can't each observe a nil
// channel and skip serialization.
func Open(ring *ringbuffer.Buffer) *Handle {
	return &Handle{ring: ring, lock: lockable{sem: make(chan struct{}, 1)}}
}

// Release detaches the handle. There is no kernel resource to free
// in-process; this resets per-open state.
func (h *Handle) Release() {
	h.lock.withLock(context.Background(), func() {
		h.pos = 0
		h.accumulator = nil
	})
}

// Write accumulates bytes into the per-handle accumulator. The first
// newline found commits everything up to and including it as one ring
// buffer entry; any bytes after that newline become the start of the next
// accumulator rather than being discarded. Returns len(p) on success, as
// a write to this device never partially fails.
func (h *Handle) Write(ctx context.Context, p []byte) (int, error) {
	err := h.lock.withLockCtx(ctx, func() error {
		h.accumulator = append(h.accumulator, p...)

		nl := bytes.IndexByte(h.accumulator, '\n')
		if nl < 0 {
			return nil
		}

		committed := make([]byte, nl+1)
		copy(committed, h.accumulator[:nl+1])
		h.ring.Append(ringbuffer.Entry{Data: committed})

		remainder := h.accumulator[nl+1:]
		h.accumulator = append([]byte(nil), remainder...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read copies up to len(p) bytes starting at the handle's current
// position, advancing it by the number of bytes copied. Returns 0, nil at
// end of stream, following the device's "return 0 at EOF" convention
// rather than io.Reader's io.EOF convention (this type is not meant to
// satisfy io.Reader generically).
func (h *Handle) Read(ctx context.Context, p []byte) (int, error) {
	var n int
	err := h.lock.withLockCtx(ctx, func() error {
		entry, intraOff, ok := h.ring.FindAt(int(h.pos))
		if !ok {
			n = 0
			return nil
		}

		avail := len(entry.Data) - intraOff
		toCopy := avail
		if toCopy > len(p) {
			toCopy = len(p)
		}
		copy(p, entry.Data[intraOff:intraOff+toCopy])
		h.pos += int64(toCopy)
		n = toCopy
		return nil
	})
	return n, err
}

// Seek computes a new file position per whence. SEEK_END is intentionally
// non-POSIX: new position = total size - offset. Negative results clamp
// to 0; positions beyond the buffer's total size are rejected.
func (h *Handle) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	var newPos int64
	err := h.lock.withLockCtx(ctx, func() error {
		total := int64(h.ring.TotalBytes())

		switch whence {
		case SeekSet:
			newPos = offset
		case SeekCur:
			newPos = h.pos + offset
		case SeekEnd:
			newPos = total - offset
		default:
			return apperror.New(apperror.OutOfRange, "invalid whence", nil)
		}

		if newPos > total {
			return apperror.New(apperror.OutOfRange, "seek past end of buffer", nil)
		}
		if newPos < 0 {
			newPos = 0
		}

		h.pos = newPos
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newPos, nil
}

// IoctlSeekToRecord implements SEEK_TO_RECORD: sets the handle's position
// to the global byte offset of record's start plus intraOffset.
func (h *Handle) IoctlSeekToRecord(ctx context.Context, record, intraOffset uint32) error {
	return h.lock.withLockCtx(ctx, func() error {
		off, err := h.ring.OffsetOf(int(record), int(intraOffset))
		if err != nil {
			return err
		}
		h.pos = int64(off)
		return nil
	})
}
