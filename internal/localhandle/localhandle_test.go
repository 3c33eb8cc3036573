package localhandle

import (
	"context"
	"testing"

	"github.com/aesdsocketd/aesdsocketd/internal/apperror"
	"github.com/aesdsocketd/aesdsocketd/internal/ringbuffer"
)

func TestWriteFramingPreservesTail(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()

	if _, err := h.Write(ctx, []byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ring.Count() != 0 {
		t.Fatalf("expected no committed entry yet, count=%d", ring.Count())
	}

	if _, err := h.Write(ctx, []byte("de\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ring.Count() != 1 {
		t.Fatalf("expected one committed entry, count=%d", ring.Count())
	}

	e, _, ok := ring.FindAt(0)
	if !ok || string(e.Data) != "abcde\n" {
		t.Fatalf("committed entry = %q, want %q", e.Data, "abcde\n")
	}
}

func TestWriteTailCarriesToNextEntry(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()

	h.Write(ctx, []byte("one\ntwo"))
	if ring.Count() != 1 {
		t.Fatalf("expected one committed entry, count=%d", ring.Count())
	}
	h.Write(ctx, []byte("\n"))
	if ring.Count() != 2 {
		t.Fatalf("expected second committed entry once tail terminates, count=%d", ring.Count())
	}
	e, _, _ := ring.FindAt(4)
	if string(e.Data) != "two\n" {
		t.Fatalf("second entry = %q, want %q", e.Data, "two\n")
	}
}

func TestReadRoundTrip(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()

	h.Write(ctx, []byte("hello\n"))
	h.Write(ctx, []byte("world\n"))

	buf := make([]byte, 100)
	n, err := h.Read(ctx, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, want := string(buf[:n]), "hello\n"; got != want {
		t.Fatalf("first read = %q, want %q", got, want)
	}

	n, err = h.Read(ctx, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, want := string(buf[:n]), "world\n"; got != want {
		t.Fatalf("second read = %q, want %q", got, want)
	}

	n, err = h.Read(ctx, buf)
	if err != nil || n != 0 {
		t.Fatalf("expected EOF-as-zero, got n=%d err=%v", n, err)
	}
}

func TestSeekIdempotence(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()
	h.Write(ctx, []byte("hello\nworld\n"))

	if _, err := h.Seek(ctx, 3, SeekSet); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 3)
	n, _ := h.Read(ctx, buf)
	first := string(buf[:n])

	h.Seek(ctx, 3, SeekSet)
	n, _ = h.Read(ctx, buf)
	second := string(buf[:n])

	if first != second {
		t.Fatalf("seek(3);read != seek(3);read: %q vs %q", first, second)
	}
}

func TestSeekEndIsNonPOSIX(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()
	h.Write(ctx, []byte("0123456789\n")) // 11 bytes total

	pos, err := h.Seek(ctx, 4, SeekEnd)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got, want := pos, int64(11-4); got != want {
		t.Fatalf("SEEK_END(4) = %d, want size-offset = %d", got, want)
	}
}

func TestSeekPastEndRejected(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()
	h.Write(ctx, []byte("ab\n"))

	_, err := h.Seek(ctx, 100, SeekSet)
	if !apperror.Is(err, apperror.OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

func TestIoctlSeekToRecordAfterEviction(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		h.Write(ctx, []byte("x\n"))
	}
	if got, want := ring.TotalBytes(), ringbuffer.Capacity*2; got != want {
		t.Fatalf("total bytes = %d, want %d", got, want)
	}

	if err := h.IoctlSeekToRecord(ctx, 0, 0); err != nil {
		t.Fatalf("IoctlSeekToRecord: %v", err)
	}
	if h.pos != 0 {
		t.Fatalf("position after seek-to-record 0 = %d, want 0", h.pos)
	}
}

func TestIoctlSeekToRecordOutOfRange(t *testing.T) {
	ring := ringbuffer.New()
	h := Open(ring)
	ctx := context.Background()
	h.Write(ctx, []byte("a\n"))

	err := h.IoctlSeekToRecord(ctx, 5, 0)
	if !apperror.Is(err, apperror.OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}
