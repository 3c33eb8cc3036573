package recordlog

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
)

func TestAppendAndReadRange(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	if _, err := log.Append([]byte("hello\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := log.Append([]byte("world\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got, want := log.Size(), int64(len("hello\nworld\n")); got != want {
		t.Fatalf("Size = %d, want %d", got, want)
	}

	var buf bytes.Buffer
	n, err := log.ReadRange(0, log.Size(), &buf)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if got, want := buf.String(), "hello\nworld\n"; got != want {
		t.Fatalf("ReadRange content = %q, want %q (n=%d)", got, want, n)
	}
}

func TestReadRangeDelta(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	log.Append([]byte("a\n"))
	firstLen := log.Size()
	log.Append([]byte("b\n"))

	var buf bytes.Buffer
	if _, err := log.ReadRange(firstLen, log.Size()-firstLen, &buf); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if got, want := buf.String(), "b\n"; got != want {
		t.Fatalf("delta read = %q, want %q", got, want)
	}
}

func TestConcurrentAppendsNeverInterleave(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	var wg sync.WaitGroup
	records := [][]byte{
		bytes.Repeat([]byte("a"), 50),
		bytes.Repeat([]byte("b"), 50),
	}
	for _, r := range records {
		r := append(r, '\n')
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Append(r)
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	log.ReadRange(0, log.Size(), &buf)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 whole lines, got %d: %q", len(lines), buf.String())
	}
	for _, l := range lines {
		if len(l) != 50 {
			t.Fatalf("torn write detected: line length %d", len(l))
		}
		first := l[0]
		for _, c := range l {
			if c != first {
				t.Fatalf("torn write detected: mixed bytes in line %q", l)
			}
		}
	}
}

func TestOpenReopenPreservesSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log.Append([]byte("persisted\n"))
	log.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got, want := reopened.Size(), int64(len("persisted\n")); got != want {
		t.Fatalf("reopened size = %d, want %d", got, want)
	}
}
