// Package ringbuffer implements the fixed-capacity, record-addressable
// circular store backing the local handle. Capacity is fixed at compile
// time, matching the character-device driver it's modeled on: once full,
// appending an entry evicts the oldest.
//
// All operations assume external serialization by the caller (the local
// handle supplies a mutex); nothing here is safe for concurrent use on its
// own, mirroring the "any necessary locking must be performed by caller"
// contract of the original circular-buffer implementation.
package ringbuffer

import "github.com/aesdsocketd/aesdsocketd/internal/apperror"

// Capacity is the fixed number of entries the buffer holds.
const Capacity = 10

// Entry is one record's bytes, including its trailing newline.
type Entry struct {
	Data []byte
}

// Buffer is a bounded FIFO of Entry, addressable both by flat byte offset
// and by (record index, intra-record offset).
type Buffer struct {
	entries [Capacity]Entry
	in      int // next write slot
	out     int // oldest occupied slot
	full    bool
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append stores entry at the write slot, evicting the oldest entry if the
// buffer is already full. The evicted entry's data is returned so the
// caller can do something specific with it (here: nothing, Go's GC handles
// it, but the return value documents the eviction the driver's explicit
// kfree makes visible).
func (b *Buffer) Append(entry Entry) (evicted []byte) {
	if b.full {
		evicted = b.entries[b.in].Data
	}

	b.entries[b.in] = entry
	b.in = (b.in + 1) % Capacity

	if b.in == b.out && !b.full {
		b.full = true
	}
	if b.full {
		b.out = b.in
	}

	return evicted
}

// Count returns the number of valid entries currently stored.
func (b *Buffer) Count() int {
	if b.full {
		return Capacity
	}
	if b.in >= b.out {
		return b.in - b.out
	}
	return Capacity - b.out + b.in
}

// TotalBytes walks from out to in, summing entry lengths. Linear in entry
// count, which is bounded by Capacity.
func (b *Buffer) TotalBytes() int {
	if b.in == b.out && !b.full {
		return 0
	}

	total := 0
	idx := b.out
	for {
		total += len(b.entries[idx].Data)
		idx = (idx + 1) % Capacity
		if idx == b.in {
			break
		}
	}
	return total
}

// FindAt returns the entry containing the global byte position byteOffset
// (all entries treated as concatenated, oldest first) and the intra-entry
// offset within it. ok is false when the buffer is empty or byteOffset is
// at or past TotalBytes().
func (b *Buffer) FindAt(byteOffset int) (entry Entry, intraOffset int, ok bool) {
	if b.in == b.out && !b.full {
		return Entry{}, 0, false
	}
	if byteOffset < 0 {
		return Entry{}, 0, false
	}

	current := 0
	idx := b.out
	for {
		size := len(b.entries[idx].Data)
		if current+size > byteOffset {
			return b.entries[idx], byteOffset - current, true
		}
		current += size
		idx = (idx + 1) % Capacity
		if idx == b.in {
			break
		}
	}
	return Entry{}, 0, false
}

// OffsetOf returns the global byte position of record recordIndex's start
// (0 == oldest surviving record) plus intraOffset. Fails with OutOfRange
// when recordIndex >= Count().
func (b *Buffer) OffsetOf(recordIndex, intraOffset int) (int, error) {
	count := b.Count()
	if recordIndex < 0 || recordIndex >= count {
		return 0, apperror.New(apperror.OutOfRange, "record index out of range", nil)
	}

	offset := 0
	idx := b.out
	for i := 0; i < recordIndex; i++ {
		offset += len(b.entries[idx].Data)
		idx = (idx + 1) % Capacity
	}
	return offset + intraOffset, nil
}
