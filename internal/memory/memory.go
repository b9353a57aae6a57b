// Package memory implements Wasm linear memory: a growable byte buffer
// allocated in 64KiB pages, grounded on the reference implementation's
// Memory type (a raw pointer + length + optional max) but expressed as a
// plain Go byte slice, since Go slices already give growable, bounds-checked
// storage without unsafe pointer arithmetic.
package memory

import "fmt"

// PageSize is the Wasm page size in bytes: 64 KiB.
const PageSize = 65536

// Memory owns a contiguous, zero-initialized byte buffer whose length is
// always a multiple of PageSize. A MemInst embeds one; callers obtain a
// byte-slice view via Bytes for reads and writes, and must not retain that
// view across a Grow (which may reallocate).
type Memory struct {
	bytes   []byte
	maxPages uint32
	hasMax  bool
}

// New allocates a Memory of minPages pages, zero-filled, with an optional
// maximum (maxPages is only honored when hasMax is true).
func New(minPages uint32, maxPages uint32, hasMax bool) *Memory {
	return &Memory{
		bytes:    make([]byte, int(minPages)*PageSize),
		maxPages: maxPages,
		hasMax:   hasMax,
	}
}

// Len returns the current size in bytes.
func (m *Memory) Len() int { return len(m.bytes) }

// Pages returns the current size in pages.
func (m *Memory) Pages() uint32 { return uint32(len(m.bytes) / PageSize) }

// MaxPages returns the declared maximum page count and whether one exists.
func (m *Memory) MaxPages() (uint32, bool) { return m.maxPages, m.hasMax }

// Bytes returns the full backing slice. Callers index into it directly;
// the single-threaded execution model (spec.md §5) means no two callers
// ever hold overlapping mutable views across a yield point.
func (m *Memory) Bytes() []byte { return m.bytes }

// Grow appends delta pages, failing (returning false) if that would exceed
// the declared maximum. The interpreter's memory.grow calls it and pushes
// the -1 (0xFFFFFFFF) sentinel when it fails.
func (m *Memory) Grow(delta uint32) (oldPages uint32, ok bool) {
	old := m.Pages()
	if m.hasMax && old+delta > m.maxPages {
		return old, false
	}
	m.bytes = append(m.bytes, make([]byte, int(delta)*PageSize)...)
	return old, true
}

// Write copies src into the buffer starting at offset, returning an error
// if the write would run past the end of the buffer.
func (m *Memory) Write(offset uint32, src []byte) error {
	end := uint64(offset) + uint64(len(src))
	if end > uint64(len(m.bytes)) {
		return fmt.Errorf("memory: write [%d:%d] out of bounds (len=%d)", offset, end, len(m.bytes))
	}
	copy(m.bytes[offset:end], src)
	return nil
}

// Read returns a copy of n bytes starting at offset, or an error if that
// range runs past the end of the buffer.
func (m *Memory) Read(offset uint32, n uint32) ([]byte, error) {
	end := uint64(offset) + uint64(n)
	if end > uint64(len(m.bytes)) {
		return nil, fmt.Errorf("memory: read [%d:%d] out of bounds (len=%d)", offset, end, len(m.bytes))
	}
	out := make([]byte, n)
	copy(out, m.bytes[offset:end])
	return out, nil
}
