// Package tailstore is the optional in-RAM shadow of record tails (the
// non-key portion of each record), spec component C. It is a single
// packed byte slice indexed by slot*tailSize, preallocated for an initial
// record count and grown by append beyond that. An optional byte ceiling
// caps growth, so exceeding it is reported as OutOfCapacity instead of
// discovered as an OOM panic.
package tailstore

import (
	"errors"
	"fmt"
)

// ErrOutOfCapacity is returned when growing the store would exceed its
// configured byte ceiling.
var ErrOutOfCapacity = errors.New("tailstore: out of capacity")

// Store is the packed in-RAM tail shadow.
//
// Store is not safe for concurrent use.
type Store struct {
	tailSize int
	data     []byte
	maxBytes int64 // 0 = unlimited
}

// New returns an empty Store. tailSize is the fixed per-record tail
// width. initialRecords preallocates capacity for that many tails.
// maxBytes caps total byte growth (0 = unlimited), modeling the spec's
// "allocator cannot grow" failure mode for the tail shadow.
func New(tailSize int, initialRecords int, maxBytes int64) *Store {
	if initialRecords < 0 {
		initialRecords = 0
	}
	return &Store{
		tailSize: tailSize,
		data:     make([]byte, 0, initialRecords*tailSize),
		maxBytes: maxBytes,
	}
}

// Size returns the number of tails currently held.
func (s *Store) Size() int64 {
	if s.tailSize == 0 {
		return 0
	}
	return int64(len(s.data)) / int64(s.tailSize)
}

// Get returns a copy of the tail at slot i.
func (s *Store) Get(i int64) ([]byte, error) {
	if i < 0 || i >= s.Size() {
		return nil, fmt.Errorf("tailstore: slot %d out of range [0,%d)", i, s.Size())
	}
	off := i * int64(s.tailSize)
	out := make([]byte, s.tailSize)
	copy(out, s.data[off:off+int64(s.tailSize)])
	return out, nil
}

// Set overwrites the tail at slot i. len(tail) must equal tailSize.
func (s *Store) Set(i int64, tail []byte) error {
	if len(tail) != s.tailSize {
		return fmt.Errorf("tailstore: tail size mismatch")
	}
	if i < 0 || i >= s.Size() {
		return fmt.Errorf("tailstore: slot %d out of range [0,%d)", i, s.Size())
	}
	off := i * int64(s.tailSize)
	copy(s.data[off:off+int64(s.tailSize)], tail)
	return nil
}

// AddUnique appends a new tail, growing the store by one slot.
func (s *Store) AddUnique(tail []byte) error {
	if len(tail) != s.tailSize {
		return fmt.Errorf("tailstore: tail size mismatch")
	}
	if s.maxBytes > 0 && int64(len(s.data)+s.tailSize) > s.maxBytes {
		return ErrOutOfCapacity
	}
	s.data = append(s.data, tail...)
	return nil
}

// RemoveRow removes the tail at slot i. If keepOrder is true, every tail
// after i shifts left by one (an O(n) ordered delete). If false, the
// last tail is swapped into position i and the store shrinks by one —
// the in-RAM mirror of the file's swap-on-delete compaction.
func (s *Store) RemoveRow(i int64, keepOrder bool) error {
	n := s.Size()
	if i < 0 || i >= n {
		return fmt.Errorf("tailstore: slot %d out of range [0,%d)", i, n)
	}
	ts := int64(s.tailSize)
	if keepOrder {
		copy(s.data[i*ts:], s.data[(i+1)*ts:])
		s.data = s.data[:int64(len(s.data))-ts]
		return nil
	}
	lastOff := (n - 1) * ts
	if i < n-1 {
		copy(s.data[i*ts:i*ts+ts], s.data[lastOff:lastOff+ts])
	}
	s.data = s.data[:lastOff]
	return nil
}

// RemoveOne removes and returns the last tail.
func (s *Store) RemoveOne() ([]byte, error) {
	n := s.Size()
	if n == 0 {
		return nil, fmt.Errorf("tailstore: remove one: store is empty")
	}
	ts := int64(s.tailSize)
	off := (n - 1) * ts
	out := make([]byte, s.tailSize)
	copy(out, s.data[off:off+ts])
	s.data = s.data[:off]
	return out, nil
}

// Clear empties the store, retaining its configured capacity ceiling.
func (s *Store) Clear() { s.data = s.data[:0] }

// Close releases the store's backing array.
func (s *Store) Close() error {
	s.data = nil
	return nil
}

// Mem returns the store's current RAM footprint in bytes.
func (s *Store) Mem() int64 { return int64(cap(s.data)) }
