// Package keyindex is the in-RAM primary-key → slot map (KeyIndex, spec
// component B). Keys are fixed-width byte strings, bucketed by an xxh3
// hash for O(1) average lookup, with a parallel sorted slice of keys
// maintained for ordered iteration.
//
// Normal operation keeps exactly one entry per key (the "partial
// function" invariant). During recovery, InsertRaw lets the loader
// record every physical slot seen for a key, including duplicates;
// RemoveDoubles later collapses those down to one entry per key and
// reports what it collapsed, restoring the invariant before the table
// goes live.
package keyindex

import (
	"errors"
	"slices"

	"github.com/zeebo/xxh3"
)

// ErrOutOfCapacity is returned when growing the index would exceed the
// configured capacity ceiling.
var ErrOutOfCapacity = errors.New("keyindex: out of capacity")

const (
	initialBuckets = 16
	maxLoadFactor  = 0.75
)

type entry struct {
	key  []byte
	slot int32
}

// Index is the in-RAM key→slot map described by spec component B.
//
// Index is not safe for concurrent use.
type Index struct {
	buckets     [][]entry
	size        int
	maxEntries  int // 0 = unlimited
	sortedKeys  [][]byte
	keySize     int
	orderFn     func(a, b []byte) int
}

// New returns an empty Index. keySize is the fixed key width. maxEntries
// caps the number of entries the index will grow to hold (0 = unlimited),
// modeling the spec's "allocator cannot grow" failure mode. capacityHint
// presizes the bucket array to hold that many entries at maxLoadFactor
// without an immediate rehash (0 uses the small default). order is the
// key comparator used for ordered iteration and smallest/largest key
// (nil defaults to unsigned lexicographic compare via slices.Compare).
func New(keySize, maxEntries, capacityHint int, order func(a, b []byte) int) *Index {
	if order == nil {
		order = compareBytes
	}
	nbuckets := initialBuckets
	for capacityHint > 0 && float64(capacityHint) > maxLoadFactor*float64(nbuckets) {
		nbuckets *= 2
	}
	return &Index{
		buckets:    make([][]entry, nbuckets),
		maxEntries: maxEntries,
		keySize:    keySize,
		orderFn:    order,
	}
}

func compareBytes(a, b []byte) int {
	return slices.Compare(a, b)
}

func (idx *Index) bucketFor(key []byte, nbuckets int) int {
	h := xxh3.Hash(key)
	return int(h % uint64(nbuckets))
}

// Size returns the number of entries currently held. Outside recovery
// this is the number of distinct keys; after InsertRaw has recorded
// duplicates, each duplicate entry is counted until RemoveDoubles runs.
func (idx *Index) Size() int { return idx.size }

// Get returns the slot mapped to key, or ok=false if absent. When a key
// transiently has multiple physical entries (mid-recovery, before
// RemoveDoubles runs), Get returns the entry with the lowest slot —
// the earliest-inserted, since InsertRaw appends in scan order.
func (idx *Index) Get(key []byte) (int32, bool) {
	b := idx.buckets[idx.bucketFor(key, len(idx.buckets))]
	for i := range b {
		if slices.Equal(b[i].key, key) {
			return b[i].slot, true
		}
	}
	return 0, false
}

// Has reports whether key is present.
func (idx *Index) Has(key []byte) bool {
	_, ok := idx.Get(key)
	return ok
}

// Put inserts or overwrites the mapping for key, returning the prior
// slot (or -1 if key was absent). Used by normal mutation (put/replace),
// which always keeps a single entry per key.
func (idx *Index) Put(key []byte, slot int32) (int32, error) {
	bi := idx.bucketFor(key, len(idx.buckets))
	b := idx.buckets[bi]
	for i := range b {
		if slices.Equal(b[i].key, key) {
			prior := b[i].slot
			b[i].slot = slot
			return prior, nil
		}
	}
	if err := idx.growIfNeeded(); err != nil {
		return 0, err
	}
	bi = idx.bucketFor(key, len(idx.buckets))
	kc := append([]byte(nil), key...)
	idx.buckets[bi] = append(idx.buckets[bi], entry{key: kc, slot: slot})
	idx.size++
	idx.insertSorted(kc)
	return -1, nil
}

// PutUnique inserts a mapping for key, asserting the key is currently
// absent. Returns an error if key is already present (a caller bug — the
// Table core always checks Has first) or if the index is at capacity.
func (idx *Index) PutUnique(key []byte, slot int32) error {
	if idx.Has(key) {
		return errors.New("keyindex: putUnique: key already present")
	}
	_, err := idx.Put(key, slot)
	return err
}

// InsertRaw appends a new entry for key without checking for an existing
// mapping, so a key can transiently carry more than one slot. Used only
// by the recovery loader while scanning a file that may contain
// duplicate keys; RemoveDoubles must be called before the index is
// presented to any other caller.
func (idx *Index) InsertRaw(key []byte, slot int32) error {
	if err := idx.growIfNeeded(); err != nil {
		return err
	}
	bi := idx.bucketFor(key, len(idx.buckets))
	kc := append([]byte(nil), key...)
	idx.buckets[bi] = append(idx.buckets[bi], entry{key: kc, slot: slot})
	idx.size++
	// Only add to the sorted key list if this is the first time we've
	// seen this key; duplicates are reconciled by RemoveDoubles.
	if !idx.sortedHas(kc) {
		idx.insertSorted(kc)
	}
	return nil
}

// Remove deletes the mapping for key, returning its slot (or ok=false if
// absent).
func (idx *Index) Remove(key []byte) (int32, bool) {
	bi := idx.bucketFor(key, len(idx.buckets))
	b := idx.buckets[bi]
	for i := range b {
		if slices.Equal(b[i].key, key) {
			slot := b[i].slot
			idx.buckets[bi] = append(b[:i], b[i+1:]...)
			idx.size--
			idx.removeSorted(key)
			return slot, true
		}
	}
	return 0, false
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.buckets = make([][]entry, initialBuckets)
	idx.size = 0
	idx.sortedKeys = nil
}

// Mem estimates the index's RAM footprint in bytes.
func (idx *Index) Mem() int64 {
	perEntry := int64(idx.keySize) + 4 /* slot */ + 24 /* slice/string overhead */
	return int64(idx.size)*perEntry*2 + int64(len(idx.buckets))*24
}

// SmallestKey returns the lowest key in key order, if any.
func (idx *Index) SmallestKey() ([]byte, bool) {
	if len(idx.sortedKeys) == 0 {
		return nil, false
	}
	return idx.sortedKeys[0], true
}

// LargestKey returns the highest key in key order, if any.
func (idx *Index) LargestKey() ([]byte, bool) {
	if len(idx.sortedKeys) == 0 {
		return nil, false
	}
	return idx.sortedKeys[len(idx.sortedKeys)-1], true
}

// All yields every (key, slot) pair in internal bucket order — the
// "physical-order" iteration spec component F relies on. Order is
// unspecified beyond being stable absent mutation.
func (idx *Index) All(yield func(key []byte, slot int32) bool) {
	for _, b := range idx.buckets {
		for _, e := range b {
			if !yield(e.key, e.slot) {
				return
			}
		}
	}
}

// Ordered yields keys in ascending or descending key order, optionally
// starting at or after (ascending) / at or before (descending) start.
func (idx *Index) Ordered(ascending bool, start []byte, yield func(key []byte) bool) {
	n := len(idx.sortedKeys)
	if n == 0 {
		return
	}
	if ascending {
		from := 0
		if start != nil {
			from, _ = slices.BinarySearchFunc(idx.sortedKeys, start, idx.orderFn)
		}
		for i := from; i < n; i++ {
			if !yield(idx.sortedKeys[i]) {
				return
			}
		}
		return
	}
	to := n - 1
	if start != nil {
		i, found := slices.BinarySearchFunc(idx.sortedKeys, start, idx.orderFn)
		if found {
			to = i
		} else {
			to = i - 1
		}
	}
	for i := to; i >= 0; i-- {
		if !yield(idx.sortedKeys[i]) {
			return
		}
	}
}

// DuplicateGroup is one key's set of physical slots discovered to carry
// duplicate entries, sorted ascending.
type DuplicateGroup struct {
	Key   []byte
	Slots []int32
}

// RemoveDoubles scans the index for keys with more than one physical
// entry (only possible after InsertRaw calls during recovery), keeps the
// lowest-numbered slot as the surviving mapping, and returns one
// DuplicateGroup per affected key so the caller can physically remove
// the other slots from the file.
func (idx *Index) RemoveDoubles() []DuplicateGroup {
	var groups []DuplicateGroup
	for bi, b := range idx.buckets {
		byKey := map[string][]int32{}
		var order []string
		for _, e := range b {
			ks := string(e.key)
			if _, seen := byKey[ks]; !seen {
				order = append(order, ks)
			}
			byKey[ks] = append(byKey[ks], e.slot)
		}
		var kept []entry
		for _, ks := range order {
			slots := byKey[ks]
			if len(slots) == 1 {
				kept = append(kept, entry{key: []byte(ks), slot: slots[0]})
				continue
			}
			sorted := append([]int32(nil), slots...)
			slices.Sort(sorted)
			kept = append(kept, entry{key: []byte(ks), slot: sorted[0]})
			groups = append(groups, DuplicateGroup{Key: []byte(ks), Slots: sorted})
			idx.size -= len(sorted) - 1
		}
		idx.buckets[bi] = kept
	}
	return groups
}

func (idx *Index) growIfNeeded() error {
	if idx.maxEntries > 0 && idx.size+1 > idx.maxEntries {
		return ErrOutOfCapacity
	}
	if float64(idx.size+1) <= maxLoadFactor*float64(len(idx.buckets)) {
		return nil
	}
	newBuckets := make([][]entry, len(idx.buckets)*2)
	for _, b := range idx.buckets {
		for _, e := range b {
			bi := idx.bucketFor(e.key, len(newBuckets))
			newBuckets[bi] = append(newBuckets[bi], e)
		}
	}
	idx.buckets = newBuckets
	return nil
}

func (idx *Index) sortedHas(key []byte) bool {
	_, found := slices.BinarySearchFunc(idx.sortedKeys, key, idx.orderFn)
	return found
}

func (idx *Index) insertSorted(key []byte) {
	i, found := slices.BinarySearchFunc(idx.sortedKeys, key, idx.orderFn)
	if found {
		return
	}
	idx.sortedKeys = slices.Insert(idx.sortedKeys, i, key)
}

func (idx *Index) removeSorted(key []byte) {
	i, found := slices.BinarySearchFunc(idx.sortedKeys, key, idx.orderFn)
	if !found {
		return
	}
	idx.sortedKeys = slices.Delete(idx.sortedKeys, i, i+1)
}
