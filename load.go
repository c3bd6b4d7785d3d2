// Recovery loader (spec §4.E): one-pass construction of the key index
// (and optionally the tail shadow) from an existing file, including
// detection and removal of malformed records and duplicate keys.
//
// Grounded on folio's Open (crash-detection then Repair) and repair.go's
// scanm minimal-metadata scan, generalized from scanning JSON-line
// metadata to scanning fixed byte offsets.
package fixrow

import (
	"fmt"

	"github.com/nullptr-io/fixrow/internal/keyindex"
	"github.com/nullptr-io/fixrow/internal/tailstore"
)

// load runs the six-step recovery procedure against t.file, populating
// t.index and (if planned) t.tail. Must be called before the Table is
// registered or returned to any caller.
func (t *Table) load(opts Options) error {
	keySize := t.schema.KeySize()

	// Step 1: size probe + repair.
	fresh := t.file.Size() == 0
	discarded, err := t.file.Repair()
	if err != nil {
		return fmt.Errorf("fixrow: load: %w: %v", ErrCorruption, err)
	}
	if discarded > 0 {
		t.logf("repair path=%s discardedBytes=%d", t.path, discarded)
	}
	n := t.file.Size()

	// Step 2: capacity decision.
	wantTail := t.planTailShadow(opts, n)

	indexMaxEntries := 0
	if !opts.ExceedArrayLimit {
		perEntry := int64(keySize) + 4 /* slot */ + 24 /* slice/string overhead */
		indexMaxEntries = int(maxArrayBytesDefault / (perEntry * 2))
	}
	t.index = keyindex.New(keySize, indexMaxEntries, opts.InitialCapacityHint, t.schema.keyOrder())

	if wantTail {
		maxBytes := int64(0)
		if !opts.ExceedArrayLimit {
			maxBytes = maxArrayBytesDefault
		}
		initialRecords := int(n)
		if fresh && opts.InitialCapacityHint > initialRecords {
			initialRecords = opts.InitialCapacityHint
		}
		t.tail = tailstore.New(t.schema.TailSize(), initialRecords, maxBytes)
	}

	// Step 3: scan.
	quarantine := t.scan(n)

	// Step 4: quarantine cleanup.
	if len(quarantine) > 0 {
		t.logf("quarantine path=%s malformedKeys=%d", t.path, len(quarantine))
	}
	if err := t.cleanupQuarantine(quarantine); err != nil {
		return fmt.Errorf("fixrow: load: quarantine cleanup: %w", err)
	}

	// Step 5: de-duplication, non-fresh files only.
	if !fresh {
		removed, err := t.dedupOnLoad()
		if err != nil {
			return fmt.Errorf("fixrow: load: dedup: %w", err)
		}
		if removed > 0 {
			t.logf("dedup path=%s collapsedSlots=%d", t.path, removed)
		}
	}

	// Step 6: invariant assertion.
	if int64(t.index.Size()) != t.file.Size() {
		return fmt.Errorf("%w: index size %d != file size %d", ErrCorruption, t.index.Size(), t.file.Size())
	}
	if t.tail != nil && t.tail.Size() != t.file.Size() {
		return fmt.Errorf("%w: tail size %d != file size %d", ErrCorruption, t.tail.Size(), t.file.Size())
	}
	return nil
}

// planTailShadow implements the capacity decision of spec §4.E step 2:
// ramForTails ≈ 3·N·(R+4), ramForIndex ≈ 400MiB + 1.5·N·(K+4). A tail
// shadow is provisionally planned iff the caller permits it, it fits
// the array size ceiling (unless overridden), and available RAM covers
// ramForTails plus a 200MiB margin. If the index's own estimated
// footprint would then not fit, the tail shadow plan is dropped.
func (t *Table) planTailShadow(opts Options, n int64) bool {
	if !opts.AllowTailShadow {
		return false
	}
	recordSize := int64(t.schema.RecordSize())
	keySize := int64(t.schema.KeySize())

	ramForTails := tailBytesPerRecordFac * n * (recordSize + 4)
	ramForIndex := int64(indexRAMBaseBytes) + int64(indexBytesPerKeyFac*float64(n)*float64(keySize+4))

	if !opts.ExceedArrayLimit && ramForTails > maxArrayBytesDefault {
		return false
	}

	avail, err := t.mem.Available()
	if err != nil {
		return false
	}
	if int64(avail) <= ramForTails+tailFitMarginBytes {
		return false
	}
	if int64(avail) <= ramForIndex {
		return false
	}
	return true
}

// quarantineEntry records a malformed key discovered during scan,
// pending physical removal.
type quarantineEntry struct {
	key  []byte
	slot int64
}

// scan performs step 3: a single pass over the file building the index
// (and tail shadow, if planned). With a tail shadow planned, the full
// record is read each slot; otherwise only the first K bytes are read.
// Malformed keys are quarantined rather than indexed.
func (t *Table) scan(n int64) []quarantineEntry {
	keySize := t.schema.KeySize()
	recordSize := t.schema.RecordSize()
	wellFormed := t.schema.wellFormedFn()

	var quarantine []quarantineEntry

	for i := int64(0); i < n; i++ {
		if t.tail != nil {
			rec := make([]byte, recordSize)
			if err := t.file.Get(i, rec); err != nil {
				continue
			}
			key := rec[:keySize]
			if !wellFormed(key) {
				quarantine = append(quarantine, quarantineEntry{key: append([]byte(nil), key...), slot: i})
				continue
			}
			tail := rec[keySize:]
			if err := t.tail.AddUnique(tail); err != nil {
				t.evictTail()
			}
			t.index.InsertRaw(append([]byte(nil), key...), int32(i))
			continue
		}

		key := make([]byte, keySize)
		if err := t.file.Get(i, key); err != nil {
			continue
		}
		if !wellFormed(key) {
			quarantine = append(quarantine, quarantineEntry{key: append([]byte(nil), key...), slot: i})
			continue
		}
		t.index.InsertRaw(key, int32(i))
	}
	return quarantine
}

// cleanupQuarantine performs step 4: physically removes every
// quarantined slot via swap-on-delete. Quarantine slots were never
// added to the index, so removeFromIndex is false.
//
// Slots must be removed in descending order: the quarantine list is
// built in ascending scan order, and removing a smaller slot first
// would relocate the last record into it, invalidating any remaining
// larger quarantine slot numbers.
func (t *Table) cleanupQuarantine(quarantine []quarantineEntry) error {
	for i := len(quarantine) - 1; i >= 0; i-- {
		q := quarantine[i]
		if _, err := t.relocateOut(q.slot, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// dedupOnLoad performs step 5: collapses any keys the scan discovered
// at more than one physical slot, keeping the lowest-numbered slot per
// key and physically removing the rest in descending slot order. It
// returns the number of slots collapsed.
func (t *Table) dedupOnLoad() (int, error) {
	groups := t.index.RemoveDoubles()
	var toRemove []int32
	for _, g := range groups {
		// g.Slots is ascending; Slots[0] survives, the rest are removed.
		toRemove = append(toRemove, g.Slots[1:]...)
	}
	if len(toRemove) == 0 {
		return 0, nil
	}
	for _, slot := range sortDescending(toRemove) {
		if _, err := t.relocateOut(int64(slot), false, nil); err != nil {
			return 0, err
		}
	}
	return len(toRemove), nil
}
