// Swap-on-delete: the single relocation helper shared by Remove,
// RemoveOne, quarantine cleanup, and removeDoubles cleanup.
package fixrow

import "fmt"

// relocateOut vacates slot i: if i is the last slot, it is simply
// truncated; otherwise the current last record is moved into slot i
// and the file is truncated by one. The tail shadow, if present, mirrors
// the same move. removeFromIndex controls whether the vacated slot's
// key (if any) is first removed from the index — quarantine and
// duplicate cleanup call with removeFromIndex=false because those keys
// were never (or no longer should be) present in the index.
//
// If reading the relocated last record fails the well-formed predicate,
// relocateOut keeps truncating further last records until a well-formed
// one is found — recovering from physical corruption of trailing slots
// observed during deletion (spec §4.D).
func (t *Table) relocateOut(i int64, removeFromIndex bool, key []byte) ([]byte, error) {
	if removeFromIndex && key != nil {
		t.index.Remove(key)
	}

	n := t.file.Size()
	if i == n-1 {
		removed, err := t.file.CleanLast()
		if err != nil {
			return nil, fmt.Errorf("fixrow: relocateOut: %w", err)
		}
		if t.tail != nil {
			if _, err := t.tail.RemoveOne(); err != nil {
				t.evictTail()
			}
		}
		return removed, nil
	}

	for {
		last, err := t.file.CleanLast()
		if err != nil {
			return nil, fmt.Errorf("fixrow: relocateOut: %w", err)
		}
		lastTail, tailErr := t.popTailLocked()
		if tailErr != nil {
			t.evictTail()
		}

		keySize := t.schema.KeySize()
		lastKey := last[:keySize]
		if !t.schema.wellFormedFn()(lastKey) {
			// Malformed trailing record: discard it and keep truncating.
			continue
		}

		if err := t.file.Put(i, last); err != nil {
			return nil, fmt.Errorf("fixrow: relocateOut: %w", err)
		}
		if t.tail != nil && lastTail != nil {
			if err := t.tail.Set(i, lastTail); err != nil {
				t.evictTail()
			}
		}
		if _, err := t.index.Put(append([]byte(nil), lastKey...), int32(i)); err != nil {
			t.logf("relocateOut: index put failed during relocation: %v", err)
		}
		return last, nil
	}
}

// popTailLocked removes and returns the last tail, if a tail shadow is
// present.
func (t *Table) popTailLocked() ([]byte, error) {
	if t.tail == nil {
		return nil, nil
	}
	return t.tail.RemoveOne()
}
