// Deletion operations: Remove and RemoveOne.
package fixrow

import "fmt"

// Remove deletes key via swap-on-delete (swap.go) and returns the
// removed record, or ok=false if the key was absent.
func (t *Table) Remove(key []byte) (removed []byte, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}

	slot, found := t.index.Get(key)
	if !found {
		return nil, false, nil
	}

	record, err := t.recordAt(slot, key)
	if err != nil {
		return nil, false, err
	}

	if _, err := t.relocateOut(int64(slot), true, key); err != nil {
		return nil, false, fmt.Errorf("fixrow: remove: %w", err)
	}
	return record, true, nil
}

// RemoveOne physically removes and returns the record at slot N-1.
// Symmetric to Remove but addressed by position; returns ErrEmpty if
// the Table is empty.
func (t *Table) RemoveOne() (record []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	n := t.file.Size()
	if n == 0 {
		return nil, ErrEmpty
	}

	slot := n - 1
	keySize := t.schema.KeySize()
	last, err := t.readRecordFromFile(slot)
	if err != nil {
		return nil, fmt.Errorf("fixrow: removeOne: %w", err)
	}
	key := last[:keySize]

	removed, err := t.relocateOut(slot, true, key)
	if err != nil {
		return nil, fmt.Errorf("fixrow: removeOne: %w", err)
	}
	return removed, nil
}
