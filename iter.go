// Iteration & bulk ops (spec §4.F): physical-order and ordered-by-key
// cursors, both pull-based and restartable via Clone, plus a lazy
// Keys()/Rows() convenience surface built on Go's range-over-func
// (grounded on folio's all.go iter.Seq2[Document, error] pattern) and
// Top(n).
package fixrow

import "iter"

// Cursor walks records in physical order (the key index's internal
// bucket order). Remove relocates the last physical record into the
// slot just visited and removes the corresponding index entry
// (swap-on-delete); per spec §9, continuing to call Next after Remove
// is undefined — Remove should only be the last call before discarding
// the Cursor.
type Cursor struct {
	t       *Table
	keys    [][]byte
	pos     int
	lastKey []byte
	removed bool
}

// PhysicalCursor returns a Cursor over the Table's current keys in
// physical (bucket) order.
func (t *Table) PhysicalCursor() *Cursor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Cursor{t: t, keys: snapshotPhysicalKeys(t)}
}

func snapshotPhysicalKeys(t *Table) [][]byte {
	var keys [][]byte
	t.index.All(func(key []byte, _ int32) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})
	return keys
}

// Next advances the cursor and returns the next record, or ok=false
// when exhausted. A key removed since the cursor was created is
// silently skipped.
func (c *Cursor) Next() (record []byte, ok bool, err error) {
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	for c.pos < len(c.keys) {
		key := c.keys[c.pos]
		c.pos++
		slot, found := c.t.index.Get(key)
		if !found {
			continue
		}
		rec, err := c.t.recordAt(slot, key)
		if err != nil {
			return nil, false, err
		}
		c.lastKey = key
		c.removed = false
		return rec, true, nil
	}
	return nil, false, nil
}

// Remove deletes the record most recently returned by Next via
// swap-on-delete. See the Cursor doc comment for the undefined-after-
// remove caveat.
func (c *Cursor) Remove() error {
	if c.lastKey == nil || c.removed {
		return ErrEmpty
	}
	_, _, err := c.t.Remove(c.lastKey)
	c.removed = true
	return err
}

// Clone returns a fresh Cursor re-snapshotting the Table's current
// physical order.
func (c *Cursor) Clone() *Cursor {
	return c.t.PhysicalCursor()
}

// OrderedCursor walks keys in ascending or descending key order,
// optionally starting at or after (ascending) / at or before
// (descending) a given key. It does not support removal.
type OrderedCursor struct {
	t         *Table
	keys      [][]byte
	pos       int
	ascending bool
	start     []byte
	bad       bool
}

// OrderedCursor returns a key-ordered Cursor. If start is non-nil,
// iteration begins at or after start (ascending) or at or before start
// (descending).
func (t *Table) OrderedCursor(ascending bool, start []byte) *OrderedCursor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var keys [][]byte
	t.index.Ordered(ascending, start, func(key []byte) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})
	return &OrderedCursor{t: t, keys: keys, ascending: ascending, start: start}
}

// Next advances the cursor and returns the next record in key order.
// If the key's slot can no longer be resolved (the key was removed
// since the cursor was created), Next raises ErrConcurrentModification
// and the cursor becomes unusable.
func (c *OrderedCursor) Next() (record []byte, ok bool, err error) {
	if c.bad {
		return nil, false, ErrConcurrentModification
	}
	c.t.mu.RLock()
	defer c.t.mu.RUnlock()
	if c.pos >= len(c.keys) {
		return nil, false, nil
	}
	key := c.keys[c.pos]
	c.pos++
	slot, found := c.t.index.Get(key)
	if !found {
		c.bad = true
		return nil, false, ErrConcurrentModification
	}
	rec, err := c.t.recordAt(slot, key)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Clone returns a fresh OrderedCursor with the same (ascending, start)
// configuration, re-resolved against the Table's current state.
func (c *OrderedCursor) Clone() *OrderedCursor {
	return c.t.OrderedCursor(c.ascending, c.start)
}

// Keys returns a lazy, breakable sequence of keys in ascending order —
// the convenience surface built on Go 1.23 range-over-func, grounded on
// folio's all.go iter.Seq2[Document, error] pattern.
func (t *Table) Keys() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		c := t.OrderedCursor(true, nil)
		for {
			rec, ok, err := c.Next()
			if err != nil || !ok {
				return
			}
			if !yield(rec[:t.schema.KeySize()]) {
				return
			}
		}
	}
}

// Rows returns a lazy, breakable sequence of (record, error) pairs in
// physical order.
func (t *Table) Rows() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		c := t.PhysicalCursor()
		for {
			rec, ok, err := c.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Top returns up to n records in physical order, starting from the
// last-inserted slot (N-1, N-2, ...).
func (t *Table) Top(n int) ([][]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	total := t.file.Size()
	if n > int(total) {
		n = int(total)
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		rec, err := t.readRecordFromFile(total - 1 - int64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
