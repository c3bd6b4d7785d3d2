// Key-addressed read operations.
package fixrow

// Get resolves key via the index; if a hit and the tail shadow is
// populated, the record is composed from key‖tail; otherwise it is read
// from the file. Returns ok=false on miss.
func (t *Table) Get(key []byte) (record []byte, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}
	slot, found := t.index.Get(key)
	if !found {
		return nil, false, nil
	}
	rec, err := t.recordAt(slot, key)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Has reports whether key is present.
func (t *Table) Has(key []byte) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return false, err
	}
	return t.index.Has(key), nil
}

// Size returns the current record count.
func (t *Table) Size() (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	return t.file.Size(), nil
}

// IsEmpty reports whether the Table holds zero records.
func (t *Table) IsEmpty() (bool, error) {
	n, err := t.Size()
	return n == 0, err
}

// SmallestKey returns the lowest key in key order, if any.
func (t *Table) SmallestKey() (key []byte, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}
	k, found := t.index.SmallestKey()
	return k, found, nil
}

// LargestKey returns the highest key in key order, if any.
func (t *Table) LargestKey() (key []byte, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}
	k, found := t.index.LargestKey()
	return k, found, nil
}
