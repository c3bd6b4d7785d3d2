// Insert and update operations.
package fixrow

import (
	"errors"
	"fmt"

	"github.com/nullptr-io/fixrow/internal/keyindex"
	"github.com/nullptr-io/fixrow/internal/tailstore"
)

// Put inserts row if its key is absent (behaving as AddUnique), or
// overwrites the existing slot's record if the key is already present.
// Returns inserted=true when a new slot was appended.
func (t *Table) Put(row []byte) (inserted bool, err error) {
	if len(row) != t.schema.RecordSize() {
		return false, fmt.Errorf("fixrow: put: row size %d != record size %d", len(row), t.schema.RecordSize())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return false, err
	}

	key := row[:t.schema.KeySize()]
	slot, found := t.index.Get(key)
	if !found {
		if err := t.appendUniqueLocked(row); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := t.overwriteLocked(slot, row); err != nil {
		return false, err
	}
	return false, nil
}

// Replace behaves like Put but returns the previous record (reconstructed
// before the overwrite) when the key existed.
func (t *Table) Replace(row []byte) (previous []byte, existed bool, err error) {
	if len(row) != t.schema.RecordSize() {
		return nil, false, fmt.Errorf("fixrow: replace: row size %d != record size %d", len(row), t.schema.RecordSize())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}

	key := row[:t.schema.KeySize()]
	slot, found := t.index.Get(key)
	if !found {
		if err := t.appendUniqueLocked(row); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	prev, err := t.recordAt(slot, key)
	if err != nil {
		return nil, false, err
	}
	if err := t.overwriteLocked(slot, row); err != nil {
		return nil, false, err
	}
	return prev, true, nil
}

// AddUnique asserts key is absent and appends row at slot N, growing N
// by one. Returns ErrDuplicateKey if the key is already present.
func (t *Table) AddUnique(row []byte) error {
	if len(row) != t.schema.RecordSize() {
		return fmt.Errorf("fixrow: addUnique: row size %d != record size %d", len(row), t.schema.RecordSize())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	key := row[:t.schema.KeySize()]
	if t.index.Has(key) {
		return ErrDuplicateKey
	}
	return t.appendUniqueLocked(row)
}

// appendUniqueLocked appends row to the file (and tail shadow, if
// present) and inserts key→N into the index. Caller holds t.mu.
func (t *Table) appendUniqueLocked(row []byte) error {
	key := append([]byte(nil), row[:t.schema.KeySize()]...)
	tail := row[t.schema.KeySize():]

	slot, err := t.file.Add(row)
	if err != nil {
		return fmt.Errorf("fixrow: add: %w", err)
	}

	if t.tail != nil {
		addErr := t.withTailRetry(func() error {
			if t.tail == nil {
				return nil // already evicted by a prior retry in this call
			}
			if err := t.tail.AddUnique(tail); err != nil {
				return wrapTailErr(err)
			}
			return nil
		})
		if addErr != nil {
			return fmt.Errorf("fixrow: add: tail: %w", addErr)
		}
		t.maybeEvictTail()
	}

	putErr := t.withTailRetry(func() error {
		if err := t.index.PutUnique(key, int32(slot)); err != nil {
			return wrapIndexErr(err)
		}
		return nil
	})
	if putErr != nil {
		return fmt.Errorf("fixrow: add: index: %w", putErr)
	}
	return nil
}

// overwriteLocked overwrites the record at slot with row, updating the
// tail shadow if present. Caller holds t.mu.
func (t *Table) overwriteLocked(slot int32, row []byte) error {
	if err := t.file.Put(int64(slot), row); err != nil {
		return fmt.Errorf("fixrow: put: %w", err)
	}
	if t.tail != nil {
		tail := row[t.schema.KeySize():]
		setErr := t.withTailRetry(func() error {
			if t.tail == nil {
				return nil
			}
			if err := t.tail.Set(int64(slot), tail); err != nil {
				return wrapTailErr(err)
			}
			return nil
		})
		if setErr != nil {
			return fmt.Errorf("fixrow: put: tail: %w", setErr)
		}
		t.maybeEvictTail()
	}
	return nil
}

// wrapTailErr turns a tailstore capacity failure into an
// OutOfCapacityError; other errors pass through unchanged.
func wrapTailErr(err error) error {
	if errors.Is(err, tailstore.ErrOutOfCapacity) {
		return &OutOfCapacityError{Subsystem: SubsystemTail, Err: err}
	}
	return err
}

// wrapIndexErr turns a keyindex capacity failure into an
// OutOfCapacityError; other errors (e.g. duplicate key) pass through
// unchanged.
func wrapIndexErr(err error) error {
	if errors.Is(err, keyindex.ErrOutOfCapacity) {
		return &OutOfCapacityError{Subsystem: SubsystemIndex, Err: err}
	}
	return err
}
