// Clear empties a Table: index, tail shadow, and file are all reset.
package fixrow

import (
	"fmt"
	"os"

	"github.com/nullptr-io/fixrow/internal/recordfile"
	"github.com/nullptr-io/fixrow/internal/tailstore"
)

// Clear empties the Table: the file is closed, truncated to zero bytes,
// and reopened; the index is reset. Per spec §9, a tail shadow that was
// already dropped before Clear is called stays dropped — Clear only
// reallocates the tail store if one was present at the time of the call.
func (t *Table) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}

	hadTail := t.tail != nil
	path := t.file.Filename()
	bufferSize := t.bufferSize

	if err := t.file.Close(); err != nil {
		return fmt.Errorf("fixrow: clear: %w", err)
	}
	if err := os.Truncate(path, 0); err != nil {
		return fmt.Errorf("fixrow: clear: truncate: %w", err)
	}

	nf, err := recordfile.Open(path, t.schema.RecordSize(), bufferSize)
	if err != nil {
		return fmt.Errorf("fixrow: clear: reopen: %w", err)
	}
	t.file = nf

	t.index.Clear()
	if t.tail != nil {
		t.tail.Close()
		t.tail = nil
	}
	if hadTail {
		maxBytes := int64(0)
		if !t.exceedArrayLimit {
			maxBytes = maxArrayBytesDefault
		}
		t.tail = tailstore.New(t.schema.TailSize(), 0, maxBytes)
	}
	return nil
}
