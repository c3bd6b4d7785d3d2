// Whole-file compressed backup/restore — a local dump utility, not a
// network transfer endpoint. Grounded on folio's compress.go: a
// module-level zstd encoder/decoder reused across calls, since
// construction is expensive, generalized from per-history-snapshot
// compression to whole-file backup.
package fixrow

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Shared encoder/decoder, both documented as safe for concurrent use
// through EncodeAll/DecodeAll — allocated once because constructing
// either is expensive (internal state tables), same discipline as
// folio's history-snapshot compressor.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Backup flushes the Table and writes a zstd-compressed copy of its
// backing file to w. The Table remains open and usable throughout.
func (t *Table) Backup(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if err := t.file.Flush(); err != nil {
		return fmt.Errorf("fixrow: backup: %w", err)
	}
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("fixrow: backup: %w", err)
	}
	compressed := zstdEncoder.EncodeAll(raw, nil)
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("fixrow: backup: %w", err)
	}
	return nil
}

// Restore overwrites path with the file contained in a zstd-compressed
// backup stream produced by Backup. The destination must not be an
// already-open Table; callers reopen via Open after Restore returns.
func Restore(path string, r io.Reader) error {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("fixrow: restore: %w", err)
	}
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("fixrow: restore: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("fixrow: restore: %w", err)
	}
	return nil
}
