// Whole-file integrity checksum, for verifying a Backup/Restore round
// trip. Folio offers three selectable hash algorithms for label
// addressing (xxh3/fnv/blake2b); a whole-file integrity digest has no
// equivalent to folio's per-record hash-algorithm migration, so there
// is only the one algorithm here — blake2b, folio's "best distribution"
// option, repurposed as a cryptographic-strength checksum.
package fixrow

import (
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Digest returns the blake2b-256 checksum of everything read from r.
func Digest(r io.Reader) ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// FileDigest flushes the Table and returns the blake2b-256 checksum of
// its backing file as currently stored on disk.
func (t *Table) FileDigest() ([32]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return [32]byte{}, err
	}
	if err := t.file.Flush(); err != nil {
		return [32]byte{}, err
	}
	f, err := os.Open(t.path)
	if err != nil {
		return [32]byte{}, err
	}
	defer f.Close()
	return Digest(f)
}
