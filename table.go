// Package fixrow is an embedded, single-file, fixed-record-size
// primary-key table. See doc.go for the package overview.
//
// Table composes a RecordFile (internal/recordfile), a KeyIndex
// (internal/keyindex), and an optional TailStore (internal/tailstore)
// behind a single key→record associative interface, enforcing the
// cross-component invariants documented in SPEC_FULL.md.
package fixrow

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nullptr-io/fixrow/internal/keyindex"
	"github.com/nullptr-io/fixrow/internal/memoryoracle"
	"github.com/nullptr-io/fixrow/internal/recordfile"
	"github.com/nullptr-io/fixrow/internal/tailstore"
)

const (
	defaultBufferSize     = 64
	minMemFloor           = 400 * 1024 * 1024
	tailBytesPerRecordFac = 3
	indexRAMBaseBytes     = 400 * 1024 * 1024
	indexBytesPerKeyFac   = 1.5
	maxArrayBytesDefault  = 1 << 31 // conservative Go slice-friendly ceiling
	tailFitMarginBytes    = 200 * 1024 * 1024
)

// Options configures a Table at construction.
type Options struct {
	// BufferSize is the number of appended records staged in RAM before
	// an implicit flush (the RecordFile's write-behind buffer depth).
	// Zero uses a small default.
	BufferSize int

	// InitialCapacityHint is a hint for how many records to expect. It
	// presizes the key index's bucket array and, for a fresh file, the
	// tail shadow's backing array, so early writes don't pay for
	// repeated regrowth; it never changes load behavior or correctness.
	InitialCapacityHint int

	// AllowTailShadow permits the loader to plan a tail shadow at all.
	// If false, the Table never holds one.
	AllowTailShadow bool

	// ExceedArrayLimit lifts both the key index's and the tail shadow's
	// default entry-count/byte capacity ceiling (derived from
	// maxArrayBytesDefault), for callers who know their host has enough
	// RAM to exceed it.
	ExceedArrayLimit bool

	// Registry is the process-wide path→Table registry this Table
	// registers itself with. Nil uses DefaultRegistry.
	Registry *Registry

	// Logger receives structured diagnostic lines (shadow eviction,
	// repair, quarantine counts). Nil disables logging entirely.
	Logger *log.Logger

	// Oracle overrides the memory probe; nil uses the real host-backed
	// oracle. Tests supply memoryoracle.Fixed here.
	Oracle memoryoracle.Oracle
}

// Table is an embedded fixed-record-size primary-key table: a
// persistent associative container mapping a fixed-width key to a
// fixed-width payload.
//
// A Table is not safe for concurrent use across goroutines beyond the
// locking it does internally; all exported methods already serialize
// themselves, so callers never take the lock directly.
type Table struct {
	mu sync.RWMutex

	schema RowSchema
	file   *recordfile.File
	index  *keyindex.Index
	tail   *tailstore.Store // nil once evicted or never admitted

	mem             memoryoracle.Oracle
	minMemRemaining uint64

	bufferSize       int
	allowTailShadow  bool
	exceedArrayLimit bool

	path     string
	registry *Registry
	logger   *log.Logger

	closed atomic.Bool
}

// Open opens or creates a fixed-record table at path using schema. If
// the file is absent, it is created empty (a "fresh" file per the
// glossary). Existing files are recovered via the loader (load.go).
func Open(path string, schema RowSchema, opts Options) (*Table, error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	oracle := opts.Oracle
	if oracle == nil {
		oracle = memoryoracle.NewSystem()
	}
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}

	rf, err := recordfile.Open(path, schema.RecordSize(), opts.BufferSize)
	if err != nil {
		return nil, err
	}

	t := &Table{
		schema:           schema,
		file:             rf,
		mem:              oracle,
		bufferSize:       opts.BufferSize,
		allowTailShadow:  opts.AllowTailShadow,
		exceedArrayLimit: opts.ExceedArrayLimit,
		path:             path,
		registry:         registry,
		logger:           opts.Logger,
	}

	avail, err := oracle.Available()
	if err != nil {
		avail = minMemFloor * 10 // unknown: don't let a probe failure block Open
	}
	t.minMemRemaining = max(minMemFloor, avail/10)

	if err := t.load(opts); err != nil {
		rf.Close()
		return nil, err
	}

	registry.add(path, t)
	t.logf("open path=%s records=%d tailShadow=%v", path, t.index.Size(), t.tail != nil)
	return t, nil
}

// Close flushes the underlying file and releases the in-RAM index and
// tail shadow. The file on disk persists; RAM structures do not.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return ErrClosed
	}
	t.closed.Store(true)

	t.registry.remove(t.path)

	err := t.file.Close()
	t.index.Clear()
	if t.tail != nil {
		t.tail.Close()
		t.tail = nil
	}
	return err
}

func (t *Table) logf(format string, args ...any) {
	if t.logger != nil {
		t.logger.Printf(format, args...)
	}
}

// checkOpen must be called with t.mu held (read or write).
func (t *Table) checkOpen() error {
	if t.closed.Load() {
		return ErrClosed
	}
	return nil
}

// readRecordFromFile reads the full record at slot directly from the
// file, bypassing the tail shadow — used when the key at that slot
// isn't known yet (e.g. position-addressed access), since the tail
// shadow holds only the non-key bytes.
func (t *Table) readRecordFromFile(slot int64) ([]byte, error) {
	rec := make([]byte, t.schema.RecordSize())
	if err := t.file.Get(slot, rec); err != nil {
		return nil, fmt.Errorf("fixrow: readRecordFromFile: %w", err)
	}
	return rec, nil
}

// recordAt composes the full record for slot i: from the tail shadow if
// present, else from the file.
func (t *Table) recordAt(slot int32, key []byte) ([]byte, error) {
	if t.tail != nil {
		tailBytes, err := t.tail.Get(int64(slot))
		if err != nil {
			return nil, fmt.Errorf("fixrow: recordAt: %w", err)
		}
		rec := make([]byte, t.schema.RecordSize())
		copy(rec, key)
		copy(rec[len(key):], tailBytes)
		return rec, nil
	}
	rec := make([]byte, t.schema.RecordSize())
	if err := t.file.Get(int64(slot), rec); err != nil {
		return nil, fmt.Errorf("fixrow: recordAt: %w", err)
	}
	return rec, nil
}

// evictTail drops the tail shadow permanently. Once dropped it is never
// recreated (spec §4.D).
func (t *Table) evictTail() {
	if t.tail == nil {
		return
	}
	t.tail.Close()
	t.tail = nil
	t.logf("tailstore evicted path=%s", t.path)
}

// maybeEvictTail implements abandonTable?(): after every write to the
// tail shadow, check available memory and drop the shadow if it has
// fallen below the threshold.
func (t *Table) maybeEvictTail() {
	if t.tail == nil {
		return
	}
	ok, err := t.mem.ShortStatus()
	if err != nil {
		return
	}
	if ok {
		t.evictTail()
		return
	}
	avail, err := t.mem.Available()
	if err != nil {
		return
	}
	if avail < t.minMemRemaining {
		t.evictTail()
	}
}

// withTailRetry runs fn once; if fn reports an OutOfCapacity error from
// the tail subsystem (or the index subsystem while a tail is present),
// it drops the tail shadow and retries fn exactly once. This is the
// spec's single retry-after-eviction helper (§9).
func (t *Table) withTailRetry(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	sub, ok := IsOutOfCapacity(err)
	if !ok {
		return err
	}
	if sub == SubsystemTail || (sub == SubsystemIndex && t.tail != nil) {
		t.evictTail()
		return fn()
	}
	return err
}
