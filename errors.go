package fixrow

import "errors"

// Sentinel errors returned by Table operations. NotFound is never one of
// these — absence is represented by a boolean/ok return, never an error.
var (
	// ErrClosed is returned when operating on a closed Table.
	ErrClosed = errors.New("fixrow: table is closed")

	// ErrCorruption is returned when the file's size is not an exact
	// multiple of the record size and repair fails, or when an
	// index/file size mismatch survives load.
	ErrCorruption = errors.New("fixrow: corrupt table")

	// ErrConcurrentModification is raised by an ordered cursor's Next
	// when the key it is about to resolve no longer maps to a slot.
	// The cursor is unusable afterward.
	ErrConcurrentModification = errors.New("fixrow: concurrent modification")

	// ErrDuplicateKey is returned by AddUnique when the key is already
	// present — a caller bug, since the Table contract requires callers
	// to check Has first.
	ErrDuplicateKey = errors.New("fixrow: duplicate key")

	// ErrEmpty is returned by RemoveOne on an empty table, and by
	// Cursor.Remove when there is no record left to remove. Top on an
	// empty table returns an empty result, not ErrEmpty.
	ErrEmpty = errors.New("fixrow: table is empty")

	errSchemaNoColumns = errors.New("fixrow: schema has no columns")
	errSchemaBadWidth  = errors.New("fixrow: schema has a non-positive column width")
)

// Subsystem identifies which collaborator raised an OutOfCapacityError.
type Subsystem int

const (
	// SubsystemIndex marks a capacity failure from the key index.
	SubsystemIndex Subsystem = iota
	// SubsystemTail marks a capacity failure from the tail shadow.
	SubsystemTail
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemIndex:
		return "index"
	case SubsystemTail:
		return "tail"
	default:
		return "unknown"
	}
}

// OutOfCapacityError wraps a capacity failure from the key index or the
// tail shadow. Per spec §7: on a tail-shadow failure, the Table drops
// the shadow and retries the operation once; on an index failure, the
// Table drops the tail shadow (if present) and retries once, else
// surfaces the error — the index itself is never evicted.
type OutOfCapacityError struct {
	Subsystem Subsystem
	Err       error
}

func (e *OutOfCapacityError) Error() string {
	return "fixrow: " + e.Subsystem.String() + " out of capacity: " + e.Err.Error()
}

func (e *OutOfCapacityError) Unwrap() error { return e.Err }

// IsOutOfCapacity reports whether err is an OutOfCapacityError and, if
// so, which subsystem raised it.
func IsOutOfCapacity(err error) (Subsystem, bool) {
	var oc *OutOfCapacityError
	if errors.As(err, &oc) {
		return oc.Subsystem, true
	}
	return 0, false
}
