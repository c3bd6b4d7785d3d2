// Row schema: the fixed column layout shared by every record in a Table.
package fixrow

import "slices"

// Column is one fixed-width field of a row. Column 0 is always the
// primary key.
type Column struct {
	Name  string
	Width int
}

// RowSchema describes the immutable layout of every record in a Table:
// an ordered list of fixed-width columns, a total order on keys, and a
// well-formedness predicate used to quarantine corrupt keys on load.
type RowSchema struct {
	// Name is a diagnostic label only (log fields, Stats output); it has
	// no effect on encoding.
	Name    string
	Columns []Column

	// Order is the key comparator: negative if a < b, zero if equal,
	// positive if a > b. Defaults to unsigned lexicographic byte compare.
	Order func(a, b []byte) int

	// WellFormed reports whether a key satisfies the order's validity
	// predicate. Defaults to rejecting ragged NUL padding: a 0x00 byte
	// followed by a non-0x00 byte.
	WellFormed func(key []byte) bool
}

// KeySize returns K, the width of column 0.
func (s RowSchema) KeySize() int {
	if len(s.Columns) == 0 {
		return 0
	}
	return s.Columns[0].Width
}

// RecordSize returns R, the sum of all column widths.
func (s RowSchema) RecordSize() int {
	total := 0
	for _, c := range s.Columns {
		total += c.Width
	}
	return total
}

// TailSize returns T = R - K, the width of everything but the key.
func (s RowSchema) TailSize() int {
	return s.RecordSize() - s.KeySize()
}

// keyOrder returns the configured Order, or the default if unset.
func (s RowSchema) keyOrder() func(a, b []byte) int {
	if s.Order != nil {
		return s.Order
	}
	return defaultKeyOrder
}

// wellFormedFn returns the configured WellFormed predicate, or the default
// if unset.
func (s RowSchema) wellFormedFn() func(key []byte) bool {
	if s.WellFormed != nil {
		return s.WellFormed
	}
	return defaultWellFormed
}

func defaultKeyOrder(a, b []byte) int {
	return slices.Compare(a, b)
}

// defaultWellFormed rejects ragged NUL padding: a 0x00 byte that is
// followed by a non-0x00 byte. A key of all zero bytes, or of zero bytes
// trailed only by more zero bytes, is well-formed; a zero byte followed
// later by a non-zero byte is not.
func defaultWellFormed(key []byte) bool {
	seenZero := false
	for _, b := range key {
		if b == 0 {
			seenZero = true
			continue
		}
		if seenZero {
			return false
		}
	}
	return true
}

// validate checks the schema is internally consistent: at least one
// column, all widths positive.
func (s RowSchema) validate() error {
	if len(s.Columns) == 0 {
		return errSchemaNoColumns
	}
	for _, c := range s.Columns {
		if c.Width <= 0 {
			return errSchemaBadWidth
		}
	}
	return nil
}
