// Package fixrow is an embedded, single-file, fixed-record-size
// primary-key table: a persistent associative container mapping a
// fixed-width primary key to a fixed-width payload, backed by one flat
// file of equal-sized records, an in-RAM key index, and an optional
// in-RAM shadow of record tails.
//
// Reads are served from RAM when the tail shadow is populated, falling
// back to disk otherwise. Writes are batched through a write-behind
// buffer in the underlying record file. The table tracks available
// memory and drops the tail shadow under pressure; once dropped, it is
// never recreated.
package fixrow
