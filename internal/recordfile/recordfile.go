// Package recordfile is a fixed-size-record flat file: a flat sequence of
// N records of R bytes, addressed by slot index, with no header and no
// tombstones. Appends are staged in a write-behind buffer and flushed to
// disk in a single batched write, amortising syscalls across bufferSize
// appends.
package recordfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrRecordSize is returned when a caller passes a buffer whose length
// does not equal the configured record size (or a read length request).
var ErrRecordSize = errors.New("recordfile: buffer size mismatch")

// File is a fixed-size-record flat file addressed by slot index.
//
// File is not safe for concurrent use; callers (the Table core) must
// serialize access.
type File struct {
	f          *os.File
	path       string
	recordSize int
	bufferCap  int // max pending (unflushed) records before an implicit flush

	flushed int64    // records durably on disk
	pending [][]byte // appended, not yet flushed; each len == recordSize

	deleteOnClose bool
}

// Open opens (creating if absent) a fixed-record file at path.
// bufferSize is the number of appended records staged in RAM before an
// implicit flush; 0 or negative is treated as 1 (flush on every append).
func Open(path string, recordSize, bufferSize int) (*File, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("recordfile: record size must be positive, got %d", recordSize)
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("recordfile: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("recordfile: stat %s: %w", path, err)
	}

	rf := &File{
		f:          f,
		path:       path,
		recordSize: recordSize,
		bufferCap:  bufferSize,
		flushed:    info.Size() / int64(recordSize),
	}
	return rf, nil
}

// RecordSize returns the fixed record width in bytes.
func (f *File) RecordSize() int { return f.recordSize }

// Size returns the current number of records, flushed and pending.
func (f *File) Size() int64 { return f.flushed + int64(len(f.pending)) }

// Filename returns the path the file was opened with.
func (f *File) Filename() string { return f.path }

// RawSize returns the on-disk byte length, not counting pending records.
func (f *File) RawSize() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("recordfile: stat: %w", err)
	}
	return info.Size(), nil
}

// Repair truncates the file to the largest exact multiple of the record
// size, discarding any trailing partial record. Returns the number of
// bytes discarded.
func (f *File) Repair() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("recordfile: stat: %w", err)
	}
	rem := info.Size() % int64(f.recordSize)
	if rem == 0 {
		f.flushed = info.Size() / int64(f.recordSize)
		return 0, nil
	}
	newSize := info.Size() - rem
	if err := f.f.Truncate(newSize); err != nil {
		return 0, fmt.Errorf("recordfile: truncate repair: %w", err)
	}
	f.flushed = newSize / int64(f.recordSize)
	return rem, nil
}

// Get reads n bytes (n <= recordSize) from the start of slot i into buf.
// Used both for full-record reads (n == recordSize) and key-prefix reads
// during key-only recovery scans (n == key size).
func (f *File) Get(i int64, buf []byte) error {
	if i < 0 || i >= f.Size() {
		return fmt.Errorf("recordfile: slot %d out of range [0,%d)", i, f.Size())
	}
	n := len(buf)
	if n > f.recordSize {
		return ErrRecordSize
	}
	if i < f.flushed {
		if _, err := f.f.ReadAt(buf, i*int64(f.recordSize)); err != nil {
			return fmt.Errorf("recordfile: read slot %d: %w", i, err)
		}
		return nil
	}
	rec := f.pending[i-f.flushed]
	copy(buf, rec[:n])
	return nil
}

// Put overwrites the record at slot i. len(buf) must equal recordSize.
func (f *File) Put(i int64, buf []byte) error {
	if len(buf) != f.recordSize {
		return ErrRecordSize
	}
	if i < 0 || i >= f.Size() {
		return fmt.Errorf("recordfile: slot %d out of range [0,%d)", i, f.Size())
	}
	if i < f.flushed {
		if _, err := f.f.WriteAt(buf, i*int64(f.recordSize)); err != nil {
			return fmt.Errorf("recordfile: write slot %d: %w", i, err)
		}
		return nil
	}
	cp := make([]byte, f.recordSize)
	copy(cp, buf)
	f.pending[i-f.flushed] = cp
	return nil
}

// Add appends a new record, returning its slot. The write may be staged
// in the pending buffer rather than reaching disk immediately.
func (f *File) Add(buf []byte) (int64, error) {
	if len(buf) != f.recordSize {
		return 0, ErrRecordSize
	}
	slot := f.Size()
	cp := make([]byte, f.recordSize)
	copy(cp, buf)
	f.pending = append(f.pending, cp)
	if len(f.pending) >= f.bufferCap {
		if err := f.Flush(); err != nil {
			return 0, err
		}
	}
	return slot, nil
}

// CleanLast truncates the last record from the file and returns its
// bytes.
func (f *File) CleanLast() ([]byte, error) {
	n := f.Size()
	if n == 0 {
		return nil, fmt.Errorf("recordfile: clean last: file is empty")
	}
	if n > f.flushed {
		last := f.pending[len(f.pending)-1]
		f.pending = f.pending[:len(f.pending)-1]
		return last, nil
	}
	buf := make([]byte, f.recordSize)
	if _, err := f.f.ReadAt(buf, (f.flushed-1)*int64(f.recordSize)); err != nil {
		return nil, fmt.Errorf("recordfile: read last: %w", err)
	}
	if err := f.f.Truncate((f.flushed - 1) * int64(f.recordSize)); err != nil {
		return nil, fmt.Errorf("recordfile: truncate last: %w", err)
	}
	f.flushed--
	return buf, nil
}

// Flush writes all pending records to disk in a single batched write and
// fsyncs the file.
func (f *File) Flush() error {
	if len(f.pending) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(f.pending)*f.recordSize)
	for _, rec := range f.pending {
		buf = append(buf, rec...)
	}
	off := f.flushed * int64(f.recordSize)
	if _, err := f.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("recordfile: flush: %w", err)
	}
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("recordfile: sync: %w", err)
	}
	f.flushed += int64(len(f.pending))
	f.pending = f.pending[:0]
	return nil
}

// DeleteOnExit marks the file for removal from disk when Close is called.
func (f *File) DeleteOnExit() { f.deleteOnClose = true }

// Close flushes pending writes and closes the underlying file handle. If
// DeleteOnExit was called, the file is also removed from disk.
func (f *File) Close() error {
	flushErr := f.Flush()
	closeErr := f.f.Close()
	var rmErr error
	if f.deleteOnClose {
		rmErr = os.Remove(f.path)
		if errors.Is(rmErr, os.ErrNotExist) {
			rmErr = nil
		}
	}
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("recordfile: close: %w", closeErr)
	}
	return rmErr
}
