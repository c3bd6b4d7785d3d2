package recordfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAddGetFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rec")
	f, err := Open(path, 8, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	slot, err := f.Add([]byte("AAAABBBB"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if slot != 0 {
		t.Fatalf("Add slot = %d, want 0", slot)
	}

	buf := make([]byte, 8)
	if err := f.Get(0, buf); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(buf, []byte("AAAABBBB")) {
		t.Fatalf("Get = %q, want AAAABBBB", buf)
	}

	if err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	raw, err := f.RawSize()
	if err != nil {
		t.Fatalf("RawSize: %v", err)
	}
	if raw != 8 {
		t.Fatalf("RawSize = %d, want 8", raw)
	}
}

func TestImplicitFlushAtBufferCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rec")
	f, err := Open(path, 4, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	f.Add([]byte("AAAA"))
	raw, _ := f.RawSize()
	if raw != 0 {
		t.Fatalf("RawSize before buffer full = %d, want 0", raw)
	}
	f.Add([]byte("BBBB"))
	raw, _ = f.RawSize()
	if raw != 8 {
		t.Fatalf("RawSize after implicit flush = %d, want 8", raw)
	}
}

func TestCleanLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rec")
	f, err := Open(path, 4, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	f.Add([]byte("AAAA"))
	f.Add([]byte("BBBB"))

	last, err := f.CleanLast()
	if err != nil {
		t.Fatalf("CleanLast: %v", err)
	}
	if !bytes.Equal(last, []byte("BBBB")) {
		t.Fatalf("CleanLast = %q, want BBBB", last)
	}
	if f.Size() != 1 {
		t.Fatalf("Size = %d, want 1", f.Size())
	}
}

func TestRepairTruncatesPartialTrailing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rec")
	f, err := Open(path, 4, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.Add([]byte("AAAA"))
	f.Flush()
	f.Close()

	// Append 2 extra bytes directly, simulating a torn write.
	raw, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("open for torn write: %v", err)
	}
	raw.Write([]byte("BB"))
	raw.Close()

	f2, err := Open(path, 4, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f2.Close()
	n, err := f2.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if n != 2 {
		t.Fatalf("Repair discarded %d bytes, want 2", n)
	}
}
