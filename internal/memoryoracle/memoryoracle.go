// Package memoryoracle is the MemoryOracle contract (spec §6): a probe
// over available process/host memory used to decide tail-shadow
// admission at load time and eviction on every subsequent write.
//
// Folio (the teacher) never tracks memory pressure — it always reads
// through a buffer on top of disk. This package is new domain surface,
// wired to github.com/shirou/gopsutil/v4, the host-metrics library
// already present (indirectly) in the retrieval pack's erigon example.
package memoryoracle

import (
	"runtime/debug"

	"github.com/shirou/gopsutil/v4/mem"
)

func runtimeFreeOSMemory() { debug.FreeOSMemory() }

// shortStatusWatermark is the fixed low-memory threshold used by
// ShortStatus, independent of any caller-configured threshold.
const shortStatusWatermark = 64 * 1024 * 1024 // 64 MiB

// Oracle is the MemoryOracle contract consumed by the table core.
type Oracle interface {
	// Available returns an estimate of free memory in bytes.
	Available() (uint64, error)
	// Request reports whether n bytes are likely available. If hard is
	// true, the oracle may take extra measures (e.g. prompting a GC)
	// before answering.
	Request(n uint64, hard bool) bool
	// ShortStatus reports whether available memory has fallen below a
	// fixed low watermark, independent of any caller threshold.
	ShortStatus() (bool, error)
}

// System is the real Oracle, backed by host memory statistics.
type System struct{}

// NewSystem returns the real, host-backed Oracle.
func NewSystem() *System { return &System{} }

// Available implements Oracle.
func (System) Available() (uint64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stat.Available, nil
}

// Request implements Oracle.
func (s System) Request(n uint64, hard bool) bool {
	avail, err := s.Available()
	if err != nil {
		return !hard // unknown: optimistic unless the caller demands certainty
	}
	if avail >= n {
		return true
	}
	if !hard {
		return false
	}
	// Hard requests get one more look after giving the runtime a chance
	// to release memory back to the OS.
	runtimeFreeOSMemory()
	avail, err = s.Available()
	if err != nil {
		return false
	}
	return avail >= n
}

// ShortStatus implements Oracle.
func (s System) ShortStatus() (bool, error) {
	avail, err := s.Available()
	if err != nil {
		return false, err
	}
	return avail < shortStatusWatermark, nil
}

// Fixed is a deterministic Oracle for tests: Available always reports a
// fixed value, letting tests force tail-shadow admission/eviction
// decisions without depending on the real host's memory state.
type Fixed struct {
	AvailableBytes uint64
}

// Available implements Oracle.
func (f *Fixed) Available() (uint64, error) { return f.AvailableBytes, nil }

// Request implements Oracle.
func (f *Fixed) Request(n uint64, _ bool) bool { return f.AvailableBytes >= n }

// ShortStatus implements Oracle.
func (f *Fixed) ShortStatus() (bool, error) { return f.AvailableBytes < shortStatusWatermark, nil }
