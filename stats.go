// Diagnostic snapshot of a Table's state, JSON-serializable via
// goccy/go-json — mirrors folio's Header encode/decode discipline for
// a small, fixed, inspection-only struct.
package fixrow

import (
	json "github.com/goccy/go-json"
)

// Stats is a point-in-time snapshot of a Table's size and resource
// state, suitable for logging or a health-check endpoint.
type Stats struct {
	Path            string `json:"path"`
	Records         int64  `json:"records"`
	RecordSize      int    `json:"record_size"`
	KeySize         int    `json:"key_size"`
	TailShadow      bool   `json:"tail_shadow"`
	MinMemRemaining uint64 `json:"min_mem_remaining"`
	IndexMemBytes   int64  `json:"index_mem_bytes"`
	TailMemBytes    int64  `json:"tail_mem_bytes"`
}

// Stats returns a snapshot of the Table's current state.
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		Path:            t.path,
		Records:         t.file.Size(),
		RecordSize:      t.schema.RecordSize(),
		KeySize:         t.schema.KeySize(),
		TailShadow:      t.tail != nil,
		MinMemRemaining: t.minMemRemaining,
		IndexMemBytes:   t.index.Mem(),
	}
	if t.tail != nil {
		s.TailMemBytes = t.tail.Mem()
	}
	return s
}

// JSON encodes the snapshot via goccy/go-json, matching folio's
// Header.encode discipline for its own small fixed struct.
func (s Stats) JSON() ([]byte, error) {
	return json.Marshal(s)
}
