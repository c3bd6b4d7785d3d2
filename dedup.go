// removeDoubles (spec §4.D): collapses keys present at more than one
// physical slot, keeping the lowest-numbered slot, and reports what was
// collapsed for the caller's inspection.
package fixrow

import (
	"fmt"
	"sort"
)

// DuplicateGroup reports one key that was found at more than one
// physical slot: the records read from every slot before cleanup (for
// the caller's inspection/reconciliation) and the slots that were
// physically removed.
type DuplicateGroup struct {
	Key     []byte
	Records [][]byte
	Removed []int32
}

// RemoveDoubles asks the index to enumerate duplicate-key slot groups,
// reads every listed slot's record before any mutation, then physically
// removes the extra slots in descending order (mandatory: removing a
// smaller slot first would relocate the last record into it, invalidating
// subsequent larger slot numbers).
func (t *Table) RemoveDoubles() ([]DuplicateGroup, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	groups := t.index.RemoveDoubles()
	if len(groups) == 0 {
		return nil, nil
	}

	reports := make([]DuplicateGroup, 0, len(groups))
	var toRemove []int32
	for _, g := range groups {
		records := make([][]byte, 0, len(g.Slots))
		for _, slot := range g.Slots {
			rec, err := t.readRecordFromFile(int64(slot))
			if err != nil {
				return nil, fmt.Errorf("fixrow: removeDoubles: %w", err)
			}
			records = append(records, rec)
		}
		reports = append(reports, DuplicateGroup{
			Key:     append([]byte(nil), g.Key...),
			Records: records,
			Removed: append([]int32(nil), g.Slots[1:]...),
		})
		toRemove = append(toRemove, g.Slots[1:]...)
	}

	for _, slot := range sortDescending(toRemove) {
		if _, err := t.relocateOut(int64(slot), false, nil); err != nil {
			return nil, fmt.Errorf("fixrow: removeDoubles: %w", err)
		}
	}
	t.logf("removeDoubles path=%s groups=%d collapsedSlots=%d", t.path, len(reports), len(toRemove))
	return reports, nil
}

// sortDescending returns a new slice holding s sorted largest-first.
func sortDescending(s []int32) []int32 {
	out := append([]int32(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}
