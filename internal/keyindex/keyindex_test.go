package keyindex

import (
	"slices"
	"testing"
)

func TestPutGetRemove(t *testing.T) {
	idx := New(4, 0, 0, nil)

	if _, err := idx.Put([]byte("AAAA"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := idx.Put([]byte("BBBB"), 1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	slot, ok := idx.Get([]byte("AAAA"))
	if !ok || slot != 0 {
		t.Fatalf("Get(AAAA) = %d, %v, want 0, true", slot, ok)
	}

	if idx.Size() != 2 {
		t.Fatalf("Size = %d, want 2", idx.Size())
	}

	prev, err := idx.Put([]byte("AAAA"), 5)
	if err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if prev != 0 {
		t.Fatalf("Put overwrite prior = %d, want 0", prev)
	}

	slot, ok = idx.Remove([]byte("AAAA"))
	if !ok || slot != 5 {
		t.Fatalf("Remove(AAAA) = %d, %v, want 5, true", slot, ok)
	}
	if idx.Has([]byte("AAAA")) {
		t.Fatalf("Has(AAAA) after remove: true")
	}
}

func TestPutUniqueRejectsExisting(t *testing.T) {
	idx := New(4, 0, 0, nil)
	idx.PutUnique([]byte("AAAA"), 0)
	if err := idx.PutUnique([]byte("AAAA"), 1); err == nil {
		t.Fatalf("PutUnique duplicate: want error")
	}
}

func TestSmallestLargestKey(t *testing.T) {
	idx := New(4, 0, 0, nil)
	for i, k := range []string{"CCCC", "AAAA", "BBBB"} {
		idx.Put([]byte(k), int32(i))
	}
	small, ok := idx.SmallestKey()
	if !ok || string(small) != "AAAA" {
		t.Fatalf("SmallestKey = %q, want AAAA", small)
	}
	large, ok := idx.LargestKey()
	if !ok || string(large) != "CCCC" {
		t.Fatalf("LargestKey = %q, want CCCC", large)
	}
}

func TestOrderedAscendingDescending(t *testing.T) {
	idx := New(4, 0, 0, nil)
	for i, k := range []string{"CCCC", "AAAA", "BBBB"} {
		idx.Put([]byte(k), int32(i))
	}

	var asc []string
	idx.Ordered(true, nil, func(key []byte) bool {
		asc = append(asc, string(key))
		return true
	})
	if !slices.Equal(asc, []string{"AAAA", "BBBB", "CCCC"}) {
		t.Fatalf("Ordered ascending = %v", asc)
	}

	var desc []string
	idx.Ordered(false, nil, func(key []byte) bool {
		desc = append(desc, string(key))
		return true
	})
	if !slices.Equal(desc, []string{"CCCC", "BBBB", "AAAA"}) {
		t.Fatalf("Ordered descending = %v", desc)
	}
}

func TestInsertRawAndRemoveDoubles(t *testing.T) {
	idx := New(4, 0, 0, nil)
	idx.InsertRaw([]byte("AAAA"), 0)
	idx.InsertRaw([]byte("BBBB"), 1)
	idx.InsertRaw([]byte("AAAA"), 2)

	groups := idx.RemoveDoubles()
	if len(groups) != 1 {
		t.Fatalf("RemoveDoubles: %d groups, want 1", len(groups))
	}
	g := groups[0]
	if string(g.Key) != "AAAA" {
		t.Fatalf("RemoveDoubles group key = %q, want AAAA", g.Key)
	}
	if !slices.Equal(g.Slots, []int32{0, 2}) {
		t.Fatalf("RemoveDoubles group slots = %v, want [0 2]", g.Slots)
	}

	slot, ok := idx.Get([]byte("AAAA"))
	if !ok || slot != 0 {
		t.Fatalf("Get(AAAA) after RemoveDoubles = %d, %v, want 0, true", slot, ok)
	}
	if idx.Size() != 2 {
		t.Fatalf("Size after RemoveDoubles = %d, want 2", idx.Size())
	}
}

func TestCapacityCeiling(t *testing.T) {
	idx := New(4, 2, 0, nil)
	if _, err := idx.Put([]byte("AAAA"), 0); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if _, err := idx.Put([]byte("BBBB"), 1); err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if _, err := idx.Put([]byte("CCCC"), 2); err == nil {
		t.Fatalf("Put 3: want ErrOutOfCapacity")
	}
}

func TestCapacityHintPresizesBuckets(t *testing.T) {
	idx := New(4, 0, 1000, nil)
	if got := len(idx.buckets); got < 1000 {
		t.Fatalf("bucket count = %d, want at least 1000 for a capacity hint of 1000", got)
	}

	small := New(4, 0, 0, nil)
	if got := len(small.buckets); got != initialBuckets {
		t.Fatalf("bucket count with no hint = %d, want %d", got, initialBuckets)
	}
}

func TestGrowRehashesBuckets(t *testing.T) {
	idx := New(4, 0, 0, nil)
	for i := 0; i < 100; i++ {
		key := []byte{byte(i), byte(i >> 8), 0, 0}
		if _, err := idx.Put(key, int32(i)); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	if idx.Size() != 100 {
		t.Fatalf("Size = %d, want 100", idx.Size())
	}
	for i := 0; i < 100; i++ {
		key := []byte{byte(i), byte(i >> 8), 0, 0}
		slot, ok := idx.Get(key)
		if !ok || slot != int32(i) {
			t.Fatalf("Get(%d) = %d, %v, want %d, true", i, slot, ok, i)
		}
	}
}
