package vm

import "testing"

func TestNewHeapDefaultsPageLimit(t *testing.T) {
	h := NewHeap(0)
	if h.pageLimit != DefaultPageLimit {
		t.Fatalf("expected default page limit %d, got %d", DefaultPageLimit, h.pageLimit)
	}
}

func TestAllocExhaustsPageBudget(t *testing.T) {
	h := NewHeap(1)
	slotsPerPage := pageSize / valueFootprint
	for i := 0; i < slotsPerPage; i++ {
		if _, err := h.alloc(); err != nil {
			t.Fatalf("unexpected error before budget exhausted (slot %d): %v", i, err)
		}
	}
	if _, err := h.alloc(); err == nil {
		t.Fatal("expected an out-of-memory error once the single-page budget is exhausted")
	}
}

func TestAllocChainsHead(t *testing.T) {
	h := NewHeap(1)
	a, err := h.alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := h.alloc()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.head != b || b.Next != a {
		t.Fatal("expected head to chain backwards through Next")
	}
}

func TestDupeStrHasIndependentBacking(t *testing.T) {
	h := NewHeap(1)
	orig := newStrValue("hello")
	copyV, err := h.dupe(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	copyV.str.bytes[0] = 'H'
	if orig.Str()[0] != 'h' {
		t.Fatal("expected dupe to give the copy independent byte backing")
	}
	if copyV.Str() != "Hello" {
		t.Fatalf("expected mutated copy to read \"Hello\", got %q", copyV.Str())
	}
}

func TestDupeListHasIndependentBacking(t *testing.T) {
	h := NewHeap(1)
	orig := newListValue([]*Value{newIntValue(1), newIntValue(2)})
	copyV, err := h.dupe(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	copyV.data.(*listData).elems[0] = newIntValue(99)
	if orig.ListElems()[0].Int() != 1 {
		t.Fatal("expected dupe to give the copy an independent backing slice")
	}
}

func TestDupeTupleHasIndependentBacking(t *testing.T) {
	h := NewHeap(1)
	orig := newTupleValue([]*Value{newIntValue(1), newIntValue(2)})
	copyV, err := h.dupe(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	copyV.data.(*tupleData).elems[0] = newIntValue(99)
	if orig.TupleElems()[0].Int() != 1 {
		t.Fatal("expected dupe to give the copy an independent backing slice")
	}
}

func TestDupeMapHasIndependentBuckets(t *testing.T) {
	h := NewHeap(1)
	orig := newMapValue()
	mapSet(orig, newStrValue("k"), newIntValue(1))
	copyV, err := h.dupe(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mapSet(copyV, newStrValue("k2"), newIntValue(2))
	if _, ok := mapGet(orig, newStrValue("k2")); ok {
		t.Fatal("expected dupe to give the copy independent buckets/keys/vals")
	}
	v, ok := mapGet(orig, newStrValue("k"))
	if !ok || v.Int() != 1 {
		t.Fatal("expected original map to still hold its own entry untouched")
	}
}

func TestDupeClearsMarkedOnCopy(t *testing.T) {
	h := NewHeap(1)
	orig := newIntValue(5)
	orig.Marked = true
	copyV, err := h.dupe(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if copyV.Marked {
		t.Fatal("expected dupe to reset Marked on the fresh copy")
	}
}

func TestPagesAllocatedReportsUsedPages(t *testing.T) {
	h := NewHeap(4)
	slotsPerPage := pageSize / valueFootprint
	for i := 0; i < slotsPerPage+1; i++ {
		if _, err := h.alloc(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if h.pagesAllocated() != 1 {
		t.Fatalf("expected to have rolled over into a second page, got pagesAllocated()=%d", h.pagesAllocated())
	}
}
