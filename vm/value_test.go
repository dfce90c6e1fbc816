package vm

import "testing"

func TestEqlAcrossNumericKinds(t *testing.T) {
	if !eql(newIntValue(2), newNumValue(2.0)) {
		t.Fatal("expected int(2) == num(2.0)")
	}
	if eql(newIntValue(2), newNumValue(2.5)) {
		t.Fatal("expected int(2) != num(2.5)")
	}
}

func TestEqlStrByValue(t *testing.T) {
	if !eql(newStrValue("abc"), newStrValue("abc")) {
		t.Fatal("expected equal strings to compare equal")
	}
}

func TestEqlListByElement(t *testing.T) {
	a := newListValue([]*Value{newIntValue(1), newIntValue(2)})
	b := newListValue([]*Value{newIntValue(1), newIntValue(2)})
	c := newListValue([]*Value{newIntValue(1), newIntValue(3)})
	if !eql(a, b) {
		t.Fatal("expected structurally equal lists to compare equal")
	}
	if eql(a, c) {
		t.Fatal("expected differing lists to compare unequal")
	}
}

func TestMapSetGetDelete(t *testing.T) {
	m := newMapValue()
	mapSet(m, newStrValue("k"), newIntValue(1))
	v, ok := mapGet(m, newStrValue("k"))
	if !ok || v.Int() != 1 {
		t.Fatalf("expected to find key, got %v ok=%v", v, ok)
	}
	if !mapDelete(m, newStrValue("k")) {
		t.Fatal("expected delete to report true")
	}
	if _, ok := mapGet(m, newStrValue("k")); ok {
		t.Fatal("expected key gone after delete")
	}
}

func TestMapSetOverwritesExistingKey(t *testing.T) {
	m := newMapValue()
	mapSet(m, newStrValue("k"), newIntValue(1))
	mapSet(m, newStrValue("k"), newIntValue(2))
	if m.MapLen() != 1 {
		t.Fatalf("expected a single entry after overwrite, got %d", m.MapLen())
	}
	v, _ := mapGet(m, newStrValue("k"))
	if v.Int() != 2 {
		t.Fatalf("expected overwritten value 2, got %d", v.Int())
	}
}

func TestMapDeleteThenRebucketKeepsSurvivorsReachable(t *testing.T) {
	m := newMapValue()
	for i := 0; i < 20; i++ {
		mapSet(m, newIntValue(int64(i)), newIntValue(int64(i*i)))
	}
	mapDelete(m, newIntValue(5))
	for i := 0; i < 20; i++ {
		if i == 5 {
			continue
		}
		v, ok := mapGet(m, newIntValue(int64(i)))
		if !ok || v.Int() != int64(i*i) {
			t.Fatalf("key %d lost or corrupted after an unrelated delete: got %v ok=%v", i, v, ok)
		}
	}
}

func TestNormalizeIndexNegative(t *testing.T) {
	if got := normalizeIndex(-1, 5); got != 4 {
		t.Fatalf("expected -1 to normalize to 4 of 5, got %d", got)
	}
}

func TestContainerGetListNegativeIndex(t *testing.T) {
	l := newListValue([]*Value{newIntValue(10), newIntValue(20), newIntValue(30)})
	v, err := containerGet(l, newIntValue(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != 30 {
		t.Fatalf("expected last element 30, got %d", v.Int())
	}
}

func TestContainerGetOutOfBounds(t *testing.T) {
	l := newListValue([]*Value{newIntValue(1)})
	if _, err := containerGet(l, newIntValue(5)); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestContainerGetInterceptedByMethodBeforePlainIndex(t *testing.T) {
	l := newListValue([]*Value{newIntValue(1), newIntValue(2)})
	v, err := containerGet(l, newStrValue("len"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindNative {
		t.Fatalf("expected get(list, \"len\") to resolve to a bound method, got %v", v.Kind)
	}
}

func TestContainerSetSharesBackingList(t *testing.T) {
	l := newListValue([]*Value{newIntValue(1), newIntValue(2)})
	if err := containerSet(l, newIntValue(0), newIntValue(99)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ListElems()[0].Int() != 99 {
		t.Fatal("expected in-place mutation of list element")
	}
}

func TestContainerAppendRejectsFrozen(t *testing.T) {
	l := newListValue(nil)
	l.data.(*listData).frozen = true
	if err := containerAppend(l, newIntValue(1)); err == nil {
		t.Fatal("expected append to a frozen list to fail")
	}
}

func TestValueInStrSubstring(t *testing.T) {
	ok, err := valueIn(newStrValue("ll"), newStrValue("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected \"ll\" in \"hello\"")
	}
}

func TestValueInRangeWithStep(t *testing.T) {
	r, err := newRangeValue(0, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := valueIn(newIntValue(6), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected 6 to be in range(0, 10, 3)")
	}
	ok, err = valueIn(newIntValue(7), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected 7 to not be in range(0, 10, 3)")
	}
}

func TestIteratorOverRange(t *testing.T) {
	r, err := newRangeValue(0, 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	it, err := newIterator(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []int64
	for {
		v, ok := iteratorNext(it)
		if !ok {
			break
		}
		got = append(got, v.Int())
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("expected [0 1 2], got %v", got)
	}
}

func TestIteratorOverNegativeStepRange(t *testing.T) {
	r, err := newRangeValue(5, 0, -2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	it, err := newIterator(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []int64
	for {
		v, ok := iteratorNext(it)
		if !ok {
			break
		}
		got = append(got, v.Int())
	}
	if len(got) != 3 || got[0] != 5 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("expected [5 3 1], got %v", got)
	}
}

func TestRangeWithZeroStepRejected(t *testing.T) {
	if _, err := newRangeValue(0, 10, 0); err == nil {
		t.Fatal("expected a zero step to be rejected")
	}
}
