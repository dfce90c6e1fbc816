package vm

import (
	"math"
	"testing"
)

func TestDoAddIntInt(t *testing.T) {
	v, err := doAdd(newIntValue(2), newIntValue(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.Int() != 5 {
		t.Fatalf("expected int(5), got %v", v)
	}
}

func TestDoAddIntNumPromotes(t *testing.T) {
	v, err := doAdd(newIntValue(2), newNumValue(1.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindNum || v.Num() != 3.5 {
		t.Fatalf("expected num(3.5), got %v", v)
	}
}

func TestDoAddOverflow(t *testing.T) {
	_, err := doAdd(newIntValue(math.MaxInt64), newIntValue(1))
	if err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestDoDivByZero(t *testing.T) {
	_, err := doDiv(newIntValue(1), newIntValue(0))
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestDoDivFloorRoundsTowardNegativeInfinity(t *testing.T) {
	v, err := doDivFloor(newIntValue(-7), newIntValue(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != -4 {
		t.Fatalf("expected floor(-7/2) == -4, got %d", v.Int())
	}
}

func TestDoDivFloorNegativeDenominatorAllowed(t *testing.T) {
	v, err := doDivFloor(newIntValue(10), newIntValue(-2))
	if err != nil {
		t.Fatalf("div_floor should tolerate a negative denominator, got %v", err)
	}
	if v.Int() != -5 {
		t.Fatalf("expected -5, got %d", v.Int())
	}
}

func TestDoRemNegativeDenominatorRejected(t *testing.T) {
	_, err := doRem(newIntValue(5), newIntValue(-2))
	if err == nil {
		t.Fatal("expected negative denominator error per spec")
	}
}

func TestDoRemByZero(t *testing.T) {
	_, err := doRem(newIntValue(5), newIntValue(0))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDoRemPreservesDividendSign(t *testing.T) {
	v, err := doRem(newIntValue(-7), newIntValue(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != -1 {
		t.Fatalf("expected -7 %% 2 == -1, got %d", v.Int())
	}
}

func TestDoShlNegativeShift(t *testing.T) {
	_, err := doShl(newIntValue(1), newIntValue(-1))
	if err == nil {
		t.Fatal("expected negative shift error")
	}
}

func TestDoShlPastWidthIsZero(t *testing.T) {
	v, err := doShl(newIntValue(1), newIntValue(64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != 0 {
		t.Fatalf("expected 0, got %d", v.Int())
	}
}

func TestDoShrSaturatesPastWidth(t *testing.T) {
	v, err := doShr(newIntValue(-1), newIntValue(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != math.MaxInt64 {
		t.Fatalf("expected sign-saturated r_shift of a negative value past width to be MaxInt64, got %d", v.Int())
	}
}

func TestDoCompareOrdersNumericAcrossKinds(t *testing.T) {
	cmp, err := doCompare(newIntValue(1), newNumValue(2.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp >= 0 {
		t.Fatalf("expected 1 < 2.0, got cmp=%d", cmp)
	}
}

func TestDoNegateInt(t *testing.T) {
	v, err := doNegate(newIntValue(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int() != -5 {
		t.Fatalf("expected -5, got %d", v.Int())
	}
}

func TestDoNegateOverflow(t *testing.T) {
	_, err := doNegate(newIntValue(math.MinInt64))
	if err == nil {
		t.Fatal("expected overflow error negating MinInt64")
	}
}

func TestDoBoolNot(t *testing.T) {
	v, err := doBoolNot(True)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Bool() {
		t.Fatal("expected false")
	}
}

func TestDoPowZeroExponent(t *testing.T) {
	v, err := doPow(newIntValue(5), newIntValue(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.Int() != 1 {
		t.Fatalf("expected int(1), got %v", v)
	}
}

func TestDoPowNegativeExponentPromotesToNum(t *testing.T) {
	v, err := doPow(newIntValue(2), newIntValue(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindNum || v.Num() != 0.5 {
		t.Fatalf("expected num(0.5), got %v", v)
	}
}
