package vm

import "math"

// This file gathers the binary/unary operation helpers the dispatch loop
// calls into. Each returns a (*Value, error) pair rather than pushing
// onto an interpreter-global stack, since the Frame model writes results
// to an explicit ref rather than an implicit evaluation stack top.

// doAdd is checked, overflow-throwing for int/int, num promotion otherwise.
func doAdd(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindStr && rhs.Kind == KindStr {
		return newStrValue(lhs.Str() + rhs.Str()), nil
	}
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		a, b := lhs.Int(), rhs.Int()
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			return nil, errOverflow
		}
		return newIntValue(sum), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("add", lhs, rhs)
	}
	return newNumValue(af + bf), nil
}

func doSub(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		a, b := lhs.Int(), rhs.Int()
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			return nil, errOverflow
		}
		return newIntValue(diff), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("sub", lhs, rhs)
	}
	return newNumValue(af - bf), nil
}

func doMul(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		a, b := lhs.Int(), rhs.Int()
		if a != 0 && b != 0 {
			prod := a * b
			if prod/b != a {
				return nil, errOverflow
			}
			return newIntValue(prod), nil
		}
		return newIntValue(0), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("mul", lhs, rhs)
	}
	return newNumValue(af * bf), nil
}

// doDiv always produces num (true division).
func doDiv(lhs, rhs *Value) (*Value, error) {
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("div", lhs, rhs)
	}
	if bf == 0 {
		return nil, errDivByZero
	}
	return newNumValue(af / bf), nil
}

// doDivFloor floors toward negative infinity, tolerating a negative denominator.
func doDivFloor(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		a, b := lhs.Int(), rhs.Int()
		if b == 0 {
			return nil, errDivByZero
		}
		if a == math.MinInt64 && b == -1 {
			return nil, errOverflow
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return newIntValue(q), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("div_floor", lhs, rhs)
	}
	if bf == 0 {
		return nil, errDivByZero
	}
	return newIntValue(int64(math.Floor(af / bf))), nil
}

// doRem requires a non-negative denominator and preserves the sign of the dividend.
func doRem(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		a, b := lhs.Int(), rhs.Int()
		if b < 0 {
			return nil, errNegDenominator
		}
		if b == 0 {
			return nil, errDivByZero
		}
		return newIntValue(a % b), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("rem", lhs, rhs)
	}
	if bf < 0 {
		return nil, errNegDenominator
	}
	if bf == 0 {
		return nil, errDivByZero
	}
	return newNumValue(math.Mod(af, bf)), nil
}

// doPow is a checked integer power for integers, IEEE pow for floats.
func doPow(lhs, rhs *Value) (*Value, error) {
	if lhs.Kind == KindInt && rhs.Kind == KindInt {
		base, exp := lhs.Int(), rhs.Int()
		if exp < 0 {
			return newNumValue(math.Pow(float64(base), float64(exp))), nil
		}
		result := int64(1)
		for i := int64(0); i < exp; i++ {
			next := result * base
			if base != 0 && next/base != result {
				return nil, errOverflow
			}
			result = next
		}
		return newIntValue(result), nil
	}
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return nil, errBadOperands("pow", lhs, rhs)
	}
	return newNumValue(math.Pow(af, bf)), nil
}

// doShl/doShr saturate rather than wrap past the 64-bit width.
func doShl(lhs, rhs *Value) (*Value, error) {
	a, b, err := intPair("l_shift", lhs, rhs)
	if err != nil {
		return nil, err
	}
	if b < 0 {
		return nil, errNegShift
	}
	if b > 63 {
		return newIntValue(0), nil
	}
	return newIntValue(a << uint(b)), nil
}

func doShr(lhs, rhs *Value) (*Value, error) {
	a, b, err := intPair("r_shift", lhs, rhs)
	if err != nil {
		return nil, err
	}
	if b < 0 {
		return nil, errNegShift
	}
	if b > 63 {
		if a < 0 {
			return newIntValue(math.MaxInt64), nil
		}
		return newIntValue(0), nil
	}
	return newIntValue(a >> uint(b)), nil
}

func doBitAnd(lhs, rhs *Value) (*Value, error) {
	a, b, err := intPair("bit_and", lhs, rhs)
	if err != nil {
		return nil, err
	}
	return newIntValue(a & b), nil
}

func doBitOr(lhs, rhs *Value) (*Value, error) {
	a, b, err := intPair("bit_or", lhs, rhs)
	if err != nil {
		return nil, err
	}
	return newIntValue(a | b), nil
}

func doBitXor(lhs, rhs *Value) (*Value, error) {
	a, b, err := intPair("bit_xor", lhs, rhs)
	if err != nil {
		return nil, err
	}
	return newIntValue(a ^ b), nil
}

func doNegate(v *Value) (*Value, error) {
	switch v.Kind {
	case KindInt:
		if v.Int() == math.MinInt64 {
			return nil, errOverflow
		}
		return newIntValue(-v.Int()), nil
	case KindNum:
		return newNumValue(-v.Num()), nil
	default:
		return nil, errBadOperand("negate", v)
	}
}

func doBoolNot(v *Value) (*Value, error) {
	if v.Kind != KindBool {
		return nil, errBadOperand("bool_not", v)
	}
	return boolValue(!v.Bool()), nil
}

func doBitNot(v *Value) (*Value, error) {
	if v.Kind != KindInt {
		return nil, errBadOperand("bit_not", v)
	}
	return newIntValue(^v.Int()), nil
}

// doCompare implements the ordering operators; both operands must be numeric.
func doCompare(lhs, rhs *Value) (int, error) {
	af, bf, ok := numericPair(lhs, rhs)
	if !ok {
		return 0, errBadOperands("compare", lhs, rhs)
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

func numericPair(lhs, rhs *Value) (float64, float64, bool) {
	af, ok1 := asFloat(lhs)
	bf, ok2 := asFloat(rhs)
	return af, bf, ok1 && ok2
}

func asFloat(v *Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int()), true
	case KindNum:
		return v.Num(), true
	default:
		return 0, false
	}
}

func intPair(op string, lhs, rhs *Value) (int64, int64, error) {
	if lhs.Kind != KindInt || rhs.Kind != KindInt {
		return 0, 0, errBadOperands(op, lhs, rhs)
	}
	return lhs.Int(), rhs.Int(), nil
}
