package vm

import "fmt"

// Named thrown-error messages shared by the arithmetic and shift ops.
var (
	errOverflow       = fmt.Errorf("operation overflowed")
	errDivByZero      = fmt.Errorf("division by zero")
	errNegDenominator = fmt.Errorf("denominator must be non-negative")
	errNegShift       = fmt.Errorf("shift amount must be non-negative")
)

func errBadOperands(op string, lhs, rhs *Value) error {
	return fmt.Errorf("cannot %s %s and %s", op, typeName(lhs), typeName(rhs))
}

func errBadOperand(op string, v *Value) error {
	return fmt.Errorf("cannot %s %s", op, typeName(v))
}
