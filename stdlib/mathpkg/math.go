// Package mathpkg is a native package exporting basic math functions
// through the Context/NativeFunc calling convention.
package mathpkg

import (
	"math"
	"math/rand"

	"github.com/atomcore/bytecode/vm"
)

func numArg(args []*vm.Value) (float64, bool) {
	if len(args) != 1 || !args[0].IsNumeric() {
		return 0, false
	}
	if args[0].IsInt() {
		return float64(args[0].Int()), true
	}
	return args[0].Num(), true
}

func unary(name string, fn func(float64) float64) *vm.Value {
	return vm.NewNativeFunc(name, 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
		n, ok := numArg(args)
		if !ok {
			return ctx.ThrowFmt("%s expects a number", name)
		}
		return vm.NativeOKResult(vm.NewNum(fn(n)))
	})
}

var rnd = vm.NewNativeFunc("rand", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 1 || !args[0].IsInt() {
		return ctx.Throw("rand expects an int")
	}
	n := args[0].Int()
	if n <= 0 {
		return ctx.Throw("rand expects a positive int")
	}
	return vm.NativeOKResult(vm.NewInt(int64(rand.Int63n(n))))
})

var pow = vm.NewNativeFunc("pow", 2, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 2 || !args[0].IsNumeric() || !args[1].IsNumeric() {
		return ctx.Throw("pow expects two numbers")
	}
	base, _ := numArg(args[:1])
	exp, _ := numArg(args[1:])
	return vm.NativeOKResult(vm.NewNum(math.Pow(base, exp)))
})

// Package builds the native package thunk registered as vm.NativePackage
// under "math".
func Package() *vm.Value {
	return vm.DefinePackage("math", map[string]*vm.Value{
		"pi":    vm.NewNum(math.Pi),
		"e":     vm.NewNum(math.E),
		"rand":  rnd,
		"abs":   unary("abs", math.Abs),
		"floor": unary("floor", math.Floor),
		"ceil":  unary("ceil", math.Ceil),
		"round": unary("round", math.Round),
		"sqrt":  unary("sqrt", math.Sqrt),
		"log":   unary("log", math.Log),
		"pow":   pow,
	})
}
