// Package strpkg is a native package exporting string helpers, covering
// the method surface split between free functions here and the per-Kind
// method table in vm's strMethods.
package strpkg

import (
	"strings"

	"github.com/atomcore/bytecode/vm"
)

func strArg(name string, args []*vm.Value) (string, bool) {
	if len(args) != 1 || !args[0].IsStr() {
		return "", false
	}
	return args[0].Str(), true
}

// Exported as "length", not "len": a package is represented as a map
// Value (vm.DefinePackage), and get(map, "len") is intercepted by the map
// kind's own bound-method table (methods.go's mapMethods) before it ever
// reaches this entry — method lookup runs ahead of plain map indexing for
// every string key, deliberately or not.
var length = vm.NewNativeFunc("length", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	s, ok := strArg("length", args)
	if !ok {
		return ctx.Throw("string.length expects a string")
	}
	return vm.NativeOKResult(vm.NewInt(int64(len(s))))
})

var upper = vm.NewNativeFunc("upper", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	s, ok := strArg("upper", args)
	if !ok {
		return ctx.Throw("string.upper expects a string")
	}
	return vm.NativeOKResult(vm.NewStr(strings.ToUpper(s)))
})

var lower = vm.NewNativeFunc("lower", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	s, ok := strArg("lower", args)
	if !ok {
		return ctx.Throw("string.lower expects a string")
	}
	return vm.NativeOKResult(vm.NewStr(strings.ToLower(s)))
})

var split = vm.NewNativeFunc("split", 2, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 2 || !args[0].IsStr() || !args[1].IsStr() {
		return ctx.Throw("string.split expects two strings")
	}
	parts := strings.Split(args[0].Str(), args[1].Str())
	elems := make([]*vm.Value, len(parts))
	for i, p := range parts {
		elems[i] = vm.NewStr(p)
	}
	return vm.NativeOKResult(vm.NewList(elems))
})

var join = vm.NewNativeFunc("join", 2, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 2 || !args[1].IsStr() {
		return ctx.Throw("string.join expects (list, sep)")
	}
	elems := args[0].ListElems()
	parts := make([]string, len(elems))
	for i, e := range elems {
		if !e.IsStr() {
			return ctx.Throw("string.join expects a list of strings")
		}
		parts[i] = e.Str()
	}
	return vm.NativeOKResult(vm.NewStr(strings.Join(parts, args[1].Str())))
})

var trim = vm.NewNativeFunc("trim", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	s, ok := strArg("trim", args)
	if !ok {
		return ctx.Throw("string.trim expects a string")
	}
	return vm.NativeOKResult(vm.NewStr(strings.TrimSpace(s)))
})

// Package builds the native package thunk registered as vm.NativePackage
// under "string".
func Package() *vm.Value {
	return vm.DefinePackage("string", map[string]*vm.Value{
		"length": length,
		"upper": upper,
		"lower": lower,
		"split": split,
		"join":  join,
		"trim":  trim,
	})
}
