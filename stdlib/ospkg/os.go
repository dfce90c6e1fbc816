// Package ospkg is a native package exporting host process/IO access.
// Kept deliberately narrow: the core is a bytecode interpreter, not a
// general stdlib, so this package demonstrates the extension point
// rather than replicating an OS binding in full.
package ospkg

import (
	"bufio"
	"fmt"
	"os"

	"github.com/atomcore/bytecode/vm"
)

var stdin = bufio.NewReader(os.Stdin)

var exit = vm.NewNativeFunc("exit", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 1 || !args[0].IsInt() {
		return ctx.Throw("exit expects an int")
	}
	os.Exit(int(args[0].Int()))
	return vm.NativeOKResult(vm.NewNull())
})

var getenv = vm.NewNativeFunc("getenv", 1, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	if len(args) != 1 || !args[0].IsStr() {
		return ctx.Throw("getenv expects a string")
	}
	v, ok := os.LookupEnv(args[0].Str())
	if !ok {
		return vm.NativeOKResult(vm.NewNull())
	}
	return vm.NativeOKResult(vm.NewStr(v))
})

var readline = vm.NewNativeFunc("readline", 0, false, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return vm.NativeOKResult(vm.NewNull())
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return vm.NativeOKResult(vm.NewStr(line))
})

var print = vm.NewNativeFunc("print", -1, true, func(ctx *vm.Context, args []*vm.Value) vm.NativeResult {
	parts := make([]any, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(parts...)
	return vm.NativeOKResult(vm.NewNull())
})

// Package builds the native package thunk registered as vm.NativePackage
// under "os".
func Package() *vm.Value {
	return vm.DefinePackage("os", map[string]*vm.Value{
		"success":  vm.NewInt(0),
		"failure":  vm.NewInt(1),
		"exit":     exit,
		"getenv":   getenv,
		"readline": readline,
		"print":    print,
	})
}
