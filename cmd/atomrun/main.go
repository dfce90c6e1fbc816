// Command atomrun is the minimal host/driver for the bytecode core. There
// is no compiler front end here, so rather than parsing source this builds
// one of a few demo Modules directly through vm.Assembler and drives the
// interpreter over it end to end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/atomcore/bytecode/stdlib/mathpkg"
	"github.com/atomcore/bytecode/stdlib/ospkg"
	"github.com/atomcore/bytecode/stdlib/strpkg"
	"github.com/atomcore/bytecode/vm"
)

func main() {
	demo := flag.String("demo", "hello", "demo program to run: hello, fib, catch")
	disasm := flag.Bool("disasm", false, "print the demo's disassembly instead of running it")
	flag.Parse()

	var module *vm.Module
	switch *demo {
	case "hello":
		module = buildHello()
	case "fib":
		module = buildFib()
	case "catch":
		module = buildCatch()
	default:
		fmt.Fprintf(os.Stderr, "unknown demo %q\n", *demo)
		os.Exit(1)
	}

	if *disasm {
		fmt.Println(vm.Decompile(module))
		return
	}

	diag := vm.NewErrorReporter(nil)
	cfg := vm.DefaultConfig()
	interp := vm.NewInterpreter(cfg, diag)
	interp.Importer.RegisterNative("math", mathpkg.Package)
	interp.Importer.RegisterNative("string", strpkg.Package)
	interp.Importer.RegisterNative("os", ospkg.Package)

	result, ferr := interp.Run(module)
	if ferr != nil {
		diag.Print()
		fmt.Fprintln(os.Stderr, ferr.Error())
		os.Exit(1)
	}
	fmt.Println(result.String())
}

// buildHello imports the os package and calls its print function.
func buildHello() *vm.Module {
	asm := vm.NewAssembler("hello.atom")
	main := asm.Main()
	osPkg := main.Import("os")
	printFn := main.Get(osPkg, main.Str("print"))
	main.CallOne(printFn, main.Str("Hello, world!"))
	main.RetNull()
	return asm.FinishMain(main)
}

// buildFib assembles a recursive fibonacci function and returns fib(10).
func buildFib() *vm.Module {
	asm := vm.NewAssembler("fib.atom")
	main := asm.Main()

	fibRef := main.NextRef()
	fib := main.Func(1, false, nil, func(fb *vm.FuncBuilder) {
		n := fb.Param(0)
		two := fb.Int(2)
		lt := fb.LessThan(n, two)
		skip := fb.JumpIfFalse(lt)
		fb.Ret(n)
		fb.PatchJump(skip, fb.Here())

		one := fb.Int(1)
		nMinus1 := fb.Sub(n, one)
		self := fb.LoadGlobal(fibRef)
		r1 := fb.CallOne(self, nMinus1)

		nMinus2Ref := fb.Sub(n, fb.Int(2))
		r2 := fb.CallOne(self, nMinus2Ref)

		fb.Ret(fb.Add(r1, r2))
	})

	ten := main.Int(10)
	result := main.CallOne(fib, ten)
	main.Ret(result)
	return asm.FinishMain(main)
}

// buildCatch demonstrates push_err_handler/pop_err_handler: it calls a
// function that always throws, catches the resulting err value, and
// returns its payload.
func buildCatch() *vm.Module {
	asm := vm.NewAssembler("catch.atom")
	main := asm.Main()

	boom := main.Func(0, false, nil, func(fb *vm.FuncBuilder) {
		fb.Throw(fb.Str("boom"))
	})

	// On a throw, control redirects straight into the catch block below,
	// skipping the now-moot pop_err_handler (the throw already popped the
	// handler it consulted): push's own jump target is the catch block's
	// first instruction. On success, pop_err_handler finds catchRef still
	// uninitialized and jumps past the catch block to the plain return.
	catchRef, pushJump := main.PushErrHandler()
	result := main.CallZero(boom)
	popJump := main.PopErrHandler()
	main.PatchJump(pushJump, main.Here())
	payload := main.UnwrapError(catchRef)
	main.Ret(payload)
	main.PatchJump(popJump, main.Here())
	main.Ret(result)

	return asm.FinishMain(main)
}
