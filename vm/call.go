package vm

import "fmt"

// callOutcome reports whether a call redirected control to an error
// handler (in which case the dispatch loop must `continue` without
// storing to dest) or completed normally.
type callOutcome struct {
	redirected bool
}

// dispatchCall implements the call opcodes. Argument flattening mirrors
// aggregate construction (spread pre-flattening).
func (vm *Interpreter) dispatchCall(f *Frame, op Op, data InstrData, dest Ref) (callOutcome, *FatalError) {
	callee := f.val(data.Ref)
	this := Null

	var args []*Value
	var err error

	switch op {
	case OpCallZero:
		args = nil
	case OpCallOne:
		args = []*Value{f.val(data.Rhs)}
	case OpCall:
		args, err = vm.flattenExtra(f, data.ExtraIdx, data.ExtraLen, false)
	case OpThisCallZero:
		this = f.val(data.ThisRef)
		args = nil
	case OpThisCall:
		this = f.val(data.ThisRef)
		args, err = vm.flattenExtra(f, data.ExtraIdx, data.ExtraLen, false)
	}
	if err != nil {
		if fe := f.throw(err.Error()); fe != nil {
			return callOutcome{}, fe
		}
		return callOutcome{redirected: true}, nil
	}

	result, fe := vm.callValue(f, callee, this, args)
	if fe != nil {
		return callOutcome{}, fe
	}

	if result.Kind == KindErr {
		if h, ok := f.handlers.top(); ok {
			f.handlers.pop()
			f.store(h.targetRef, result)
			f.ip = h.offset
			return callOutcome{redirected: true}, nil
		}
	}
	f.store(dest, result)
	return callOutcome{}, nil
}

// callValue implements the callee-tag dispatch by Kind.
// caller may be nil when invoked from a host entry point rather than
// from within a running Frame.
func (vm *Interpreter) callValue(caller *Frame, callee *Value, this *Value, args []*Value) (*Value, *FatalError) {
	switch callee.Kind {
	case KindNative:
		return vm.callNative(caller, callee, this, args)
	case KindFunc:
		return vm.callFunc(caller, callee, this, args)
	default:
		msg := fmt.Sprintf("cannot call value of type %s", typeName(callee))
		if caller != nil {
			if fe := caller.throw(msg); fe != nil {
				return nil, fe
			}
			return newErrValue(newStrValue(msg)), nil
		}
		return nil, &FatalError{Message: msg}
	}
}

func checkArity(argCount int, variadic bool, got int) error {
	if variadic {
		if got < argCount-1 {
			return fmt.Errorf("expected at least %d arguments, got %d", argCount-1, got)
		}
		return nil
	}
	if got != argCount {
		return fmt.Errorf("expected %d arguments, got %d", argCount, got)
	}
	return nil
}

func (vm *Interpreter) callNative(caller *Frame, callee *Value, this *Value, args []*Value) (*Value, *FatalError) {
	nd := callee.data.(*nativeData)
	if nd.argCount >= 0 {
		if err := checkArity(nd.argCount, nd.variadic, len(args)); err != nil {
			if caller != nil {
				if fe := caller.throw(err.Error()); fe != nil {
					return nil, fe
				}
				return newErrValue(newStrValue(err.Error())), nil
			}
			return nil, &FatalError{Message: err.Error()}
		}
	}
	dupedArgs := make([]*Value, len(args))
	for i, a := range args {
		d, err := vm.dupeSimpleStandalone(a)
		if err != nil {
			return nil, &FatalError{Message: err.Error()}
		}
		dupedArgs[i] = d
	}
	ctx := &Context{VM: vm, Frame: caller, This: this}
	res := nd.fn(ctx, dupedArgs)
	switch res.Kind {
	case NativeOK:
		return res.Value, nil
	case NativeThrow:
		if caller != nil {
			if fe := caller.throw(res.Msg); fe != nil {
				return nil, fe
			}
			return newErrValue(newStrValue(res.Msg)), nil
		}
		return nil, &FatalError{Message: res.Msg}
	case NativeFatal:
		return nil, &FatalError{Message: res.Msg}
	default:
		panic("unreachable native result kind")
	}
}

func (vm *Interpreter) dupeSimpleStandalone(v *Value) (*Value, error) {
	if !isSimple(v) {
		return v, nil
	}
	return vm.Heap.dupe(v)
}

func (vm *Interpreter) callFunc(caller *Frame, callee *Value, this *Value, args []*Value) (*Value, *FatalError) {
	fd := callee.data.(*funcData)
	if err := checkArity(fd.argCount, fd.variadic, len(args)); err != nil {
		if caller != nil {
			if fe := caller.throw(err.Error()); fe != nil {
				return nil, fe
			}
			return newErrValue(newStrValue(err.Error())), nil
		}
		return nil, &FatalError{Message: err.Error()}
	}

	vm.callDepth++
	defer func() { vm.callDepth-- }()
	if vm.callDepth > MaxCallDepth {
		msg := "maximum recursion depth exceeded"
		if caller != nil {
			return nil, caller.fatal(msg)
		}
		return nil, &FatalError{Message: msg}
	}

	var moduleFrame *Frame
	if caller != nil {
		moduleFrame = caller.moduleFrame
	}

	stack, handlers := vm.cache.take()
	body := fd.module.Extra2Body(fd.extraIdx, fd.bodyLen)
	newF := newFrame(vm.Heap, fd.module, body, caller, moduleFrame, this, fd.argCount, fd.captures, vm.Diag)
	newF.adopt(stack, handlers)

	vm.primeParams(newF, fd, args)

	result, fe := vm.executeFrame(newF)
	if fe != nil {
		return nil, fe
	}
	vm.cache.release(newF.stack, newF.handlers)
	return result, nil
}

// primeParams writes call arguments into the new frame's parameter
// slots, packing the variadic tail into a list as the last param.
func (vm *Interpreter) primeParams(f *Frame, fd *funcData, args []*Value) {
	if !fd.variadic {
		for i := 0; i < fd.argCount; i++ {
			f.store(Ref(i), args[i])
		}
		return
	}
	fixed := fd.argCount - 1
	for i := 0; i < fixed; i++ {
		f.store(Ref(i), args[i])
	}
	tail := append([]*Value(nil), args[fixed:]...)
	f.store(Ref(fixed), newListValue(tail))
}

// Extra2Body resolves a function's (extra_index, body_len) pair into the
// absolute instruction indices making up its body.
func (m *Module) Extra2Body(extraIdx, bodyLen int) []int {
	body := make([]int, bodyLen)
	for i := 0; i < bodyLen; i++ {
		body[i] = int(m.Extra[extraIdx+i])
	}
	return body
}
