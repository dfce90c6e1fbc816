package vm

import "fmt"

// MaxCallDepth is the hard recursion-depth limit.
const MaxCallDepth = 512

// Config is the VM configuration surface.
type Config struct {
	ImportFiles   bool
	Repl          bool
	MaxImportSize int
	PageLimit     int
}

// DefaultConfig returns the zero-configured defaults, with no config
// file involved.
func DefaultConfig() Config {
	return Config{
		ImportFiles:   false,
		Repl:          false,
		MaxImportSize: DefaultMaxImportSize,
		PageLimit:     DefaultPageLimit,
	}
}

// Interpreter owns the dispatch loop, the shared Heap, the
// ImportResolver, and per-run state like the call depth and microtask
// queue.
type Interpreter struct {
	Config    Config
	Heap      *Heap
	Importer  *ImportResolver
	Diag      *ErrorReporter
	cache     *FrameCache
	callDepth int
	microtask *Queue[*pendingAwait]
	promises  map[*Value]*promiseCell
}

// NewInterpreter constructs an Interpreter over the given config. diag
// may be nil, in which case a default stderr-writing reporter is used.
func NewInterpreter(cfg Config, diag *ErrorReporter) *Interpreter {
	if diag == nil {
		diag = NewErrorReporter(nil)
	}
	return &Interpreter{
		Config:    cfg,
		Heap:      NewHeap(cfg.PageLimit),
		Importer:  NewImportResolver(nil, cfg.ImportFiles, cfg.MaxImportSize, ""),
		Diag:      diag,
		cache:     NewFrameCache(),
		microtask: NewQueue[*pendingAwait](),
		promises:  map[*Value]*promiseCell{},
	}
}

// Run executes a module's top-level body and returns its result value,
// or a FatalError.
func (vm *Interpreter) Run(module *Module) (*Value, *FatalError) {
	stack, handlers := vm.cache.take()
	f := newFrame(vm.Heap, module, module.Main, nil, nil, Null, 0, nil, vm.Diag)
	f.adopt(stack, handlers)
	result, ferr := vm.executeFrame(f)
	if ferr != nil {
		return nil, ferr
	}
	vm.drainMicrotasks()
	return result, nil
}

// executeFrame is the dispatch loop. It runs until ret/ret_null/fatal
// and returns the result value or a FatalError.
func (vm *Interpreter) executeFrame(f *Frame) (result *Value, ferr *FatalError) {
	code := &f.module.Code
	for f.ip < len(f.body) {
		localIdx := f.ip
		instrIdx := f.body[localIdx]
		op := code.Op[instrIdx]
		data := code.Data[instrIdx]
		f.ip++
		dest := indexToRef(localIdx, f.paramCount)

		switch op {
		case OpNop:
			// no-op

		case OpPrimitive:
			switch data.Prim {
			case PrimNull:
				f.store(dest, Null)
			case PrimTrue:
				f.store(dest, True)
			case PrimFalse:
				f.store(dest, False)
			}

		case OpInt:
			v, err := f.newVal(dest)
			if err != nil {
				return nil, f.fatal(err.Error())
			}
			*v = Value{Kind: KindInt, intVal: data.IntLit}
			f.store(dest, v)

		case OpNum:
			v, err := f.newVal(dest)
			if err != nil {
				return nil, f.fatal(err.Error())
			}
			*v = Value{Kind: KindNum, numVal: data.NumLit}
			f.store(dest, v)

		case OpStr:
			f.store(dest, newBorrowedStrValue(f.module.stringAt(data.StrOff, data.StrLen)))

		case OpBuildTuple:
			elems, err := vm.flattenExtra(f, data.ExtraIdx, data.ExtraLen, true)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, newTupleValue(elems))

		case OpBuildList:
			elems, err := vm.flattenExtra(f, data.ExtraIdx, data.ExtraLen, true)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, newListValue(elems))

		case OpBuildMap:
			m := newMapValue()
			refs := f.module.Extra[data.ExtraIdx : data.ExtraIdx+data.ExtraLen]
			for i := 0; i+1 < len(refs); i += 2 {
				k, err := f.dupeSimple(f.val(refs[i]))
				if err != nil {
					return nil, f.fatal(err.Error())
				}
				v, err := f.dupeSimple(f.val(refs[i+1]))
				if err != nil {
					return nil, f.fatal(err.Error())
				}
				mapSet(m, k, v)
			}
			f.store(dest, m)

		case OpBuildError:
			f.store(dest, newErrValue(f.val(data.Ref)))

		case OpBuildErrorNull:
			f.store(dest, newErrValue(Null))

		case OpBuildTagged:
			f.store(dest, newTaggedValue(f.module.stringAt(data.StrOff, data.StrLen), f.val(data.Ref)))

		case OpBuildTaggedNull:
			f.store(dest, newTaggedValue(f.module.stringAt(data.StrOff, data.StrLen), Null))

		case OpBuildFunc:
			captureRefs := f.module.Extra[data.CapExtraIdx : data.CapExtraIdx+data.CapExtraLen]
			captures := make([]*Value, len(captureRefs))
			for i, r := range captureRefs {
				captures[i] = f.val(r)
			}
			f.store(dest, newFuncValue(f.module, data.ExtraIdx, data.ExtraLen, data.ArgCount, data.Variadic, captures))

		case OpBuildRange:
			r, fe := vm.buildRange(f, data.Ref, data.Rhs, 1, dest)
			if fe != nil {
				return nil, fe
			}
			if r {
				continue
			}

		case OpBuildRangeStep:
			stepRef := f.module.Extra[data.ExtraIdx]
			stepVal, err := f.intArg(stepRef)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			r, fe := vm.buildRange(f, data.Ref, data.Rhs, stepVal, dest)
			if fe != nil {
				return nil, fe
			}
			if r {
				continue
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpDivFloor, OpRem, OpPow,
			OpLShift, OpRShift, OpBitAnd, OpBitOr, OpBitXor:
			v, err := binaryOp(op, f.val(data.Ref), f.val(data.Rhs))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpNegate, OpBoolNot, OpBitNot:
			v, err := unaryOp(op, f.val(data.Ref))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpEqual, OpNotEqual:
			lhs, rhs := f.val(data.Ref), f.val(data.Rhs)
			eq := eql(lhs, rhs)
			if op == OpNotEqual {
				eq = !eq
			}
			f.store(dest, boolValue(eq))

		case OpLessThan, OpLessThanEqual, OpGreaterThan, OpGreaterThanEqual:
			cmp, err := doCompare(f.val(data.Ref), f.val(data.Rhs))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, boolValue(compareMatches(op, cmp)))

		case OpAs:
			v, err := castValue(f.val(data.Ref), data.CastKind)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpGet:
			v, err := containerGet(f.val(data.Ref), f.val(data.Rhs))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpGetInt:
			v, err := containerGet(f.val(data.Ref), newIntValue(data.IntLit))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpGetOrNull:
			c := f.val(data.Ref)
			if c.Kind == KindMap {
				if v, ok := mapGet(c, f.val(data.Rhs)); ok {
					f.store(dest, v)
				} else {
					f.store(dest, Null)
				}
				continue
			}
			v, err := containerGet(c, f.val(data.Rhs))
			if err != nil {
				f.store(dest, Null)
				continue
			}
			f.store(dest, v)

		case OpSet:
			container := f.val(data.Ref)
			index := f.module.Extra[data.ExtraIdx]
			val := f.module.Extra[data.ExtraIdx+1]
			if err := containerSet(container, f.val(index), f.val(val)); err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}

		case OpAppend:
			if err := containerAppend(f.val(data.Ref), f.val(data.Rhs)); err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}

		case OpIn:
			ok, err := valueIn(f.val(data.Ref), f.val(data.Rhs))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, boolValue(ok))

		case OpSpread:
			v, err := spreadOperand(f.val(data.Ref))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpCheckLen:
			n, ok := containerLen(f.val(data.Ref))
			f.store(dest, boolValue(ok && n == int(data.IntLit)))

		case OpAssertLen:
			n, ok := containerLen(f.val(data.Ref))
			if !ok || n != int(data.IntLit) {
				msg := fmt.Sprintf("length mismatch: expected %d, got %d", data.IntLit, n)
				if fe := f.throw(msg); fe != nil {
					return nil, fe
				}
				continue
			}

		case OpSpreadDest:
			v, err := spreadTail(f.val(data.Ref), int(data.IntLit))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpUnwrapError:
			v := f.val(data.Ref)
			if v.Kind != KindErr {
				if fe := f.throw("expected err value"); fe != nil {
					return nil, fe
				}
				continue
			}
			dup, err := vm.Heap.dupe(v.ErrPayload())
			if err != nil {
				return nil, f.fatal(err.Error())
			}
			f.store(dest, dup)

		case OpUnwrapTagged:
			v := f.val(data.Ref)
			name := f.module.stringAt(data.StrOff, data.StrLen)
			if v.Kind != KindTagged || v.TaggedName() != name {
				if fe := f.throw(fmt.Sprintf("expected tagged %q", name)); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v.TaggedValue())

		case OpUnwrapTaggedOrNull:
			v := f.val(data.Ref)
			name := f.module.stringAt(data.StrOff, data.StrLen)
			if v.Kind == KindTagged && v.TaggedName() == name {
				f.store(dest, v.TaggedValue())
			} else {
				f.store(dest, Null)
			}

		case OpCopyUn:
			f.store(dest, f.val(data.Ref))

		case OpCopy:
			dup, err := vm.Heap.dupe(f.val(data.Ref))
			if err != nil {
				return nil, f.fatal(err.Error())
			}
			f.store(dest, dup)

		case OpMove:
			f.store(data.Rhs, f.val(data.Ref))
			f.clear(data.Ref)

		case OpLoadGlobal:
			mf := f.moduleFrame
			if int(data.Ref) >= len(mf.stack) {
				return nil, f.fatal("use of undefined variable")
			}
			v := mf.stack[data.Ref]
			if v == nil {
				return nil, f.fatal("use of undefined variable")
			}
			f.store(dest, v)

		case OpLoadCapture:
			if int(data.Ref) >= len(f.captures) {
				return nil, f.fatal("use of undefined capture")
			}
			f.store(dest, f.captures[data.Ref])

		case OpLoadThis:
			f.store(dest, f.this)

		case OpJump:
			f.ip = data.Jump

		case OpJumpIfTrue:
			b, err := f.boolArg(data.Ref)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			if b {
				f.ip = data.Jump
			}

		case OpJumpIfFalse:
			b, err := f.boolArg(data.Ref)
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			if !b {
				f.ip = data.Jump
			}

		case OpJumpIfNull:
			if f.val(data.Ref).IsNull() {
				f.ip = data.Jump
			}

		case OpPushErrHandler:
			f.clear(data.Ref)
			f.handlers.push(handler{targetRef: data.Ref, offset: data.Jump})

		case OpPopErrHandler:
			h := f.handlers.pop()
			if !f.isInitialized(h.targetRef) {
				f.ip = data.Jump
			}

		case OpUnwrapErrorOrJump:
			v := f.val(data.Ref)
			if v.Kind == KindErr {
				f.store(dest, v.ErrPayload())
			} else {
				f.ip = data.Jump
			}

		case OpIterInit:
			it, err := newIterator(f.val(data.Ref))
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, it)

		case OpIterNext:
			val, ok := iteratorNext(f.val(data.Ref))
			if !ok {
				continue
			}
			f.store(dest, val)
			f.ip = data.Jump

		case OpCall, OpCallOne, OpCallZero, OpThisCall, OpThisCallZero:
			res, fe := vm.dispatchCall(f, op, data, dest)
			if fe != nil {
				return nil, fe
			}
			if res.redirected {
				continue
			}

		case OpAwait:
			v := f.val(data.Ref)
			res, fe := vm.doAwait(f, v)
			if fe != nil {
				return nil, fe
			}
			f.store(dest, res)

		case OpImport:
			name := f.module.stringAt(data.StrOff, data.StrLen)
			v, err := vm.Importer.Resolve(name, func(m *Module) (*Value, error) {
				res, ferr := vm.Run(m)
				if ferr != nil {
					return nil, ferr
				}
				return res, nil
			})
			if err != nil {
				if fe := f.throw(err.Error()); fe != nil {
					return nil, fe
				}
				continue
			}
			f.store(dest, v)

		case OpDiscard:
			v := f.val(data.Ref)
			if v.Kind == KindErr {
				return nil, f.fatal("discarded error: " + stringifyValue(v.ErrPayload()))
			}

		case OpRet:
			return f.val(data.Ref), nil

		case OpRetNull:
			return Null, nil

		case OpThrow:
			operand := f.val(data.Ref)
			if h, ok := f.handlers.top(); ok {
				f.handlers.pop()
				f.store(h.targetRef, newErrValue(operand))
				f.ip = h.offset
				continue
			}
			return newErrValue(operand), nil

		default:
			panic(fmt.Sprintf("unknown opcode: %d", op))
		}
	}
	return Null, nil
}

func compareMatches(op Op, cmp int) bool {
	switch op {
	case OpLessThan:
		return cmp < 0
	case OpLessThanEqual:
		return cmp <= 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanEqual:
		return cmp >= 0
	}
	return false
}

func binaryOp(op Op, lhs, rhs *Value) (*Value, error) {
	switch op {
	case OpAdd:
		return doAdd(lhs, rhs)
	case OpSub:
		return doSub(lhs, rhs)
	case OpMul:
		return doMul(lhs, rhs)
	case OpDiv:
		return doDiv(lhs, rhs)
	case OpDivFloor:
		return doDivFloor(lhs, rhs)
	case OpRem:
		return doRem(lhs, rhs)
	case OpPow:
		return doPow(lhs, rhs)
	case OpLShift:
		return doShl(lhs, rhs)
	case OpRShift:
		return doShr(lhs, rhs)
	case OpBitAnd:
		return doBitAnd(lhs, rhs)
	case OpBitOr:
		return doBitOr(lhs, rhs)
	case OpBitXor:
		return doBitXor(lhs, rhs)
	}
	panic("unreachable binaryOp")
}

func unaryOp(op Op, v *Value) (*Value, error) {
	switch op {
	case OpNegate:
		return doNegate(v)
	case OpBoolNot:
		return doBoolNot(v)
	case OpBitNot:
		return doBitNot(v)
	}
	panic("unreachable unaryOp")
}

// buildRange implements build_range/build_range_step: all three operands
// must be int or the opcode throws. Returns (threw, fatal): threw==true
// means the opcode's effect was skipped because a throw already redirected
// control and the dispatch loop should `continue`; a non-nil fatal means
// the throw had no handler and escalated, so the dispatch loop must return
// it instead of continuing.
func (vm *Interpreter) buildRange(f *Frame, startRef, endRef Ref, step int64, dest Ref) (bool, *FatalError) {
	start, err := f.intArg(startRef)
	if err != nil {
		if fe := f.throw(err.Error()); fe != nil {
			return false, fe
		}
		return true, nil
	}
	end, err := f.intArg(endRef)
	if err != nil {
		if fe := f.throw(err.Error()); fe != nil {
			return false, fe
		}
		return true, nil
	}
	r, err := newRangeValue(start, end, step)
	if err != nil {
		if fe := f.throw(err.Error()); fe != nil {
			return false, fe
		}
		return true, nil
	}
	f.store(dest, r)
	return false, nil
}

// flattenExtra reads a variable-length ref list from the Extra pool and
// pre-flattens spread operands.
func (vm *Interpreter) flattenExtra(f *Frame, extraIdx, extraLen int, dupe bool) ([]*Value, error) {
	refs := f.module.Extra[extraIdx : extraIdx+extraLen]
	count := 0
	for _, r := range refs {
		v := f.val(r)
		if v.Kind == KindSpread {
			count += spreadLen(v)
		} else {
			count++
		}
	}
	elems := make([]*Value, 0, count)
	for _, r := range refs {
		v := f.val(r)
		if v.Kind == KindSpread {
			items, err := spreadItems(v)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if dupe {
					d, err := f.dupeSimple(it)
					if err != nil {
						return nil, err
					}
					it = d
				}
				elems = append(elems, it)
			}
			continue
		}
		if dupe {
			d, err := f.dupeSimple(v)
			if err != nil {
				return nil, err
			}
			v = d
		}
		elems = append(elems, v)
	}
	return elems, nil
}

func spreadLen(v *Value) int {
	inner := v.spreadInner()
	switch inner.Kind {
	case KindTuple:
		return len(inner.TupleElems())
	case KindList:
		return len(inner.ListElems())
	default:
		return 0
	}
}

func spreadItems(v *Value) ([]*Value, error) {
	inner := v.spreadInner()
	switch inner.Kind {
	case KindTuple:
		return inner.TupleElems(), nil
	case KindList:
		return inner.ListElems(), nil
	default:
		return nil, fmt.Errorf("cannot spread %s", typeName(inner))
	}
}

// spreadOperand implements the spread opcode.
func spreadOperand(v *Value) (*Value, error) {
	switch v.Kind {
	case KindRange:
		items, err := newIterator(v)
		if err != nil {
			return nil, err
		}
		var elems []*Value
		for {
			next, ok := iteratorNext(items)
			if !ok {
				break
			}
			elems = append(elems, next)
		}
		return newSpreadValue(newListValue(elems)), nil
	case KindTuple, KindList:
		return newSpreadValue(v), nil
	default:
		return nil, fmt.Errorf("cannot spread %s", typeName(v))
	}
}

// spreadTail extracts the tail [len..] of a container into a fresh list.
func spreadTail(c *Value, from int) (*Value, error) {
	switch c.Kind {
	case KindList:
		elems := c.ListElems()
		if from > len(elems) {
			from = len(elems)
		}
		return newListValue(append([]*Value(nil), elems[from:]...)), nil
	case KindTuple:
		elems := c.TupleElems()
		if from > len(elems) {
			from = len(elems)
		}
		return newListValue(append([]*Value(nil), elems[from:]...)), nil
	default:
		return nil, fmt.Errorf("cannot rest-destructure %s", typeName(c))
	}
}
