package vm

// Assembler hand-builds a Module, standing in for a compiler front end.
// It is the host's and the test suite's only way to produce a Module:
// every ref an instruction consumes is the ref a prior emit produced,
// and every jump target is a local body position, following the
// indexToRef convention literally rather than papering over it with an
// explicit dest field.
type Assembler struct {
	m      *Module
	strOff map[string][2]int
}

// NewAssembler starts a new Module under construction at path.
func NewAssembler(path string) *Assembler {
	return &Assembler{
		m:      &Module{Path: path},
		strOff: map[string][2]int{},
	}
}

// intern appends s to the Strings pool, deduplicating repeated literals.
func (a *Assembler) intern(s string) (off, length int) {
	if got, ok := a.strOff[s]; ok {
		return got[0], got[1]
	}
	off = len(a.m.Strings)
	a.m.Strings = append(a.m.Strings, s...)
	length = len(s)
	a.strOff[s] = [2]int{off, length}
	return off, length
}

// extraRefs appends refs to the Extra pool and returns (index, length).
func (a *Assembler) extraRefs(refs []Ref) (idx, length int) {
	idx = len(a.m.Extra)
	a.m.Extra = append(a.m.Extra, refs...)
	return idx, len(refs)
}

// extraInts appends a list of instruction indices, reusing Ref's storage
// since the Extra pool is dual-purposed for both ref-lists and
// function-body instruction-index-lists, and returns (index, length).
func (a *Assembler) extraInts(idxs []int) (idx, length int) {
	refs := make([]Ref, len(idxs))
	for i, v := range idxs {
		refs[i] = Ref(v)
	}
	return a.extraRefs(refs)
}

// FuncBuilder assembles one function (or the module's top-level body)
// instruction by instruction. Its body is a separate instruction-index
// list from the Module's shared Code arrays, so nested functions can be
// built in any order and spliced in via Assembler.Func.
type FuncBuilder struct {
	asm        *Assembler
	paramCount int
	body       []int
}

// Main starts building the module's top-level body, which takes zero
// parameters.
func (a *Assembler) Main() *FuncBuilder {
	return &FuncBuilder{asm: a, paramCount: 0}
}

// FinishMain records fb as the module's top-level body and returns the
// completed Module. Call this last.
func (a *Assembler) FinishMain(fb *FuncBuilder) *Module {
	a.m.Main = fb.body
	return a.m
}

func (fb *FuncBuilder) emit(op Op, data InstrData) Ref {
	idx := fb.asm.m.Code.append(op, data)
	fb.body = append(fb.body, idx)
	local := len(fb.body) - 1
	return indexToRef(local, fb.paramCount)
}

// Here returns the local body position the next emitted instruction will
// occupy, for use as a forward jump target via PatchJump.
func (fb *FuncBuilder) Here() int { return len(fb.body) }

// NextRef predicts the ref the next-emitted instruction will produce,
// letting a recursive function's own build_func reference itself (via
// load_global) before that instruction exists: the ref is a pure function
// of body position, so it can be computed ahead of emission.
func (fb *FuncBuilder) NextRef() Ref { return indexToRef(fb.Here(), fb.paramCount) }

// PatchJump rewrites the jump target of the instruction emitted at local
// body position instr (as returned by Here at emit time) to target.
func (fb *FuncBuilder) PatchJump(instr, target int) {
	abs := fb.body[instr]
	fb.asm.m.Code.Data[abs].Jump = target
}

// Param returns the ref naming the i'th declared parameter.
// Parameters occupy refs [0, paramCount) before any instruction runs.
func (fb *FuncBuilder) Param(i int) Ref { return Ref(i) }

func (fb *FuncBuilder) Null() Ref  { return fb.emit(OpPrimitive, InstrData{Prim: PrimNull}) }
func (fb *FuncBuilder) True() Ref  { return fb.emit(OpPrimitive, InstrData{Prim: PrimTrue}) }
func (fb *FuncBuilder) False() Ref { return fb.emit(OpPrimitive, InstrData{Prim: PrimFalse}) }

func (fb *FuncBuilder) Int(n int64) Ref { return fb.emit(OpInt, InstrData{IntLit: n}) }
func (fb *FuncBuilder) Num(n float64) Ref { return fb.emit(OpNum, InstrData{NumLit: n}) }

func (fb *FuncBuilder) Str(s string) Ref {
	off, length := fb.asm.intern(s)
	return fb.emit(OpStr, InstrData{StrOff: off, StrLen: length})
}

func (fb *FuncBuilder) BuildTuple(elems []Ref) Ref {
	idx, length := fb.asm.extraRefs(elems)
	return fb.emit(OpBuildTuple, InstrData{ExtraIdx: idx, ExtraLen: length})
}

func (fb *FuncBuilder) BuildList(elems []Ref) Ref {
	idx, length := fb.asm.extraRefs(elems)
	return fb.emit(OpBuildList, InstrData{ExtraIdx: idx, ExtraLen: length})
}

// BuildMap takes pairs as alternating key, value refs.
func (fb *FuncBuilder) BuildMap(pairs []Ref) Ref {
	idx, length := fb.asm.extraRefs(pairs)
	return fb.emit(OpBuildMap, InstrData{ExtraIdx: idx, ExtraLen: length})
}

func (fb *FuncBuilder) BuildError(payload Ref) Ref {
	return fb.emit(OpBuildError, InstrData{Ref: payload})
}

func (fb *FuncBuilder) BuildTagged(name string, payload Ref) Ref {
	off, length := fb.asm.intern(name)
	return fb.emit(OpBuildTagged, InstrData{Ref: payload, StrOff: off, StrLen: length})
}

func (fb *FuncBuilder) BuildRange(start, end Ref) Ref {
	return fb.emit(OpBuildRange, InstrData{Ref: start, Rhs: end})
}

// BuildRangeStep emits the step as its own int instruction and stores that
// ref in the Extra pool, since build_range_step reads its step operand as
// a ref like start and end.
func (fb *FuncBuilder) BuildRangeStep(start, end Ref, step int64) Ref {
	stepRef := fb.Int(step)
	idx, _ := fb.asm.extraRefs([]Ref{stepRef})
	return fb.emit(OpBuildRangeStep, InstrData{Ref: start, Rhs: end, ExtraIdx: idx})
}

// Func assembles a nested function body via build, which receives the
// function's own FuncBuilder and must emit a ret/ret_null as its last
// instruction, and splices the result into fb as a build_func instruction
// whose captures are refs from fb's own scope.
func (fb *FuncBuilder) Func(argCount int, variadic bool, captures []Ref, build func(sub *FuncBuilder)) Ref {
	sub := &FuncBuilder{asm: fb.asm, paramCount: argCount}
	build(sub)
	bodyIdx, bodyLen := fb.asm.extraInts(sub.body)
	capIdx, capLen := fb.asm.extraRefs(captures)
	return fb.emit(OpBuildFunc, InstrData{
		ExtraIdx: bodyIdx, ExtraLen: bodyLen,
		ArgCount: argCount, Variadic: variadic,
		CapExtraIdx: capIdx, CapExtraLen: capLen,
	})
}

func (fb *FuncBuilder) binary(op Op, lhs, rhs Ref) Ref { return fb.emit(op, InstrData{Ref: lhs, Rhs: rhs}) }
func (fb *FuncBuilder) unary(op Op, v Ref) Ref          { return fb.emit(op, InstrData{Ref: v}) }

func (fb *FuncBuilder) Add(l, r Ref) Ref      { return fb.binary(OpAdd, l, r) }
func (fb *FuncBuilder) Sub(l, r Ref) Ref      { return fb.binary(OpSub, l, r) }
func (fb *FuncBuilder) Mul(l, r Ref) Ref      { return fb.binary(OpMul, l, r) }
func (fb *FuncBuilder) Div(l, r Ref) Ref      { return fb.binary(OpDiv, l, r) }
func (fb *FuncBuilder) DivFloor(l, r Ref) Ref { return fb.binary(OpDivFloor, l, r) }
func (fb *FuncBuilder) Rem(l, r Ref) Ref      { return fb.binary(OpRem, l, r) }
func (fb *FuncBuilder) Pow(l, r Ref) Ref      { return fb.binary(OpPow, l, r) }
func (fb *FuncBuilder) LShift(l, r Ref) Ref   { return fb.binary(OpLShift, l, r) }
func (fb *FuncBuilder) RShift(l, r Ref) Ref   { return fb.binary(OpRShift, l, r) }
func (fb *FuncBuilder) BitAnd(l, r Ref) Ref   { return fb.binary(OpBitAnd, l, r) }
func (fb *FuncBuilder) BitOr(l, r Ref) Ref    { return fb.binary(OpBitOr, l, r) }
func (fb *FuncBuilder) BitXor(l, r Ref) Ref   { return fb.binary(OpBitXor, l, r) }

func (fb *FuncBuilder) Negate(v Ref) Ref  { return fb.unary(OpNegate, v) }
func (fb *FuncBuilder) BoolNot(v Ref) Ref { return fb.unary(OpBoolNot, v) }
func (fb *FuncBuilder) BitNot(v Ref) Ref  { return fb.unary(OpBitNot, v) }

func (fb *FuncBuilder) Equal(l, r Ref) Ref           { return fb.binary(OpEqual, l, r) }
func (fb *FuncBuilder) NotEqual(l, r Ref) Ref        { return fb.binary(OpNotEqual, l, r) }
func (fb *FuncBuilder) LessThan(l, r Ref) Ref        { return fb.binary(OpLessThan, l, r) }
func (fb *FuncBuilder) LessThanEqual(l, r Ref) Ref   { return fb.binary(OpLessThanEqual, l, r) }
func (fb *FuncBuilder) GreaterThan(l, r Ref) Ref      { return fb.binary(OpGreaterThan, l, r) }
func (fb *FuncBuilder) GreaterThanEqual(l, r Ref) Ref { return fb.binary(OpGreaterThanEqual, l, r) }

// As casts v to target, throwing when no conversion exists between the two
// Kinds.
func (fb *FuncBuilder) As(v Ref, target Kind) Ref {
	return fb.emit(OpAs, InstrData{Ref: v, CastKind: target})
}

func (fb *FuncBuilder) Get(c, idx Ref) Ref       { return fb.binary(OpGet, c, idx) }
func (fb *FuncBuilder) GetOrNull(c, idx Ref) Ref { return fb.binary(OpGetOrNull, c, idx) }
func (fb *FuncBuilder) GetInt(c Ref, n int64) Ref {
	return fb.emit(OpGetInt, InstrData{Ref: c, IntLit: n})
}
func (fb *FuncBuilder) Set(c Ref, idx, val Ref) Ref {
	extraIdx, _ := fb.asm.extraRefs([]Ref{idx, val})
	return fb.emit(OpSet, InstrData{Ref: c, ExtraIdx: extraIdx})
}
func (fb *FuncBuilder) Append(c, v Ref) Ref { return fb.binary(OpAppend, c, v) }
func (fb *FuncBuilder) In(v, c Ref) Ref     { return fb.binary(OpIn, v, c) }
func (fb *FuncBuilder) Spread(v Ref) Ref    { return fb.unary(OpSpread, v) }

func (fb *FuncBuilder) CheckLen(c Ref, n int64) Ref {
	return fb.emit(OpCheckLen, InstrData{Ref: c, IntLit: n})
}

func (fb *FuncBuilder) UnwrapError(v Ref) Ref { return fb.unary(OpUnwrapError, v) }
func (fb *FuncBuilder) UnwrapTagged(name string, v Ref) Ref {
	off, length := fb.asm.intern(name)
	return fb.emit(OpUnwrapTagged, InstrData{Ref: v, StrOff: off, StrLen: length})
}
func (fb *FuncBuilder) UnwrapTaggedOrNull(name string, v Ref) Ref {
	off, length := fb.asm.intern(name)
	return fb.emit(OpUnwrapTaggedOrNull, InstrData{Ref: v, StrOff: off, StrLen: length})
}

func (fb *FuncBuilder) Copy(v Ref) Ref { return fb.unary(OpCopy, v) }

func (fb *FuncBuilder) LoadGlobal(ref Ref) Ref  { return fb.emit(OpLoadGlobal, InstrData{Ref: ref}) }
func (fb *FuncBuilder) LoadCapture(i int) Ref   { return fb.emit(OpLoadCapture, InstrData{Ref: Ref(i)}) }
func (fb *FuncBuilder) LoadThis() Ref           { return fb.emit(OpLoadThis, InstrData{}) }

// Jump emits an unpatched jump and returns its local body position, to be
// patched later via PatchJump once the target is known.
func (fb *FuncBuilder) Jump() int {
	fb.emit(OpJump, InstrData{})
	return fb.Here() - 1
}
func (fb *FuncBuilder) JumpIfTrue(cond Ref) int {
	fb.emit(OpJumpIfTrue, InstrData{Ref: cond})
	return fb.Here() - 1
}
func (fb *FuncBuilder) JumpIfFalse(cond Ref) int {
	fb.emit(OpJumpIfFalse, InstrData{Ref: cond})
	return fb.Here() - 1
}
func (fb *FuncBuilder) JumpIfNull(v Ref) int {
	fb.emit(OpJumpIfNull, InstrData{Ref: v})
	return fb.Here() - 1
}

// PushErrHandler emits a push_err_handler. Its own implicit dest ref
// (indexToRef of its body position) doubles as the handler's catch-target
// ref: a throw or a call that redirects control here stores the caught
// err value at that same ref, and pop_err_handler later checks it via
// isInitialized to decide whether a throw occurred.
func (fb *FuncBuilder) PushErrHandler() (catchRef Ref, jumpInstr int) {
	idx := fb.asm.m.Code.append(OpPushErrHandler, InstrData{})
	fb.body = append(fb.body, idx)
	local := len(fb.body) - 1
	catchRef = indexToRef(local, fb.paramCount)
	fb.asm.m.Code.Data[idx].Ref = catchRef
	return catchRef, local
}
func (fb *FuncBuilder) PopErrHandler() int {
	fb.emit(OpPopErrHandler, InstrData{})
	return fb.Here() - 1
}
func (fb *FuncBuilder) UnwrapErrorOrJump(v Ref) (dest Ref, jumpInstr int) {
	dest = fb.emit(OpUnwrapErrorOrJump, InstrData{Ref: v})
	return dest, fb.Here() - 1
}

func (fb *FuncBuilder) IterInit(v Ref) Ref { return fb.unary(OpIterInit, v) }

// IterNext emits an unpatched iter_next and returns the value ref plus the
// jump instruction position. At run time iter_next jumps to its patched
// target when it yields a value and falls through once the iterator is
// exhausted.
func (fb *FuncBuilder) IterNext(iter Ref) (val Ref, jumpInstr int) {
	val = fb.emit(OpIterNext, InstrData{Ref: iter})
	return val, fb.Here() - 1
}

func (fb *FuncBuilder) Call(callee Ref, args []Ref) Ref {
	idx, length := fb.asm.extraRefs(args)
	return fb.emit(OpCall, InstrData{Ref: callee, ExtraIdx: idx, ExtraLen: length})
}
func (fb *FuncBuilder) CallOne(callee, arg Ref) Ref {
	return fb.emit(OpCallOne, InstrData{Ref: callee, Rhs: arg})
}
func (fb *FuncBuilder) CallZero(callee Ref) Ref {
	return fb.emit(OpCallZero, InstrData{Ref: callee})
}
func (fb *FuncBuilder) ThisCall(callee, this Ref, args []Ref) Ref {
	idx, length := fb.asm.extraRefs(args)
	return fb.emit(OpThisCall, InstrData{Ref: callee, ThisRef: this, ExtraIdx: idx, ExtraLen: length})
}
func (fb *FuncBuilder) ThisCallZero(callee, this Ref) Ref {
	return fb.emit(OpThisCallZero, InstrData{Ref: callee, ThisRef: this})
}

func (fb *FuncBuilder) Await(v Ref) Ref { return fb.unary(OpAwait, v) }

func (fb *FuncBuilder) Import(name string) Ref {
	off, length := fb.asm.intern(name)
	return fb.emit(OpImport, InstrData{StrOff: off, StrLen: length})
}

func (fb *FuncBuilder) Discard(v Ref) { fb.emit(OpDiscard, InstrData{Ref: v}) }

func (fb *FuncBuilder) Ret(v Ref)   { fb.emit(OpRet, InstrData{Ref: v}) }
func (fb *FuncBuilder) RetNull()    { fb.emit(OpRetNull, InstrData{}) }
func (fb *FuncBuilder) Throw(v Ref) { fb.emit(OpThrow, InstrData{Ref: v}) }
