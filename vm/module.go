package vm

// Ref is an unsigned index into a Frame's evaluation stack. The compiler
// guarantees refs are contiguous and dense within a function.
type Ref uint32

// Op is an opcode.
type Op uint8

const (
	OpNop Op = iota

	// Constants and literals.
	OpPrimitive
	OpInt
	OpNum
	OpStr

	// Aggregate construction.
	OpBuildTuple
	OpBuildList
	OpBuildMap
	OpBuildError
	OpBuildErrorNull
	OpBuildTagged
	OpBuildTaggedNull
	OpBuildFunc
	OpBuildRange
	OpBuildRangeStep

	// Arithmetic (binary).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpDivFloor
	OpRem
	OpPow
	OpLShift
	OpRShift
	OpBitAnd
	OpBitOr
	OpBitXor

	// Unary.
	OpNegate
	OpBoolNot
	OpBitNot

	// Comparison.
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanEqual
	OpGreaterThan
	OpGreaterThanEqual

	// Casting.
	OpAs

	// Containers.
	OpGet
	OpGetInt
	OpGetOrNull
	OpSet
	OpAppend
	OpIn
	OpSpread

	// Destructuring.
	OpCheckLen
	OpAssertLen
	OpSpreadDest

	// Error wrapping.
	OpUnwrapError
	OpUnwrapTagged
	OpUnwrapTaggedOrNull

	// Variables.
	OpCopyUn
	OpCopy
	OpMove
	OpLoadGlobal
	OpLoadCapture
	OpLoadThis

	// Control flow.
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse
	OpJumpIfNull
	OpPushErrHandler
	OpPopErrHandler
	OpUnwrapErrorOrJump

	// Iteration.
	OpIterInit
	OpIterNext

	// Function call and return.
	OpCall
	OpCallOne
	OpCallZero
	OpThisCall
	OpThisCallZero
	OpRet
	OpRetNull
	OpThrow

	// Async cooperative scheduling.
	OpAwait

	// Module-level.
	OpImport
	OpDiscard

	opCount
)

var opNames = [...]string{
	OpNop: "nop", OpPrimitive: "primitive", OpInt: "int", OpNum: "num", OpStr: "str",
	OpBuildTuple: "build_tuple", OpBuildList: "build_list", OpBuildMap: "build_map",
	OpBuildError: "build_error", OpBuildErrorNull: "build_error_null",
	OpBuildTagged: "build_tagged", OpBuildTaggedNull: "build_tagged_null",
	OpBuildFunc: "build_func", OpBuildRange: "build_range", OpBuildRangeStep: "build_range_step",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpDivFloor: "div_floor",
	OpRem: "rem", OpPow: "pow", OpLShift: "l_shift", OpRShift: "r_shift",
	OpBitAnd: "bit_and", OpBitOr: "bit_or", OpBitXor: "bit_xor",
	OpNegate: "negate", OpBoolNot: "bool_not", OpBitNot: "bit_not",
	OpEqual: "equal", OpNotEqual: "not_equal", OpLessThan: "less_than",
	OpLessThanEqual: "less_than_equal", OpGreaterThan: "greater_than",
	OpGreaterThanEqual: "greater_than_equal", OpAs: "as",
	OpGet: "get", OpGetInt: "get_int", OpGetOrNull: "get_or_null", OpSet: "set",
	OpAppend: "append", OpIn: "in", OpSpread: "spread",
	OpCheckLen: "check_len", OpAssertLen: "assert_len", OpSpreadDest: "spread_dest",
	OpUnwrapError: "unwrap_error", OpUnwrapTagged: "unwrap_tagged",
	OpUnwrapTaggedOrNull: "unwrap_tagged_or_null",
	OpCopyUn: "copy_un", OpCopy: "copy", OpMove: "move",
	OpLoadGlobal: "load_global", OpLoadCapture: "load_capture", OpLoadThis: "load_this",
	OpJump: "jump", OpJumpIfTrue: "jump_if_true", OpJumpIfFalse: "jump_if_false",
	OpJumpIfNull: "jump_if_null", OpPushErrHandler: "push_err_handler",
	OpPopErrHandler: "pop_err_handler", OpUnwrapErrorOrJump: "unwrap_error_or_jump",
	OpIterInit: "iter_init", OpIterNext: "iter_next",
	OpCall: "call", OpCallOne: "call_one", OpCallZero: "call_zero",
	OpThisCall: "this_call", OpThisCallZero: "this_call_zero",
	OpRet: "ret", OpRetNull: "ret_null", OpThrow: "throw", OpAwait: "await",
	OpImport: "import", OpDiscard: "discard",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "unknown_op"
}

// InstrData is the per-instruction operand payload. Only the fields
// relevant to a given Op are meaningful; unused fields are zero.
type InstrData struct {
	Ref      Ref   // {un: ref}
	Rhs      Ref   // {bin: {lhs, rhs}} — Ref is lhs, Rhs is rhs
	CastKind Kind  // {bin_ty: {operand, target-type}}
	ExtraIdx int   // {extra: {index, length}}
	ExtraLen int
	Jump     int // {jump: u32} / {jump_condition: {operand, offset}}
	IntLit   int64
	NumLit   float64
	StrOff   int // {str: {offset, length}}
	StrLen   int
	Prim     primKind // {primitive: {null|true|false}}
	ThisRef  Ref // this_call/this_call_zero only

	// build_func only: the body slice is stored as (extra_index, body_len);
	// captures are a second variable-length list in the same Extra pool.
	ArgCount    int
	Variadic    bool
	CapExtraIdx int
	CapExtraLen int
}

type primKind uint8

const (
	PrimNull primKind = iota
	PrimTrue
	PrimFalse
)

// Code is the parallel {op[], data[]} array.
type Code struct {
	Op   []Op
	Data []InstrData
}

func (c *Code) Len() int { return len(c.Op) }

func (c *Code) append(op Op, data InstrData) int {
	c.Op = append(c.Op, op)
	c.Data = append(c.Data, data)
	return len(c.Op) - 1
}

// LineTable maps instruction index to byte offset in the module's source,
// used by the ErrorReporter.
type LineTable struct {
	InstrIndex []int
	ByteOffset []int
}

// offsetFor returns the byte offset for the instruction at or before idx.
func (lt *LineTable) offsetFor(idx int) int {
	off := 0
	for i, ii := range lt.InstrIndex {
		if ii > idx {
			break
		}
		off = lt.ByteOffset[i]
	}
	return off
}

// DebugInfo carries source positions for diagnostics.
type DebugInfo struct {
	SourcePath  string
	SourceBytes []byte
	Lines       LineTable
}

// Module is an immutable compiled translation unit.
type Module struct {
	Path       string
	Main       []int // instruction indices of the module's top-level body
	Code       Code
	Extra      []Ref // flat pool referenced by variable-length operand lists
	Strings    []byte
	Debug      DebugInfo
	paramCount int // top-level body takes zero params; functions set their own via funcData
}

// stringAt resolves a (offset, length) pair into the strings pool.
func (m *Module) stringAt(offset, length int) string {
	return string(m.Strings[offset : offset+length])
}

// indexToRef is the pure function from instruction index + parameter
// count to the destination ref of most opcodes. Refs below paramCount
// name parameters; positions from paramCount on are assigned densely in
// instruction order, so no opcode carries an explicit destination
// operand — its dest ref is always derivable from where it sits in the
// body.
func indexToRef(instrIndex, paramCount int) Ref {
	return Ref(paramCount + instrIndex)
}
