package vm

import (
	"fmt"
	"strings"
)

// Decompile renders a Module's instruction stream in a human-readable
// form, one line per instruction, for debugging and tests. Walks the
// parallel {op[], data[]} arrays and prints the InstrData fields
// relevant to each Op.
func Decompile(m *Module) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Module: %s\n", m.Path)
	fmt.Fprintf(&b, "Code Length: %d\n", m.Code.Len())
	b.WriteString("Instructions:\n")

	for i, op := range m.Code.Op {
		data := m.Code.Data[i]
		fmt.Fprintf(&b, "%08d: %s", i, op)
		switch op {
		case OpInt:
			fmt.Fprintf(&b, " %d", data.IntLit)
		case OpNum:
			fmt.Fprintf(&b, " %g", data.NumLit)
		case OpStr:
			fmt.Fprintf(&b, " %q", m.stringAt(data.StrOff, data.StrLen))
		case OpPrimitive:
			fmt.Fprintf(&b, " %d", data.Prim)
		case OpBuildTuple, OpBuildList:
			fmt.Fprintf(&b, " extra[%d:%d]", data.ExtraIdx, data.ExtraIdx+data.ExtraLen)
		case OpBuildMap:
			fmt.Fprintf(&b, " pairs[%d:%d]", data.ExtraIdx, data.ExtraIdx+data.ExtraLen)
		case OpBuildError, OpUnwrapError, OpSpread, OpNegate, OpBoolNot, OpBitNot,
			OpCopyUn, OpCopy, OpLoadGlobal, OpLoadCapture, OpJumpIfTrue,
			OpJumpIfFalse, OpJumpIfNull, OpIterInit, OpDiscard, OpRet, OpThrow:
			fmt.Fprintf(&b, " r%d", data.Ref)
		case OpBuildErrorNull, OpLoadThis, OpRetNull, OpNop:
			// no operand
		case OpBuildTagged, OpUnwrapTagged, OpUnwrapTaggedOrNull:
			fmt.Fprintf(&b, " r%d %q", data.Ref, m.stringAt(data.StrOff, data.StrLen))
		case OpBuildTaggedNull:
			fmt.Fprintf(&b, " %q", m.stringAt(data.StrOff, data.StrLen))
		case OpBuildFunc:
			fmt.Fprintf(&b, " body[%d:%d] argc=%d variadic=%t caps[%d:%d]",
				data.ExtraIdx, data.ExtraIdx+data.ExtraLen, data.ArgCount, data.Variadic,
				data.CapExtraIdx, data.CapExtraIdx+data.CapExtraLen)
		case OpBuildRange:
			fmt.Fprintf(&b, " r%d r%d", data.Ref, data.Rhs)
		case OpBuildRangeStep:
			fmt.Fprintf(&b, " r%d r%d step_extra[%d]", data.Ref, data.Rhs, data.ExtraIdx)
		case OpAdd, OpSub, OpMul, OpDiv, OpDivFloor, OpRem, OpPow,
			OpLShift, OpRShift, OpBitAnd, OpBitOr, OpBitXor,
			OpEqual, OpNotEqual, OpLessThan, OpLessThanEqual, OpGreaterThan, OpGreaterThanEqual,
			OpGet, OpGetOrNull, OpAppend, OpIn, OpMove:
			fmt.Fprintf(&b, " r%d r%d", data.Ref, data.Rhs)
		case OpAs:
			fmt.Fprintf(&b, " r%d %s", data.Ref, data.CastKind)
		case OpGetInt:
			fmt.Fprintf(&b, " r%d %d", data.Ref, data.IntLit)
		case OpSet:
			fmt.Fprintf(&b, " r%d extra[%d,%d]", data.Ref, data.ExtraIdx, data.ExtraIdx+1)
		case OpCheckLen, OpAssertLen, OpSpreadDest:
			fmt.Fprintf(&b, " r%d %d", data.Ref, data.IntLit)
		case OpJump:
			fmt.Fprintf(&b, " -> %d", data.Jump)
		case OpPushErrHandler:
			fmt.Fprintf(&b, " r%d -> %d", data.Ref, data.Jump)
		case OpPopErrHandler:
			fmt.Fprintf(&b, " -> %d", data.Jump)
		case OpUnwrapErrorOrJump:
			fmt.Fprintf(&b, " r%d -> %d", data.Ref, data.Jump)
		case OpIterNext:
			fmt.Fprintf(&b, " r%d -> %d", data.Ref, data.Jump)
		case OpCall:
			fmt.Fprintf(&b, " r%d extra[%d:%d]", data.Ref, data.ExtraIdx, data.ExtraIdx+data.ExtraLen)
		case OpCallOne:
			fmt.Fprintf(&b, " r%d r%d", data.Ref, data.Rhs)
		case OpCallZero:
			fmt.Fprintf(&b, " r%d", data.Ref)
		case OpThisCall:
			fmt.Fprintf(&b, " r%d this=r%d extra[%d:%d]", data.Ref, data.ThisRef, data.ExtraIdx, data.ExtraIdx+data.ExtraLen)
		case OpThisCallZero:
			fmt.Fprintf(&b, " r%d this=r%d", data.Ref, data.ThisRef)
		case OpAwait:
			fmt.Fprintf(&b, " r%d", data.Ref)
		case OpImport:
			fmt.Fprintf(&b, " %q", m.stringAt(data.StrOff, data.StrLen))
		default:
			// nothing further to print
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
