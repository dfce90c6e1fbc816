package vm

import "fmt"

// FatalError unwinds every frame and terminates execution.
type FatalError struct {
	Message string
	Trace   []TraceEntry
}

func (e *FatalError) Error() string { return e.Message }

// TraceEntry is one "called here" annotation in a FatalError's trace,
// chained through caller frames.
type TraceEntry struct {
	SourcePath string
	ByteOffset int
	Note       string
}

// Frame is the dynamic activation record of one function call: a single
// ref-indexed evaluation stack plus its own handler stack, captures, and
// call-chain links.
type Frame struct {
	heap        *Heap
	stack       []*Value
	handlers    ErrorHandlerStack
	captures    []*Value
	this        *Value
	caller      *Frame
	moduleFrame *Frame
	module      *Module
	body        []int
	ip          int
	paramCount  int
	reified     *Value // anchors this Frame against conservative GC while live
	diag        *ErrorReporter
}

// newFrame builds a Frame for a call or module entry.
func newFrame(heap *Heap, module *Module, body []int, caller *Frame, moduleFrame *Frame, this *Value, paramCount int, captures []*Value, diag *ErrorReporter) *Frame {
	f := &Frame{
		heap:        heap,
		module:      module,
		body:        body,
		caller:      caller,
		moduleFrame: moduleFrame,
		this:        this,
		paramCount:  paramCount,
		captures:    captures,
		diag:        diag,
	}
	if moduleFrame == nil {
		f.moduleFrame = f
	}
	f.reified = newFrameValue(f)
	return f
}

// adopt transfers ownership of a cached stack+handler pair into this
// frame.
func (f *Frame) adopt(stack []*Value, handlers ErrorHandlerStack) {
	f.stack = stack
	f.handlers = handlers
}

// ensureCapacity grows the stack lazily to hold ref, filling new holes
// with nil (the "uninitialized" sentinel).
func (f *Frame) ensureCapacity(ref Ref) {
	need := int(ref) + 1
	if need <= len(f.stack) {
		return
	}
	if need <= cap(f.stack) {
		f.stack = f.stack[:need]
		return
	}
	grown := make([]*Value, need)
	copy(grown, f.stack)
	f.stack = grown
}

// val reads a slot; asserts ref in bounds.
func (f *Frame) val(ref Ref) *Value {
	if int(ref) >= len(f.stack) {
		panic(fmt.Sprintf("ref %d out of bounds (stack len %d)", ref, len(f.stack)))
	}
	return f.stack[ref]
}

// isInitialized reports whether ref has ever been written — used by
// push_err_handler/pop_err_handler to detect whether an error was thrown
// into the handler's target ref.
func (f *Frame) isInitialized(ref Ref) bool {
	return int(ref) < len(f.stack) && f.stack[ref] != nil
}

// newRef returns a writable slot, growing the stack as needed.
func (f *Frame) newRef(ref Ref) **Value {
	f.ensureCapacity(ref)
	return &f.stack[ref]
}

func (f *Frame) store(ref Ref, v *Value) {
	f.ensureCapacity(ref)
	f.stack[ref] = v
}

func (f *Frame) clear(ref Ref) {
	f.ensureCapacity(ref)
	f.stack[ref] = nil
}

// newVal reuses the existing slot at ref when its tag is "simple", else
// allocates a fresh slot from the heap.
func (f *Frame) newVal(ref Ref) (*Value, error) {
	f.ensureCapacity(ref)
	cur := f.stack[ref]
	if cur != nil && isSimple(cur) {
		return cur, nil
	}
	v, err := f.heap.alloc()
	if err != nil {
		return nil, err
	}
	f.stack[ref] = v
	return v, nil
}

// dupeSimple clones v if it is a "simple" tag (so aggregate members never
// alias per-loop scratch slots), else returns v unchanged.
func (f *Frame) dupeSimple(v *Value) (*Value, error) {
	if !isSimple(v) {
		return v, nil
	}
	return f.heap.dupe(v)
}

// intArg, numArg, boolArg are typed readers that report a tag mismatch as
// an error instead of throwing themselves — the caller decides how to
// surface it, the same way binaryOp/containerGet's errors are surfaced via
// f.throw at the call site, so a no-handler mismatch still escalates to
// FatalError instead of being silently dropped.
func (f *Frame) intArg(ref Ref) (int64, error) {
	v := f.val(ref)
	if v == nil || v.Kind != KindInt {
		return 0, fmt.Errorf("expected int")
	}
	return v.Int(), nil
}

func (f *Frame) numArg(ref Ref) (float64, error) {
	v := f.val(ref)
	if v == nil || v.Kind != KindNum {
		return 0, fmt.Errorf("expected num")
	}
	return v.Num(), nil
}

func (f *Frame) boolArg(ref Ref) (bool, error) {
	v := f.val(ref)
	if v == nil || v.Kind != KindBool {
		return false, fmt.Errorf("expected bool")
	}
	return v.Bool(), nil
}

// throw redirects control via the top handler on this frame, or escalates
// to fatal if none exists.
func (f *Frame) throw(msg string) *FatalError {
	if h, ok := f.handlers.top(); ok {
		f.handlers.pop()
		f.store(h.targetRef, newErrValue(newStrValue(msg)))
		f.ip = h.offset
		return nil
	}
	return f.fatal(msg)
}

// fatal records a diagnostic and unwinds every frame.
func (f *Frame) fatal(msg string) *FatalError {
	offset := 0
	if f.module != nil {
		offset = f.module.Debug.Lines.offsetFor(f.ip - 1)
	}
	fe := &FatalError{Message: msg}
	sourcePath := ""
	if f.module != nil {
		sourcePath = f.module.Debug.SourcePath
	}
	fe.Trace = append(fe.Trace, TraceEntry{SourcePath: sourcePath, ByteOffset: offset, Note: "originates here"})
	for c := f.caller; c != nil; c = c.caller {
		coff := 0
		cpath := ""
		if c.module != nil {
			coff = c.module.Debug.Lines.offsetFor(c.ip - 1)
			cpath = c.module.Debug.SourcePath
		}
		fe.Trace = append(fe.Trace, TraceEntry{SourcePath: cpath, ByteOffset: coff, Note: "called here"})
	}
	if f.diag != nil {
		f.diag.reportFatal(msg, sourcePath, offset, fe.Trace)
	}
	return fe
}
