package vm

// promiseTag is the tagged-value discriminator used to represent a
// pending async result: the core carries no promise Kind of its own, so
// async/await piggybacks on the existing tagged Value the same way a
// caught error piggybacks on err. Collapsed to a single pending/fulfilled
// cell, since this core never suspends across an event loop.
const promiseTag = "__promise__"

type promiseState int

const (
	promisePending promiseState = iota
	promiseFulfilled
)

// promiseCell is the mutable box behind a pending promise Value. A tagged
// Value's own payload is immutable from the opcode set's point of view, so
// resolution is tracked out-of-band, keyed by the tagged Value's identity,
// and mirrored into the Value's own payload once settled so that any
// reference to it observes the resolved result without going through
// await.
type promiseCell struct {
	state promiseState
	value *Value
}

// pendingAwait is a microtask: a deferred computation a native function
// registered via Interpreter.Defer, queued until the dispatch loop's
// await opcode (or end-of-run Interpreter.drainMicrotasks) is ready to
// run it. Flattened into a single closure since this core has no
// coroutine to resume.
type pendingAwait struct {
	run func()
}

// Defer lets a native function return "not ready yet": it registers fn to
// run the next time the microtask queue drains and returns a pending
// promise Value immediately, which a later await opcode (or the end of
// Run) will resolve. There is no dedicated Kind for this, so the promise
// rides on a tagged Value named "__promise__".
func (vm *Interpreter) Defer(fn func() *Value) *Value {
	p := newTaggedValue(promiseTag, Null)
	cell := &promiseCell{state: promisePending}
	vm.promises[p] = cell
	vm.microtask.Enqueue(&pendingAwait{run: func() {
		vm.resolvePromise(p, cell, fn())
	}})
	return p
}

func (vm *Interpreter) resolvePromise(p *Value, cell *promiseCell, result *Value) {
	cell.state = promiseFulfilled
	cell.value = result
	p.data = &taggedData{name: promiseTag, value: result}
}

// doAwait implements the await opcode. Non-promise operands pass through
// unchanged. A pending promise is resolved by running owed microtasks
// synchronously until it settles; this never suspends the running Frame,
// keeping the dispatch loop single-threaded and non-suspending.
func (vm *Interpreter) doAwait(f *Frame, v *Value) (*Value, *FatalError) {
	if v.Kind != KindTagged || v.TaggedName() != promiseTag {
		return v, nil
	}
	cell, ok := vm.promises[v]
	if !ok {
		return v.TaggedValue(), nil
	}
	for cell.state == promisePending {
		task, ok := vm.microtask.Dequeue()
		if !ok {
			return nil, f.fatal("await on a promise with no pending work to resolve it")
		}
		task.run()
	}
	return cell.value, nil
}

// drainMicrotasks runs every owed microtask to completion. Run always
// runs to completion, so any deferred work a native function queued but
// nothing ever awaited is still given a chance to run before Run
// returns.
func (vm *Interpreter) drainMicrotasks() {
	for {
		task, ok := vm.microtask.Dequeue()
		if !ok {
			return
		}
		task.run()
	}
}
