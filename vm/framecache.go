package vm

// cachedPair is a reusable (stack, handler-stack) pair.
type cachedPair struct {
	stack    []*Value
	handlers ErrorHandlerStack
}

// FrameCache is a process-wide LIFO of reusable (stack, handler-stack)
// pairs, keyed by nothing — any frame may reuse any entry. A plain LIFO
// slice rather than Queue's circular buffer, since reuse order doesn't
// need to be FIFO.
type FrameCache struct {
	entries []cachedPair
}

// NewFrameCache constructs an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{}
}

// take pops a cached pair if available, else returns empty ones.
func (c *FrameCache) take() ([]*Value, ErrorHandlerStack) {
	n := len(c.entries)
	if n == 0 {
		return nil, ErrorHandlerStack{}
	}
	p := c.entries[n-1]
	c.entries = c.entries[:n-1]
	return p.stack, p.handlers
}

// release truncates both to empty and pushes the pair back.
// Correctness hinges on truncating rather than merely resetting length,
// so that no dangling value references survive into the next borrower.
func (c *FrameCache) release(stack []*Value, handlers ErrorHandlerStack) {
	for i := range stack {
		stack[i] = nil
	}
	handlers.reset()
	c.entries = append(c.entries, cachedPair{stack: stack[:0], handlers: handlers})
}
