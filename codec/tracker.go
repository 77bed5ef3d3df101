package codec

// frame is an open container. remaining counts tokens, so a map of
// n pairs starts with 2n.
type frame struct {
	isMap     bool
	remaining int
}

// tracker enforces declared container sizes for a single root value.
type tracker struct {
	stack []frame
	done  bool
}

// check returns an error when the root value is already complete.
func (t *tracker) check() error {
	if t.done {
		return formatErrorf("no more values in stream")
	}
	return nil
}

// depth returns the number of open containers.
func (t *tracker) depth() int {
	return len(t.stack)
}

// isKey reports whether the next token is a map key.
func (t *tracker) isKey() bool {
	if len(t.stack) == 0 {
		return false
	}
	top := t.stack[len(t.stack)-1]
	return top.isMap && top.remaining%2 == 0
}

// begin opens a container of n elements and returns the frames closed
// when the container is empty.
func (t *tracker) begin(isMap bool, n int) []frame {
	if n == 0 {
		return t.step()
	}
	remaining := n
	if isMap {
		remaining = 2 * n
	}
	t.stack = append(t.stack, frame{isMap: isMap, remaining: remaining})
	return nil
}

// step records one completed value and returns the frames it closed,
// innermost first.
func (t *tracker) step() []frame {
	var closed []frame
	for len(t.stack) > 0 {
		top := &t.stack[len(t.stack)-1]
		top.remaining--
		if top.remaining > 0 {
			return closed
		}
		closed = append(closed, *top)
		t.stack = t.stack[:len(t.stack)-1]
	}
	t.done = true
	return closed
}
