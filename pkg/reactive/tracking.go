package reactive

// noNode marks an untracked frame on the evaluation stack.
const noNode = ^uint32(0)

// frame is one entry of the evaluation stack. Reads are attributed to the
// top frame; deps collects them in first-read order without duplicates.
type frame struct {
	idx  uint32
	deps []Handle
	seen map[Handle]struct{}
	// err is set when a read inside this evaluation hit a cycle, so the
	// evaluation is abandoned even if the closure swallowed the error.
	err error
}

// push makes idx the currently evaluating node.
func (rt *Runtime) push(idx uint32) *frame {
	f := &frame{idx: idx}
	rt.stack = append(rt.stack, f)
	rt.enterEval()
	return f
}

func (rt *Runtime) pop() {
	rt.leaveEval()
	rt.stack[len(rt.stack)-1] = nil
	rt.stack = rt.stack[:len(rt.stack)-1]
}

func (rt *Runtime) top() *frame {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// track records a read of h against the current evaluation.
func (rt *Runtime) track(h Handle) {
	f := rt.top()
	if f == nil || f.idx == noNode || f.idx == h.index {
		return
	}
	if f.seen == nil {
		f.seen = make(map[Handle]struct{}, 4)
	}
	if _, ok := f.seen[h]; ok {
		return
	}
	f.seen[h] = struct{}{}
	f.deps = append(f.deps, h)
}

// tracking reports whether reads are currently recorded.
func (rt *Runtime) tracking() bool {
	f := rt.top()
	return f != nil && f.idx != noNode
}

// read dereferences h for a Get or Peek. A memo that is still dirty in the
// current pass is settled first so the reader never sees a stale value.
// A tracked read of a node that is evaluating is a cycle, and a tracked read
// from inside another runtime's evaluation fails as foreign.
func (rt *Runtime) read(h Handle, tracked bool) (*node, error) {
	if tracked {
		if err := rt.foreignRead(h); err != nil {
			return nil, err
		}
	}
	n, err := rt.arena.get(h)
	if err != nil {
		return nil, err
	}

	tracked = tracked && rt.tracking()
	switch n.state {
	case stateEvaluating:
		if tracked {
			cerr := rt.cycleError(h.index)
			if f := rt.top(); f.err == nil {
				f.err = cerr
			}
			return nil, cerr
		}
	case stateDirty:
		rt.settle(h.index, n)
	}

	if tracked {
		f := rt.top()
		if n.kind == KindMemo {
			if path := rt.closesCycle(f.idx, h.index); path != nil {
				cerr := &CyclicDependencyError{Path: path}
				if f.err == nil {
					f.err = cerr
				}
				return nil, cerr
			}
		}
		rt.track(h)
	}
	return n, nil
}

// closesCycle reports whether a new edge reader -> dep would close a loop in
// the graph, that is whether dep already depends on reader. It returns the
// loop as a path starting and ending at reader, or nil. Only edges the reader
// did not have after its previous evaluation are checked, and a reader
// nothing depends on cannot close a loop.
func (rt *Runtime) closesCycle(reader, dep uint32) []NodeRef {
	r := rt.arena.at(reader)
	if r == nil || r.kind != KindMemo || len(r.subs) == 0 || containsIndex(r.deps, dep) {
		return nil
	}
	parent := map[uint32]uint32{dep: dep}
	stack := []uint32{dep}
	found := false
	for len(stack) > 0 && !found {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := rt.arena.at(idx)
		if n == nil {
			continue
		}
		for _, d := range n.deps {
			if _, seen := parent[d]; seen {
				continue
			}
			parent[d] = idx
			if d == reader {
				found = true
				break
			}
			stack = append(stack, d)
		}
	}
	if !found {
		return nil
	}

	// Walk back from reader to dep, then lay the loop out forwards.
	chain := []uint32{reader}
	for idx := parent[reader]; ; idx = parent[idx] {
		chain = append(chain, idx)
		if idx == dep {
			break
		}
	}
	path := []NodeRef{r.ref(rt.arena.handle(reader))}
	for i := len(chain) - 1; i >= 0; i-- {
		idx := chain[i]
		path = append(path, rt.arena.at(idx).ref(rt.arena.handle(idx)))
	}
	return path
}

// cycleError builds the evaluation path from the frame evaluating idx up to
// the current reader.
func (rt *Runtime) cycleError(idx uint32) *CyclicDependencyError {
	start := 0
	for i, f := range rt.stack {
		if f.idx == idx {
			start = i
			break
		}
	}
	var path []NodeRef
	for _, f := range rt.stack[start:] {
		if f.idx == noNode {
			continue
		}
		if n := rt.arena.at(f.idx); n != nil {
			path = append(path, n.ref(rt.arena.handle(f.idx)))
		}
	}
	if n := rt.arena.at(idx); n != nil {
		path = append(path, n.ref(rt.arena.handle(idx)))
	}
	return &CyclicDependencyError{Path: path}
}

// Untrack runs fn without recording reads as dependencies of the current
// evaluation.
func (rt *Runtime) Untrack(fn func()) {
	rt.push(noNode)
	defer rt.pop()
	fn()
}

// Untracked runs fn without dependency tracking and returns its result.
//
// Example:
//
//	total := reactive.NewMemo(rt, func() int {
//	    // Reading rate here won't subscribe the memo
//	    r := reactive.Untracked(rt, func() int { return rate.Get() })
//	    return amount.Get() * r
//	})
func Untracked[T any](rt *Runtime, fn func() T) T {
	var out T
	rt.Untrack(func() {
		out = fn()
	})
	return out
}

// UntrackedGet reads r without creating a dependency.
// Equivalent to r.Peek().
func UntrackedGet[T any](r Readable[T]) T {
	return r.Peek()
}

// withScope runs fn with s as the creation scope.
func (rt *Runtime) withScope(s *Scope, fn func()) {
	old := rt.scope
	rt.scope = s
	defer func() { rt.scope = old }()
	fn()
}
