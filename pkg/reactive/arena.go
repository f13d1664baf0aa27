package reactive

// slot is one arena cell. A nil node marks a free slot.
type slot struct {
	gen  uint32
	node *node
}

// arena owns node storage for a single runtime.
//
// Nodes are heap allocated and referenced from their slot, so a live node is
// never relocated when the slot table grows. Freed slots bump their
// generation and go on a free list for reuse.
type arena struct {
	runtime uint64
	slots   []slot
	free    []uint32
	seq     uint64
	live    int
}

func newArena(runtime uint64) arena {
	return arena{runtime: runtime}
}

// alloc stores n in a free slot and returns its handle.
func (a *arena) alloc(n *node) Handle {
	a.seq++
	n.seq = a.seq

	var idx uint32
	if k := len(a.free); k > 0 {
		idx = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{gen: 1})
	}
	a.slots[idx].node = n
	a.live++
	return Handle{runtime: a.runtime, index: idx, gen: a.slots[idx].gen}
}

// get dereferences h, failing for foreign, disposed or reused handles.
func (a *arena) get(h Handle) (*node, error) {
	if h.runtime != a.runtime {
		return nil, &StaleHandleError{Handle: h, Foreign: true}
	}
	if int(h.index) >= len(a.slots) {
		return nil, &StaleHandleError{Handle: h}
	}
	s := a.slots[h.index]
	if s.gen != h.gen || s.node == nil {
		return nil, &StaleHandleError{Handle: h}
	}
	return s.node, nil
}

// at returns the live node at idx, or nil if the slot is free.
// Edge lists store bare indices; they are valid because disposal unlinks
// a node from every list before its slot is released.
func (a *arena) at(idx uint32) *node {
	if int(idx) >= len(a.slots) {
		return nil
	}
	return a.slots[idx].node
}

// handle rebuilds the current handle for a live slot index.
func (a *arena) handle(idx uint32) Handle {
	return Handle{runtime: a.runtime, index: idx, gen: a.slots[idx].gen}
}

// release frees the slot at idx and invalidates outstanding handles.
func (a *arena) release(idx uint32) {
	s := &a.slots[idx]
	if s.node == nil {
		return
	}
	s.node = nil
	s.gen++
	a.free = append(a.free, idx)
	a.live--
}
