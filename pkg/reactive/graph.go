package reactive

// Edges are stored twice: a subscriber lists its dependencies in deps and each
// dependency lists its subscribers in subs. Both sides hold arena indices.

// setDeps replaces the dependency set of the node at idx with the nodes read,
// adding and removing the reverse edges that changed. Reads of nodes that
// were disposed before the evaluation finished are dropped, so a slot reused
// by a newer node is never subscribed to.
func (rt *Runtime) setDeps(idx uint32, n *node, read []Handle) {
	rt.replaceDeps(idx, n, rt.liveDeps(read))
}

// liveDeps returns the arena indexes of the handles that still resolve.
func (rt *Runtime) liveDeps(read []Handle) []uint32 {
	if len(read) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(read))
	for _, h := range read {
		if _, err := rt.arena.get(h); err == nil {
			out = append(out, h.index)
		}
	}
	return out
}

func (rt *Runtime) replaceDeps(idx uint32, n *node, next []uint32) {
	if len(n.deps) > 0 {
		keep := make(map[uint32]struct{}, len(next))
		for _, d := range next {
			keep[d] = struct{}{}
		}
		for _, d := range n.deps {
			if _, ok := keep[d]; ok {
				continue
			}
			if dep := rt.arena.at(d); dep != nil {
				dep.subs = removeIndex(dep.subs, idx)
			}
		}
	}

	prev := make(map[uint32]struct{}, len(n.deps))
	for _, d := range n.deps {
		prev[d] = struct{}{}
	}
	for _, d := range next {
		if _, ok := prev[d]; ok {
			continue
		}
		if dep := rt.arena.at(d); dep != nil {
			dep.subs = append(dep.subs, idx)
		}
	}
	n.deps = next
}

// mergeDeps adds extra to the dependency set of the node at idx without
// dropping existing edges. Used after a failed evaluation so that a change
// to either the old or the newly read dependencies triggers a retry.
func (rt *Runtime) mergeDeps(idx uint32, n *node, read []Handle) {
	merged := append([]uint32(nil), n.deps...)
	for _, d := range rt.liveDeps(read) {
		if !containsIndex(merged, d) {
			merged = append(merged, d)
		}
	}
	rt.replaceDeps(idx, n, merged)
}

// unlink removes every edge touching the node at idx.
func (rt *Runtime) unlink(idx uint32, n *node) {
	for _, d := range n.deps {
		if dep := rt.arena.at(d); dep != nil {
			dep.subs = removeIndex(dep.subs, idx)
		}
	}
	for _, s := range n.subs {
		if sub := rt.arena.at(s); sub != nil {
			sub.deps = removeIndex(sub.deps, idx)
		}
	}
	n.deps = nil
	n.subs = nil
}

// removeIndex deletes the first occurrence of idx by swapping with the last
// element. Edge order does not matter; passes order nodes by creation.
func removeIndex(list []uint32, idx uint32) []uint32 {
	for i, v := range list {
		if v == idx {
			list[i] = list[len(list)-1]
			return list[:len(list)-1]
		}
	}
	return list
}

func containsIndex(list []uint32, idx uint32) bool {
	for _, v := range list {
		if v == idx {
			return true
		}
	}
	return false
}
