package reactive

import (
	"errors"
	"slices"
	"time"
)

// flush runs propagation passes until no writes are pending. Writes made
// while a pass is running are staged and committed when the next pass
// starts, so passes never interleave and no node of a pass sees a value
// written after the pass began. It is a no-op inside a batch or an ongoing flush; the
// outermost caller does the work and receives the joined failures.
func (rt *Runtime) flush() error {
	if rt.flushing || rt.batchDepth > 0 || len(rt.pending) == 0 {
		return nil
	}
	rt.flushing = true
	rt.passErrs = nil
	rt.enterEval()
	defer func() {
		rt.leaveEval()
		rt.flushing = false
		rt.passErrs = nil
	}()

	passes := 0
	for {
		rt.commitStaged()
		if len(rt.pending) == 0 {
			break
		}
		passes++
		if err := rt.budget.checkPass(passes); err != nil {
			rt.dropPending()
			rt.logger.Warn("reactive: flush stopped", "passes", passes-1, "error", err)
			rt.emit(Event{Kind: EventBudget, Err: err})
			rt.passErrs = append(rt.passErrs, err)
			break
		}
		sources := rt.pending
		rt.pending = nil
		rt.runPass(sources)
	}
	return errors.Join(rt.passErrs...)
}

// dropPending discards queued writes. Their values stay stored.
func (rt *Runtime) dropPending() {
	for _, h := range rt.pending {
		if n, err := rt.arena.get(h); err == nil {
			n.queued = false
		}
	}
	rt.pending = nil
}

// runPass propagates one generation of changed sources.
func (rt *Runtime) runPass(sources []Handle) {
	rt.inPass = true
	defer func() { rt.inPass = false }()
	rt.pass++
	rt.stats.Passes++
	pass := rt.pass

	roots := make([]uint32, 0, len(sources))
	for _, h := range sources {
		n, err := rt.arena.get(h)
		if err != nil {
			continue
		}
		n.queued = false
		n.changedPass = pass
		roots = append(roots, h.index)
	}

	dirty := rt.collect(roots, pass)
	if len(dirty) == 0 {
		return
	}
	order := rt.order(dirty)

	var start time.Time
	if rt.observer != nil {
		start = time.Now()
	}
	rt.emit(Event{Kind: EventPassStart, DirtySize: len(order)})

	// Memos settle first, in topological order.
	for _, h := range order {
		if n, err := rt.arena.get(h); err == nil && n.kind == KindMemo {
			rt.settle(h.index, n)
		}
	}

	// Effects run once every memo in the dirty set has settled. Liveness is
	// re-checked here, so nodes disposed earlier in the pass are skipped.
	runs, capped := 0, false
	for _, h := range order {
		n, err := rt.arena.get(h)
		if err != nil {
			rt.skip(h, SkipDisposed)
			continue
		}
		if n.kind != KindEffect || n.state != stateDirty {
			continue
		}
		if err := rt.budget.checkEffectRun(runs); err != nil {
			n.state = stateClean
			rt.skip(h, SkipBudget)
			if !capped {
				capped = true
				rt.logger.Warn("reactive: effect runs capped", "pass", pass, "error", err)
				rt.emit(Event{Kind: EventBudget, Err: err})
				rt.passErrs = append(rt.passErrs, err)
			}
			continue
		}
		if rt.settle(h.index, n) {
			runs++
		}
	}

	rt.emit(Event{Kind: EventPassEnd, DirtySize: len(order), Duration: since(start)})
}

// collect walks subscribers from roots and returns every reachable memo and
// effect, each exactly once, marking them dirty for pass.
func (rt *Runtime) collect(roots []uint32, pass uint64) []uint32 {
	var dirty []uint32
	stack := append([]uint32(nil), roots...)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := rt.arena.at(idx)
		if n == nil {
			continue
		}
		for _, s := range n.subs {
			sub := rt.arena.at(s)
			if sub == nil || sub.mark == pass {
				continue
			}
			sub.mark = pass
			if sub.state == stateClean {
				sub.state = stateDirty
			}
			dirty = append(dirty, s)
			stack = append(stack, s)
		}
	}
	return dirty
}

// order sorts the dirty set topologically over the edges as they stand at
// the start of the pass. Nodes of equal rank run in creation order. Nodes
// left over by a dependency cycle are appended in creation order; the
// evaluation stack reports the cycle when they run.
func (rt *Runtime) order(dirty []uint32) []Handle {
	pos := make(map[uint32]int, len(dirty))
	for i, idx := range dirty {
		pos[idx] = i
	}
	indeg := make([]int, len(dirty))
	next := make([][]int, len(dirty))
	for i, idx := range dirty {
		for _, d := range rt.arena.at(idx).deps {
			if j, ok := pos[d]; ok {
				indeg[i]++
				next[j] = append(next[j], i)
			}
		}
	}

	bySeq := func(a, b int) int {
		sa, sb := rt.arena.at(dirty[a]).seq, rt.arena.at(dirty[b]).seq
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	}

	out := make([]Handle, 0, len(dirty))
	placed := make([]bool, len(dirty))
	var level []int
	for i := range dirty {
		if indeg[i] == 0 {
			level = append(level, i)
		}
	}
	for len(level) > 0 {
		slices.SortFunc(level, bySeq)
		var following []int
		for _, i := range level {
			placed[i] = true
			out = append(out, rt.arena.handle(dirty[i]))
			for _, c := range next[i] {
				indeg[c]--
				if indeg[c] == 0 {
					following = append(following, c)
				}
			}
		}
		level = following
	}

	if len(out) < len(dirty) {
		var rest []int
		for i := range dirty {
			if !placed[i] {
				rest = append(rest, i)
			}
		}
		slices.SortFunc(rest, bySeq)
		for _, i := range rest {
			out = append(out, rt.arena.handle(dirty[i]))
		}
	}
	return out
}

// settle brings a dirty memo or effect up to date and reports whether it
// was evaluated. Dirty memo dependencies are settled first, so a node read
// before its turn in the pass still observes consistent values. A node runs
// only if a dependency changed in this pass, and never if a dependency
// failed in this pass.
func (rt *Runtime) settle(idx uint32, n *node) bool {
	if n.state != stateDirty {
		return false
	}
	n.state = stateClean

	changed, poisoned := false, false
	for _, d := range slices.Clone(n.deps) {
		dep := rt.arena.at(d)
		if dep == nil {
			continue
		}
		if dep.kind == KindMemo && dep.state == stateDirty {
			rt.settle(d, dep)
		}
		if dep.failedPass == rt.pass {
			poisoned = true
		}
		if dep.changedPass == rt.pass {
			changed = true
		}
	}
	if rt.arena.at(idx) != n {
		return false
	}

	if poisoned {
		n.failedPass = rt.pass
		rt.skip(rt.arena.handle(idx), SkipPoisoned)
		return false
	}
	if !changed {
		return false
	}

	switch n.kind {
	case KindMemo:
		rt.evaluateMemo(idx, n)
	case KindEffect:
		rt.runEffect(idx, n)
	}
	return true
}

// skip records a scheduled node that did not run.
func (rt *Runtime) skip(h Handle, reason string) {
	rt.stats.Skipped++
	ref := NodeRef{Handle: h}
	if n := rt.arena.at(h.index); n != nil && rt.arena.handle(h.index) == h {
		ref = n.ref(h)
	}
	if reason == SkipDisposed {
		rt.logger.Debug("reactive: skipped disposed node", "node", h.String(), "pass", rt.pass)
	}
	rt.emit(Event{Kind: EventSkip, Node: ref, Reason: reason})
}

// fail collects err for the flush in progress and reports it.
func (rt *Runtime) fail(ref NodeRef, err error) {
	if rt.flushing {
		rt.passErrs = append(rt.passErrs, err)
	}
	rt.report(ref, err)
}

// initialize runs the first evaluation of a new memo or effect. Writes made
// during it are deferred until it returns, as in a batch.
func (rt *Runtime) initialize(idx uint32, n *node) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			// Failures were reported as they happened.
			_ = rt.flush()
		}
	}()

	switch n.kind {
	case KindMemo:
		rt.evaluateMemo(idx, n)
	case KindEffect:
		rt.runEffect(idx, n)
	}
}
