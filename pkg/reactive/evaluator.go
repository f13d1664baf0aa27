package reactive

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// evaluators maps a goroutine to the runtime whose evaluation is innermost
// on it. A Runtime is confined to one goroutine while it evaluates, but
// separate runtimes may evaluate on separate goroutines, and one runtime's
// effect may drive another runtime on the same goroutine.
var (
	evaluators      sync.Map // goroutine id -> *Runtime
	evaluatorsCount atomic.Int64
)

// evalEntry is one level of a runtime's evaluation nesting.
type evalEntry struct {
	registered bool
	prev       *Runtime
}

// goroutineID returns the id of the calling goroutine, parsed from the
// header line of its stack trace ("goroutine <id> [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// enterEval marks rt as evaluating on the calling goroutine. It only touches
// the shared map when rt is not already the innermost evaluator.
func (rt *Runtime) enterEval() {
	e := evalEntry{}
	if len(rt.evals) == 0 || rt.shadowed > 0 {
		if len(rt.evals) == 0 {
			rt.gid = goroutineID()
		}
		if v, ok := evaluators.Load(rt.gid); ok {
			e.prev = v.(*Runtime)
			if e.prev != rt {
				e.prev.shadowed++
			}
		}
		evaluators.Store(rt.gid, rt)
		evaluatorsCount.Add(1)
		e.registered = true
	}
	rt.evals = append(rt.evals, e)
}

// leaveEval undoes the matching enterEval.
func (rt *Runtime) leaveEval() {
	e := rt.evals[len(rt.evals)-1]
	rt.evals = rt.evals[:len(rt.evals)-1]
	if !e.registered {
		return
	}
	if e.prev != nil {
		evaluators.Store(rt.gid, e.prev)
		if e.prev != rt {
			e.prev.shadowed--
		}
	} else {
		evaluators.Delete(rt.gid)
	}
	evaluatorsCount.Add(-1)
}

// evaluator returns the runtime whose evaluation is innermost on the calling
// goroutine, or nil.
func (rt *Runtime) evaluator() *Runtime {
	if len(rt.evals) > 0 && rt.shadowed == 0 {
		return rt
	}
	if evaluatorsCount.Load() == 0 {
		return nil
	}
	if v, ok := evaluators.Load(goroutineID()); ok {
		return v.(*Runtime)
	}
	return nil
}

// foreignRead reports a tracked read of h made while another runtime's node
// is evaluating. The read fails and that evaluation is abandoned, since the
// other runtime cannot subscribe to a node it does not own.
func (rt *Runtime) foreignRead(h Handle) error {
	ev := rt.evaluator()
	if ev == nil || ev == rt || !ev.tracking() {
		return nil
	}
	err := &StaleHandleError{Handle: h, Foreign: true}
	if f := ev.top(); f.err == nil {
		f.err = err
	}
	ev.logger.Warn("reactive: read of a node owned by another runtime",
		"node", h.String(), "owner", rt.name)
	return err
}
