package reactive

import "time"

// Memo is a cached derived computation that tracks its dependencies.
//
// Memos are eager: the derivation runs once on creation and again inside
// every propagation pass in which one of its dependencies changed. When the
// new value equals the cached one, subscribers are not woken.
//
// A memo must not read itself. A tracked read of a memo that is being
// evaluated fails with *CyclicDependencyError and the evaluation is
// abandoned; the memo keeps its previous value.
type Memo[T any] struct {
	rt *Runtime
	h  Handle
}

// NewMemo creates a memo in the runtime's current scope and evaluates it.
// A failing first evaluation is reported and leaves the zero value cached;
// Err returns the failure.
func NewMemo[T any](rt *Runtime, fn func() T) *Memo[T] {
	n := &node{
		kind:  KindMemo,
		equal: equalFunc[T](nil),
		compute: func() any {
			return fn()
		},
	}
	m := &Memo[T]{rt: rt, h: rt.create(n)}
	if rt.IsLive(m.h) {
		rt.initialize(m.h.index, n)
	}
	return m
}

// Get returns the memo's value and tracks it as a dependency of the current
// evaluation. It panics with the dereference or cycle error; use TryGet to
// receive the error instead.
func (m *Memo[T]) Get() T {
	v, err := m.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

// TryGet is like Get but returns dereference and cycle errors.
func (m *Memo[T]) TryGet() (T, error) {
	n, err := m.rt.read(m.h, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](n.value), nil
}

// Peek returns the memo's value without subscribing. Called from inside the
// memo's own derivation it returns the previous value.
func (m *Memo[T]) Peek() T {
	n, err := m.rt.read(m.h, false)
	if err != nil {
		panic(err)
	}
	return as[T](n.value)
}

// Err returns the failure of the most recent evaluation, or nil.
func (m *Memo[T]) Err() error {
	n, err := m.rt.arena.get(m.h)
	if err != nil {
		return err
	}
	return n.err
}

// WithEquals configures the equality function used to decide whether a
// recomputation changed the memo's value.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	if n, err := m.rt.arena.get(m.h); err == nil {
		n.equal = equalFunc(fn)
	}
	return m
}

// Named sets the name used in errors, events and snapshots.
func (m *Memo[T]) Named(name string) *Memo[T] {
	if n, err := m.rt.arena.get(m.h); err == nil {
		n.name = name
	}
	return m
}

// Handle returns the memo's arena handle.
func (m *Memo[T]) Handle() Handle {
	return m.h
}

// IsLive reports whether the memo has not been disposed.
func (m *Memo[T]) IsLive() bool {
	return m.rt.IsLive(m.h)
}

// Version returns how many distinct values the memo has produced.
func (m *Memo[T]) Version() uint64 {
	if n, err := m.rt.arena.get(m.h); err == nil {
		return n.version
	}
	return 0
}

// evaluateMemo runs the derivation of the memo at idx, rebuilds its edges
// and reports whether its value changed.
func (rt *Runtime) evaluateMemo(idx uint32, n *node) bool {
	h := rt.arena.handle(idx)
	var start time.Time
	if rt.observer != nil {
		start = time.Now()
	}

	n.state = stateEvaluating
	f := rt.push(idx)
	var (
		out any
		err error
	)
	rt.withScope(n.scope, func() {
		defer func() {
			if r := recover(); r != nil {
				err = recoveredError(r)
			}
		}()
		out = n.compute()
	})
	rt.pop()
	if f.err != nil {
		err = f.err
	}

	if rt.arena.at(idx) != n {
		// Disposed by its own derivation.
		return false
	}
	n.state = stateClean
	rt.stats.MemoRuns++

	if err != nil {
		rt.mergeDeps(idx, n, f.deps)
		n.err = err
		n.failedPass = rt.pass
		rt.fail(n.ref(h), &MemoError{Memo: n.ref(h), Cause: err})
		return false
	}

	rt.setDeps(idx, n, f.deps)
	n.err = nil
	changed := n.version == 0 || !n.equal(n.value, out)
	if changed {
		n.value = out
		n.version++
		n.changedPass = rt.pass
	}
	rt.emit(Event{Kind: EventEvaluate, Node: n.ref(h), Changed: changed, Duration: since(start)})
	return changed
}

// since returns the time elapsed from start, or 0 when start is unset.
func since(start time.Time) time.Duration {
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}
