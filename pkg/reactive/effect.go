package reactive

import "time"

// Cleanup is returned by effects to release resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// Effect is a side-effecting subscriber. Effects have no value and no
// subscribers; they are the sinks of the dependency graph.
type Effect struct {
	rt *Runtime
	h  Handle
}

// EffectOption configures an Effect.
type EffectOption interface {
	applyEffect(n *node)
}

type effectOptionFunc func(*node)

func (f effectOptionFunc) applyEffect(n *node) { f(n) }

// EffectName sets the name used in errors, events and snapshots.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(n *node) {
		n.name = name
	})
}

// CreateEffect creates an effect in the runtime's current scope and runs it
// immediately. It re-runs whenever a signal or memo it read during its last
// run changes. If fn returns a Cleanup, it is called before the next run and
// when the effect is disposed.
//
// Example:
//
//	reactive.CreateEffect(rt, func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
func CreateEffect(rt *Runtime, fn func() Cleanup, opts ...EffectOption) *Effect {
	n := &node{
		kind: KindEffect,
		run:  fn,
	}
	for _, opt := range opts {
		opt.applyEffect(n)
	}
	e := &Effect{rt: rt, h: rt.create(n)}
	if rt.IsLive(e.h) {
		rt.initialize(e.h.index, n)
	}
	return e
}

// CreateEffectOn creates an effect that depends on exactly the given
// sources. The body runs untracked, so reads inside it add no edges.
func CreateEffectOn(rt *Runtime, sources []Source, fn func() Cleanup, opts ...EffectOption) *Effect {
	return CreateEffect(rt, func() Cleanup {
		for _, src := range sources {
			if _, err := rt.read(src.Handle(), true); err != nil {
				panic(err)
			}
		}
		return Untracked(rt, fn)
	}, opts...)
}

// CreateScopedEffect creates an effect whose body runs in a fresh child
// scope on every run. The previous run's scope is disposed before the next
// run starts, so nodes created by the body never outlive the run that made
// them.
func CreateScopedEffect(rt *Runtime, fn func(s *Scope) Cleanup, opts ...EffectOption) *Effect {
	var child *Scope
	return CreateEffect(rt, func() Cleanup {
		if child != nil {
			child.Dispose()
		}
		child = rt.CurrentScope().Child()
		var c Cleanup
		rt.withScope(child, func() {
			c = fn(child)
		})
		return c
	}, opts...)
}

// OnMount runs fn once, untracked, as an effect with no dependencies.
func OnMount(rt *Runtime, fn func()) {
	CreateEffect(rt, func() Cleanup {
		rt.Untrack(fn)
		return nil
	})
}

// OnUpdate creates an effect that skips the callback on the first run.
// The deps function establishes the dependencies; callback runs untracked
// on every later change.
//
// Example:
//
//	reactive.OnUpdate(rt,
//	    func() { _ = count.Get() },         // deps: read signals to track
//	    func() { fmt.Println("Updated!") }, // callback: only on changes
//	)
func OnUpdate(rt *Runtime, deps func(), callback func()) {
	first := true
	CreateEffect(rt, func() Cleanup {
		deps()
		if first {
			first = false
			return nil
		}
		rt.Untrack(callback)
		return nil
	})
}

// Handle returns the effect's arena handle.
func (e *Effect) Handle() Handle {
	return e.h
}

// IsLive reports whether the effect has not been disposed.
func (e *Effect) IsLive() bool {
	return e.rt.IsLive(e.h)
}

// Err returns the failure of the most recent run, or nil.
func (e *Effect) Err() error {
	n, err := e.rt.arena.get(e.h)
	if err != nil {
		return err
	}
	return n.err
}

// runEffect runs the effect at idx after calling the previous run's cleanup,
// then rebuilds its edges.
func (rt *Runtime) runEffect(idx uint32, n *node) {
	h := rt.arena.handle(idx)
	var start time.Time
	if rt.observer != nil {
		start = time.Now()
	}

	if c := n.cleanup; c != nil {
		n.cleanup = nil
		rt.runCleanup(n.ref(h), c)
	}

	n.state = stateEvaluating
	f := rt.push(idx)
	var (
		cleanup Cleanup
		err     error
	)
	rt.withScope(n.scope, func() {
		defer func() {
			if r := recover(); r != nil {
				err = recoveredError(r)
			}
		}()
		cleanup = n.run()
	})
	rt.pop()
	if f.err != nil {
		err = f.err
	}
	rt.stats.EffectRuns++

	if rt.arena.at(idx) != n {
		// Disposed by its own run; nothing will call this cleanup later.
		if cleanup != nil {
			rt.runCleanup(n.ref(h), cleanup)
		}
		return
	}
	n.state = stateClean
	n.cleanup = cleanup

	if err != nil {
		rt.mergeDeps(idx, n, f.deps)
		n.err = err
		rt.fail(n.ref(h), &EffectError{Effect: n.ref(h), Cause: err})
		return
	}
	rt.setDeps(idx, n, f.deps)
	n.err = nil
	rt.emit(Event{Kind: EventEvaluate, Node: n.ref(h), Duration: since(start)})
}

// runCleanup calls c, reporting a panic as an effect failure.
func (rt *Runtime) runCleanup(ref NodeRef, c Cleanup) {
	defer func() {
		if r := recover(); r != nil {
			rt.fail(ref, &EffectError{Effect: ref, Cause: recoveredError(r)})
		}
	}()
	c()
}
