// Package reactive provides a fine-grained reactive runtime.
//
// A Runtime owns a dependency graph of signals, memos and effects. Reading a
// signal or memo while a memo or effect is evaluating records a dependency
// edge; writing a signal re-evaluates exactly the memos and effects that can
// observe the change, in topological order.
//
// # Core Types
//
// Signal[T] is a mutable observable cell:
//
//	rt := reactive.New()
//	count := reactive.NewSignal(rt, 0)
//	value := count.Get()  // Read (tracks the current evaluation)
//	count.Set(5)          // Write (propagates to dependents)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derivation. Memos are eager: they recompute inside the
// propagation pass that changed one of their dependencies.
//
//	doubled := reactive.NewMemo(rt, func() int { return count.Get() * 2 })
//
// Effect runs side effects whenever its dependencies change:
//
//	reactive.CreateEffect(rt, func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Scopes
//
// Every node belongs to the Scope that was current when it was created.
// Disposing a scope disposes its child scopes, runs its cleanups in reverse
// registration order and removes its nodes from the graph. Handles to
// disposed nodes fail with *StaleHandleError.
//
// # Batching
//
// Multiple writes can be coalesced into a single propagation pass:
//
//	rt.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Concurrency
//
// A Runtime is confined to one goroutine at a time. It does no internal
// locking; callers that share a Runtime across goroutines must serialize
// access themselves. Separate runtimes never share nodes or handles.
package reactive
