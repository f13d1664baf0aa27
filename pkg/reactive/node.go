package reactive

// nodeState tracks a memo or effect through a propagation pass.
// Signals stay in stateClean for their whole life.
type nodeState uint8

const (
	stateClean nodeState = iota
	// stateDirty marks a node in the current pass's dirty set that has not
	// settled yet.
	stateDirty
	// stateEvaluating marks a node whose closure is on the evaluation stack.
	stateEvaluating
	stateDisposed
)

// node is the closed variant stored in the arena. The shared fields hold the
// value and both edge directions; compute and run are set per kind.
type node struct {
	kind  Kind
	state nodeState
	name  string
	seq   uint64
	scope *Scope

	value   any
	version uint64
	equal   func(a, b any) bool

	// deps are the nodes read during the last evaluation (memos, effects).
	deps []uint32
	// subs are the memos and effects that read this node (signals, memos).
	subs []uint32

	compute func() any     // KindMemo
	run     func() Cleanup // KindEffect
	cleanup Cleanup        // KindEffect: returned by the last run

	// err is the failure of the most recent evaluation, nil after success.
	err error

	// queued reports whether a signal sits in the runtime's pending writes.
	queued bool
	// staged holds a signal write made during a pass until the pass ends.
	staged       any
	hasStaged    bool
	stagedNotify bool
	// mark is the pass that last put the node in a dirty set.
	mark uint64
	// changedPass is the pass in which the value last changed.
	changedPass uint64
	// failedPass is the pass in which the node failed or was poisoned by
	// a failing dependency.
	failedPass uint64
}

// latest returns the staged value if there is one, else the stored value.
func (n *node) latest() any {
	if n.hasStaged {
		return n.staged
	}
	return n.value
}

func (n *node) ref(h Handle) NodeRef {
	return NodeRef{Handle: h, Kind: n.kind, Name: n.name}
}

// as converts a stored value back to T. A nil interface yields the zero T.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}
