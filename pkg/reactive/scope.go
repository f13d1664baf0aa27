package reactive

// Scope owns reactive nodes and child scopes.
// When a Scope is disposed, all child scopes, cleanups and nodes it contains
// are disposed too. Scopes form a tree rooted at the runtime's root scope;
// the parent link is only used to detach a disposed child from its parent.
type Scope struct {
	rt *Runtime
	id uint64

	parent   *Scope
	children []*Scope

	// nodes are the handles created while this scope was current.
	nodes []Handle

	// cleanups run in reverse registration order on disposal.
	cleanups []func()

	disposed bool
}

func newScope(rt *Runtime, parent *Scope) *Scope {
	s := &Scope{
		rt:     rt,
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		if parent.disposed {
			s.disposed = true
			return s
		}
		parent.children = append(parent.children, s)
	}
	rt.scopes++
	return s
}

// NewScope creates a child scope of parent.
// A child of a disposed scope is created already disposed.
func NewScope(parent *Scope) *Scope {
	return newScope(parent.rt, parent)
}

// Child creates a child scope of s.
func (s *Scope) Child() *Scope {
	return newScope(s.rt, s)
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for the root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Runtime returns the runtime the scope belongs to.
func (s *Scope) Runtime() *Runtime {
	return s.rt
}

// IsDisposed reports whether the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed
}

// Run executes fn with s as the creation scope: every signal, memo, effect
// and child scope created inside fn is owned by s.
func (s *Scope) Run(fn func()) error {
	if s.disposed {
		return ErrScopeDisposed
	}
	s.rt.withScope(s, fn)
	return nil
}

// RunInScope is like Scope.Run but returns fn's result.
func RunInScope[T any](s *Scope, fn func() T) (T, error) {
	var out T
	err := s.Run(func() {
		out = fn()
	})
	return out, err
}

// OnCleanup registers fn to run when s is disposed.
// If s is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed {
		s.rt.callCleanup(fn)
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// OnCleanup registers fn on the runtime's current scope.
func OnCleanup(rt *Runtime, fn func()) {
	rt.scope.OnCleanup(fn)
}

// Dispose disposes the scope: child scopes first, last created first, then
// the scope's cleanups in reverse registration order, then every node it
// owns. Disposing twice is a no-op.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.rt.scopes--

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	children := s.children
	s.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	cleanups := s.cleanups
	s.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		s.rt.callCleanup(cleanups[i])
	}

	nodes := s.nodes
	s.nodes = nil
	for i := len(nodes) - 1; i >= 0; i-- {
		s.rt.disposeNode(nodes[i])
	}
}

// removeChild detaches child from s.
func (s *Scope) removeChild(child *Scope) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// create stores n in the arena, owned by the current scope. A node created
// in a disposed scope is disposed straight away and its handle is stale.
func (rt *Runtime) create(n *node) Handle {
	s := rt.scope
	n.scope = s
	h := rt.arena.alloc(n)
	if s.disposed {
		rt.logger.Warn("reactive: node created in disposed scope", "kind", n.kind.String(), "scope", s.id)
		rt.disposeNode(h)
		return h
	}
	s.nodes = append(s.nodes, h)
	return h
}

// disposeNode runs an effect's pending cleanup, unlinks the node from every
// edge and frees its arena slot.
func (rt *Runtime) disposeNode(h Handle) {
	n, err := rt.arena.get(h)
	if err != nil {
		return
	}
	if c := n.cleanup; c != nil {
		n.cleanup = nil
		rt.runCleanup(n.ref(h), c)
	}
	rt.unlink(h.index, n)
	n.state = stateDisposed
	n.value = nil
	n.compute = nil
	n.run = nil
	rt.arena.release(h.index)
}

// callCleanup runs a scope cleanup, logging a panic instead of letting it
// abort the rest of the disposal.
func (rt *Runtime) callCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.stats.Errors++
			rt.logger.Error("reactive: cleanup panicked", "error", recoveredError(r))
		}
	}()
	fn()
}
