package reactive

// Source is anything that can be read as a dependency.
type Source interface {
	Handle() Handle
}

// Readable is a Source with a typed value: Signal[T] and Memo[T].
type Readable[T any] interface {
	Source
	Get() T
	TryGet() (T, error)
	Peek() T
}

// Signal is a mutable observable cell.
// Reading a Signal with Get while a memo or effect evaluates subscribes that
// node to the signal's changes.
type Signal[T any] struct {
	rt *Runtime
	h  Handle
}

// NewSignal creates a signal in the runtime's current scope.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	n := &node{
		kind:  KindSignal,
		value: initial,
		equal: equalFunc[T](nil),
	}
	return &Signal[T]{rt: rt, h: rt.create(n)}
}

// Get returns the current value and tracks it as a dependency of the
// current evaluation. It panics with *StaleHandleError if the signal has
// been disposed; use TryGet to receive the error instead.
func (s *Signal[T]) Get() T {
	v, err := s.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

// TryGet is like Get but returns dereference errors.
func (s *Signal[T]) TryGet() (T, error) {
	n, err := s.rt.read(s.h, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](n.value), nil
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	n, err := s.rt.read(s.h, false)
	if err != nil {
		panic(err)
	}
	return as[T](n.value)
}

// Set stores value and, if it differs from the previous value under the
// signal's equality function, propagates the change. Propagation is
// synchronous unless a batch or a propagation pass is in progress, in which
// case the write is queued. The returned error joins every memo and effect
// failure of the passes this call drove.
func (s *Signal[T]) Set(value T) error {
	return s.rt.write(s.h, value, true)
}

// Update sets the signal to fn(current). Inside a propagation pass current
// includes writes made earlier in the same pass.
func (s *Signal[T]) Update(fn func(T) T) error {
	n, err := s.rt.arena.get(s.h)
	if err != nil {
		return err
	}
	return s.rt.write(s.h, fn(as[T](n.latest())), true)
}

// SetSilent stores value without waking subscribers.
func (s *Signal[T]) SetSilent(value T) error {
	return s.rt.write(s.h, value, false)
}

// UpdateSilent sets the signal to fn(current) without waking subscribers.
func (s *Signal[T]) UpdateSilent(fn func(T) T) error {
	n, err := s.rt.arena.get(s.h)
	if err != nil {
		return err
	}
	return s.rt.write(s.h, fn(as[T](n.latest())), false)
}

// WithEquals configures the equality function used by Set and Update.
// This is useful for custom types where reflect.DeepEqual is too expensive
// or has incorrect semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	if n, err := s.rt.arena.get(s.h); err == nil {
		n.equal = equalFunc(fn)
	}
	return s
}

// Named sets the name used in errors, events and snapshots.
func (s *Signal[T]) Named(name string) *Signal[T] {
	if n, err := s.rt.arena.get(s.h); err == nil {
		n.name = name
	}
	return s
}

// Handle returns the signal's arena handle.
func (s *Signal[T]) Handle() Handle {
	return s.h
}

// IsLive reports whether the signal has not been disposed.
func (s *Signal[T]) IsLive() bool {
	return s.rt.IsLive(s.h)
}

// Version returns the number of writes stored so far, or 0 when disposed.
func (s *Signal[T]) Version() uint64 {
	if n, err := s.rt.arena.get(s.h); err == nil {
		return n.version
	}
	return 0
}

// write stores v in the signal at h and queues it for propagation when the
// value changed and notify is set. A write made while a pass is running is
// staged instead, so every node of that pass observes the same values; the
// flush commits it before the next pass.
func (rt *Runtime) write(h Handle, v any, notify bool) error {
	n, err := rt.arena.get(h)
	if err != nil {
		return err
	}
	if rt.inPass {
		if !n.hasStaged {
			n.hasStaged = true
			rt.staged = append(rt.staged, h)
		}
		n.staged = v
		n.stagedNotify = n.stagedNotify || notify
		return nil
	}
	rt.store(h, n, v, notify)
	return rt.flush()
}

func (rt *Runtime) store(h Handle, n *node, v any, notify bool) {
	changed := !n.equal(n.value, v)
	n.value = v
	n.version++
	if notify && changed && !n.queued {
		n.queued = true
		rt.pending = append(rt.pending, h)
	}
}

// commitStaged stores the writes staged during the last pass.
func (rt *Runtime) commitStaged() {
	staged := rt.staged
	rt.staged = nil
	for _, h := range staged {
		n, err := rt.arena.get(h)
		if err != nil {
			continue
		}
		v, notify := n.staged, n.stagedNotify
		n.staged, n.hasStaged, n.stagedNotify = nil, false, false
		rt.store(h, n, v, notify)
	}
}
