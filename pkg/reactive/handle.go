package reactive

import "fmt"

// Kind identifies the variant of a node in the graph.
type Kind uint8

const (
	KindSignal Kind = iota + 1
	KindMemo
	KindEffect
)

// String returns a human-readable name for the node kind.
func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindMemo:
		return "memo"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// Handle is a stable, non-owning reference to a node in a Runtime's arena.
//
// A handle carries the identity of the runtime that minted it and the
// generation of the arena slot at creation time. Once the node is disposed
// the slot's generation moves on and every lookup through the old handle
// fails, even if the slot has been reused by a newer node.
type Handle struct {
	runtime uint64
	index   uint32
	gen     uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.runtime == 0
}

// Runtime returns the identifier of the runtime that minted h.
func (h Handle) Runtime() uint64 {
	return h.runtime
}

// String formats the handle as index@generation/runtime.
func (h Handle) String() string {
	if h.IsZero() {
		return "node(nil)"
	}
	return fmt.Sprintf("node#%d@%d/rt%d", h.index, h.gen, h.runtime)
}

// NodeRef identifies a node in errors and observer events.
type NodeRef struct {
	Handle Handle
	Kind   Kind
	Name   string
}

// String returns the node's name, or its kind and index when unnamed.
func (r NodeRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s#%d", r.Kind, r.Handle.index)
}
