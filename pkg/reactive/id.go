package reactive

import "sync/atomic"

// runtimeIDCounter is the source of runtime and scope identifiers.
var runtimeIDCounter uint64

// nextID returns the next process-unique identifier.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&runtimeIDCounter, 1)
}
