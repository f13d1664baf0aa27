package reactive

import "time"

// EventKind identifies an observer event.
type EventKind uint8

const (
	// EventPassStart fires before a propagation pass settles its dirty set.
	EventPassStart EventKind = iota + 1
	// EventPassEnd fires after the pass's effects have run.
	EventPassEnd
	// EventEvaluate fires after a memo or effect evaluated.
	EventEvaluate
	// EventSkip fires when a scheduled node was not run, either because it
	// was disposed before its turn or because a dependency failed.
	EventSkip
	// EventError fires for every memo or effect failure.
	EventError
	// EventBudget fires when a flush stops on ErrBudgetExceeded.
	EventBudget
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventPassStart:
		return "pass_start"
	case EventPassEnd:
		return "pass_end"
	case EventEvaluate:
		return "evaluate"
	case EventSkip:
		return "skip"
	case EventError:
		return "error"
	case EventBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// Skip reasons carried by EventSkip.
const (
	SkipDisposed = "disposed"
	SkipPoisoned = "poisoned"
	SkipBudget   = "budget"
)

// Event describes one step of the runtime's propagation work.
type Event struct {
	Kind    EventKind
	Runtime string
	Pass    uint64
	Node    NodeRef

	// DirtySize is the size of the dirty set (pass events).
	DirtySize int
	// Changed reports whether an evaluated memo produced a new value.
	Changed  bool
	Duration time.Duration
	Reason   string
	Err      error
}

// Observer receives runtime events. Observers are called synchronously on
// the runtime's goroutine and must not call back into the runtime.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}
