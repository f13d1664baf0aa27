package reactive

import (
	"fmt"
	"log/slog"
)

// Config holds runtime configuration. Use Option functions with New.
type Config struct {
	// Name labels the runtime in logs, events and snapshots.
	Name string

	// Logger receives failure and budget reports.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer receives propagation events. May be nil.
	Observer Observer

	// ErrorHandler is called for every memo or effect failure, after it has
	// been logged. May be nil.
	ErrorHandler func(error)

	// Budget bounds each flush.
	Budget Budget
}

// Option configures a Runtime.
type Option func(*Config)

// WithName sets the runtime name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithObserver sets the runtime observer. Combine several with Observers.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

// WithErrorHandler sets a callback for memo and effect failures.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.ErrorHandler = fn
	}
}

// WithBudget sets the propagation budget.
func WithBudget(b Budget) Option {
	return func(c *Config) {
		c.Budget = b
	}
}

// Stats are cumulative counters for a runtime.
type Stats struct {
	Passes     uint64 `json:"passes"`
	MemoRuns   uint64 `json:"memo_runs"`
	EffectRuns uint64 `json:"effect_runs"`
	Skipped    uint64 `json:"skipped"`
	Errors     uint64 `json:"errors"`
	LiveNodes  int    `json:"live_nodes"`
	Scopes     int    `json:"scopes"`
}

// Runtime is a reactive root: it owns the node arena, the dependency graph,
// the tracking context and the root scope.
type Runtime struct {
	id     uint64
	name   string
	arena  arena
	root   *Scope
	scopes int

	// scope is the scope that owns newly created nodes.
	scope *Scope
	// stack is the evaluation stack; the top frame receives tracked reads.
	stack []*frame
	// evals tracks this runtime's entries in the per-goroutine evaluator
	// map; shadowed counts other runtimes evaluating on top of it.
	evals    []evalEntry
	gid      uint64
	shadowed int

	batchDepth int
	flushing   bool
	pending    []Handle
	// inPass is set while runPass evaluates; writes are staged meanwhile.
	inPass bool
	staged []Handle
	pass   uint64
	// passErrs collects failures of the flush in progress.
	passErrs []error

	logger   *slog.Logger
	observer Observer
	onError  func(error)
	budget   Budget
	stats    Stats
}

// New creates a Runtime with an empty root scope.
func New(opts ...Option) *Runtime {
	cfg := Config{Budget: DefaultBudget()}
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := &Runtime{
		id:       nextID(),
		observer: cfg.Observer,
		onError:  cfg.ErrorHandler,
		budget:   cfg.Budget,
		logger:   cfg.Logger,
	}
	rt.arena = newArena(rt.id)
	rt.name = cfg.Name
	if rt.name == "" {
		rt.name = fmt.Sprintf("runtime-%d", rt.id)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	rt.logger = rt.logger.With("runtime", rt.name)

	rt.root = newScope(rt, nil)
	rt.scope = rt.root
	return rt
}

// ID returns the runtime identifier embedded in every handle it mints.
func (rt *Runtime) ID() uint64 {
	return rt.id
}

// Name returns the runtime name.
func (rt *Runtime) Name() string {
	return rt.name
}

// Root returns the root scope.
func (rt *Runtime) Root() *Scope {
	return rt.root
}

// CurrentScope returns the scope that owns nodes created right now.
func (rt *Runtime) CurrentScope() *Scope {
	return rt.scope
}

// IsLive reports whether h refers to a live node of this runtime.
func (rt *Runtime) IsLive(h Handle) bool {
	_, err := rt.arena.get(h)
	return err == nil
}

// Stats returns a copy of the runtime's counters.
func (rt *Runtime) Stats() Stats {
	s := rt.stats
	s.LiveNodes = rt.arena.live
	s.Scopes = rt.scopes
	return s
}

// Close disposes the root scope and with it every node of the runtime.
func (rt *Runtime) Close() {
	rt.root.Dispose()
}

// emit forwards an event to the observer, if any.
func (rt *Runtime) emit(e Event) {
	if rt.observer == nil {
		return
	}
	e.Runtime = rt.name
	if e.Pass == 0 {
		e.Pass = rt.pass
	}
	rt.observer.Observe(e)
}

// report logs a memo or effect failure and hands it to the error handler.
func (rt *Runtime) report(ref NodeRef, err error) {
	rt.stats.Errors++
	rt.logger.Error("reactive: evaluation failed",
		"node", ref.String(),
		"kind", ref.Kind.String(),
		"pass", rt.pass,
		"error", err,
	)
	rt.emit(Event{Kind: EventError, Node: ref, Err: err})
	if rt.onError != nil {
		rt.onError(err)
	}
}
