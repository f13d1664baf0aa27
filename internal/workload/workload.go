// Package workload builds reactive graphs of a given shape and drives them.
//
// Workloads back the bench command and the devtools demo. Each one creates
// its nodes in the runtime's current scope and exposes a Step function that
// performs one write.
package workload

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Instance is a built workload.
type Instance struct {
	// Step performs the i-th write and returns the propagation error.
	Step func(i int) error

	// Sink returns the value last observed by the workload's final effect.
	Sink func() int

	// Nodes is the number of nodes the workload created.
	Nodes int
}

// Workload describes a graph shape.
type Workload struct {
	Name        string
	Description string
	build       func(rt *reactive.Runtime, size int) *Instance
}

// Build creates the workload's graph in rt. size is clamped to at least 1.
func (w Workload) Build(rt *reactive.Runtime, size int) *Instance {
	if size < 1 {
		size = 1
	}
	return w.build(rt, size)
}

var registry = map[string]Workload{}

func register(w Workload) {
	registry[w.Name] = w
}

// Get returns the named workload.
func Get(name string) (Workload, bool) {
	w, ok := registry[name]
	return w, ok
}

// Names returns the registered workload names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result summarizes a Run.
type Result struct {
	Workload   string         `json:"workload"`
	Size       int            `json:"size"`
	Iterations int            `json:"iterations"`
	Nodes      int            `json:"nodes"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	PerWrite   time.Duration  `json:"per_write_ns"`
	Errors     int            `json:"errors"`
	Sink       int            `json:"sink"`
	Stats      reactive.Stats `json:"stats"`
}

// Run builds the named workload in a fresh child scope of rt, performs
// iterations writes and disposes the scope. It stops early when ctx is
// cancelled.
func Run(ctx context.Context, rt *reactive.Runtime, name string, size, iterations int) (Result, error) {
	w, ok := Get(name)
	if !ok {
		return Result{}, fmt.Errorf("unknown workload %q", name)
	}

	scope := rt.Root().Child()
	defer scope.Dispose()

	inst, err := reactive.RunInScope(scope, func() *Instance {
		return w.Build(rt, size)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Workload: name, Size: size, Nodes: inst.Nodes}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if i%1024 == 0 && ctx.Err() != nil {
			break
		}
		if err := inst.Step(i); err != nil {
			res.Errors++
		}
		res.Iterations++
	}
	res.Elapsed = time.Since(start)
	if res.Iterations > 0 {
		res.PerWrite = res.Elapsed / time.Duration(res.Iterations)
	}
	res.Sink = inst.Sink()
	res.Stats = rt.Stats()
	return res, ctx.Err()
}
