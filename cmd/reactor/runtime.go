package main

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/observe"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// loadConfig reads the configuration at path, which may be a file or a
// directory. The empty path means the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(".")
	}
	fi, err := os.Stat(path)
	if err == nil && fi.IsDir() {
		return config.Load(path)
	}
	return config.LoadFile(path)
}

// instruments holds the observers shared by the runtimes a command creates.
type instruments struct {
	registry  *prometheus.Registry
	observers []reactive.Observer
}

// newInstruments builds the metrics and tracing observers enabled in cfg.
// forceMetrics enables metrics regardless of the config.
func newInstruments(cfg *config.Config, forceMetrics bool) *instruments {
	ins := &instruments{registry: prometheus.NewRegistry()}
	if cfg.Metrics.Enabled || forceMetrics {
		ins.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		ins.observers = append(ins.observers, observe.NewMetrics(
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithRegistry(ins.registry),
		))
	}
	if cfg.Tracing.Enabled {
		ins.observers = append(ins.observers, observe.NewTracer(
			observe.WithTracerName(cfg.Tracing.TracerName),
		))
	}
	return ins
}

// newRuntime creates a runtime wired to cfg's budget, the logger and the
// instruments, plus any extra observers.
func (ins *instruments) newRuntime(cfg *config.Config, name string, logger *slog.Logger, extra ...reactive.Observer) *reactive.Runtime {
	obs := append(append([]reactive.Observer{}, ins.observers...), extra...)
	opts := []reactive.Option{
		reactive.WithName(name),
		reactive.WithLogger(logger),
		reactive.WithBudget(cfg.RuntimeBudget()),
	}
	if len(obs) > 0 {
		opts = append(opts, reactive.WithObserver(reactive.Observers(obs...)))
	}
	return reactive.New(opts...)
}
