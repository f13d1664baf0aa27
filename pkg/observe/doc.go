// Package observe provides production observers for reactive runtimes.
//
// This package includes:
//   - Prometheus metrics for propagation passes and evaluations
//   - OpenTelemetry tracing with one span per propagation pass
//
// Observers plug into a runtime with reactive.WithObserver. Combine several
// with reactive.Observers:
//
//	metrics := observe.NewMetrics(observe.WithNamespace("myapp"))
//	tracer := observe.NewTracer(observe.WithTracerName("myapp"))
//
//	rt := reactive.New(
//	    reactive.WithObserver(reactive.Observers(metrics, tracer)),
//	)
//
// # Prometheus Metrics
//
// Metrics are registered on prometheus.DefaultRegisterer unless WithRegistry
// is given:
//   - reactor_passes_total: Propagation passes run
//   - reactor_pass_duration_seconds: Pass duration histogram
//   - reactor_dirty_set_size: Nodes scheduled per pass
//   - reactor_evaluations_total: Memo and effect evaluations by kind
//   - reactor_skipped_total: Scheduled nodes that did not run, by reason
//   - reactor_errors_total: Evaluation failures by type
//   - reactor_budget_exceeded_total: Flushes or passes stopped by the budget
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Each pass becomes a span named
// "reactive.pass"; evaluations and skips are recorded as span events and
// failures set the span status to Error.
package observe
