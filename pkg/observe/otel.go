package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vango-dev/reactor/pkg/reactive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for reactive runtimes.
const defaultTracerName = "reactor"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Provider supplies the tracer. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Context is the parent context of pass spans (default: Background).
	Context context.Context

	// RecordEvaluations adds a span event for every memo and effect
	// evaluation. Enabled by default.
	RecordEvaluations bool

	// Filter determines which runtimes to trace, by name.
	// If nil, all runtimes are traced.
	Filter func(runtime string) bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = p
	}
}

// WithParentContext sets the context pass spans are started from.
func WithParentContext(ctx context.Context) TracerOption {
	return func(c *TracerConfig) {
		c.Context = ctx
	}
}

// WithRecordEvaluations enables/disables per-evaluation span events.
func WithRecordEvaluations(record bool) TracerOption {
	return func(c *TracerConfig) {
		c.RecordEvaluations = record
	}
}

// WithRuntimeFilter sets a filter on runtime names.
func WithRuntimeFilter(filter func(runtime string) bool) TracerOption {
	return func(c *TracerConfig) {
		c.Filter = filter
	}
}

func defaultTracerConfig() TracerConfig {
	return TracerConfig{
		TracerName:        defaultTracerName,
		Context:           context.Background(),
		RecordEvaluations: true,
	}
}

// passSpan is the open span of one runtime's current pass.
type passSpan struct {
	span   trace.Span
	failed bool
}

// Tracer is a reactive.Observer that turns propagation passes into spans.
// One Tracer may observe many runtimes; spans are tracked per runtime name.
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]*passSpan
}

// NewTracer creates the tracing observer.
//
// The tracer uses the global OpenTelemetry tracer provider by default.
// Configure it in main() before creating runtimes:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracer(opts ...TracerOption) *Tracer {
	config := defaultTracerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	t := &Tracer{config: config, spans: make(map[string]*passSpan)}
	if config.Provider != nil {
		t.tracer = config.Provider.Tracer(config.TracerName)
	} else {
		t.tracer = otel.Tracer(config.TracerName)
	}
	return t
}

// Observe implements reactive.Observer.
func (t *Tracer) Observe(e reactive.Event) {
	if t.config.Filter != nil && !t.config.Filter(e.Runtime) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case reactive.EventPassStart:
		if open := t.spans[e.Runtime]; open != nil {
			open.span.End()
		}
		_, span := t.tracer.Start(
			t.config.Context,
			"reactive.pass",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("reactive.runtime", e.Runtime),
				attribute.Int64("reactive.pass", int64(e.Pass)),
				attribute.Int("reactive.dirty_size", e.DirtySize),
			),
		)
		t.spans[e.Runtime] = &passSpan{span: span}

	case reactive.EventPassEnd:
		open := t.spans[e.Runtime]
		if open == nil {
			return
		}
		delete(t.spans, e.Runtime)
		if !open.failed {
			open.span.SetStatus(codes.Ok, "")
		}
		open.span.End()

	case reactive.EventEvaluate:
		open := t.spans[e.Runtime]
		if open == nil || !t.config.RecordEvaluations {
			return
		}
		open.span.AddEvent("evaluate", trace.WithAttributes(
			attribute.String("reactive.node", e.Node.String()),
			attribute.String("reactive.kind", e.Node.Kind.String()),
			attribute.Bool("reactive.changed", e.Changed),
			attribute.Int64("reactive.duration_us", e.Duration.Microseconds()),
		))

	case reactive.EventSkip:
		if open := t.spans[e.Runtime]; open != nil {
			open.span.AddEvent("skip", trace.WithAttributes(
				attribute.String("reactive.node", e.Node.String()),
				attribute.String("reactive.reason", e.Reason),
			))
		}

	case reactive.EventError, reactive.EventBudget:
		open := t.spans[e.Runtime]
		if open == nil {
			// Failures outside a pass (first evaluations, flush budget)
			// get a span of their own.
			_, span := t.tracer.Start(t.config.Context, fmt.Sprintf("reactive.%s", e.Kind),
				trace.WithAttributes(attribute.String("reactive.runtime", e.Runtime)),
				trace.WithTimestamp(time.Now()),
			)
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, errString(e.Err))
			span.End()
			return
		}
		open.failed = true
		open.span.RecordError(e.Err, trace.WithAttributes(
			attribute.String("reactive.node", e.Node.String()),
		))
		open.span.SetStatus(codes.Error, errString(e.Err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
