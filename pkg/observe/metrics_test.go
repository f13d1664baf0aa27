package observe

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.NotNil(t, m.Counter, "expected counter metric to have Counter field")
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	require.True(t, ok, "observer %T does not implement prometheus.Metric", o)
	var m dto.Metric
	require.NoError(t, metric.Write(&m))
	require.NotNil(t, m.Histogram, "expected histogram metric to have Histogram field")
	return m.GetHistogram().GetSampleCount()
}

func quietRuntime(opts ...reactive.Option) *reactive.Runtime {
	opts = append([]reactive.Option{reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return reactive.New(opts...)
}

func TestMetricsRecordPasses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	rt := quietRuntime(reactive.WithObserver(m))
	defer rt.Close()

	s := reactive.NewSignal(rt, 1)
	parity := reactive.NewMemo(rt, func() int { return s.Get() % 2 })
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		_ = parity.Get()
		return nil
	})

	require.NoError(t, s.Set(3)) // parity unchanged, effect not run
	require.NoError(t, s.Set(4))

	assert.Equal(t, 2.0, metricCounterValue(t, m.passesTotal))
	assert.Equal(t, uint64(2), metricHistogramCount(t, m.passDuration))
	assert.Equal(t, uint64(2), metricHistogramCount(t, m.dirtySetSize))

	// Creation evaluations count too: memo x1 changed, effect x1.
	assert.Equal(t, 2.0, metricCounterValue(t, m.evaluations.WithLabelValues("memo", "true")))
	assert.Equal(t, 1.0, metricCounterValue(t, m.evaluations.WithLabelValues("memo", "false")))
	assert.Equal(t, 2.0, metricCounterValue(t, m.evaluations.WithLabelValues("effect", "true")))
}

func TestMetricsRecordErrorsAndSkips(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	rt := quietRuntime(reactive.WithObserver(m))
	defer rt.Close()

	s := reactive.NewSignal(rt, 0)
	failing := reactive.NewMemo(rt, func() int {
		if s.Get() > 0 {
			panic("boom")
		}
		return 0
	})
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		_ = failing.Get()
		return nil
	})

	require.Error(t, s.Set(1))

	assert.Equal(t, 1.0, metricCounterValue(t, m.errorsTotal.WithLabelValues("memo", "panic")))
	assert.Equal(t, 1.0, metricCounterValue(t, m.skipped.WithLabelValues(reactive.SkipPoisoned)))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_errors_total")
	assert.Contains(t, names, "test_passes_total")
}

func TestMetricsRecordBudget(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	rt := quietRuntime(
		reactive.WithObserver(m),
		reactive.WithBudget(reactive.Budget{MaxPassesPerFlush: 3}),
	)
	defer rt.Close()

	s := reactive.NewSignal(rt, 0)
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		_ = s.Set(s.Get() + 1)
		return nil
	})

	assert.Equal(t, 1.0, metricCounterValue(t, m.budgetExceeded))
	assert.Equal(t, 3.0, metricCounterValue(t, m.passesTotal))
}

func TestNewMetricsPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewMetrics(WithRegistry(reg))
	assert.Panics(t, func() { _ = NewMetrics(WithRegistry(reg)) })
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "unknown"},
		{"cycle", &reactive.MemoError{Cause: &reactive.CyclicDependencyError{}}, "cycle"},
		{"stale", &reactive.StaleHandleError{}, "stale_handle"},
		{"budget", reactive.ErrBudgetExceeded, "budget"},
		{"panic", &reactive.EffectError{Cause: &reactive.PanicError{Value: 1}}, "panic"},
		{"plain", errors.New("x"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorizeError(tt.err))
		})
	}
}
