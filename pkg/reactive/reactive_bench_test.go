package reactive

import (
	"io"
	"log/slog"
	"testing"
)

// Benchmarks for the propagation engine.

func newBenchRuntime() *Runtime {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func BenchmarkSignalGetNoTracking(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 42)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Get()
	}
}

func BenchmarkSignalPeek(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 42)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Peek()
	}
}

func BenchmarkSignalSetNoSubscribers(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 0)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Set(i)
	}
}

func BenchmarkSignalSet10Subscribers(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 0)
	for j := 0; j < 10; j++ {
		CreateEffect(rt, func() Cleanup {
			_ = s.Get()
			return nil
		})
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Set(i + 1)
	}
}

func BenchmarkMemoGetCached(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 10)
	m := NewMemo(rt, func() int { return s.Get() * 2 })
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.Get()
	}
}

func BenchmarkMemoChain10(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 0)
	var prev Readable[int] = s
	for j := 0; j < 10; j++ {
		p := prev
		prev = NewMemo(rt, func() int { return p.Get() + 1 })
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Set(i + 1)
	}
}

func BenchmarkDiamond(b *testing.B) {
	rt := newBenchRuntime()
	a := NewSignal(rt, 0)
	left := NewMemo(rt, func() int { return a.Get() + 1 })
	right := NewMemo(rt, func() int { return a.Get() * 2 })
	CreateEffect(rt, func() Cleanup {
		_ = left.Get() + right.Get()
		return nil
	})
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = a.Set(i + 1)
	}
}

func BenchmarkBatch100Updates(b *testing.B) {
	rt := newBenchRuntime()
	signals := make([]*Signal[int], 100)
	for j := range signals {
		signals[j] = NewSignal(rt, 0)
	}
	CreateEffect(rt, func() Cleanup {
		for _, s := range signals {
			_ = s.Get()
		}
		return nil
	})
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = rt.Batch(func() {
			for _, s := range signals {
				_ = s.Set(i + 1)
			}
		})
	}
}

func BenchmarkScopeCreateDispose(b *testing.B) {
	rt := newBenchRuntime()
	s := NewSignal(rt, 0)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		scope := rt.Root().Child()
		_ = scope.Run(func() {
			CreateEffect(rt, func() Cleanup {
				_ = s.Get()
				return nil
			})
		})
		scope.Dispose()
	}
}
