package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoChain(t *testing.T) {
	rt := newTestRuntime(t)

	price := NewSignal(rt, 100.0)
	taxRate := NewSignal(rt, 0.5)
	discount := NewSignal(rt, 0.25)

	taxed := NewMemo(rt, func() float64 {
		return price.Get() * (1 + taxRate.Get())
	})
	final := NewMemo(rt, func() float64 {
		return taxed.Get() * (1 - discount.Get())
	})

	assert.Equal(t, 112.5, final.Get())

	require.NoError(t, price.Set(200))
	assert.Equal(t, 225.0, final.Get())

	require.NoError(t, discount.Set(0.5))
	assert.Equal(t, 150.0, final.Get())
}

func TestMemoIsEager(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 1)

	runs := 0
	m := NewMemo(rt, func() int {
		runs++
		return s.Get() + 1
	})
	assert.Equal(t, 1, runs, "memo runs on creation")

	require.NoError(t, s.Set(2))
	assert.Equal(t, 2, runs, "memo recomputes during the pass")

	assert.Equal(t, 3, m.Get())
	assert.Equal(t, 3, m.Peek())
	assert.Equal(t, 2, runs, "reads do not recompute a settled memo")
}

// Diamond:
//
//	    a
//	   / \
//	  b   c
//	   \ /
//	    d (effect)
func TestDiamondIsGlitchFree(t *testing.T) {
	rt := newTestRuntime(t)
	a := NewSignal(rt, 1)

	bRuns, cRuns := 0, 0
	b := NewMemo(rt, func() int {
		bRuns++
		return a.Get() * 2
	})
	c := NewMemo(rt, func() int {
		cRuns++
		return a.Get() * 3
	})

	var seen [][2]int
	CreateEffect(rt, func() Cleanup {
		seen = append(seen, [2]int{b.Get(), c.Get()})
		return nil
	})

	require.NoError(t, a.Set(2))

	assert.Equal(t, [][2]int{{2, 3}, {4, 6}}, seen, "effect must never see b and c from different generations")
	assert.Equal(t, 2, bRuns)
	assert.Equal(t, 2, cRuns)
}

func TestDiamondWithMemoSink(t *testing.T) {
	rt := newTestRuntime(t)
	a := NewSignal(rt, 1)

	b := NewMemo(rt, func() int { return a.Get() + 1 })
	c := NewMemo(rt, func() int { return a.Get() * 10 })

	dRuns := 0
	d := NewMemo(rt, func() int {
		dRuns++
		return b.Get() + c.Get()
	})

	var sums []int
	CreateEffect(rt, func() Cleanup {
		sums = append(sums, d.Get())
		return nil
	})

	require.NoError(t, a.Set(2))
	assert.Equal(t, 2, dRuns, "d recomputes once per pass")
	assert.Equal(t, []int{12, 23}, sums)
}

func TestMemoEqualValueCutsPropagation(t *testing.T) {
	rt := newTestRuntime(t)
	n := NewSignal(rt, 1)

	parityRuns := 0
	parity := NewMemo(rt, func() int {
		parityRuns++
		return n.Get() % 2
	})

	effectRuns := 0
	CreateEffect(rt, func() Cleanup {
		_ = parity.Get()
		effectRuns++
		return nil
	})

	require.NoError(t, n.Set(3))
	assert.Equal(t, 2, parityRuns)
	assert.Equal(t, 1, effectRuns, "unchanged memo must not wake its subscribers")
	assert.Equal(t, uint64(1), parity.Version())

	require.NoError(t, n.Set(4))
	assert.Equal(t, 2, effectRuns)
	assert.Equal(t, uint64(2), parity.Version())
}

func TestMemoWithEquals(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 1.01)

	rounded := NewMemo(rt, func() float64 { return s.Get() }).
		WithEquals(func(a, b float64) bool { return int(a) == int(b) })

	runs := 0
	CreateEffect(rt, func() Cleanup {
		_ = rounded.Get()
		runs++
		return nil
	})

	require.NoError(t, s.Set(1.9))
	assert.Equal(t, 1, runs)
	require.NoError(t, s.Set(2.1))
	assert.Equal(t, 2, runs)
}

func TestDynamicDependencies(t *testing.T) {
	rt := newTestRuntime(t)
	flag := NewSignal(rt, true)
	x := NewSignal(rt, "x")
	y := NewSignal(rt, "y")

	runs := 0
	var last string
	CreateEffect(rt, func() Cleanup {
		runs++
		if flag.Get() {
			last = x.Get()
		} else {
			last = y.Get()
		}
		return nil
	})
	require.Equal(t, "x", last)

	require.NoError(t, y.Set("y1"))
	assert.Equal(t, 1, runs, "y is not a dependency yet")

	require.NoError(t, flag.Set(false))
	assert.Equal(t, 2, runs)
	assert.Equal(t, "y1", last)

	require.NoError(t, x.Set("x1"))
	assert.Equal(t, 2, runs, "x was dropped from the dependency set")

	require.NoError(t, y.Set("y2"))
	assert.Equal(t, 3, runs)
	assert.Equal(t, "y2", last)
}

func TestDynamicDependencyEdgesAreRemoved(t *testing.T) {
	rt := newTestRuntime(t)
	flag := NewSignal(rt, true).Named("flag")
	x := NewSignal(rt, 1).Named("x")
	y := NewSignal(rt, 2).Named("y")

	NewMemo(rt, func() int {
		if flag.Get() {
			return x.Get()
		}
		return y.Get()
	}).Named("pick")

	deps := func() []string {
		for _, n := range rt.Snapshot().Nodes {
			if n.Name == "pick" {
				return n.Deps
			}
		}
		return nil
	}
	assert.ElementsMatch(t, []string{"flag", "x"}, deps())

	require.NoError(t, flag.Set(false))
	assert.ElementsMatch(t, []string{"flag", "y"}, deps())
}

func TestMemoSelfReadIsCycle(t *testing.T) {
	rt := newTestRuntime(t)
	flag := NewSignal(rt, false)

	var m *Memo[int]
	m = NewMemo(rt, func() int {
		if flag.Get() {
			v, err := m.TryGet()
			if err != nil {
				return -1
			}
			return v + 1
		}
		return 1
	}).Named("m")

	err := flag.Set(true)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCyclicDependency)

	var cycle *CyclicDependencyError
	require.ErrorAs(t, err, &cycle)
	require.Len(t, cycle.Path, 2)
	assert.Equal(t, "m", cycle.Path[0].String())
	assert.Equal(t, "m", cycle.Path[1].String())
	assert.Equal(t, "reactive: cyclic dependency: m -> m", cycle.Error())

	var memoErr *MemoError
	require.ErrorAs(t, err, &memoErr)
	assert.Equal(t, "m", memoErr.Memo.Name)

	// The evaluation was abandoned even though the closure swallowed the
	// error, so the previous value survives.
	assert.Equal(t, 1, m.Peek())
	assert.ErrorIs(t, m.Err(), ErrCyclicDependency)
}

func TestMemoSelfReadWithGetPanicsIntoCycle(t *testing.T) {
	rt := newTestRuntime(t)
	flag := NewSignal(rt, false)

	var m *Memo[int]
	m = NewMemo(rt, func() int {
		if flag.Get() {
			return m.Get() + 1
		}
		return 1
	})

	err := flag.Set(true)
	require.ErrorIs(t, err, ErrCyclicDependency)
	assert.Equal(t, 1, m.Peek())
}

func TestMemoPeekSelfReturnsPreviousValue(t *testing.T) {
	rt := newTestRuntime(t)
	step := NewSignal(rt, 1)

	var acc *Memo[int]
	acc = NewMemo(rt, func() int {
		prev := 0
		if acc != nil {
			prev = acc.Peek()
		}
		return prev + step.Get()
	})
	assert.Equal(t, 1, acc.Get())

	require.NoError(t, step.Set(2))
	assert.Equal(t, 3, acc.Get())
	require.NoError(t, acc.Err())
}

func TestMutualMemoCycle(t *testing.T) {
	rt := newTestRuntime(t)
	flag := NewSignal(rt, false)

	var b *Memo[int]
	a := NewMemo(rt, func() int {
		if flag.Get() {
			if v, err := b.TryGet(); err == nil {
				return v
			}
			return -1
		}
		return 1
	}).Named("a")
	b = NewMemo(rt, func() int { return a.Get() + 1 }).Named("b")

	err := flag.Set(true)
	require.ErrorIs(t, err, ErrCyclicDependency)

	var cycle *CyclicDependencyError
	require.ErrorAs(t, err, &cycle)
	names := make([]string, len(cycle.Path))
	for i, r := range cycle.Path {
		names[i] = r.String()
	}
	assert.Equal(t, []string{"a", "b", "a"}, names)

	assert.Equal(t, 1, a.Peek())
	assert.Equal(t, 2, b.Peek())
}

func TestMemoFailurePoisonsSubscribers(t *testing.T) {
	var rec recorder
	rt := newTestRuntime(t, WithObserver(&rec))
	s := NewSignal(rt, 1)

	m := NewMemo(rt, func() int {
		if s.Get() < 0 {
			panic(errors.New("negative input"))
		}
		return s.Get() * 2
	}).Named("double")
	downstream := NewMemo(rt, func() int { return m.Get() + 1 }).Named("plus")

	var seen []int
	CreateEffect(rt, func() Cleanup {
		seen = append(seen, downstream.Get())
		return nil
	}, EffectName("sink"))

	err := s.Set(-1)
	var memoErr *MemoError
	require.ErrorAs(t, err, &memoErr)
	assert.Equal(t, "double", memoErr.Memo.Name)
	assert.EqualError(t, memoErr.Cause, "negative input")

	assert.Equal(t, 2, m.Peek(), "failed memo keeps its previous value")
	assert.Error(t, m.Err())
	assert.Equal(t, []int{3}, seen, "subscribers of a failed memo do not run")
	assert.Equal(t, 2, rec.skips(SkipPoisoned), "plus and sink are poisoned")

	require.NoError(t, s.Set(5))
	assert.NoError(t, m.Err())
	assert.Equal(t, []int{3, 11}, seen)
}

func TestMemoFailureOnCreation(t *testing.T) {
	rt := newTestRuntime(t)

	m := NewMemo(rt, func() int {
		panic("bad")
	})

	require.Error(t, m.Err())
	assert.Equal(t, 0, m.Peek())
	assert.True(t, m.IsLive())
}
