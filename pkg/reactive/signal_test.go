package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalGetSet(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 42)

	assert.Equal(t, 42, s.Get())
	require.NoError(t, s.Set(100))
	assert.Equal(t, 100, s.Get())
	assert.Equal(t, 100, s.Peek())
}

func TestSignalUpdate(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 10)

	require.NoError(t, s.Update(func(n int) int { return n * 2 }))
	assert.Equal(t, 20, s.Get())
}

func TestSignalZeroValueForNilInterface(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal[error](rt, nil)

	assert.Nil(t, s.Get())
	require.NoError(t, s.Set(errors.New("x")))
	assert.EqualError(t, s.Get(), "x")
}

func TestSignalEqualWriteDoesNotPropagate(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 5)

	runs := 0
	CreateEffect(rt, func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	require.Equal(t, 1, runs)

	require.NoError(t, s.Set(5))
	assert.Equal(t, 1, runs, "equal write must not re-run subscribers")
	assert.Equal(t, uint64(0), rt.Stats().Passes)

	require.NoError(t, s.Set(6))
	assert.Equal(t, 2, runs)
}

func TestSignalDeepEqualSlices(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, []string{"a", "b"})

	runs := 0
	CreateEffect(rt, func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	require.NoError(t, s.Set([]string{"a", "b"}))
	assert.Equal(t, 1, runs)
	require.NoError(t, s.Set([]string{"a", "c"}))
	assert.Equal(t, 2, runs)
}

func TestSignalWithEquals(t *testing.T) {
	type user struct {
		ID   int
		Name string
	}
	rt := newTestRuntime(t)
	s := NewSignal(rt, user{ID: 1, Name: "ann"}).WithEquals(func(a, b user) bool {
		return a.ID == b.ID
	})

	runs := 0
	CreateEffect(rt, func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	require.NoError(t, s.Set(user{ID: 1, Name: "renamed"}))
	assert.Equal(t, 1, runs)
	// The value is stored even when subscribers are not woken.
	assert.Equal(t, "renamed", s.Peek().Name)

	require.NoError(t, s.Set(user{ID: 2}))
	assert.Equal(t, 2, runs)
}

func TestSignalSilentWrites(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 1)

	runs := 0
	CreateEffect(rt, func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	require.NoError(t, s.SetSilent(2))
	require.NoError(t, s.UpdateSilent(func(n int) int { return n + 1 }))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 3, s.Peek())
}

func TestSignalVersion(t *testing.T) {
	rt := newTestRuntime(t)
	s := NewSignal(rt, 0)

	assert.Equal(t, uint64(0), s.Version())
	require.NoError(t, s.Set(1))
	require.NoError(t, s.Set(1))
	assert.Equal(t, uint64(2), s.Version())
}

func TestSignalStaleAfterDispose(t *testing.T) {
	rt := newTestRuntime(t)
	scope := rt.Root().Child()

	s, err := RunInScope(scope, func() *Signal[int] { return NewSignal(rt, 1) })
	require.NoError(t, err)
	scope.Dispose()

	assert.False(t, s.IsLive())
	assert.False(t, rt.IsLive(s.Handle()))

	_, err = s.TryGet()
	require.ErrorIs(t, err, ErrStaleHandle)
	var stale *StaleHandleError
	require.ErrorAs(t, err, &stale)
	assert.False(t, stale.Foreign)
	assert.Equal(t, s.Handle(), stale.Handle)

	require.ErrorIs(t, s.Set(2), ErrStaleHandle)
	require.ErrorIs(t, s.Update(func(n int) int { return n }), ErrStaleHandle)
	assert.Panics(t, func() { s.Get() })
	assert.Panics(t, func() { s.Peek() })
	assert.Equal(t, uint64(0), s.Version())
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	rt := newTestRuntime(t)
	scope := rt.Root().Child()

	old, err := RunInScope(scope, func() *Signal[int] { return NewSignal(rt, 1) })
	require.NoError(t, err)
	scope.Dispose()

	fresh := NewSignal(rt, 2)
	require.Equal(t, old.Handle().index, fresh.Handle().index, "slot should be reused")
	assert.NotEqual(t, old.Handle(), fresh.Handle())

	_, err = old.TryGet()
	require.ErrorIs(t, err, ErrStaleHandle)
	assert.Equal(t, 2, fresh.Get())
}

func TestForeignHandle(t *testing.T) {
	rt := newTestRuntime(t)
	other := newTestRuntime(t)
	foreign := NewSignal(other, 1)

	assert.False(t, rt.IsLive(foreign.Handle()))

	e := CreateEffectOn(rt, []Source{foreign}, func() Cleanup { return nil })
	var stale *StaleHandleError
	require.ErrorAs(t, e.Err(), &stale)
	assert.True(t, stale.Foreign)
	assert.Contains(t, stale.Error(), "another runtime")
}

func TestReadAcrossRuntimesInsideEvaluation(t *testing.T) {
	a := newTestRuntime(t)
	b := newTestRuntime(t)
	sa := NewSignal(a, 2)
	ma := NewMemo(a, func() int { return sa.Get() + 1 })

	doubled := NewMemo(b, func() int { return sa.Get() * 2 })
	var stale *StaleHandleError
	require.ErrorAs(t, doubled.Err(), &stale)
	assert.True(t, stale.Foreign)
	assert.Equal(t, sa.Handle(), stale.Handle)
	assert.ErrorIs(t, doubled.Err(), ErrStaleHandle)

	runs := 0
	var readErr error
	peeked := 0
	e := CreateEffect(b, func() Cleanup {
		runs++
		peeked = sa.Peek()
		_, readErr = ma.TryGet()
		return nil
	})
	assert.ErrorIs(t, readErr, ErrStaleHandle)
	require.ErrorAs(t, e.Err(), &stale, "the effect fails even though it swallowed the error")
	assert.True(t, stale.Foreign)
	assert.Equal(t, 2, peeked, "untracked reads of another runtime are allowed")

	memoRuns := b.Stats().MemoRuns
	require.NoError(t, sa.Set(10))
	assert.Equal(t, 1, runs, "no edge was recorded across runtimes")
	assert.Equal(t, memoRuns, b.Stats().MemoRuns)
	for _, n := range a.Snapshot().Nodes {
		assert.LessOrEqual(t, len(n.Subs), 1)
	}

	// One runtime's effect may still drive another runtime; the nested flush
	// evaluates its own nodes normally.
	mirror := NewSignal(b, 0)
	CreateEffect(b, func() Cleanup {
		require.NoError(t, sa.Set(mirror.Get()))
		return nil
	})
	require.NoError(t, mirror.Set(7))
	assert.Equal(t, 8, ma.Get())
	assert.NoError(t, ma.Err())
}

func TestSignalHelpers(t *testing.T) {
	rt := newTestRuntime(t)

	n := NewSignal(rt, 1)
	require.NoError(t, Inc(n))
	require.NoError(t, Add(n, 10))
	require.NoError(t, Dec(n))
	assert.Equal(t, 11, n.Get())

	f := NewSignal(rt, 1.5)
	require.NoError(t, Add(f, 0.5))
	assert.Equal(t, 2.0, f.Get())

	b := NewSignal(rt, false)
	require.NoError(t, Toggle(b))
	assert.True(t, b.Get())

	orig := []int{1, 2}
	l := NewSignal(rt, orig)
	require.NoError(t, Append(l, 3, 4))
	assert.Equal(t, []int{1, 2, 3, 4}, l.Get())
	assert.Equal(t, []int{1, 2}, orig, "previous slice must not be mutated")

	require.NoError(t, RemoveAt(l, 1))
	assert.Equal(t, []int{1, 3, 4}, l.Get())
	require.NoError(t, RemoveAt(l, 9))
	assert.Equal(t, []int{1, 3, 4}, l.Get())
}

func TestHandleString(t *testing.T) {
	var zero Handle
	assert.True(t, zero.IsZero())
	assert.Equal(t, "node(nil)", zero.String())

	rt := newTestRuntime(t)
	s := NewSignal(rt, 0)
	assert.False(t, s.Handle().IsZero())
	assert.Equal(t, rt.ID(), s.Handle().Runtime())
	assert.Contains(t, s.Handle().String(), "node#0@1")
}
