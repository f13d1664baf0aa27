package reactive

// MapIndexed maps a reactive list item by item. Each mapped item lives in
// its own child scope of the scope current at the call. When the list
// changes, items whose value at the same index is unchanged keep their
// mapped result; changed items are re-mapped in a fresh scope and surplus
// items have their scopes disposed.
//
// fn runs untracked: reads inside it do not subscribe the returned memo.
func MapIndexed[T, U any](rt *Runtime, list Readable[[]T], fn func(item T, index int) U) *Memo[[]U] {
	owner := rt.CurrentScope()
	var (
		items  []T
		mapped []U
		scopes []*Scope
	)

	return NewMemo(rt, func() []U {
		next := list.Get()
		rt.Untrack(func() {
			for i, item := range next {
				if i < len(items) && defaultEquals(items[i], item) {
					continue
				}
				if i < len(scopes) {
					scopes[i].Dispose()
				}
				child := owner.Child()
				u, _ := RunInScope(child, func() U { return fn(item, i) })
				if i < len(items) {
					items[i], mapped[i], scopes[i] = item, u, child
				} else {
					items = append(items, item)
					mapped = append(mapped, u)
					scopes = append(scopes, child)
				}
			}
			for i := len(next); i < len(scopes); i++ {
				scopes[i].Dispose()
			}
			if len(next) < len(items) {
				clear(scopes[len(next):])
				items, mapped, scopes = items[:len(next)], mapped[:len(next)], scopes[:len(next)]
			}
		})
		return append([]U(nil), mapped...)
	})
}

type keyedEntry[T, U any] struct {
	item   T
	mapped U
	scope  *Scope
}

// MapKeyed maps a reactive list by key. An item whose key was present in the
// previous list and whose value is unchanged keeps its mapped result and
// scope, even if it moved; otherwise it is re-mapped in a fresh child scope.
// Entries whose key disappeared have their scopes disposed. Duplicate keys
// are matched in order of appearance.
//
// fn runs untracked: reads inside it do not subscribe the returned memo.
func MapKeyed[T any, K comparable, U any](rt *Runtime, list Readable[[]T], key func(T) K, fn func(item T) U) *Memo[[]U] {
	owner := rt.CurrentScope()
	entries := map[K][]*keyedEntry[T, U]{}

	return NewMemo(rt, func() []U {
		next := list.Get()
		out := make([]U, 0, len(next))
		rt.Untrack(func() {
			fresh := make(map[K][]*keyedEntry[T, U], len(next))
			for _, item := range next {
				k := key(item)
				var e *keyedEntry[T, U]
				if old := entries[k]; len(old) > 0 {
					e, entries[k] = old[0], old[1:]
					if !defaultEquals(e.item, item) {
						e.scope.Dispose()
						e = nil
					}
				}
				if e == nil {
					child := owner.Child()
					u, _ := RunInScope(child, func() U { return fn(item) })
					e = &keyedEntry[T, U]{item: item, mapped: u, scope: child}
				}
				fresh[k] = append(fresh[k], e)
				out = append(out, e.mapped)
			}
			for _, stale := range entries {
				for _, e := range stale {
					e.scope.Dispose()
				}
			}
			entries = fresh
		})
		return out
	})
}
