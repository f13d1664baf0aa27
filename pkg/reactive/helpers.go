package reactive

// Number is the constraint for the arithmetic signal helpers.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Inc increments a numeric signal by 1.
func Inc[T Number](s *Signal[T]) error {
	return s.Update(func(v T) T { return v + 1 })
}

// Dec decrements a numeric signal by 1.
func Dec[T Number](s *Signal[T]) error {
	return s.Update(func(v T) T { return v - 1 })
}

// Add adds n to a numeric signal.
func Add[T Number](s *Signal[T], n T) error {
	return s.Update(func(v T) T { return v + n })
}

// Toggle flips a boolean signal.
func Toggle(s *Signal[bool]) error {
	return s.Update(func(v bool) bool { return !v })
}

// Append appends items to a slice signal. The signal receives a new slice,
// so the previous value is never mutated.
func Append[T any](s *Signal[[]T], items ...T) error {
	return s.Update(func(v []T) []T {
		out := make([]T, 0, len(v)+len(items))
		out = append(out, v...)
		return append(out, items...)
	})
}

// RemoveAt removes the element at index i from a slice signal.
// Out-of-range indices leave the signal unchanged.
func RemoveAt[T any](s *Signal[[]T], i int) error {
	return s.Update(func(v []T) []T {
		if i < 0 || i >= len(v) {
			return v
		}
		out := make([]T, 0, len(v)-1)
		out = append(out, v[:i]...)
		return append(out, v[i+1:]...)
	})
}
