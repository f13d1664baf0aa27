package reactive

import "reflect"

// equalFunc adapts a typed equality function to the arena's untyped values.
// A nil fn selects defaultEquals.
func equalFunc[T any](fn func(T, T) bool) func(a, b any) bool {
	if fn == nil {
		return func(a, b any) bool {
			return defaultEquals(as[T](a), as[T](b))
		}
	}
	return func(a, b any) bool {
		return fn(as[T](a), as[T](b))
	}
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		// Slices, maps, structs and pointers fall back to deep equality.
		return reflect.DeepEqual(a, b)
	}
}
