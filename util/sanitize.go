package util

import (
	"math"
	"reflect"
)

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// IsAbsent reports whether v carries no usable value: nil, NaN, or the empty
// string. Zero numbers, false and empty documents are values.
func IsAbsent(v any) bool {
	if IsNil(v) {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}
