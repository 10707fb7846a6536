package binding

import (
	"math"
	"reflect"
)

// Data lets a type define its own change-detection equality. Same consults
// it before any structural comparison.
type Data interface {
	Same(other any) bool
}

// Same reports whether two values are equal for change-detection purposes.
//
// It is deliberately cheap and conservative:
//
//   - floats compare by bit pattern, so +0 and -0 differ and a NaN equals
//     an identically-encoded NaN. A value rewritten with the same bits is
//     not a change.
//   - pointers, channels and funcs compare by identity, mirroring
//     shared-reference semantics: swapping in a different allocation is a
//     change even if the pointee is equal.
//   - slices, arrays and maps compare by length then elementwise.
//   - structs compare fieldwise.
//   - values of different types are never the same.
//   - kinds with no meaningful comparison report not-same; the worst case
//     is a spurious rebuild, never a missed one.
func Same(a, b any) bool {
	if d, ok := a.(Data); ok {
		return d.Same(b)
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	// Give the Data hook a chance on nested values that can still be
	// surfaced as interfaces.
	if a.Type().Implements(dataType) && a.CanInterface() && b.CanInterface() {
		return a.Interface().(Data).Same(b.Interface())
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32:
		return math.Float32bits(float32(a.Float())) == math.Float32bits(float32(b.Float()))
	case reflect.Float64:
		return math.Float64bits(a.Float()) == math.Float64bits(b.Float())
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !sameValue(iter.Value(), bv) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

var dataType = reflect.TypeOf((*Data)(nil)).Elem()
