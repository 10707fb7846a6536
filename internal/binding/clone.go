package binding

import "reflect"

// Cloner lets a type define how it is copied into a store's cache.
type Cloner interface {
	Clone() any
}

// Clone copies a value for caching. Slice and map spines get fresh
// backing, recursively, so mutating the original in place cannot reach
// the copy. Pointers (and anything behind them) stay shared, matching
// reference semantics: identity, not content, is what Same compares for
// them.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner); ok {
		return c.Clone().(T)
	}
	rv := reflect.ValueOf(&v).Elem()
	out := cloneValue(rv)
	return out.Interface().(T)
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		if !hasCloneableField(v.Type()) {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			f := out.Field(i)
			if f.CanSet() {
				f.Set(cloneValue(v.Field(i)))
			}
		}
		return out
	case reflect.Array:
		if !needsClone(v.Type().Elem()) {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	default:
		return v
	}
}

// needsClone reports whether values of t can hold slice or map spines.
func needsClone(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Interface:
		return true
	case reflect.Struct:
		return hasCloneableField(t)
	case reflect.Array:
		return needsClone(t.Elem())
	default:
		return false
	}
}

func hasCloneableField(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if needsClone(t.Field(i).Type) {
			return true
		}
	}
	return false
}
