package binding

import (
	"fmt"
	"reflect"
)

// Lens is a read-only projection from a source model S to a target T.
//
// View hands fn a pointer into the source's data, valid only for the
// duration of the call; callers that keep the value copy it out (see Get
// and Clone). When the projection fails, fn receives nil. View must call
// fn exactly once.
type Lens[S, T any] interface {
	View(source *S, fn func(*T))

	// Key identifies this lens for store sharing. It is stable for the
	// lifetime of the lens value.
	Key() StoreKey
}

// DataContext resolves the nearest model of a given type visible from the
// current position in the tree. Implemented by engine.Context.
type DataContext interface {
	// DataFor returns the model as stored (a pointer), or nil when no
	// node from the current node up to the root carries one.
	DataFor(t reflect.Type) any
}

// TryGet projects the lens against the nearest in-scope source model and
// returns a copy of the target. ok is false when no model is in scope or
// the projection fails.
func TryGet[S, T any](cx DataContext, lens Lens[S, T]) (T, bool) {
	var out T
	src, _ := cx.DataFor(reflect.TypeOf((*S)(nil)).Elem()).(*S)
	if src == nil {
		return out, false
	}
	ok := false
	lens.View(src, func(t *T) {
		if t != nil {
			out = Clone(*t)
			ok = true
		}
	})
	return out, ok
}

// Get is TryGet for the cases the caller has a right to expect to work:
// it panics when the source model is missing or the projection fails.
func Get[S, T any](cx DataContext, lens Lens[S, T]) T {
	v, ok := TryGet(cx, lens)
	if !ok {
		panic(fmt.Sprintf("binding: no value for lens %s from source %s",
			lens.Key(), reflect.TypeOf((*S)(nil)).Elem()))
	}
	return v
}
