package engine

import (
	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/id"
)

// Res is a view property that is either a literal or lens-driven. A
// literal applies once at build time; a lens applies now and again on
// every change, through a binding the view never sees.
type Res[T any] interface {
	// SetOrBind arranges for apply to run with the property's value.
	// node is the view node the property belongs to.
	SetOrBind(cx *Context, node id.NodeID, apply func(cx *Context, node id.NodeID, value T))
}

// Lit wraps a plain value.
func Lit[T any](value T) Res[T] {
	return litRes[T]{value: value}
}

type litRes[T any] struct{ value T }

func (r litRes[T]) SetOrBind(cx *Context, node id.NodeID, apply func(*Context, id.NodeID, T)) {
	apply(cx, node, r.value)
}

// FromLens defers to a lens: apply runs under a binding child of the
// view's node and re-fires whenever the lensed value changes. When the
// projection fails (an index lens over a shrunk slice), apply is skipped
// for that rebuild and the property keeps its last value.
func FromLens[S, T any](lens binding.Lens[S, T]) Res[T] {
	return lensRes[S, T]{lens: lens}
}

type lensRes[S, T any] struct{ lens binding.Lens[S, T] }

func (r lensRes[S, T]) SetOrBind(cx *Context, node id.NodeID, apply func(*Context, id.NodeID, T)) {
	cx.WithCurrent(node, func() {
		NewBinding(cx, r.lens, func(cx *Context, lens binding.Lens[S, T]) {
			if v, ok := binding.TryGet(cx, lens); ok {
				apply(cx, node, v)
			}
		})
	})
}
