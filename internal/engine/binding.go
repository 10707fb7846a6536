package engine

import (
	"reflect"

	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/id"
	"github.com/roach88/trellis/internal/storage"
)

// rebuilder is implemented by views that rebuild their subtree when a
// store they observe changes.
type rebuilder interface {
	rebuild(cx *Context)
}

// storeObserver is implemented by views holding a store registration to
// release at teardown.
type storeObserver interface {
	release(cx *Context, self id.NodeID)
}

// bindingView is the node a NewBinding call leaves in the tree. It owns
// the builder closure and re-runs it whenever the observed store
// reports a change.
type bindingView[S, T any] struct {
	Base
	lens    binding.Lens[S, T]
	content func(cx *Context, lens binding.Lens[S, T])
	node    id.NodeID
}

func (*bindingView[S, T]) Element() string { return "binding" }

// NewBinding builds a reactive region: content runs once now, and again
// every time the lensed value changes. The binding node itself is
// structural (ignored), so the views content builds appear as children
// of the binding's parent.
//
// Panics with MissingModelError when no node from here to the root
// carries a model of type S.
func NewBinding[S, T any](cx *Context, lens binding.Lens[S, T], content func(cx *Context, lens binding.Lens[S, T])) Handle {
	node := cx.newNode(cx.current)
	cx.tree.SetIgnored(node, true)

	b := &bindingView[S, T]{lens: lens, content: content, node: node}
	cx.views.Insert(node, b)

	cx.register(node, lens.Key(), reflect.TypeOf((*S)(nil)).Elem(), func() binding.Store {
		return binding.NewStore(lens)
	})

	cx.WithCurrent(node, func() { content(cx, lens) })
	return Handle{cx: cx, node: node}
}

// register wires a binding node to the store for key at the nearest
// owner of a source model, creating and seeding the store on first use.
//
// Deduplication: when the store already has an observer that is an
// ancestor of this binding, the new binding is not registered. The
// ancestor's rebuild recreates this binding anyway, so a second
// registration would only schedule redundant rebuilds.
func (cx *Context) register(node id.NodeID, key binding.StoreKey, source reflect.Type, newStore func() binding.Store) {
	chain := storage.Ancestors(cx.tree, node)
	ancestors := make(map[id.NodeID]struct{}, len(chain))
	for _, a := range chain {
		ancestors[a] = struct{}{}
	}

	for _, owner := range chain {
		model := cx.modelAt(owner, source)
		if model == nil {
			continue
		}

		d := cx.dataAt(owner)
		if st, ok := d.stores[key]; ok {
			for _, ob := range st.Observers() {
				if _, covered := ancestors[ob]; covered {
					return
				}
			}
			st.AddObserver(node)
			return
		}

		st := newStore()
		// Seed the cache so the first store sweep diffs against the
		// value as of construction instead of reporting a change.
		st.Update(model)
		st.AddObserver(node)
		d.stores[key] = st
		return
	}

	panic(&MissingModelError{Source: source, Node: node})
}

// rebuild tears down everything the binding built and runs its content
// again against the current model state.
func (b *bindingView[S, T]) rebuild(cx *Context) {
	for _, child := range storage.Children(cx.tree, b.node) {
		cx.Remove(child)
	}
	cx.WithCurrent(b.node, func() { b.content(cx, b.lens) })
}

// release walks the binding's ancestor chain to the store it registered
// with and removes itself. A store with no observers left is dropped;
// the next binding over the same lens recreates it.
func (b *bindingView[S, T]) release(cx *Context, self id.NodeID) {
	key := b.lens.Key()
	for _, owner := range storage.Ancestors(cx.tree, self) {
		d, ok := cx.data.Get(owner)
		if !ok || d == nil {
			continue
		}
		st, ok := d.stores[key]
		if !ok {
			continue
		}
		st.RemoveObserver(self)
		if st.ObserverCount() == 0 {
			delete(d.stores, key)
		}
		return
	}
}
