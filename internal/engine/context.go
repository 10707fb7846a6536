package engine

import (
	"fmt"
	"reflect"

	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/id"
	"github.com/roach88/trellis/internal/storage"
)

// DefaultMaxPasses is the default pass quota per update cycle.
// This prevents a self-triggering binding from spinning forever.
const DefaultMaxPasses = 64

// Context owns the node tree and everything attached to it: views,
// models, and the stores that watch them.
//
// CRITICAL: All mutations happen on the goroutine running the update
// cycle. External callers submit work through EmitEvent; everything
// else on Context is single-threaded.
//
// The cursor (Current) points at the node that building and event
// handling currently target. Builders run with the cursor on the node
// being built; event handlers run with it on the node being delivered
// to.
type Context struct {
	ids   *id.Manager
	tree  *storage.Tree
	views *storage.SparseSet[View]
	data  *storage.SparseSet[*nodeData]
	queue *eventQueue
	clock *Clock

	current   id.NodeID
	maxPasses int
	pass      int
	sink      TraceSink
}

// nodeData carries what a node owns: its models keyed by element type,
// and the stores caching lens projections out of those models.
type nodeData struct {
	models map[reflect.Type]Model
	stores map[binding.StoreKey]binding.Store
}

// Option configures a Context at construction.
type Option func(*Context)

// WithMaxPasses overrides the pass quota per update cycle.
//
// Default: 64 passes (DefaultMaxPasses)
// Use WithMaxPasses(4) to test divergence handling.
func WithMaxPasses(n int) Option {
	return func(cx *Context) {
		if n > 0 {
			cx.maxPasses = n
		}
	}
}

// WithTraceSink wires a sink that records every dispatched event, store
// change, and rebuild. A nil sink disables tracing.
func WithTraceSink(sink TraceSink) Option {
	return func(cx *Context) {
		cx.sink = sink
	}
}

// WithKeySource installs the source of unique store keys. The source is
// process-wide, since lenses are constructed wherever application code
// runs; routing it through an option keeps deterministic runs to one
// configuration point. Lenses constructed before this option applies
// keep their old keys.
func WithKeySource(ks binding.KeySource) Option {
	return func(*Context) {
		binding.SetKeySource(ks)
	}
}

// NewContext creates a context holding only the root node, with the
// cursor on it.
func NewContext(opts ...Option) *Context {
	cx := &Context{
		ids:       id.NewManager(),
		tree:      storage.NewTree(),
		views:     storage.NewSparseSet[View](),
		data:      storage.NewSparseSet[*nodeData](),
		queue:     newEventQueue(),
		clock:     NewClock(),
		maxPasses: DefaultMaxPasses,
	}

	// The manager's first id is always the root.
	cx.current = cx.ids.Create()

	for _, opt := range opts {
		opt(cx)
	}

	return cx
}

// Mount runs builder with the cursor on the root node. The usual shape:
//
//	cx := engine.NewContext()
//	cx.Mount(func(cx *engine.Context) {
//	    engine.BuildModel(cx, &Counter{})
//	    engine.NewLabel(cx, engine.FromLens(countText))
//	})
func (cx *Context) Mount(builder func(cx *Context)) {
	cx.WithCurrent(id.Root, func() { builder(cx) })
}

// Current returns the node the context cursor points at.
func (cx *Context) Current() id.NodeID {
	return cx.current
}

// Root returns the root node's id.
func (cx *Context) Root() id.NodeID {
	return id.Root
}

// WithCurrent moves the cursor to node for the duration of fn and
// restores it afterwards, panics included.
func (cx *Context) WithCurrent(node id.NodeID, fn func()) {
	prev := cx.current
	cx.current = node
	defer func() { cx.current = prev }()
	fn()
}

// IsAlive reports whether node exists and its generation is current.
func (cx *Context) IsAlive(node id.NodeID) bool {
	return cx.ids.IsAlive(node)
}

// ViewAt returns the view attached to node, if any.
func (cx *Context) ViewAt(node id.NodeID) (View, bool) {
	return cx.views.Get(node)
}

// Tree exposes the link structure for traversal and dumps. Callers must
// not mutate it.
func (cx *Context) Tree() *storage.Tree {
	return cx.tree
}

// VisibleChildren returns node's children with structural nodes
// flattened away: an ignored child is replaced by its own visible
// children, recursively. Bindings are ignored nodes, so the views they
// build appear as direct children of the binding's parent.
func (cx *Context) VisibleChildren(node id.NodeID) []id.NodeID {
	var out []id.NodeID
	var walk func(n id.NodeID)
	walk = func(n id.NodeID) {
		for _, c := range storage.Children(cx.tree, n) {
			if cx.tree.IsIgnored(c) {
				walk(c)
			} else {
				out = append(out, c)
			}
		}
	}
	walk(node)
	return out
}

// DataFor resolves the nearest source value of type t, walking from the
// current node to the root. Models win over views on the same node; the
// unit type always resolves so lenses over no real source still bind.
//
// Returns the value as stored (a pointer), or nil when nothing in scope
// carries one.
func (cx *Context) DataFor(t reflect.Type) any {
	for _, n := range storage.Ancestors(cx.tree, cx.current) {
		if m := cx.modelAt(n, t); m != nil {
			return m
		}
	}
	return nil
}

var unitType = reflect.TypeOf((*struct{})(nil)).Elem()

// unitValue backs lenses over the unit source. Zero-sized, so sharing
// one address is safe.
var unitValue struct{}

// modelAt returns the source value node offers for type t: an owned
// model first, the node's own view second. The unit type resolves on
// every node.
func (cx *Context) modelAt(node id.NodeID, t reflect.Type) any {
	if t == unitType {
		return &unitValue
	}
	if d, ok := cx.data.Get(node); ok && d != nil {
		if m, ok := d.models[t]; ok {
			return m
		}
	}
	if v, ok := cx.views.Get(node); ok && v != nil {
		vt := reflect.TypeOf(v)
		if vt.Kind() == reflect.Pointer && vt.Elem() == t {
			return v
		}
	}
	return nil
}

// dataAt returns node's data entry, creating it on first use.
func (cx *Context) dataAt(node id.NodeID) *nodeData {
	if d, ok := cx.data.Get(node); ok && d != nil {
		return d
	}
	d := &nodeData{
		models: make(map[reflect.Type]Model),
		stores: make(map[binding.StoreKey]binding.Store),
	}
	cx.data.Insert(node, d)
	return d
}

// newNode creates a node under parent. Tree placement failures are
// invariant violations, not recoverable conditions.
func (cx *Context) newNode(parent id.NodeID) id.NodeID {
	node := cx.ids.Create()
	if err := cx.tree.Add(node, parent); err != nil {
		panic(fmt.Sprintf("engine: add node %s under %s: %v", node, parent, err))
	}
	return node
}

// Remove tears down node and its whole subtree: bindings release their
// store registrations, views and data are dropped, and every id is
// retired. Removing an already dead node is a no-op.
func (cx *Context) Remove(node id.NodeID) {
	if node == id.Root {
		panic("engine: cannot remove the root node")
	}
	if !cx.ids.IsAlive(node) {
		return
	}

	removed := storage.Subtree(cx.tree, node)

	// Bottom-up, so each binding's ancestor chain is intact when it
	// walks it to find its store.
	for i := len(removed) - 1; i >= 0; i-- {
		n := removed[i]
		if v, ok := cx.views.Get(n); ok {
			if obs, ok := v.(storeObserver); ok {
				obs.release(cx, n)
			}
		}
		cx.views.Remove(n)
		cx.data.Remove(n)
		cx.ids.Destroy(n)
	}

	if _, err := cx.tree.Remove(node); err != nil {
		panic(fmt.Sprintf("engine: remove node %s: %v", node, err))
	}
}

// Stop closes the event queue. Run drains what is already queued and
// returns; later emits report false.
func (cx *Context) Stop() {
	cx.queue.Close()
}

// NodeCount returns the number of live nodes, root included.
func (cx *Context) NodeCount() int {
	return cx.ids.Alive()
}

// StoreCount returns the total number of stores across all nodes.
func (cx *Context) StoreCount() int {
	count := 0
	cx.data.Each(func(_ id.NodeID, d **nodeData) {
		count += len((*d).stores)
	})
	return count
}

// ObserverCount returns the total number of store observer
// registrations across all nodes.
func (cx *Context) ObserverCount() int {
	count := 0
	cx.data.Each(func(_ id.NodeID, d **nodeData) {
		for _, st := range (*d).stores {
			count += st.ObserverCount()
		}
	})
	return count
}

// QueueLen returns the number of pending events.
// Useful for monitoring and testing.
func (cx *Context) QueueLen() int {
	return cx.queue.Len()
}

// MaxPasses returns the configured pass quota.
func (cx *Context) MaxPasses() int {
	return cx.maxPasses
}
