package engine

import (
	"log/slog"
	"reflect"
	"sort"

	"github.com/roach88/trellis/internal/id"
	"github.com/roach88/trellis/internal/storage"
)

// Propagation selects the path an event takes through the tree.
type Propagation int

const (
	// Up delivers to the target, then to each ancestor toward the root.
	Up Propagation = iota
	// Subtree delivers to the target, then to its descendants in tree
	// order.
	Subtree
	// Direct delivers to the target only.
	Direct
)

// String returns the propagation name used in traces.
func (p Propagation) String() string {
	switch p {
	case Up:
		return "up"
	case Subtree:
		return "subtree"
	case Direct:
		return "direct"
	default:
		return "unknown"
	}
}

// Event is a message in flight through the tree. Along its propagation
// path, each node's view sees it first, then the node's models, until a
// handler consumes it.
//
// The zero Message is allowed but useless; handlers dispatch on the
// payload's dynamic type.
type Event struct {
	// Origin is the node whose handler or builder emitted the event.
	Origin id.NodeID

	// Target is the node the propagation path starts from.
	Target id.NodeID

	// Propagation selects the delivery path. The zero value is Up.
	Propagation Propagation

	// Message is the payload.
	Message any

	seq      int64
	consumed bool
}

// Consume stops further delivery of the event.
func (e *Event) Consume() {
	e.consumed = true
}

// Consumed reports whether a handler consumed the event.
func (e *Event) Consumed() bool {
	return e.consumed
}

// Seq returns the clock stamp assigned when the event was emitted.
func (e *Event) Seq() int64 {
	return e.seq
}

// Emit queues a message from the current node, propagating up toward
// the root. Handlers and builders call this; it reads the context
// cursor and so belongs to the engine goroutine.
//
// Returns false if the engine has been stopped.
func (cx *Context) Emit(message any) bool {
	return cx.EmitEvent(Event{
		Origin:      cx.current,
		Target:      cx.current,
		Propagation: Up,
		Message:     message,
	})
}

// EmitTo queues a message delivered to target only.
//
// Returns false if the engine has been stopped.
func (cx *Context) EmitTo(target id.NodeID, message any) bool {
	return cx.EmitEvent(Event{
		Origin:      cx.current,
		Target:      target,
		Propagation: Direct,
		Message:     message,
	})
}

// EmitEvent stamps the event with the next clock seq and queues it.
// Thread-safe: external goroutines use this with explicit Origin and
// Target instead of Emit.
//
// Returns false if the engine has been stopped.
func (cx *Context) EmitEvent(e Event) bool {
	e.seq = cx.clock.Next()
	return cx.queue.Enqueue(e)
}

// dispatch routes one dequeued event along its propagation path.
// Called only from the update cycle.
func (cx *Context) dispatch(e *Event, pass int) {
	cx.traceEvent(pass, e)

	if !cx.ids.IsAlive(e.Target) {
		slog.Debug("dropping event for dead target",
			"seq", e.seq,
			"target", e.Target,
			"message", messageName(e.Message),
		)
		return
	}

	switch e.Propagation {
	case Direct:
		cx.deliver(e, e.Target)

	case Subtree:
		for _, n := range storage.Subtree(cx.tree, e.Target) {
			cx.deliver(e, n)
			if e.consumed {
				return
			}
		}

	default: // Up
		for _, n := range storage.Ancestors(cx.tree, e.Target) {
			cx.deliver(e, n)
			if e.consumed {
				return
			}
		}
	}
}

// deliver hands the event to one node: its view first, then its models
// in type name order. Nodes removed by an earlier handler are skipped.
func (cx *Context) deliver(e *Event, node id.NodeID) {
	if !cx.ids.IsAlive(node) {
		return
	}

	if v, ok := cx.views.Get(node); ok && v != nil {
		cx.WithCurrent(node, func() { v.Event(cx, e) })
		if e.consumed {
			return
		}
	}

	d, ok := cx.data.Get(node)
	if !ok || d == nil || len(d.models) == 0 {
		return
	}
	for _, t := range sortedModelTypes(d.models) {
		m := d.models[t]
		cx.WithCurrent(node, func() { m.Event(cx, e) })
		if e.consumed {
			return
		}
	}
}

// sortedModelTypes orders a node's model types by name so delivery and
// traces never depend on map iteration order.
func sortedModelTypes(models map[reflect.Type]Model) []reflect.Type {
	types := make([]reflect.Type, 0, len(models))
	for t := range models {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}
