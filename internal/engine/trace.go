package engine

import (
	"reflect"

	"github.com/roach88/trellis/internal/id"
)

// TraceSink receives a record of everything an update cycle does, in
// the order it happens. Sinks let the harness assert on engine behavior
// and let replay compare two runs of the same scenario row by row.
//
// Passes are numbered from 1 and keep counting across update cycles on
// one context, so (pass, seq) and the per-pass natural keys stay unique
// for the life of a run. All methods are called from the engine
// goroutine. A nil sink on the context disables tracing entirely.
type TraceSink interface {
	// EventDispatched fires once per dequeued event, before delivery.
	EventDispatched(pass int, seq int64, origin, target id.NodeID, propagation Propagation, message string)

	// StoreChanged fires when a store's cached value changed during the
	// store sweep. observers is the store's observer count at that
	// moment.
	StoreChanged(pass int, owner id.NodeID, key string, observers int)

	// ObserverRebuilt fires just before a binding rebuilds its subtree.
	ObserverRebuilt(pass int, node id.NodeID)

	// PassEnded fires at the end of every pass with the pass totals.
	PassEnded(pass int, events, changes, rebuilds int)
}

// messageName names an event payload for traces and logs. Handlers
// switch on payload type, so the type name is the interesting part.
func messageName(message any) string {
	if message == nil {
		return "<nil>"
	}
	return reflect.TypeOf(message).String()
}

func (cx *Context) traceEvent(pass int, e *Event) {
	if cx.sink == nil {
		return
	}
	cx.sink.EventDispatched(pass, e.seq, e.Origin, e.Target, e.Propagation, messageName(e.Message))
}

func (cx *Context) traceStoreChanged(pass int, owner id.NodeID, key string, observers int) {
	if cx.sink == nil {
		return
	}
	cx.sink.StoreChanged(pass, owner, key, observers)
}

func (cx *Context) traceRebuild(pass int, node id.NodeID) {
	if cx.sink == nil {
		return
	}
	cx.sink.ObserverRebuilt(pass, node)
}

func (cx *Context) tracePassEnded(pass, events, changes, rebuilds int) {
	if cx.sink == nil {
		return
	}
	cx.sink.PassEnded(pass, events, changes, rebuilds)
}
