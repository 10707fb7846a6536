package engine

import (
	"fmt"
	"reflect"
)

// Model is application state that receives events. Mutating the model
// inside Event is how state changes; the store sweep after the event
// flush picks the mutation up and rebuilds whatever was watching.
type Model interface {
	Event(cx *Context, e *Event)
}

// BuildModel attaches model to the current node, keyed by its element
// type. Lenses with that source type resolve against it from anywhere
// in the node's subtree.
//
// The model must be a pointer. A value copy would swallow every
// mutation its Event handler makes, so non-pointer models panic.
// Building a second model of the same type on one node replaces the
// first.
func BuildModel(cx *Context, model Model) {
	if model == nil {
		panic("engine: nil model")
	}
	t := reflect.TypeOf(model)
	if t.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("engine: model %s must be a pointer", t))
	}
	d := cx.dataAt(cx.current)
	d.models[t.Elem()] = model
}
