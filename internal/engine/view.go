package engine

import (
	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/id"
)

// View is something attached to a node that can build children and
// handle events.
type View interface {
	// Element names the view kind for dumps and debugging.
	Element() string

	// Body builds the view's children. It runs once at Build time with
	// the cursor on the view's node.
	Body(cx *Context)

	// Event receives every event delivered to the view's node. Call
	// e.Consume to stop propagation.
	Event(cx *Context, e *Event)
}

// Base is the no-op View for embedding. Override what the view needs.
type Base struct{}

func (Base) Element() string        { return "view" }
func (Base) Body(*Context)          {}
func (Base) Event(*Context, *Event) {}

// Handle refers to a built node for follow-up calls on it.
type Handle struct {
	cx   *Context
	node id.NodeID
}

// Node returns the built node's id.
func (h Handle) Node() id.NodeID {
	return h.node
}

// Ignore marks the node as structural only: VisibleChildren and tree
// dumps skip it and show its children in its place.
func (h Handle) Ignore() Handle {
	h.cx.tree.SetIgnored(h.node, true)
	return h
}

// Build attaches v to a fresh node under the current one, runs the
// view's Body and then the optional content closure with the cursor on
// the new node.
func Build(cx *Context, v View, content func(cx *Context)) Handle {
	node := cx.newNode(cx.current)
	cx.views.Insert(node, v)
	cx.WithCurrent(node, func() {
		v.Body(cx)
		if content != nil {
			content(cx)
		}
	})
	return Handle{cx: cx, node: node}
}

// Group is a plain container.
type Group struct{ Base }

func (*Group) Element() string { return "group" }

// NewGroup builds a container whose children come from content.
func NewGroup(cx *Context, content func(cx *Context)) Handle {
	return Build(cx, &Group{}, content)
}

// Label shows a line of text, fixed or lens-driven.
type Label struct {
	Base
	text  Res[string]
	value string
}

func (*Label) Element() string { return "label" }

// NewLabel builds a label. Pass Lit for fixed text or FromLens to keep
// the text in step with a model.
func NewLabel(cx *Context, text Res[string]) Handle {
	return Build(cx, &Label{text: text}, nil)
}

func (l *Label) Body(cx *Context) {
	l.text.SetOrBind(cx, cx.Current(), func(_ *Context, _ id.NodeID, value string) {
		l.value = value
	})
}

// Text returns the most recently applied text.
func (l *Label) Text() string {
	return l.value
}

// List is the container NewList builds items under.
type List struct{ Base }

func (*List) Element() string { return "list" }

// NewList builds one item per element of a slice lens and rebuilds the
// whole run when the slice changes: element edits, growth, and
// shrinkage all count.
//
// item receives the element's index and a lens projecting that element
// out of the same source.
func NewList[S, T any](cx *Context, lens binding.Lens[S, []T], item func(cx *Context, index int, item binding.Lens[S, T])) Handle {
	return Build(cx, &List{}, func(cx *Context) {
		NewBinding(cx, lens, func(cx *Context, lens binding.Lens[S, []T]) {
			items, _ := binding.TryGet(cx, lens)
			for i := range items {
				item(cx, i, binding.Index(lens, i))
			}
		})
	})
}
