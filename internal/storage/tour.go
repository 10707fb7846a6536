package storage

import (
	"github.com/roach88/trellis/internal/id"
)

// TourDirection is the phase of an Euler-tour visit. Every node is visited
// twice: once entering (before its children) and once leaving (after).
type TourDirection int

const (
	Entering TourDirection = iota
	Leaving
)

// TourStep tells the tour how to continue after a visit.
type TourStep int

const (
	// LeaveCurrent stays on the current node and flips it to leaving.
	// Only valid while entering.
	LeaveCurrent TourStep = iota
	// EnterFirstChild descends to the first child, or flips the current
	// node to leaving when it has none.
	EnterFirstChild
	// EnterLastChild descends to the last child, or flips the current
	// node to leaving when it has none.
	EnterLastChild
	// LeaveParent moves straight to the parent, leaving.
	LeaveParent
	// EnterNextSibling advances to the next sibling, or moves to the
	// parent (leaving) at the end of the sibling chain.
	EnterNextSibling
	// EnterPrevSibling advances to the previous sibling, or moves to the
	// parent (leaving) at the start of the chain.
	EnterPrevSibling
	// Break ends the tour.
	Break
)

// TourCallback is invoked at each visit. It reports whether the visited
// node should be yielded and which step the tour takes next.
type TourCallback func(node id.NodeID, direction TourDirection) (yield bool, step TourStep)

// TreeTour is a resumable Euler-tour cursor over a Tree. Iterators are
// thin callbacks over it; the callback decides the walk order, so forward,
// backward, and filtered traversals share one state machine.
type TreeTour struct {
	current   id.NodeID
	direction TourDirection
}

// NewTreeTour starts a tour entering at start. A null start is an already
// finished tour.
func NewTreeTour(start id.NodeID) TreeTour {
	return TreeTour{current: start, direction: Entering}
}

// NewTreeTourAt starts a tour at start in the given phase.
func NewTreeTourAt(start id.NodeID, direction TourDirection) TreeTour {
	return TreeTour{current: start, direction: direction}
}

// NextWith advances the tour until the callback yields a node or the tour
// finishes.
func (t *TreeTour) NextWith(tree *Tree, cb TourCallback) (id.NodeID, bool) {
	for !t.current.IsNull() {
		current := t.current
		yield, step := cb(current, t.direction)

		switch step {
		case LeaveCurrent:
			if t.direction != Entering {
				panic("storage: tree tour left the current node twice")
			}
			t.direction = Leaving
		case EnterFirstChild:
			if child := tree.FirstChild(current); !child.IsNull() {
				t.direction = Entering
				t.current = child
			} else {
				t.direction = Leaving
			}
		case EnterLastChild:
			if child := tree.LastChild(current); !child.IsNull() {
				t.direction = Entering
				t.current = child
			} else {
				t.direction = Leaving
			}
		case LeaveParent:
			t.direction = Leaving
			t.current = tree.Parent(current)
		case EnterNextSibling:
			if sibling := tree.NextSibling(current); !sibling.IsNull() {
				t.direction = Entering
				t.current = sibling
			} else {
				t.direction = Leaving
				t.current = tree.Parent(current)
			}
		case EnterPrevSibling:
			if sibling := tree.PrevSibling(current); !sibling.IsNull() {
				t.direction = Entering
				t.current = sibling
			} else {
				t.direction = Leaving
				t.current = tree.Parent(current)
			}
		case Break:
			t.current = id.Null
		}

		if yield {
			return current, true
		}
	}
	return id.Null, false
}

// DoubleEndedTreeTour pairs a forward and a backward tour over the same
// node sequence. Each side breaks when it reaches the other side's resting
// position with the opposite phase, so consuming from both ends yields
// every node exactly once.
//
// The two callbacks must traverse the same nodes in mutually reversed
// order, and a node yielded entering by one side must be yielded leaving
// by the other.
type DoubleEndedTreeTour struct {
	forward  TreeTour
	backward TreeTour
}

// NewDoubleEndedTreeTour starts the forward cursor at forwardStart and the
// backward cursor at backwardStart.
func NewDoubleEndedTreeTour(forwardStart, backwardStart id.NodeID) *DoubleEndedTreeTour {
	return &DoubleEndedTreeTour{
		forward:  NewTreeTour(forwardStart),
		backward: NewTreeTour(backwardStart),
	}
}

// NewDoubleEndedTreeTourSame starts both cursors on the same node. With a
// preorder callback pair this bounds the walk to start's subtree: the
// backward cursor resting at (start, entering) stops the forward cursor
// when it comes back to start leaving, and vice versa.
func NewDoubleEndedTreeTourSame(start id.NodeID) *DoubleEndedTreeTour {
	return &DoubleEndedTreeTour{
		forward:  NewTreeTour(start),
		backward: NewTreeTour(start),
	}
}

// NextWith advances the forward cursor.
func (d *DoubleEndedTreeTour) NextWith(tree *Tree, cb TourCallback) (id.NodeID, bool) {
	return d.forward.NextWith(tree, func(current id.NodeID, direction TourDirection) (bool, TourStep) {
		yield, step := cb(current, direction)
		if d.backward.current == current && d.backward.direction != direction {
			d.backward.current = id.Null
			return yield, Break
		}
		return yield, step
	})
}

// NextBackWith advances the backward cursor.
func (d *DoubleEndedTreeTour) NextBackWith(tree *Tree, cb TourCallback) (id.NodeID, bool) {
	return d.backward.NextWith(tree, func(current id.NodeID, direction TourDirection) (bool, TourStep) {
		yield, step := cb(current, direction)
		if d.forward.current == current && d.forward.direction != direction {
			d.forward.current = id.Null
			return yield, Break
		}
		return yield, step
	})
}
