package storage

import (
	"github.com/roach88/trellis/internal/id"
)

// TreeIterator walks a tree in depth-first preorder. It can be consumed
// from both ends; the two cursors meet in the middle without repeating a
// node.
type TreeIterator struct {
	tree  *Tree
	tours *DoubleEndedTreeTour
}

// FullTreeIterator iterates the whole tree starting at the root.
func FullTreeIterator(tree *Tree) *TreeIterator {
	return SubtreeIterator(tree, id.Root)
}

// SubtreeIterator iterates root's subtree in preorder, root included.
func SubtreeIterator(tree *Tree, root id.NodeID) *TreeIterator {
	return &TreeIterator{tree: tree, tours: NewDoubleEndedTreeTourSame(root)}
}

// Next yields the next node front to back.
func (it *TreeIterator) Next() (id.NodeID, bool) {
	return it.tours.NextWith(it.tree, func(node id.NodeID, direction TourDirection) (bool, TourStep) {
		if direction == Entering {
			return true, EnterFirstChild
		}
		return false, EnterNextSibling
	})
}

// NextBack yields the next node back to front.
func (it *TreeIterator) NextBack() (id.NodeID, bool) {
	return it.tours.NextBackWith(it.tree, func(node id.NodeID, direction TourDirection) (bool, TourStep) {
		if direction == Entering {
			return false, EnterLastChild
		}
		return true, EnterPrevSibling
	})
}

// ChildIterator walks the direct children of one node, from both ends.
type ChildIterator struct {
	tree  *Tree
	tours *DoubleEndedTreeTour
}

// NewChildIterator iterates the children of parent.
func NewChildIterator(tree *Tree, parent id.NodeID) *ChildIterator {
	return &ChildIterator{
		tree:  tree,
		tours: NewDoubleEndedTreeTour(tree.FirstChild(parent), tree.LastChild(parent)),
	}
}

// Next yields the next child front to back.
func (it *ChildIterator) Next() (id.NodeID, bool) {
	return it.tours.NextWith(it.tree, func(node id.NodeID, direction TourDirection) (bool, TourStep) {
		if direction == Entering {
			return true, LeaveCurrent
		}
		return false, EnterNextSibling
	})
}

// NextBack yields the next child back to front.
func (it *ChildIterator) NextBack() (id.NodeID, bool) {
	return it.tours.NextBackWith(it.tree, func(node id.NodeID, direction TourDirection) (bool, TourStep) {
		if direction == Entering {
			return false, LeaveCurrent
		}
		return true, EnterPrevSibling
	})
}

// ParentIterator yields a node and then each of its ancestors up to the
// root.
type ParentIterator struct {
	tree    *Tree
	current id.NodeID
}

// NewParentIterator starts the ancestor walk at node itself.
func NewParentIterator(tree *Tree, node id.NodeID) *ParentIterator {
	return &ParentIterator{tree: tree, current: node}
}

// Next yields the current node and moves to its parent.
func (it *ParentIterator) Next() (id.NodeID, bool) {
	node := it.current
	if node.IsNull() {
		return id.Null, false
	}
	it.current = it.tree.Parent(node)
	return node, true
}

// Children collects parent's direct children, in order.
func Children(tree *Tree, parent id.NodeID) []id.NodeID {
	var out []id.NodeID
	it := NewChildIterator(tree, parent)
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		out = append(out, n)
	}
	return out
}

// Subtree collects root's subtree in preorder, root first.
func Subtree(tree *Tree, root id.NodeID) []id.NodeID {
	var out []id.NodeID
	it := SubtreeIterator(tree, root)
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		out = append(out, n)
	}
	return out
}

// Ancestors collects node and every ancestor up to the root, nearest
// first.
func Ancestors(tree *Tree, node id.NodeID) []id.NodeID {
	var out []id.NodeID
	it := NewParentIterator(tree, node)
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		out = append(out, n)
	}
	return out
}
