package storage

import (
	"github.com/roach88/trellis/internal/id"
)

// Tree stores the node hierarchy as parallel link slices indexed by a
// node's slot. Absent links are id.Null. Slot 0 is the root and exists
// from construction.
//
// The tree is index-addressed: it does not check generations itself.
// Callers that may hold stale handles pair it with id.Manager.IsAlive.
type Tree struct {
	parent      []id.NodeID
	firstChild  []id.NodeID
	nextSibling []id.NodeID
	prevSibling []id.NodeID
	ignored     []bool
}

// NewTree returns a tree containing only the root.
func NewTree() *Tree {
	return &Tree{
		parent:      []id.NodeID{id.Null},
		firstChild:  []id.NodeID{id.Null},
		nextSibling: []id.NodeID{id.Null},
		prevSibling: []id.NodeID{id.Null},
		ignored:     []bool{false},
	}
}

func (t *Tree) lookup(links []id.NodeID, node id.NodeID) id.NodeID {
	if node.IsNull() {
		return id.Null
	}
	i := node.Index()
	if i >= len(links) {
		return id.Null
	}
	return links[i]
}

// Parent returns node's parent, or Null.
func (t *Tree) Parent(node id.NodeID) id.NodeID {
	return t.lookup(t.parent, node)
}

// FirstChild returns node's first child, or Null.
func (t *Tree) FirstChild(node id.NodeID) id.NodeID {
	return t.lookup(t.firstChild, node)
}

// NextSibling returns the sibling after node, or Null.
func (t *Tree) NextSibling(node id.NodeID) id.NodeID {
	return t.lookup(t.nextSibling, node)
}

// PrevSibling returns the sibling before node, or Null.
func (t *Tree) PrevSibling(node id.NodeID) id.NodeID {
	return t.lookup(t.prevSibling, node)
}

// LastChild walks the sibling chain from the first child and returns the
// final entry, or Null when node has no children.
func (t *Tree) LastChild(node id.NodeID) id.NodeID {
	last := id.Null
	for c := t.FirstChild(node); !c.IsNull(); c = t.nextSibling[c.Index()] {
		last = c
	}
	return last
}

// Contains reports whether node currently occupies a linked slot. The root
// always does. Note this is by slot, not generation.
func (t *Tree) Contains(node id.NodeID) bool {
	if node.IsNull() {
		return false
	}
	i := node.Index()
	if i >= len(t.parent) {
		return false
	}
	return i == 0 || !t.parent[i].IsNull()
}

// IsIgnored reports the node's ignored flag. Ignored nodes are structural
// wrappers (binding nodes) that presentation layers look through.
func (t *Tree) IsIgnored(node id.NodeID) bool {
	if node.IsNull() {
		return false
	}
	i := node.Index()
	return i < len(t.ignored) && t.ignored[i]
}

// SetIgnored sets the node's ignored flag. Out-of-range nodes are a no-op.
func (t *Tree) SetIgnored(node id.NodeID, flag bool) {
	if node.IsNull() {
		return
	}
	if i := node.Index(); i < len(t.ignored) {
		t.ignored[i] = flag
	}
}

// Add links node as the last child of parent.
func (t *Tree) Add(node, parent id.NodeID) error {
	if node.IsNull() {
		return ErrNullNode
	}
	if parent.IsNull() || parent.Index() >= len(t.parent) {
		return ErrInvalidParent
	}

	i := node.Index()
	if i < len(t.parent) && !t.parent[i].IsNull() {
		return ErrAlreadyLinked
	}
	t.grow(i)

	t.parent[i] = parent
	t.firstChild[i] = id.Null
	t.nextSibling[i] = id.Null
	t.prevSibling[i] = id.Null
	t.ignored[i] = false

	pi := parent.Index()
	if t.firstChild[pi].IsNull() {
		t.firstChild[pi] = node
		return nil
	}

	last := t.firstChild[pi]
	for !t.nextSibling[last.Index()].IsNull() {
		last = t.nextSibling[last.Index()]
	}
	t.nextSibling[last.Index()] = node
	t.prevSibling[i] = last

	return nil
}

// Remove unlinks node and its whole descendant subtree, clearing their
// slots, and returns the removed nodes in depth-first preorder (node
// first). Sibling and first-child links around the removal point are
// repaired.
func (t *Tree) Remove(node id.NodeID) ([]id.NodeID, error) {
	if node.IsNull() {
		return nil, ErrNullNode
	}
	if node.Index() >= len(t.parent) {
		return nil, ErrNotInTree
	}

	removed := Subtree(t, node)

	// Unlink leaves first so every repair sees intact ancestors.
	for i := len(removed) - 1; i >= 0; i-- {
		t.unlink(removed[i])
	}

	return removed, nil
}

// unlink detaches one node, repairing the neighbour links that point at it.
func (t *Tree) unlink(node id.NodeID) {
	i := node.Index()

	if p := t.parent[i]; !p.IsNull() && t.firstChild[p.Index()] == node {
		t.firstChild[p.Index()] = t.nextSibling[i]
	}
	if ps := t.prevSibling[i]; !ps.IsNull() {
		t.nextSibling[ps.Index()] = t.nextSibling[i]
	}
	if ns := t.nextSibling[i]; !ns.IsNull() {
		t.prevSibling[ns.Index()] = t.prevSibling[i]
	}

	t.parent[i] = id.Null
	t.firstChild[i] = id.Null
	t.nextSibling[i] = id.Null
	t.prevSibling[i] = id.Null
	t.ignored[i] = false
}

func (t *Tree) grow(index int) {
	for len(t.parent) <= index {
		t.parent = append(t.parent, id.Null)
		t.firstChild = append(t.firstChild, id.Null)
		t.nextSibling = append(t.nextSibling, id.Null)
		t.prevSibling = append(t.prevSibling, id.Null)
		t.ignored = append(t.ignored, false)
	}
}
