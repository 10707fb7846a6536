package storage

import "errors"

var (
	// ErrNullNode is returned when a tree operation is given the null id.
	ErrNullNode = errors.New("storage: null node")

	// ErrInvalidParent is returned by Add when the parent is null or has
	// never been linked into the tree.
	ErrInvalidParent = errors.New("storage: invalid parent")

	// ErrAlreadyLinked is returned by Add when the node already has a
	// parent. Reparenting requires removing the node first.
	ErrAlreadyLinked = errors.New("storage: node already linked")

	// ErrNotInTree is returned by Remove when the node's slot is outside
	// the tree's range.
	ErrNotInTree = errors.New("storage: node not in tree")
)
