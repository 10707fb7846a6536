// Package storage holds the node-indexed data structures under the trellis
// engine: sparse sets for per-node data and the linked tree with its
// Euler-tour traversal.
//
// SparseSet maps NodeIDs to values with O(1) get, insert and remove. Dense
// entries remember the full generational key, so a lookup with a stale
// handle (destroyed node, recycled index) reads as absent rather than
// returning the new occupant's data.
//
// Tree stores the hierarchy as parallel link slices (parent, first child,
// next and previous sibling) indexed by NodeID slot. Traversal is built
// from TreeTour, an Euler-tour state machine that visits each node twice
// (entering and leaving); TreeIterator, ChildIterator and ParentIterator
// are thin callbacks over it. DoubleEndedTreeTour pairs a forward and a
// backward tour that stop when they meet, so a subtree can be consumed
// from both ends with every node yielded exactly once.
//
// Nothing in this package is safe for concurrent use; the engine mutates
// it from a single goroutine.
package storage
