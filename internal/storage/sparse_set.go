package storage

import (
	"github.com/roach88/trellis/internal/id"
)

// none marks an empty sparse slot.
const none = -1

type entry[T any] struct {
	key   id.NodeID
	value T
}

// SparseSet maps NodeIDs to values of type T.
//
// The sparse slice maps a node's slot index to a position in the dense
// slice; the dense slice packs {key, value} entries contiguously. Lookups
// verify the stored key against the full generational id, so handles from
// a previous occupant of a recycled slot read as absent.
type SparseSet[T any] struct {
	sparse []int
	dense  []entry[T]
}

// NewSparseSet returns an empty set.
func NewSparseSet[T any]() *SparseSet[T] {
	return &SparseSet[T]{}
}

// denseIndex resolves key to its dense position. Reports false for null,
// unmapped, or stale-generation keys.
func (s *SparseSet[T]) denseIndex(key id.NodeID) (int, bool) {
	if key.IsNull() {
		return 0, false
	}
	i := key.Index()
	if i >= len(s.sparse) {
		return 0, false
	}
	d := s.sparse[i]
	if d == none || d >= len(s.dense) || s.dense[d].key != key {
		return 0, false
	}
	return d, true
}

// Contains reports whether the set holds a value for key.
func (s *SparseSet[T]) Contains(key id.NodeID) bool {
	_, ok := s.denseIndex(key)
	return ok
}

// Get returns the value for key.
func (s *SparseSet[T]) Get(key id.NodeID) (T, bool) {
	if d, ok := s.denseIndex(key); ok {
		return s.dense[d].value, true
	}
	var zero T
	return zero, false
}

// Insert stores value under key, overwriting any existing value for the
// slot. A slot last owned by a dead generation is rebound to the new key.
// Panics on a null key; storing data against no node is a programming
// error.
func (s *SparseSet[T]) Insert(key id.NodeID, value T) {
	if key.IsNull() {
		panic("storage: sparse set insert with null key")
	}

	i := key.Index()
	if i >= len(s.sparse) {
		grown := make([]int, i+1)
		copy(grown, s.sparse)
		for j := len(s.sparse); j <= i; j++ {
			grown[j] = none
		}
		s.sparse = grown
	}

	if d := s.sparse[i]; d != none && d < len(s.dense) && s.dense[d].key.Index() == i {
		s.dense[d].key = key
		s.dense[d].value = value
		return
	}

	s.sparse[i] = len(s.dense)
	s.dense = append(s.dense, entry[T]{key: key, value: value})
}

// Remove deletes the value for key and returns it. Stale or unmapped keys
// remove nothing.
//
// The last dense entry is swapped into the vacated position and its sparse
// back-pointer repaired, keeping the dense slice contiguous.
func (s *SparseSet[T]) Remove(key id.NodeID) (T, bool) {
	d, ok := s.denseIndex(key)
	if !ok {
		var zero T
		return zero, false
	}

	removed := s.dense[d].value
	last := len(s.dense) - 1
	if d != last {
		s.dense[d] = s.dense[last]
		s.sparse[s.dense[d].key.Index()] = d
	}
	var zero entry[T]
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.sparse[key.Index()] = none

	return removed, true
}

// Len returns the number of stored entries.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// Each calls fn for every entry in insertion order, passing a pointer to
// the stored value so callers can mutate in place. fn must not insert or
// remove entries.
func (s *SparseSet[T]) Each(fn func(key id.NodeID, value *T)) {
	for i := range s.dense {
		fn(s.dense[i].key, &s.dense[i].value)
	}
}

// Clear drops all entries and releases their backing storage.
func (s *SparseSet[T]) Clear() {
	s.sparse = nil
	s.dense = nil
}
