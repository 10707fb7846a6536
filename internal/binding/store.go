package binding

import (
	"reflect"
	"sort"

	"github.com/roach88/trellis/internal/id"
)

// Store is the type-erased cache of one lens projection owned by the node
// that carries the source model. It remembers the last projected value and
// the set of binding nodes observing it.
type Store interface {
	// Update re-views the lens against the owner's model and reports
	// whether the cached value changed. A model of the wrong type is not
	// a change.
	Update(model any) bool

	// SourceType is the reflect type of the lens's source model pointer,
	// the type the owner's model is looked up by.
	SourceType() reflect.Type

	Key() StoreKey

	AddObserver(node id.NodeID)
	RemoveObserver(node id.NodeID)
	ObserverCount() int

	// HasObserver reports membership without allocating.
	HasObserver(node id.NodeID) bool

	// Observers returns a snapshot sorted by node index, the order
	// rebuilds run in.
	Observers() []id.NodeID
}

// NewStore builds a store over lens with an empty cache and no observers.
// The first Update seeds the cache; its return value is not meaningful as
// a change.
func NewStore[S, T any](lens Lens[S, T]) Store {
	return &basicStore[S, T]{
		lens:      lens,
		observers: make(map[id.NodeID]struct{}),
	}
}

type basicStore[S, T any] struct {
	lens      Lens[S, T]
	old       *T
	observers map[id.NodeID]struct{}
}

func (s *basicStore[S, T]) Update(model any) bool {
	source, ok := model.(*S)
	if !ok || source == nil {
		return false
	}

	changed := false
	s.lens.View(source, func(t *T) {
		if t == nil {
			// Projection failure: a held value disappearing is a change.
			changed = s.old != nil
			s.old = nil
			return
		}
		if s.old == nil || !Same(*s.old, *t) {
			fresh := Clone(*t)
			s.old = &fresh
			changed = true
		}
	})
	return changed
}

func (s *basicStore[S, T]) SourceType() reflect.Type {
	return reflect.TypeOf((*S)(nil))
}

func (s *basicStore[S, T]) Key() StoreKey {
	return s.lens.Key()
}

func (s *basicStore[S, T]) AddObserver(node id.NodeID) {
	s.observers[node] = struct{}{}
}

func (s *basicStore[S, T]) RemoveObserver(node id.NodeID) {
	delete(s.observers, node)
}

func (s *basicStore[S, T]) ObserverCount() int {
	return len(s.observers)
}

func (s *basicStore[S, T]) HasObserver(node id.NodeID) bool {
	_, ok := s.observers[node]
	return ok
}

func (s *basicStore[S, T]) Observers() []id.NodeID {
	out := make([]id.NodeID, 0, len(s.observers))
	for n := range s.observers {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Index() < out[j].Index()
	})
	return out
}
