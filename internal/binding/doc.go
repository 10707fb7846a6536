// Package binding implements the reactive core of trellis: composable
// lenses that project values out of model types, change detection over
// those projections, and the stores that cache a projection per owner
// node and fan changes out to observing binding nodes.
//
// A Lens[S, T] is a read-only path from a source model S to a target T,
// expressed in continuation-passing style: View hands the continuation a
// pointer into the model, or nil when the projection fails (index out of
// bounds, nil pointer). Lenses compose with Then and friends; composition
// short-circuits failure.
//
// Every lens carries a StoreKey that decides store sharing. Stateless
// zero-sized lens types are keyed by their type, so every instance shares
// one store per owner node. Lenses that close over state (field getters,
// map closures, indices) get a unique key minted once at construction:
// reusing the lens variable shares the store, constructing an equivalent
// lens again does not.
//
// A Store caches one projection's last value and compares re-projections
// with Same, a cheap type-aware equality: floats by bit pattern, pointers
// by identity, containers elementwise. Values entering the cache are
// copied with Clone, which gives slice and map spines fresh backing so
// later in-place model mutation cannot alias the cache.
package binding
