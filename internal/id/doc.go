// Package id provides generational node identities for the trellis tree.
//
// A NodeID packs a 48-bit slot index and a 16-bit generation into one
// uint64. The index addresses parallel storage (tree links, sparse sets);
// the generation distinguishes successive occupants of the same slot, so a
// handle held across a destroy/create cycle reads as dead instead of
// silently aliasing the new occupant.
//
// The Manager hands out ids and recycles indices FIFO, but only once the
// free list has grown past a minimum size. That spreads generation bumps
// across many slots and keeps the 16-bit generation from wrapping quickly
// under churn on a single index.
//
// All Manager methods assume the engine's single-writer discipline; the
// Manager itself is not safe for concurrent use.
package id
