// Package engine hosts the retained node tree and the reactive update
// cycle that keeps it consistent with application models.
//
// ARCHITECTURE:
//
// Single-Writer Update Cycle:
// All tree mutation, event delivery, and store diffing happen on one
// goroutine, the one that calls Run or RunOnce. This ensures:
// - Deliveries and rebuilds happen in a predictable order
// - Two runs of the same inputs produce the same trace
// - No locks around the tree or the stores
//
// A cycle is a sequence of passes. Each pass:
//  1. Flushes the events queued at pass start, in FIFO order. Every
//     event routes to its target's view first, then the target's
//     models, then onward along its propagation path until consumed.
//  2. Re-views every store against its owner's model and diffs the
//     result against the cached copy.
//  3. Rebuilds the observers of every changed store, in node index
//     order. A rebuild tears the binding's subtree down and runs its
//     builder again.
//
// Passes repeat until one completes with no events and no changes. A
// cycle that keeps finding work past the pass quota halts with
// UpdateLoopError; the usual culprit is a builder that mutates the
// model it is bound to.
//
// Events may be enqueued from any goroutine via EmitEvent. Everything
// else on Context belongs to the engine goroutine.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every event is stamped with a monotonic seq from Clock.Next() when
// emitted. Ordering never consults wall-clock time.
//
// Deterministic Scheduling:
// Stores update in sorted key order, rebuilds run in node index order,
// and model delivery on a node follows type name order. No map
// iteration order leaks into observable behavior.
package engine
