package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/id"
)

// PassStats totals what an update cycle did.
type PassStats struct {
	// Passes is the number of passes the cycle ran, always at least 1.
	Passes int

	// Events is the number of events dispatched.
	Events int

	// Changes is the number of store changes detected.
	Changes int

	// Rebuilds is the number of binding rebuilds performed.
	Rebuilds int
}

// RunOnce runs update passes until one completes with no events
// dispatched, no store changes, and nothing left in the queue.
//
// CRITICAL: Must be called from the engine goroutine. All deliveries,
// store diffs, and rebuilds happen inside this call.
//
// Pass numbers continue across calls on one context, so every pass in a
// recorded run has a distinct number. The quota applies per call.
//
// A cycle that is still finding work at the pass quota returns
// UpdateLoopError with the stats so far; the tree stays as the last
// completed pass left it.
func (cx *Context) RunOnce() (PassStats, error) {
	var stats PassStats

	for {
		if stats.Passes >= cx.maxPasses {
			err := &UpdateLoopError{
				Passes:  stats.Passes,
				Limit:   cx.maxPasses,
				Pending: cx.queue.Len(),
			}
			slog.Error("update cycle did not settle",
				"passes", err.Passes,
				"limit", err.Limit,
				"pending", err.Pending,
			)
			return stats, err
		}
		cx.pass++
		pass := cx.pass

		// Flush the events queued as of pass start. Events emitted by
		// handlers during the flush run next pass, where the quota can
		// see them.
		events := cx.queue.Len()
		for i := 0; i < events; i++ {
			e, ok := cx.queue.TryDequeue()
			if !ok {
				events = i
				break
			}
			cx.dispatch(&e, pass)
		}

		changes, observers := cx.updateStores(pass)
		rebuilds := cx.rebuildObservers(observers, pass)

		stats.Passes++
		stats.Events += events
		stats.Changes += changes
		stats.Rebuilds += rebuilds
		cx.tracePassEnded(pass, events, changes, rebuilds)

		if events == 0 && changes == 0 && cx.queue.Len() == 0 {
			return stats, nil
		}
	}
}

// updateStores re-views every store against its owner's current model
// and reports the change count plus the union of observers of changed
// stores. Observer collection happens only after a store's diff, never
// between stores of different owners, so one pass sees every store at
// most once.
func (cx *Context) updateStores(pass int) (int, map[id.NodeID]struct{}) {
	changes := 0
	observers := make(map[id.NodeID]struct{})

	cx.data.Each(func(owner id.NodeID, d **nodeData) {
		nd := *d
		if len(nd.stores) == 0 {
			return
		}
		for _, key := range sortedStoreKeys(nd.stores) {
			st := nd.stores[key]
			model := cx.modelAt(owner, st.SourceType().Elem())
			if model == nil {
				continue
			}
			if !st.Update(model) {
				continue
			}
			changes++
			cx.traceStoreChanged(pass, owner, key.String(), st.ObserverCount())
			for _, ob := range st.Observers() {
				observers[ob] = struct{}{}
			}
		}
	})

	return changes, observers
}

// rebuildObservers rebuilds each observer in node index order, the
// order the nodes were built in. Observers an earlier rebuild tore down
// are skipped.
func (cx *Context) rebuildObservers(observers map[id.NodeID]struct{}, pass int) int {
	if len(observers) == 0 {
		return 0
	}

	order := make([]id.NodeID, 0, len(observers))
	for n := range observers {
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].Index() < order[j].Index()
	})

	rebuilds := 0
	for _, n := range order {
		if !cx.ids.IsAlive(n) {
			continue
		}
		v, ok := cx.views.Get(n)
		if !ok {
			continue
		}
		rb, ok := v.(rebuilder)
		if !ok {
			continue
		}
		cx.traceRebuild(pass, n)
		rb.rebuild(cx)
		rebuilds++
	}
	return rebuilds
}

// sortedStoreKeys orders a node's store keys by their string form so
// the sweep never depends on map iteration order.
func sortedStoreKeys(stores map[binding.StoreKey]binding.Store) []binding.StoreKey {
	keys := make([]binding.StoreKey, 0, len(stores))
	for k := range stores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Run is the blocking event loop: it runs an update cycle, then sleeps
// until new events arrive or ctx is cancelled.
//
// CRITICAL: Must be called from exactly ONE goroutine. All event
// processing and tree mutation happen inside it.
func (cx *Context) Run(ctx context.Context) error {
	slog.Info("engine starting", "max_passes", cx.maxPasses)

	for {
		if _, err := cx.RunOnce(); err != nil {
			slog.Error("engine halting", "error", err)
			cx.queue.Close()
			return err
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			cx.queue.Close()
			return ctx.Err()

		case <-cx.queue.Wait():
			// Signal received. The channel also closes when the queue
			// is closed, so check for drained shutdown before looping.
			if cx.queue.Closed() && cx.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}
