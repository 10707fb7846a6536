package tracelog

import (
	"context"
	"fmt"
)

// Divergence pinpoints the first difference between two run traces.
type Divergence struct {
	Section string // events, changes, rebuilds or passes
	Index   int
	A, B    string // rendered rows; "<missing>" when one trace is shorter
}

func (d *Divergence) String() string {
	return fmt.Sprintf("%s[%d]: %s != %s", d.Section, d.Index, d.A, d.B)
}

// Compare reads two recorded runs and returns the first row where
// their traces diverge, or nil when they are identical. The replay
// command uses it to verify that a scenario is deterministic: the same
// scenario run twice against fresh contexts must record equal traces.
//
// Rows compare in canonical read order, so wall time, run ids and
// insertion order never influence the result.
func Compare(ctx context.Context, log *Log, runA, runB string) (*Divergence, error) {
	a, err := log.ReadRunTrace(ctx, runA)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	b, err := log.ReadRunTrace(ctx, runB)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	if d := diffRows("events", a.Events, b.Events); d != nil {
		return d, nil
	}
	if d := diffRows("changes", a.Changes, b.Changes); d != nil {
		return d, nil
	}
	if d := diffRows("rebuilds", a.Rebuilds, b.Rebuilds); d != nil {
		return d, nil
	}

	if a.Run.Passes != b.Run.Passes {
		return &Divergence{
			Section: "passes",
			A:       fmt.Sprintf("%d", a.Run.Passes),
			B:       fmt.Sprintf("%d", b.Run.Passes),
		}, nil
	}

	return nil, nil
}

// diffRows walks two row slices in lockstep and reports the first
// position where the rendered rows differ.
func diffRows[T fmt.Stringer](section string, a, b []T) *Divergence {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		left, right := "<missing>", "<missing>"
		if i < len(a) {
			left = a[i].String()
		}
		if i < len(b) {
			right = b[i].String()
		}
		if left != right {
			return &Divergence{Section: section, Index: i, A: left, B: right}
		}
	}
	return nil
}
