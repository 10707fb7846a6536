package harness

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Ref      string // Node reference the assertion targeted, with path
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Ref != "" {
		fmt.Fprintf(&buf, " (%s)", e.Ref)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the settled tree.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(cx *engine.Context, refs map[string]id.NodeID, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLabel:
			err = assertLabel(cx, refs, assertion)
		case AssertChildCount:
			err = assertChildCount(cx, refs, assertion)
		case AssertStoreCount:
			err = assertStoreCount(cx, assertion)
		case AssertObserverCount:
			err = assertObserverCount(cx, assertion)
		case AssertAlive:
			err = assertAlive(cx, refs, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertLabel checks a label's current text. Both sides are
// NFC-normalized, so visually identical strings compare equal no matter
// how the scenario file encoded them.
func assertLabel(cx *engine.Context, refs map[string]id.NodeID, a Assertion) error {
	node, err := resolveRef(cx, refs, a)
	if err != nil {
		return err
	}

	v, ok := cx.ViewAt(node)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Ref:      refName(a),
			Expected: "a label view",
			Actual:   "no view attached",
		}
	}
	label, ok := v.(*engine.Label)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Ref:      refName(a),
			Expected: "a label view",
			Actual:   fmt.Sprintf("a %s view", v.Element()),
		}
	}

	want := norm.NFC.String(a.Text)
	got := norm.NFC.String(label.Text())
	if got != want {
		return &AssertionError{
			Type:     a.Type,
			Ref:      refName(a),
			Expected: fmt.Sprintf("text %q", want),
			Actual:   fmt.Sprintf("text %q", got),
		}
	}

	return nil
}

// assertChildCount checks the number of visible children under a node.
func assertChildCount(cx *engine.Context, refs map[string]id.NodeID, a Assertion) error {
	node, err := resolveRef(cx, refs, a)
	if err != nil {
		return err
	}

	got := len(cx.VisibleChildren(node))
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Ref:      refName(a),
			Expected: fmt.Sprintf("%d visible children", a.Count),
			Actual:   fmt.Sprintf("%d visible children", got),
		}
	}

	return nil
}

// assertStoreCount checks the context-wide store total.
func assertStoreCount(cx *engine.Context, a Assertion) error {
	got := cx.StoreCount()
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d stores", a.Count),
			Actual:   fmt.Sprintf("%d stores", got),
		}
	}
	return nil
}

// assertObserverCount checks the context-wide observer registration
// total.
func assertObserverCount(cx *engine.Context, a Assertion) error {
	got := cx.ObserverCount()
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d observers", a.Count),
			Actual:   fmt.Sprintf("%d observers", got),
		}
	}
	return nil
}

// assertAlive checks a ref's liveness. The ref is consulted directly,
// not walked: a dead node has no children to walk into.
func assertAlive(cx *engine.Context, refs map[string]id.NodeID, a Assertion) error {
	node, ok := refs[a.Ref]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Ref:      a.Ref,
			Expected: fmt.Sprintf("app ref %q", a.Ref),
			Actual:   "no such ref",
		}
	}

	want := true
	if a.Alive != nil {
		want = *a.Alive
	}
	got := cx.IsAlive(node)
	if got != want {
		return &AssertionError{
			Type:     a.Type,
			Ref:      a.Ref,
			Expected: fmt.Sprintf("alive = %t", want),
			Actual:   fmt.Sprintf("alive = %t", got),
		}
	}

	return nil
}

// resolveRef resolves an assertion's node: the named ref, then each
// path index through VisibleChildren. Paths see the tree the way dumps
// do, with structural nodes flattened away, so list items are reachable
// even though rebuilds re-mint their ids.
func resolveRef(cx *engine.Context, refs map[string]id.NodeID, a Assertion) (id.NodeID, error) {
	node, ok := refs[a.Ref]
	if !ok {
		return id.Null, &AssertionError{
			Type:     a.Type,
			Ref:      refName(a),
			Expected: fmt.Sprintf("app ref %q", a.Ref),
			Actual:   "no such ref",
		}
	}

	for i, idx := range a.Path {
		children := cx.VisibleChildren(node)
		if idx < 0 || idx >= len(children) {
			at := refName(Assertion{Ref: a.Ref, Path: a.Path[:i]})
			return id.Null, &AssertionError{
				Type:     a.Type,
				Ref:      refName(a),
				Expected: fmt.Sprintf("child %d under %s", idx, at),
				Actual:   fmt.Sprintf("%d visible children", len(children)),
			}
		}
		node = children[idx]
	}

	return node, nil
}

// refName renders a ref with its path, e.g. "list[1]".
func refName(a Assertion) string {
	var buf strings.Builder
	buf.WriteString(a.Ref)
	for _, idx := range a.Path {
		fmt.Fprintf(&buf, "[%d]", idx)
	}
	return buf.String()
}
