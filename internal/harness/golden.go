package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

// DumpTree renders the visible tree as indented text, one node per
// line. Labels print their current text; other views print their
// element name. The dump is the golden-file form of a settled run.
func DumpTree(cx *engine.Context) string {
	var buf strings.Builder
	buf.WriteString("root\n")
	dumpChildren(cx, &buf, cx.Root(), 1)
	return buf.String()
}

func dumpChildren(cx *engine.Context, buf *strings.Builder, node id.NodeID, depth int) {
	for _, child := range cx.VisibleChildren(node) {
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString(describe(cx, child))
		buf.WriteByte('\n')
		dumpChildren(cx, buf, child, depth+1)
	}
}

// describe renders one node. Label text is NFC-normalized so dumps are
// byte-stable across encodings of the same string.
func describe(cx *engine.Context, node id.NodeID) string {
	v, ok := cx.ViewAt(node)
	if !ok {
		return "node"
	}
	if label, ok := v.(*engine.Label); ok {
		return fmt.Sprintf("label %q", norm.NFC.String(label.Text()))
	}
	return v.Element()
}

// RunWithGolden executes a scenario, fails the test on any step or
// assertion error, and compares the settled tree against the golden
// file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares a result's tree dump against a golden file.
// Useful when the caller already ran the scenario and wants to inspect
// the result beyond the dump.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Dump))
}
