package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

func counterScenario() *Scenario {
	return &Scenario{
		Name:        "counter-inline",
		Description: "Increment three times, decrement once from the label.",
		App:         "counter",
		Steps: []Step{
			{Emit: "increment", Count: 3},
			{Emit: "decrement", Target: "count"},
		},
		Assertions: []Assertion{
			{Type: AssertLabel, Ref: "count", Text: "2"},
		},
	}
}

func TestRun_CounterScenario(t *testing.T) {
	result, err := Run(counterScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 5, result.Passes, "mount settle plus two steps at two passes each")
	assert.Equal(t, "root\n  group\n    label \"2\"\n", result.Dump)
}

func TestRun_TraceShapes(t *testing.T) {
	result, err := Run(counterScenario())
	require.NoError(t, err)

	kinds := map[string]int{}
	props := map[string]int{}
	for _, row := range result.Trace {
		kinds[row.Kind]++
		if row.Kind == "event" {
			props[row.Propagation]++
		}
	}

	assert.Equal(t, 4, kinds["event"], "three increments and one decrement")
	assert.Equal(t, 2, kinds["change"], "one text change per step")
	assert.Equal(t, 2, kinds["rebuild"])
	assert.Equal(t, 5, kinds["pass"])
	assert.Equal(t, 3, props["subtree"], "untargeted steps broadcast")
	assert.Equal(t, 1, props["up"], "targeted steps bubble")
}

func TestRun_PassNumbersNeverRepeat(t *testing.T) {
	result, err := Run(counterScenario())
	require.NoError(t, err)

	var passes []int
	for _, row := range result.Trace {
		if row.Kind == "pass" {
			passes = append(passes, row.Pass)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, passes,
		"pass numbers continue across steps, so trace rows never collide")
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	first, err := Run(counterScenario())
	require.NoError(t, err)
	second, err := Run(counterScenario())
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace, "same scenario, same trace")
	assert.Equal(t, first.Dump, second.Dump)
	assert.Equal(t, first.Passes, second.Passes)
}

func TestRun_UnknownApp(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Description: "y", App: "nonesuch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown app")
}

func TestRun_UnknownEventFailsResult(t *testing.T) {
	s := counterScenario()
	s.Steps = []Step{{Emit: "explode"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "has no event")
}

func TestRun_UnknownRefFailsResult(t *testing.T) {
	s := counterScenario()
	s.Steps = []Step{{Emit: "increment", Target: "nonesuch"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "has no ref")
}

func TestRun_BadStepValueFailsResult(t *testing.T) {
	s := counterScenario()
	s.Steps = []Step{{Emit: "increment", Value: "stray"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "takes no value")
}

func TestRun_AssertionFailureReported(t *testing.T) {
	s := counterScenario()
	s.Assertions = []Assertion{{Type: AssertLabel, Ref: "count", Text: "9"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: label")
	assert.Contains(t, result.Errors[0], `Expected: text "9"`)
	assert.Contains(t, result.Errors[0], `Actual: text "2"`)
}

func TestRun_TodosRemoveOutOfRangeIsNoOp(t *testing.T) {
	s := &Scenario{
		Name:        "todos-remove-oob",
		Description: "Removing a missing index changes nothing.",
		App:         "todos",
		Steps: []Step{
			{Emit: "add", Value: "only"},
			{Emit: "remove", Value: 99},
		},
		Assertions: []Assertion{
			{Type: AssertChildCount, Ref: "list", Count: 1},
			{Type: AssertLabel, Ref: "list", Path: []int{0}, Text: "only"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GaugeRatioUpdates(t *testing.T) {
	s := &Scenario{
		Name:        "gauge-inline",
		Description: "Rescale after setting the level.",
		App:         "gauge",
		Steps: []Step{
			{Emit: "set_level", Value: 50},
			{Emit: "set_max", Value: 200},
		},
		Assertions: []Assertion{
			{Type: AssertLabel, Ref: "ratio", Text: "0.25"},
			{Type: AssertLabel, Ref: "title", Text: "fuel gauge"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GaugeZeroDenominator(t *testing.T) {
	s := &Scenario{
		Name:        "gauge-zero",
		Description: "Dropping max to zero divides through regardless.",
		App:         "gauge",
		Steps: []Step{
			{Emit: "set_level", Value: 50},
			{Emit: "set_max", Value: 0},
		},
		Assertions: []Assertion{
			{Type: AssertLabel, Ref: "ratio", Text: "+Inf"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

// countingSink counts rows without keeping them.
type countingSink struct{ rows int }

func (s *countingSink) EventDispatched(int, int64, id.NodeID, id.NodeID, engine.Propagation, string) {
	s.rows++
}
func (s *countingSink) StoreChanged(int, id.NodeID, string, int) { s.rows++ }
func (s *countingSink) ObserverRebuilt(int, id.NodeID)           { s.rows++ }
func (s *countingSink) PassEnded(int, int, int, int)             { s.rows++ }

func TestRun_WithSinkSeesEveryRow(t *testing.T) {
	sink := &countingSink{}
	result, err := Run(counterScenario(), WithSink(sink))
	require.NoError(t, err)

	assert.Equal(t, len(result.Trace), sink.rows)
}

func TestRun_WithMaxPasses(t *testing.T) {
	result, err := Run(counterScenario(), WithMaxPasses(1))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "did not settle")
	assert.NotEmpty(t, result.Dump, "the tree still dumps after a halted run")
}
