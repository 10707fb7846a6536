package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

func labelText(t *testing.T, cx *engine.Context, node id.NodeID) string {
	t.Helper()
	v, ok := cx.ViewAt(node)
	require.True(t, ok, "no view at %s", node)
	label, ok := v.(*engine.Label)
	require.True(t, ok, "view at %s is a %s, not a label", node, v.Element())
	return label.Text()
}

func TestApps_RegistrySorted(t *testing.T) {
	assert.Equal(t, []string{"counter", "gauge", "todos"}, AppNames())

	apps := Apps()
	require.Len(t, apps, 3)
	for i, name := range AppNames() {
		assert.Equal(t, name, apps[i].Name)
		assert.NotEmpty(t, apps[i].Description)
		assert.NotNil(t, apps[i].Build)
		assert.NotEmpty(t, apps[i].Events)
	}
}

func TestLookupApp_Unknown(t *testing.T) {
	_, ok := LookupApp("nonesuch")
	assert.False(t, ok)
}

func TestApp_EventNamesSorted(t *testing.T) {
	app, ok := LookupApp("todos")
	require.True(t, ok)
	assert.Equal(t, []string{"add", "clear", "remove"}, app.EventNames())
}

func TestCounterApp_Build(t *testing.T) {
	app, _ := LookupApp("counter")
	cx := engine.NewContext()
	refs := app.Build(cx)

	require.Contains(t, refs, "root")
	require.Contains(t, refs, "panel")
	require.Contains(t, refs, "count")

	assert.Equal(t, cx.Root(), refs["root"])
	assert.Equal(t, "0", labelText(t, cx, refs["count"]), "label shows the count at build time")
	assert.Len(t, cx.VisibleChildren(refs["panel"]), 1)
	assert.Equal(t, 1, cx.StoreCount())
}

func TestTodosApp_BuildStartsEmpty(t *testing.T) {
	app, _ := LookupApp("todos")
	cx := engine.NewContext()
	refs := app.Build(cx)

	require.Contains(t, refs, "list")
	assert.Empty(t, cx.VisibleChildren(refs["list"]))
	assert.Equal(t, 1, cx.StoreCount(), "only the slice store exists before items arrive")
}

func TestGaugeApp_BuildDefaults(t *testing.T) {
	app, _ := LookupApp("gauge")
	cx := engine.NewContext()
	refs := app.Build(cx)

	assert.Equal(t, "fuel gauge", labelText(t, cx, refs["title"]))
	assert.Equal(t, "0", labelText(t, cx, refs["ratio"]), "level starts at zero of max 100")
	assert.Equal(t, 2, cx.StoreCount(), "the ratio store plus the static title store")
}

func TestEventBuilders_Nullary(t *testing.T) {
	app, _ := LookupApp("counter")

	msg, err := app.Events["increment"](nil)
	require.NoError(t, err)
	assert.Equal(t, IncrementEvent{}, msg)

	_, err = app.Events["increment"]("stray")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes no value")
}

func TestEventBuilders_TodosAdd(t *testing.T) {
	app, _ := LookupApp("todos")

	msg, err := app.Events["add"]("write tests")
	require.NoError(t, err)
	assert.Equal(t, AddTodoEvent{Title: "write tests"}, msg)

	_, err = app.Events["add"](42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a string value")
}

func TestEventBuilders_TodosRemove(t *testing.T) {
	app, _ := LookupApp("todos")

	// The decoders disagree about integers: yaml.v3 produces int, CUE
	// int64, JSON float64. All three must land on the same payload.
	for _, value := range []any{2, int64(2), float64(2)} {
		msg, err := app.Events["remove"](value)
		require.NoError(t, err, "value %T", value)
		assert.Equal(t, RemoveTodoEvent{Index: 2}, msg)
	}

	_, err := app.Events["remove"](2.5)
	require.Error(t, err)

	_, err = app.Events["remove"]("two")
	require.Error(t, err)
}

func TestEventBuilders_GaugeSetLevel(t *testing.T) {
	app, _ := LookupApp("gauge")

	for _, value := range []any{50, int64(50), float64(50), float32(50)} {
		msg, err := app.Events["set_level"](value)
		require.NoError(t, err, "value %T", value)
		assert.Equal(t, SetLevelEvent{Level: 50}, msg)
	}

	_, err := app.Events["set_level"]("half")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a number value")
}
