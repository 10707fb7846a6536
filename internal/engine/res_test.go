package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/internal/id"
)

func TestLit_AppliesOnceImmediately(t *testing.T) {
	cx := NewContext()
	applied := 0

	cx.Mount(func(cx *Context) {
		Lit(7).SetOrBind(cx, cx.Current(), func(_ *Context, _ id.NodeID, v int) {
			applied++
			assert.Equal(t, 7, v)
		})
	})

	assert.Equal(t, 1, applied)
	assert.Equal(t, 0, cx.StoreCount())
}

func TestFromLens_ReappliesOnChange(t *testing.T) {
	cx := NewContext()
	var values []int

	cx.Mount(func(cx *Context) {
		BuildModel(cx, &counterModel{})
		FromLens(countLens()).SetOrBind(cx, cx.Current(), func(_ *Context, _ id.NodeID, v int) {
			values = append(values, v)
		})
	})

	require.Equal(t, []int{0}, values, "lens-driven properties apply at bind time")
	require.Equal(t, 1, cx.StoreCount())

	cx.EmitEvent(Event{Target: cx.Root(), Propagation: Subtree, Message: increment{}})
	_, err := cx.RunOnce()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, values)
}

func TestFromLens_QuietWhenValueUnchanged(t *testing.T) {
	cx := NewContext()
	applied := 0

	cx.Mount(func(cx *Context) {
		BuildModel(cx, &counterModel{})
		FromLens(tagsLens()).SetOrBind(cx, cx.Current(), func(_ *Context, _ id.NodeID, _ []string) {
			applied++
		})
	})
	require.Equal(t, 1, applied)

	// increment touches Count, not Tags; the tags binding must not fire.
	cx.EmitEvent(Event{Target: cx.Root(), Propagation: Subtree, Message: increment{}})
	_, err := cx.RunOnce()
	require.NoError(t, err)

	assert.Equal(t, 1, applied)
}
