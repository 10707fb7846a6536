package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Create_FirstIsRoot(t *testing.T) {
	m := NewManager()
	assert.Equal(t, Root, m.Create())
}

func TestManager_Create_SequentialIndices(t *testing.T) {
	m := NewManager()

	for i := 0; i < 10; i++ {
		n := m.Create()
		assert.Equal(t, i, n.Index())
		assert.Equal(t, uint16(0), n.Generation(), "fresh slots start at generation 0")
	}
	assert.Equal(t, 10, m.Count())
}

func TestManager_IsAlive(t *testing.T) {
	m := NewManager()
	n := m.Create()

	assert.True(t, m.IsAlive(n))
	assert.False(t, m.IsAlive(Null), "null is never alive")
	assert.False(t, m.IsAlive(New(99, 0)), "unallocated index is not alive")
}

func TestManager_Alive_TracksCreateAndDestroy(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 0, m.Alive())

	a := m.Create()
	b := m.Create()
	assert.Equal(t, 2, m.Alive())

	require.True(t, m.Destroy(a))
	assert.Equal(t, 1, m.Alive())
	assert.Equal(t, 2, m.Count(), "Count keeps retired slots")

	require.True(t, m.Destroy(b))
	assert.Equal(t, 0, m.Alive())
}

func TestManager_Destroy_InvalidatesHandle(t *testing.T) {
	m := NewManager()
	root := m.Create()
	n := m.Create()
	require.True(t, m.IsAlive(n))

	assert.True(t, m.Destroy(n))
	assert.False(t, m.IsAlive(n), "destroyed id must read as dead immediately")
	assert.True(t, m.IsAlive(root), "other ids are unaffected")
}

func TestManager_Destroy_DeadIDReturnsFalse(t *testing.T) {
	m := NewManager()
	n := m.Create()

	require.True(t, m.Destroy(n))
	assert.False(t, m.Destroy(n), "double destroy")
	assert.False(t, m.Destroy(Null))
	assert.False(t, m.Destroy(New(99, 0)), "never-allocated index")
}

func TestManager_Create_NoReuseBelowThreshold(t *testing.T) {
	m := NewManager()
	for i := 0; i < 10; i++ {
		m.Create()
	}
	for i := 0; i < 10; i++ {
		require.True(t, m.Destroy(New(uint64(i), 0)))
	}

	// Only 10 free indices: far under the reuse threshold, so the next
	// create must extend the slot range instead of recycling.
	n := m.Create()
	assert.Equal(t, 10, n.Index())
	assert.Equal(t, uint16(0), n.Generation())
}

func TestManager_Create_RecyclesFIFOPastThreshold(t *testing.T) {
	m := NewManager()

	const total = minimumFreeIndices + 2
	ids := make([]NodeID, 0, total)
	for i := 0; i < total; i++ {
		ids = append(ids, m.Create())
	}
	for _, n := range ids {
		require.True(t, m.Destroy(n))
	}

	// Free list now exceeds the threshold; allocation recycles the oldest
	// freed index first, with its generation bumped.
	n := m.Create()
	assert.Equal(t, 0, n.Index())
	assert.Equal(t, uint16(1), n.Generation())
	assert.True(t, m.IsAlive(n))
	assert.False(t, m.IsAlive(ids[0]), "stale handle to the recycled slot stays dead")

	n = m.Create()
	assert.Equal(t, 1, n.Index(), "recycling is FIFO")
	assert.Equal(t, total, m.Count(), "recycling does not grow the slot range")
}

func TestManager_Reuse_GenerationAdvancesPerSlot(t *testing.T) {
	m := NewManager()

	for i := 0; i < minimumFreeIndices+1; i++ {
		n := m.Create()
		require.True(t, m.Destroy(n))
	}

	// Steady-state churn: every create now recycles the FIFO head. After a
	// full lap the first slot comes around again at generation 2.
	for i := 0; i <= minimumFreeIndices; i++ {
		n := m.Create()
		require.Equal(t, i, n.Index())
		require.Equal(t, uint16(1), n.Generation())
		require.True(t, m.Destroy(n))
	}

	n := m.Create()
	assert.Equal(t, 0, n.Index())
	assert.Equal(t, uint16(2), n.Generation())
}
