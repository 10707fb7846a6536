package id

// minimumFreeIndices is how long the free list must grow before destroyed
// indices are reused. Recycling only past this threshold spreads reuse over
// many slots, so each slot's 16-bit generation is bumped rarely.
const minimumFreeIndices = 4096

// Manager allocates and retires NodeIDs.
//
// One generation counter is kept per slot index ever allocated. Destroying
// an id bumps its slot's generation immediately, which invalidates every
// outstanding copy of the handle, and parks the index on a FIFO free list
// for later reuse.
type Manager struct {
	generations []uint16
	free        []uint64
}

// NewManager returns an empty Manager. The first Create returns Root.
func NewManager() *Manager {
	return &Manager{}
}

// Create returns a fresh live id. Indices come off the free list FIFO once
// it holds more than minimumFreeIndices entries; otherwise a new slot is
// appended with generation 0.
func (m *Manager) Create() NodeID {
	if len(m.free) > minimumFreeIndices {
		index := m.free[0]
		m.free = m.free[1:]
		return New(index, m.generations[index])
	}
	m.generations = append(m.generations, 0)
	return New(uint64(len(m.generations)-1), 0)
}

// Destroy retires an id. The slot's generation is bumped at once and the
// index is queued for reuse. Returns false when the id is already dead
// (stale generation, Null, or never allocated), in which case nothing
// changes.
func (m *Manager) Destroy(node NodeID) bool {
	if !m.IsAlive(node) {
		return false
	}
	index := node.Index()
	m.generations[index]++
	m.free = append(m.free, uint64(index))
	return true
}

// IsAlive reports whether node names the current occupant of its slot.
func (m *Manager) IsAlive(node NodeID) bool {
	if node.IsNull() {
		return false
	}
	index := node.Index()
	return index < len(m.generations) && m.generations[index] == node.Generation()
}

// Count returns how many slots have ever been allocated.
func (m *Manager) Count() int {
	return len(m.generations)
}

// Alive returns how many ids are currently live.
func (m *Manager) Alive() int {
	return len(m.generations) - len(m.free)
}
