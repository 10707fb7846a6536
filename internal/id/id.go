package id

import "fmt"

const (
	indexBits = 48
	indexMask = (uint64(1) << indexBits) - 1

	generationMask = uint64(1)<<16 - 1
)

// MaxIndex is the largest slot index a NodeID can carry.
const MaxIndex = indexMask

// NodeID identifies a node in the tree: a 48-bit slot index in the low bits
// and a 16-bit generation in the high bits.
type NodeID uint64

// Null is the sentinel "no node" id (all bits set). It never names a live
// node and storage layers reject it as a key.
const Null NodeID = NodeID(^uint64(0))

// Root is the id of the tree root: index 0, generation 0. The first Create
// on a fresh Manager returns it.
const Root NodeID = 0

// New packs an index and generation into a NodeID.
// Panics if index exceeds MaxIndex; that many live slots is unreachable in
// practice, so hitting it means index arithmetic went wrong.
func New(index uint64, generation uint16) NodeID {
	if index > MaxIndex {
		panic(fmt.Sprintf("id: index %d overflows %d bits", index, indexBits))
	}
	return NodeID(index | uint64(generation)<<indexBits)
}

// Index returns the slot index.
func (n NodeID) Index() int {
	return int(uint64(n) & indexMask)
}

// Generation returns the generation counter for the slot.
func (n NodeID) Generation() uint16 {
	return uint16(uint64(n) >> indexBits & generationMask)
}

// IsNull reports whether the id is the Null sentinel.
func (n NodeID) IsNull() bool {
	return n == Null
}

// String renders "index:generation", or "null" for the sentinel.
func (n NodeID) String() string {
	if n.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d:%d", n.Index(), n.Generation())
}
