package binding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSame_Scalars(t *testing.T) {
	assert.True(t, Same(1, 1))
	assert.False(t, Same(1, 2))
	assert.True(t, Same("a", "a"))
	assert.False(t, Same("a", "b"))
	assert.True(t, Same(true, true))
	assert.False(t, Same(true, false))
	assert.False(t, Same(1, int64(1)), "different types are never the same")
}

func TestSame_FloatsByBitPattern(t *testing.T) {
	assert.True(t, Same(1.5, 1.5))
	assert.False(t, Same(1.5, 1.6))

	// +0 and -0 compare equal under ==, but their bits differ.
	assert.False(t, Same(0.0, math.Copysign(0, -1)), "+0 and -0 are different values")

	// NaN != NaN under ==, but an unchanged NaN is not a change.
	nan := math.NaN()
	assert.True(t, Same(nan, nan), "identical NaN bits are the same value")

	f := float32(2.5)
	assert.True(t, Same(f, float32(2.5)))
	assert.False(t, Same(float32(0), float32(math.Copysign(0, -1))))
	nan32 := float32(math.NaN())
	assert.True(t, Same(nan32, nan32))
}

func TestSame_PointersByIdentity(t *testing.T) {
	a := &contact{Email: "x"}
	b := &contact{Email: "x"}

	assert.True(t, Same(a, a))
	assert.False(t, Same(a, b), "equal contents behind distinct pointers is a change")

	var pa, pb *contact
	assert.True(t, Same(pa, pb), "two nil pointers are the same")
	assert.False(t, Same(pa, a))
}

func TestSame_Slices(t *testing.T) {
	assert.True(t, Same([]int{1, 2}, []int{1, 2}))
	assert.False(t, Same([]int{1, 2}, []int{1, 3}))
	assert.False(t, Same([]int{1}, []int{1, 2}), "length first")
	assert.True(t, Same([]int{}, []int{}))
	assert.True(t, Same([]int(nil), []int{}), "empty and nil slices hold the same values")
}

func TestSame_Maps(t *testing.T) {
	assert.True(t, Same(map[string]int{"a": 1}, map[string]int{"a": 1}))
	assert.False(t, Same(map[string]int{"a": 1}, map[string]int{"a": 2}))
	assert.False(t, Same(map[string]int{"a": 1}, map[string]int{"b": 1}))
	assert.False(t, Same(map[string]int{"a": 1}, map[string]int{}))
}

func TestSame_Structs(t *testing.T) {
	a := profile{Name: "ada", Tags: []string{"x"}}
	b := profile{Name: "ada", Tags: []string{"x"}}
	assert.True(t, Same(a, b))

	b.Tags = []string{"y"}
	assert.False(t, Same(a, b))

	// Pointer fields still compare by identity inside a struct.
	c := profile{Contact: &contact{}}
	d := profile{Contact: &contact{}}
	assert.False(t, Same(c, d))
	assert.True(t, Same(c, c))
}

func TestSame_NilInterfaces(t *testing.T) {
	assert.True(t, Same(nil, nil))
	assert.False(t, Same(nil, 1))
	assert.False(t, Same(1, nil))
}

type versioned struct {
	Version int
	Blob    []byte
}

func (v versioned) Same(other any) bool {
	o, ok := other.(versioned)
	return ok && o.Version == v.Version
}

func TestSame_DataHook(t *testing.T) {
	a := versioned{Version: 1, Blob: []byte{1}}
	b := versioned{Version: 1, Blob: []byte{2}}
	c := versioned{Version: 2, Blob: []byte{1}}

	assert.True(t, Same(a, b), "the hook decides: same version, different blob")
	assert.False(t, Same(a, c))
	assert.False(t, Same(a, "not a versioned"))
}

func TestSame_UnsupportedKindsAreNotSame(t *testing.T) {
	assert.False(t, Same(complex(1, 1), complex(1, 1)),
		"no comparison rule means not-same; worst case is a spurious rebuild")
}
