package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/trellis/internal/binding"
)

var _ binding.KeySource = (*SequentialKeySource)(nil)

func TestSequentialKeySource_CountsFromOne(t *testing.T) {
	src := NewSequentialKeySource("run")

	assert.Equal(t, "run-0001", src.NextKey())
	assert.Equal(t, "run-0002", src.NextKey())
	assert.Equal(t, "run-0003", src.NextKey())
}

func TestSequentialKeySource_FreshSourcesRepeat(t *testing.T) {
	a := NewSequentialKeySource("scenario")
	b := NewSequentialKeySource("scenario")

	for i := 0; i < 5; i++ {
		assert.Equal(t, a.NextKey(), b.NextKey())
	}
}

func TestSequentialKeySource_ConcurrentKeysAreUnique(t *testing.T) {
	src := NewSequentialKeySource("c")

	const n = 100
	keys := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys <- src.NextKey()
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]bool, n)
	for k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
	assert.Len(t, seen, n)
}
