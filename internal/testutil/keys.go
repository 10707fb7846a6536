// Package testutil provides deterministic substitutes for the sources
// of nondeterminism in a run, so tests, golden files and the replay
// check can expect byte-identical output.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialKeySource mints store keys "<prefix>-0001", "<prefix>-0002",
// and so on. Swap it in with binding.SetKeySource (or the engine's
// WithKeySource option) when a run must produce the same key strings
// every time: golden traces, replay comparison.
//
// Thread-safety: mutex-protected, safe for concurrent use.
type SequentialKeySource struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialKeySource creates a source counting up from 1.
func NewSequentialKeySource(prefix string) *SequentialKeySource {
	return &SequentialKeySource{prefix: prefix}
}

// NextKey returns the next key in the sequence.
func (s *SequentialKeySource) NextKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}
