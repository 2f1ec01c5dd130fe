package testutil

import (
	"sync"
	"time"
)

// DeterministicClock yields strictly increasing instants for test fixtures.
//
// Snapshot tests need stable timestamps: every call to Next advances by a
// fixed step from a fixed base, so repeated runs produce identical
// documents and golden files.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock starting at base, advancing by step
// per call to Next.
func NewDeterministicClock(base time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{base: base, step: step}
}

// Next returns the next instant in the sequence.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Reset restarts the sequence at base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
