// Package testutil provides deterministic helpers shared by tests.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a workflow.Clock that returns a fixed start
// time advanced by one second per call. Tests get stable, distinct
// UpdatedAt/CompletedAt values without sleeping.
//
// Thread-safety: all methods are safe for concurrent use via an
// internal mutex, although the workflow engine itself is single-threaded.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	calls int
}

// NewDeterministicClock creates a clock anchored at start.
func NewDeterministicClock(start time.Time) *DeterministicClock {
	return &DeterministicClock{start: start}
}

// Now returns start plus one second per prior call.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * time.Second)
	c.calls++
	return t
}

// Calls returns how many times Now has been invoked.
func (c *DeterministicClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
