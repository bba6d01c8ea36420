package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually driven clock. Benchmark tests make work functions
// advance it so that measured durations are exact.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Work returns a function that advances the clock by cost on every call.
func (c *FakeClock) Work(cost time.Duration) func() {
	return func() { c.Advance(cost) }
}

// Script returns a setup and a work function for a benchmark whose
// per-invocation cost changes from one batch to the next. Each call to setup
// selects the next cost from costs; once they run out the last one repeats.
//
// Parameters:
//   - costs: Per-invocation cost for successive batches. Must not be empty.
//
// Returns:
//   - setup: Call once per batch, before the work function.
//   - work: Advances the clock by the current batch's cost.
func (c *FakeClock) Script(costs ...time.Duration) (setup func(int), work func()) {
	var (
		next    int
		current time.Duration
	)
	setup = func(int) {
		current = costs[min(next, len(costs)-1)]
		next++
	}
	work = func() { c.Advance(current) }
	return setup, work
}
