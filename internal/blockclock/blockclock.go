// Package blockclock provides the logical clock the ledger consumes from its
// host. The clock is a monotonically non-decreasing counter; every operation
// handled within one window ("block") observes the same tick value.
package blockclock

import (
	"context"
	"sync"
	"time"
)

// Clock is a monotonic logical clock. The zero value is not usable; use New.
type Clock struct {
	mu   sync.Mutex
	tick uint64
}

// New creates a Clock starting at tick 1. Tick 0 is reserved as the genesis
// tick: the ledger's implicit last-emission marker is 0, so operations are
// never stamped with it.
func New() *Clock {
	return &Clock{tick: 1}
}

// NewAt creates a Clock starting at the given tick.
func NewAt(tick uint64) *Clock {
	return &Clock{tick: tick}
}

// Current returns the current tick.
func (c *Clock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Advance moves the clock to the next tick and returns the new value.
func (c *Clock) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	return c.tick
}

// Run advances the clock every interval until ctx is cancelled. Requests
// handled between two advances share a tick, which is what makes the
// ledger's same-tick duplicate suppression meaningful over HTTP.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Advance()
		case <-ctx.Done():
			return
		}
	}
}
