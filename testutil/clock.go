package testutil

import "sync/atomic"

// FakeClock is a manually advanced millisecond clock.
type FakeClock struct {
	now atomic.Int64
}

func (c *FakeClock) NowMillis() int64 { return c.now.Load() }

// Advance moves the clock forward by ms.
func (c *FakeClock) Advance(ms int64) { c.now.Add(ms) }

// Set moves the clock to ms.
func (c *FakeClock) Set(ms int64) { c.now.Store(ms) }
