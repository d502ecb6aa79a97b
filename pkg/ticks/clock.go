package ticks

import (
	"sync/atomic"
	"time"
)

// Clock reports a free-running millisecond count that wraps at 2^32.
type Clock interface {
	Millis() uint32
}

// Counter is a millisecond counter advanced by a periodic interrupt.
type Counter struct {
	ms atomic.Uint32
}

// Tick advances the counter by one millisecond.
func (c *Counter) Tick() {
	c.ms.Add(1)
}

// Millis returns the current count.
func (c *Counter) Millis() uint32 {
	return c.ms.Load()
}

// Advance moves the counter forward by ms milliseconds.
func (c *Counter) Advance(ms uint32) {
	c.ms.Add(ms)
}

// Set forces the counter to an absolute value.
func (c *Counter) Set(ms uint32) {
	c.ms.Store(ms)
}

// SystemClock derives milliseconds from the host monotonic clock.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock returns a clock whose count starts at 1 so that a timer
// started immediately is still considered enabled.
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now().Add(-time.Millisecond)}
}

// Millis returns milliseconds since the clock was created.
func (s *SystemClock) Millis() uint32 {
	return uint32(time.Since(s.epoch).Milliseconds())
}
