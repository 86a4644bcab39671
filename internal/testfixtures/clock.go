package testfixtures

import (
	"sync"
	"time"
)

// Clock is a controllable time source. Times are kept at millisecond
// precision in UTC, which is what the notes store round-trips.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start.UTC().Truncate(time.Millisecond)}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for repository constructors.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d).Truncate(time.Millisecond)
	return c.current
}
