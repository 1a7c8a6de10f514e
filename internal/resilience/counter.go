package resilience

import (
	"sync"
	"time"
)

// Counter is a sliding-window circuit breaker for one (component, type)
// pair. Events older than the window are pruned lazily at each call.
type Counter struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	now       func() time.Time
	events    []time.Time
}

func NewCounter(threshold int, window time.Duration) *Counter {
	return &Counter{
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// SetClock swaps the time source for tests.
func (c *Counter) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Add records an event and reports whether this event crossed the threshold.
// The crossing fires exactly once per window fill: on the event that brings
// the in-window count up to the threshold, not on later ones.
func (c *Counter) Add() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(c.now())
	c.events = append(c.events, c.now())
	return len(c.events) == c.threshold
}

// Count returns the number of events inside the trailing window.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return len(c.events)
}

// Reset discards all recorded events.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}

func (c *Counter) prune(now time.Time) {
	cutoff := now.Add(-c.window)
	kept := c.events[:0]
	for _, t := range c.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.events = kept
}
