// Package anim drives transform animations on the caller's frame clock.
// Nothing here starts goroutines: the owner calls Driver.Tick once per frame
// from the UI thread, which keeps transform state single-threaded.
package anim

import (
	"sync"
	"time"
)

// Clock supplies frame timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock advanced explicitly, for tests and headless hosts.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Animation is a frame-stepped task.
type Animation interface {
	// Step advances the animation to now and reports whether it is still
	// running.
	Step(now time.Time) bool
	// Cancel stops the animation without completing it.
	Cancel()
}

// Driver runs at most one Animation. Starting a new animation cancels the
// current one; there is no queue.
type Driver struct {
	current Animation
}

// Start cancels any running animation and begins a.
func (d *Driver) Start(a Animation, now time.Time) {
	d.Stop()
	d.current = a
	if !a.Step(now) && d.current == a {
		d.current = nil
	}
}

// Tick steps the running animation, if any, and reports whether one is
// still running afterwards.
func (d *Driver) Tick(now time.Time) bool {
	a := d.current
	if a == nil {
		return false
	}
	if !a.Step(now) {
		// A callback may have started a replacement.
		if d.current == a {
			d.current = nil
		}
	}
	return d.current != nil
}

// Stop cancels the running animation.
func (d *Driver) Stop() {
	a := d.current
	d.current = nil
	if a != nil {
		a.Cancel()
	}
}

// Running reports whether an animation is active.
func (d *Driver) Running() bool {
	return d.current != nil
}
