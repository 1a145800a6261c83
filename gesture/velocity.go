package gesture

import (
	"time"

	"zoomimage/geom"
)

type sample struct {
	t   time.Time
	pos geom.Offset
}

// VelocityTracker estimates velocity from the samples of a recent window.
type VelocityTracker struct {
	Window  time.Duration
	samples []sample
}

// Add records a position.
func (v *VelocityTracker) Add(t time.Time, pos geom.Offset) {
	v.samples = append(v.samples, sample{t: t, pos: pos})
	v.trim(t)
}

// Reset drops all samples.
func (v *VelocityTracker) Reset() {
	v.samples = v.samples[:0]
}

func (v *VelocityTracker) trim(now time.Time) {
	window := v.Window
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	i := 0
	for i < len(v.samples)-1 && now.Sub(v.samples[i].t) > window {
		i++
	}
	if i > 0 {
		v.samples = append(v.samples[:0], v.samples[i:]...)
	}
}

// Velocity returns pixels per second over the window.
func (v *VelocityTracker) Velocity() geom.Offset {
	if len(v.samples) < 2 {
		return geom.Offset{}
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	dt := last.t.Sub(first.t).Seconds()
	if dt <= 0 {
		return geom.Offset{}
	}
	return last.pos.Sub(first.pos).Mul(1 / dt)
}
