package anim

import (
	"math"
	"runtime"
	"time"

	"zoomimage/geom"
)

// Friction constants for the exponential decay, per platform feel.
const (
	frictionDarwin  = -2.0
	frictionDefault = -4.2

	// Below this speed, in pixels per second, a fling stops.
	stopVelocity = 1.0
)

// DefaultFriction returns the decay constant for the running platform.
func DefaultFriction() float64 {
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		return frictionDarwin
	}
	return frictionDefault
}

// Decay moves a point with an initial velocity under drag proportional to
// velocity. Position follows x(t) = v0*e^(kt)/k - v0/k.
type Decay struct {
	// Velocity is the initial velocity in pixels per second.
	Velocity geom.Offset
	// Friction is the negative decay constant k; zero uses DefaultFriction.
	Friction float64
	// OnDelta receives the displacement since the previous frame and
	// returns false once the movement can make no further progress.
	OnDelta func(delta geom.Offset) bool
	OnEnd   func(canceled bool)

	t0      time.Time
	started bool
	done    bool
	last    geom.Offset
}

func (d *Decay) Step(now time.Time) bool {
	if d.done {
		return false
	}
	if !d.started {
		d.started = true
		d.t0 = now
		return true
	}
	k := d.Friction
	if k == 0 {
		k = DefaultFriction()
	}
	ekt := math.Exp(k * now.Sub(d.t0).Seconds())
	pos := geom.Offset{
		X: d.Velocity.X*ekt/k - d.Velocity.X/k,
		Y: d.Velocity.Y*ekt/k - d.Velocity.Y/k,
	}
	delta := pos.Sub(d.last)
	d.last = pos

	moving := true
	if d.OnDelta != nil {
		moving = d.OnDelta(delta)
	}
	v := d.Velocity.Mul(ekt)
	if !moving || (math.Abs(v.X) < stopVelocity && math.Abs(v.Y) < stopVelocity) {
		d.finish(false)
		return false
	}
	return true
}

func (d *Decay) Cancel() {
	d.finish(true)
}

func (d *Decay) finish(canceled bool) {
	if d.done {
		return
	}
	d.done = true
	if d.OnEnd != nil {
		d.OnEnd(canceled)
	}
}

// DecayDistance returns the total travel of a fling with velocity v0 and
// friction k, used to predict where a fling will settle.
func DecayDistance(v0, k float64) float64 {
	if k == 0 {
		k = DefaultFriction()
	}
	return -v0 / k
}
