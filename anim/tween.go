package anim

import (
	"math"
	"time"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(float64) float64

// Linear is the identity easing.
func Linear(f float64) float64 { return f }

// FastOutSlowIn is the standard material easing curve.
var FastOutSlowIn = CubicBezier(0.4, 0, 0.2, 1)

// CubicBezier returns an easing for the curve through (0,0), (x1,y1),
// (x2,y2), (1,1).
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	bezier := func(t, p1, p2 float64) float64 {
		u := 1 - t
		return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
	}
	slope := func(t, p1, p2 float64) float64 {
		u := 1 - t
		return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
	}
	return func(f float64) float64 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 1
		}
		t := f
		for i := 0; i < 8; i++ {
			d := slope(t, x1, x2)
			if math.Abs(d) < 1e-6 {
				break
			}
			t -= (bezier(t, x1, x2) - f) / d
		}
		if t < 0 || t > 1 || math.Abs(bezier(t, x1, x2)-f) > 1e-4 {
			lo, hi := 0.0, 1.0
			t = f
			for i := 0; i < 32; i++ {
				x := bezier(t, x1, x2)
				if math.Abs(x-f) < 1e-6 {
					break
				}
				if x < f {
					lo = t
				} else {
					hi = t
				}
				t = (lo + hi) / 2
			}
		}
		return bezier(t, y1, y2)
	}
}

// Tween interpolates a fraction from 0 to 1 over Duration.
type Tween struct {
	Duration time.Duration
	Easing   Easing
	// OnUpdate receives the eased fraction each frame.
	OnUpdate func(fraction float64)
	// OnEnd runs once, with canceled set when the tween was superseded.
	OnEnd func(canceled bool)

	start   time.Time
	started bool
	done    bool
}

func (t *Tween) Step(now time.Time) bool {
	if t.done {
		return false
	}
	if !t.started {
		t.started = true
		t.start = now
	}
	fraction := 1.0
	if t.Duration > 0 {
		fraction = math.Min(1, float64(now.Sub(t.start))/float64(t.Duration))
	}
	eased := fraction
	if t.Easing != nil {
		eased = t.Easing(fraction)
	}
	if t.OnUpdate != nil {
		t.OnUpdate(eased)
	}
	if fraction >= 1 {
		t.finish(false)
		return false
	}
	return true
}

func (t *Tween) Cancel() {
	t.finish(true)
}

func (t *Tween) finish(canceled bool) {
	if t.done {
		return
	}
	t.done = true
	if t.OnEnd != nil {
		t.OnEnd(canceled)
	}
}

// Lerp interpolates between a and b.
func Lerp(a, b, fraction float64) float64 {
	return a + (b-a)*fraction
}
