package zoom

import (
	"math"

	"zoomimage/anim"
	"zoomimage/geom"
)

// UserScale returns the current user scale.
func (e *Engine) UserScale() float64 {
	return e.user.Scale.X
}

// anchoredOffset returns the user offset at newScale that keeps the
// container point centroid over the same content point.
func (e *Engine) anchoredOffset(centroid geom.Offset, newScale float64) geom.Offset {
	s := e.user.Scale.X
	if s <= 0 {
		s = 1
	}
	return centroid.Sub(centroid.Sub(e.user.Offset).Mul(newScale / s))
}

// Scale changes the user scale around centroid, a point in container
// coordinates, clamped to [min, max].
func (e *Engine) Scale(target float64, centroid geom.Offset, animated bool) {
	if e.layout.IsEmpty() || target <= 0 || math.IsNaN(target) {
		return
	}
	target = math.Max(e.minScale, math.Min(e.maxScale, target))
	offset := geom.LimitOffset(e.anchoredOffset(centroid, target), e.offsetBounds(target))
	e.logger.Debug("scale", "from", e.user.Scale.X, "to", target, "centroid", centroid, "animated", animated)
	e.transition(target, offset, ContinuousScale, animated)
}

// ZoomBy multiplies the user scale by factor around centroid.
func (e *Engine) ZoomBy(factor float64, centroid geom.Offset, animated bool) {
	e.Scale(e.user.Scale.X*factor, centroid, animated)
}

// Offset moves the user offset to target, clamped into bounds.
func (e *Engine) Offset(target geom.Offset, animated bool) {
	if e.layout.IsEmpty() {
		return
	}
	scale := e.user.Scale.X
	target = geom.LimitOffset(target, e.offsetBounds(scale))
	e.transition(scale, target, ContinuousOffset, animated)
}

// PanBy moves the user offset by delta.
func (e *Engine) PanBy(delta geom.Offset, animated bool) {
	e.Offset(e.user.Offset.Add(delta), animated)
}

// Locate centers contentPoint, in unrotated content coordinates, at
// targetScale.
func (e *Engine) Locate(contentPoint geom.Offset, targetScale float64, animated bool) {
	if e.layout.IsEmpty() {
		return
	}
	if targetScale <= 0 || math.IsNaN(targetScale) {
		targetScale = e.user.Scale.X
	}
	targetScale = math.Max(e.minScale, math.Min(e.maxScale, targetScale))
	content := e.layout.Content.ToSize()
	contentPoint = geom.Offset{
		X: math.Max(0, math.Min(content.Width, contentPoint.X)),
		Y: math.Max(0, math.Min(content.Height, contentPoint.Y)),
	}
	u := e.centeredUser(contentPoint, targetScale)
	e.logger.Debug("locate", "point", contentPoint, "scale", targetScale, "animated", animated)
	e.transition(u.Scale.X, u.Offset, ContinuousLocate, animated)
}

// Fling decelerates the offset from velocity, in pixels per second,
// staying inside the bounds.
func (e *Engine) Fling(velocity geom.Offset) {
	if e.layout.IsEmpty() || velocity == (geom.Offset{}) {
		return
	}
	e.continuous = ContinuousFling
	e.driver.Start(&anim.Decay{
		Velocity: velocity,
		OnDelta: func(delta geom.Offset) bool {
			scale := e.user.Scale.X
			next := geom.LimitOffset(e.user.Offset.Add(delta), e.offsetBounds(scale))
			moved := next != e.user.Offset
			e.setUser(scale, next)
			return moved
		},
		OnEnd: func(canceled bool) {
			if !canceled {
				e.setContinuous(ContinuousNone)
			}
		},
	}, e.clock.Now())
	e.notify()
}

// scaleSteps returns min, medium and, with three-step scale, max.
func (e *Engine) scaleSteps() []float64 {
	if e.opts.ThreeStepScale {
		return []float64{e.minScale, e.mediumScale, e.maxScale}
	}
	return []float64{e.minScale, e.mediumScale}
}

// NextStepScale returns the scale a double tap switches to.
func (e *Engine) NextStepScale() float64 {
	return NextStepScale(e.user.Scale.X, e.scaleSteps())
}

// SwitchScale moves to the next step scale around centroid and returns it.
func (e *Engine) SwitchScale(centroid geom.Offset, animated bool) float64 {
	next := e.NextStepScale()
	e.Scale(next, centroid, animated)
	return next
}

// Rebound moves an overshot user scale back to the nearest bound and
// reports whether it did. Overshoot too small to show at ScalePrecision
// is snapped without animation.
func (e *Engine) Rebound(centroid geom.Offset) bool {
	s := e.user.Scale.X
	var target float64
	switch {
	case s < e.minScale:
		target = e.minScale
	case s > e.maxScale:
		target = e.maxScale
	default:
		return false
	}
	animated := geom.Format(s, ScalePrecision) != geom.Format(target, ScalePrecision)
	offset := geom.LimitOffset(e.anchoredOffset(centroid, target), e.offsetBounds(target))
	e.logger.Debug("rebound", "from", s, "to", target, "animated", animated)
	e.transition(target, offset, ContinuousScale, animated)
	return true
}

// ResetToInitial returns the user transform to its value after Reset.
func (e *Engine) ResetToInitial(animated bool) {
	if e.layout.IsEmpty() {
		return
	}
	e.transition(e.initialUser.Scale.X, e.initialUser.Offset, ContinuousScale, animated)
}

// Gesture applies one gesture step: zoom around centroid, then pan.
// Scale overshoot is damped with the rubber band when enabled.
func (e *Engine) Gesture(centroid, pan geom.Offset, zoom float64, pointers int) {
	if e.layout.IsEmpty() {
		return
	}
	e.driver.Stop()
	if zoom == 1 && pointers <= 1 {
		e.setContinuous(ContinuousDrag)
	} else {
		e.setContinuous(ContinuousPinch)
	}
	s := e.user.Scale.X
	target := s
	if zoom > 0 && !math.IsNaN(zoom) {
		target = s * zoom
	}
	if e.opts.RubberBandScale {
		target = LimitScaleWithRubberBand(s, target, e.minScale, e.maxScale, e.opts.RubberBandRatio)
	} else {
		target = math.Max(e.minScale, math.Min(e.maxScale, target))
	}
	offset := e.anchoredOffset(centroid, target).Add(pan)
	offset = geom.LimitOffset(offset, e.offsetBounds(target))
	e.setUser(target, offset)
}

// EndGesture finishes a gesture: rebound an overshot scale, or fling.
func (e *Engine) EndGesture(focus, velocity geom.Offset) {
	if e.Rebound(focus) {
		return
	}
	if velocity != (geom.Offset{}) && e.continuous == ContinuousDrag {
		e.Fling(velocity)
		return
	}
	e.setContinuous(ContinuousNone)
}

// transition moves to the user transform (scale, offset), animated or not.
func (e *Engine) transition(scale float64, offset geom.Offset, typ ContinuousTransformType, animated bool) {
	e.driver.Stop()
	if !animated || e.opts.Animation.Duration <= 0 {
		e.continuous = ContinuousNone
		e.user = geom.Transform{Scale: geom.UniformScale(scale), Offset: offset}
		e.notify()
		return
	}
	fromScale, fromOffset := e.user.Scale.X, e.user.Offset
	e.continuous = typ
	e.driver.Start(&anim.Tween{
		Duration: e.opts.Animation.Duration,
		Easing:   e.opts.Animation.Easing,
		OnUpdate: func(f float64) {
			e.setUser(anim.Lerp(fromScale, scale, f), geom.Offset{
				X: anim.Lerp(fromOffset.X, offset.X, f),
				Y: anim.Lerp(fromOffset.Y, offset.Y, f),
			})
		},
		OnEnd: func(canceled bool) {
			if !canceled {
				e.setContinuous(ContinuousNone)
			}
		},
	}, e.clock.Now())
}
