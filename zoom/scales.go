package zoom

import (
	"math"

	"zoomimage/geom"
)

// DefaultScaleMultiple is the step between min, medium and max scale.
const DefaultScaleMultiple = 3.0

// ScalePrecision is the number of decimals used when comparing scales.
const ScalePrecision = 2

// ScalesInput carries what a ScalesCalculator may look at.
type ScalesInput struct {
	Container     geom.IntSize
	Content       geom.IntSize
	ContentOrigin geom.IntSize
	ContentScale  geom.ContentScale
	Rotation      int
	BaseScale     geom.ScaleFactor
	// InitialScale is the user scale chosen by read mode, or 1.
	InitialScale float64
}

// ScalesCalculator decides the medium and max user scale. The min user
// scale is always 1.
type ScalesCalculator interface {
	Calculate(in ScalesInput) (medium, max float64)
}

// DynamicScales picks a medium scale that is useful for the content: the
// largest of filling the container, showing origin pixels 1:1, the initial
// scale and Multiple.
type DynamicScales struct {
	Multiple float64
}

func (d DynamicScales) Calculate(in ScalesInput) (float64, float64) {
	multiple := d.Multiple
	if multiple <= 1 {
		multiple = DefaultScaleMultiple
	}
	base := in.BaseScale.X
	if base <= 0 {
		base = 1
	}
	rotated := in.Content.Rotate(in.Rotation).ToSize()
	fill := geom.ContentScaleCrop.Scale(rotated, in.Container.ToSize()).X / base

	origin := 0.0
	if !in.ContentOrigin.IsEmpty() && !in.Content.IsEmpty() {
		origin = float64(in.ContentOrigin.Width) / float64(in.Content.Width) / base
	}

	medium := math.Max(math.Max(fill, origin), math.Max(in.InitialScale, multiple))
	return medium, medium * multiple
}

// FixedScales uses Multiple and Multiple squared.
type FixedScales struct {
	Multiple float64
}

func (f FixedScales) Calculate(ScalesInput) (float64, float64) {
	multiple := f.Multiple
	if multiple <= 1 {
		multiple = DefaultScaleMultiple
	}
	return multiple, multiple * multiple
}

// NextStepScale returns the first step strictly larger than current,
// comparing at ScalePrecision, or the smallest step when current is at or
// above the largest.
func NextStepScale(current float64, steps []float64) float64 {
	if len(steps) == 0 {
		return current
	}
	c := geom.Format(current, ScalePrecision)
	smallest := steps[0]
	next := math.Inf(1)
	for _, s := range steps {
		smallest = math.Min(smallest, s)
		if geom.Format(s, ScalePrecision) > c && s < next {
			next = s
		}
	}
	if math.IsInf(next, 1) {
		return smallest
	}
	return next
}

// DefaultRubberBandRatio bounds rubber band overshoot to max*2 and min/2.
const DefaultRubberBandRatio = 2.0

const maxRubberBandProgress = 0.95

// LimitScaleWithRubberBand damps a scale change that goes past a bound.
// The further past the bound the target is, the smaller the applied step.
// Inside the bounds the target is returned unchanged.
func LimitScaleWithRubberBand(current, target, minScale, maxScale, ratio float64) float64 {
	if ratio <= 1 {
		ratio = DefaultRubberBandRatio
	}
	var over, room float64
	switch {
	case target > maxScale:
		over = target - maxScale
		room = maxScale*ratio - maxScale
	case target < minScale:
		over = minScale - target
		room = minScale - minScale/ratio
	default:
		return target
	}
	if room <= 0 {
		return math.Max(minScale, math.Min(maxScale, target))
	}
	progress := math.Min(over/room, maxRubberBandProgress)
	return current + (target-current)*0.5*(1-progress)
}
