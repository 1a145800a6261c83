// Package zoom owns the user transform of a zoomable view: scale bounds,
// gesture mapping, clamping, rubber band and animated transitions. All
// methods must be called from the UI thread.
package zoom

import (
	"strings"
	"time"

	"zoomimage/anim"
	"zoomimage/geom"
)

// ContinuousTransformType marks transform changes that span many frames.
type ContinuousTransformType uint8

const (
	ContinuousScale ContinuousTransformType = 1 << iota
	ContinuousOffset
	ContinuousLocate
	ContinuousDrag
	ContinuousPinch
	ContinuousFling

	ContinuousNone ContinuousTransformType = 0
	ContinuousAll                          = ContinuousScale | ContinuousOffset | ContinuousLocate |
		ContinuousDrag | ContinuousPinch | ContinuousFling
)

var continuousNames = []struct {
	t    ContinuousTransformType
	name string
}{
	{ContinuousScale, "scale"},
	{ContinuousOffset, "offset"},
	{ContinuousLocate, "locate"},
	{ContinuousDrag, "drag"},
	{ContinuousPinch, "pinch"},
	{ContinuousFling, "fling"},
}

// Has reports whether any of other is set.
func (c ContinuousTransformType) Has(other ContinuousTransformType) bool {
	return c&other != 0
}

func (c ContinuousTransformType) String() string {
	var parts []string
	for _, n := range continuousNames {
		if c&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseContinuousTypes parses names joined by '|'. Unknown names are
// skipped and reported in the second result.
func ParseContinuousTypes(s string) (ContinuousTransformType, []string) {
	var t ContinuousTransformType
	var unknown []string
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, n := range continuousNames {
			if n.name == part {
				t |= n.t
				found = true
			}
		}
		if !found {
			unknown = append(unknown, part)
		}
	}
	return t, unknown
}

// AnimationSpec configures animated transitions.
type AnimationSpec struct {
	Duration time.Duration
	Easing   anim.Easing
}

// DefaultAnimationSpec is a 300ms fast-out-slow-in transition.
func DefaultAnimationSpec() AnimationSpec {
	return AnimationSpec{Duration: 300 * time.Millisecond, Easing: anim.FastOutSlowIn}
}

// Snapshot is the read-only state consumed by renderers, scroll bars and
// the subsampling engine.
type Snapshot struct {
	Layout            geom.Layout
	ContentOriginSize geom.IntSize

	BaseTransform geom.Transform
	UserTransform geom.Transform
	// Transform is the display transform, base plus user.
	Transform geom.Transform

	// Scale bounds in user space; MinScale is 1.
	MinScale    float64
	MediumScale float64
	MaxScale    float64

	ContentBaseDisplayRect geom.Rect
	ContentDisplayRect     geom.Rect
	// ContentVisibleRect is in unrotated content coordinates.
	ContentVisibleRect geom.Rect
	UserOffsetBounds   geom.Rect
	ScrollEdges        geom.ScrollEdges

	Continuous ContinuousTransformType
}

// UserScale returns the user scale.
func (s Snapshot) UserScale() float64 {
	return s.UserTransform.Scale.X
}

// ContainerSize returns the container size.
func (s Snapshot) ContainerSize() geom.IntSize {
	return s.Layout.Container
}

// ContentSize returns the content size.
func (s Snapshot) ContentSize() geom.IntSize {
	return s.Layout.Content
}
