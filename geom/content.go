package geom

import (
	"fmt"
	"math"
)

// ContentScale decides how content is fitted into its container.
type ContentScale int

const (
	ContentScaleFit ContentScale = iota
	ContentScaleCrop
	ContentScaleInside
	ContentScaleFillWidth
	ContentScaleFillHeight
	ContentScaleFillBounds
	ContentScaleNone
)

var contentScaleNames = map[ContentScale]string{
	ContentScaleFit:        "Fit",
	ContentScaleCrop:       "Crop",
	ContentScaleInside:     "Inside",
	ContentScaleFillWidth:  "FillWidth",
	ContentScaleFillHeight: "FillHeight",
	ContentScaleFillBounds: "FillBounds",
	ContentScaleNone:       "None",
}

func (c ContentScale) String() string {
	if name, ok := contentScaleNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ContentScale(%d)", int(c))
}

// ParseContentScale returns the ContentScale with the given name, or Fit.
func ParseContentScale(name string) (ContentScale, bool) {
	for c, n := range contentScaleNames {
		if n == name {
			return c, true
		}
	}
	return ContentScaleFit, false
}

// Scale computes the factor that fits src into dst.
func (c ContentScale) Scale(src, dst Size) ScaleFactor {
	if src.IsEmpty() || dst.IsEmpty() {
		return IdentityScale
	}
	wr := dst.Width / src.Width
	hr := dst.Height / src.Height
	switch c {
	case ContentScaleCrop:
		return UniformScale(math.Max(wr, hr))
	case ContentScaleInside:
		if src.Width <= dst.Width && src.Height <= dst.Height {
			return IdentityScale
		}
		return UniformScale(math.Min(wr, hr))
	case ContentScaleFillWidth:
		return UniformScale(wr)
	case ContentScaleFillHeight:
		return UniformScale(hr)
	case ContentScaleFillBounds:
		return ScaleFactor{X: wr, Y: hr}
	case ContentScaleNone:
		return IdentityScale
	default:
		return UniformScale(math.Min(wr, hr))
	}
}

// Alignment places content inside a larger or smaller space.
type Alignment int

const (
	AlignTopStart Alignment = iota
	AlignTopCenter
	AlignTopEnd
	AlignCenterStart
	AlignCenter
	AlignCenterEnd
	AlignBottomStart
	AlignBottomCenter
	AlignBottomEnd
)

var alignmentNames = []string{
	"TopStart", "TopCenter", "TopEnd",
	"CenterStart", "Center", "CenterEnd",
	"BottomStart", "BottomCenter", "BottomEnd",
}

func (a Alignment) String() string {
	if a < 0 || int(a) >= len(alignmentNames) {
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
	return alignmentNames[a]
}

// ParseAlignment returns the Alignment with the given name, or Center.
func ParseAlignment(name string) (Alignment, bool) {
	for i, n := range alignmentNames {
		if n == name {
			return Alignment(i), true
		}
	}
	return AlignCenter, false
}

// Bias returns the horizontal and vertical placement fractions in [0,1].
func (a Alignment) Bias() (h, v float64) {
	if a < 0 || a > AlignBottomEnd {
		a = AlignCenter
	}
	return float64(int(a)%3) / 2, float64(int(a)/3) / 2
}

// IsStart reports whether the alignment hugs the horizontal start edge.
func (a Alignment) IsStart() bool {
	h, _ := a.Bias()
	return h == 0
}

// IsTop reports whether the alignment hugs the top edge.
func (a Alignment) IsTop() bool {
	_, v := a.Bias()
	return v == 0
}

// Align returns the top-left offset of size placed inside space.
func (a Alignment) Align(size, space Size) Offset {
	h, v := a.Bias()
	return Offset{X: (space.Width - size.Width) * h, Y: (space.Height - size.Height) * v}
}

// Layout describes the static inputs of the base transform.
type Layout struct {
	Container    IntSize
	Content      IntSize
	ContentScale ContentScale
	Alignment    Alignment
	Rotation     int
}

// IsEmpty reports whether the layout has no usable container or content.
func (l Layout) IsEmpty() bool {
	return l.Container.IsEmpty() || l.Content.IsEmpty()
}

// RotatedContent returns the content size after rotation.
func (l Layout) RotatedContent() IntSize {
	return l.Content.Rotate(l.Rotation)
}

// BaseTransform computes the transform that places the rotated content
// into the container according to the content scale and alignment.
func BaseTransform(l Layout) Transform {
	if l.IsEmpty() {
		return Identity
	}
	rotated := l.RotatedContent().ToSize()
	container := l.Container.ToSize()
	scale := l.ContentScale.Scale(rotated, container)
	offset := l.Alignment.Align(rotated.Times(scale), container)
	return Transform{
		Scale:          scale,
		Offset:         offset,
		Rotation:       NormalizeRotation(l.Rotation),
		RotationOrigin: OriginCenter,
	}
}

// ContentBaseDisplayRect is the container-space rect of the content under
// the base transform alone.
func ContentBaseDisplayRect(l Layout) Rect {
	if l.IsEmpty() {
		return Rect{}
	}
	return BaseTransform(l).ApplyRect(RectFromSize(l.RotatedContent().ToSize()))
}

// ContentBaseVisibleRect is the part of the base display rect inside the
// container, in container coordinates.
func ContentBaseVisibleRect(l Layout) Rect {
	return ContentBaseDisplayRect(l).Intersect(RectFromSize(l.Container.ToSize()))
}

// ContentDisplayRect is the container-space rect of the content under the
// given display transform (base plus user).
func ContentDisplayRect(l Layout, display Transform) Rect {
	if l.IsEmpty() {
		return Rect{}
	}
	return display.ApplyRect(RectFromSize(l.RotatedContent().ToSize()))
}

// UserOffsetBounds returns the allowed user offsets for the given user
// scale as a rect: Left/Right bound X, Top/Bottom bound Y. On an axis where
// the scaled content is smaller than the container the bound collapses to
// the aligned position. With limitToBaseVisible the pannable area is the
// part of the content visible at base scale.
func UserOffsetBounds(l Layout, userScale float64, limitToBaseVisible bool) Rect {
	if l.IsEmpty() || userScale <= 0 {
		return Rect{}
	}
	base := ContentBaseDisplayRect(l)
	if limitToBaseVisible {
		base = ContentBaseVisibleRect(l)
	}
	scaled := base.Scale(UniformScale(userScale))
	container := l.Container.ToSize()
	hBias, vBias := l.Alignment.Bias()

	var bounds Rect
	if scaled.Width() >= container.Width {
		bounds.Left = container.Width - scaled.Right
		bounds.Right = -scaled.Left
	} else {
		x := (container.Width-scaled.Width())*hBias - scaled.Left
		bounds.Left, bounds.Right = x, x
	}
	if scaled.Height() >= container.Height {
		bounds.Top = container.Height - scaled.Bottom
		bounds.Bottom = -scaled.Top
	} else {
		y := (container.Height-scaled.Height())*vBias - scaled.Top
		bounds.Top, bounds.Bottom = y, y
	}
	return bounds
}

// LimitOffset clamps an offset into bounds produced by UserOffsetBounds.
func LimitOffset(o Offset, bounds Rect) Offset {
	return Offset{
		X: clamp(o.X, bounds.Left, bounds.Right),
		Y: clamp(o.Y, bounds.Top, bounds.Bottom),
	}
}

// ContentVisibleRect returns the part of the content visible in the
// container, in unrotated content coordinates.
func ContentVisibleRect(l Layout, display Transform) Rect {
	if l.IsEmpty() {
		return Rect{}
	}
	rotated := l.RotatedContent().ToSize()
	visible := display.InvertRect(RectFromSize(l.Container.ToSize())).Normalize()
	visible = visible.Intersect(RectFromSize(rotated))
	if visible.IsEmpty() {
		return Rect{}
	}
	return UnrotateRect(visible, l.Content.ToSize(), l.Rotation)
}

// ContainerToContent maps a container point to an unrotated content point,
// clamped into the content bounds.
func ContainerToContent(l Layout, display Transform, p Offset) Offset {
	if l.IsEmpty() {
		return Offset{}
	}
	rotated := l.RotatedContent().ToSize()
	q := display.Invert(p)
	q = Offset{X: clamp(q.X, 0, rotated.Width), Y: clamp(q.Y, 0, rotated.Height)}
	return UnrotatePoint(q, l.Content.ToSize(), l.Rotation)
}

// ContentToContainer maps an unrotated content point to container space.
func ContentToContainer(l Layout, display Transform, p Offset) Offset {
	if l.IsEmpty() {
		return Offset{}
	}
	return display.Apply(RotatePoint(p, l.Content.ToSize(), l.Rotation))
}
