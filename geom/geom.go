// Package geom holds the pure geometry used by the zoom and subsampling
// engines: sizes, offsets, rects, scale factors and transforms.
package geom

import (
	"fmt"
	"image"
	"math"
)

// Size is a float width and height.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty reports whether either dimension is not positive.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Times scales the size by a scale factor.
func (s Size) Times(f ScaleFactor) Size {
	return Size{Width: s.Width * f.X, Height: s.Height * f.Y}
}

func (s Size) String() string {
	return fmt.Sprintf("%.2fx%.2f", s.Width, s.Height)
}

// IntSize is an integer width and height, used for container, content and
// source image dimensions.
type IntSize struct {
	Width  int
	Height int
}

// IsEmpty reports whether either dimension is not positive.
func (s IntSize) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// ToSize converts to a float Size.
func (s IntSize) ToSize() Size {
	return Size{Width: float64(s.Width), Height: float64(s.Height)}
}

// Rotate returns the size after a rotation by a multiple of 90 degrees.
func (s IntSize) Rotate(rotation int) IntSize {
	if NormalizeRotation(rotation)%180 == 0 {
		return s
	}
	return IntSize{Width: s.Height, Height: s.Width}
}

// Bounds returns the rectangle (0,0)-(w,h).
func (s IntSize) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

func (s IntSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeOf returns the IntSize of an integer rectangle.
func SizeOf(r image.Rectangle) IntSize {
	return IntSize{Width: r.Dx(), Height: r.Dy()}
}

// Offset is a point or a displacement.
type Offset struct {
	X float64
	Y float64
}

func (o Offset) Add(other Offset) Offset { return Offset{X: o.X + other.X, Y: o.Y + other.Y} }
func (o Offset) Sub(other Offset) Offset { return Offset{X: o.X - other.X, Y: o.Y - other.Y} }
func (o Offset) Mul(v float64) Offset    { return Offset{X: o.X * v, Y: o.Y * v} }

// Times multiplies each axis by the matching scale factor.
func (o Offset) Times(f ScaleFactor) Offset {
	return Offset{X: o.X * f.X, Y: o.Y * f.Y}
}

// Div divides each axis by the matching scale factor. Zero factors yield zero.
func (o Offset) Div(f ScaleFactor) Offset {
	return Offset{X: safeDiv(o.X, f.X), Y: safeDiv(o.Y, f.Y)}
}

// Length is the euclidean length of the offset.
func (o Offset) Length() float64 {
	return math.Hypot(o.X, o.Y)
}

func (o Offset) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", o.X, o.Y)
}

// Rect is a float rectangle. Left/Top are inclusive, Right/Bottom exclusive.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectFromSize returns a rect at origin with the given size.
func RectFromSize(s Size) Rect {
	return Rect{Right: s.Width, Bottom: s.Height}
}

// RectOf converts an integer rectangle.
func RectOf(r image.Rectangle) Rect {
	return Rect{Left: float64(r.Min.X), Top: float64(r.Min.Y), Right: float64(r.Max.X), Bottom: float64(r.Max.Y)}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Size returns the rect dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

// TopLeft returns the (Left, Top) corner.
func (r Rect) TopLeft() Offset {
	return Offset{X: r.Left, Y: r.Top}
}

// Center returns the midpoint of the rect.
func (r Rect) Center() Offset {
	return Offset{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Translate moves the rect by delta.
func (r Rect) Translate(d Offset) Rect {
	return Rect{Left: r.Left + d.X, Top: r.Top + d.Y, Right: r.Right + d.X, Bottom: r.Bottom + d.Y}
}

// Scale multiplies all coordinates by the scale factor.
func (r Rect) Scale(f ScaleFactor) Rect {
	return Rect{Left: r.Left * f.X, Top: r.Top * f.Y, Right: r.Right * f.X, Bottom: r.Bottom * f.Y}
}

// Contains reports whether p is inside the rect.
func (r Rect) Contains(p Offset) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersect returns the overlap of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   math.Max(r.Left, o.Left),
		Top:    math.Max(r.Top, o.Top),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Inset grows the rect by dx and dy on each side (negative values shrink).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{Left: r.Left - dx, Top: r.Top - dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Round returns the smallest integer rectangle covering r.
func (r Rect) Round() image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.Left)), int(math.Floor(r.Top)),
		int(math.Ceil(r.Right)), int(math.Ceil(r.Bottom)),
	)
}

// Normalize swaps edges so that Left <= Right and Top <= Bottom.
func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.2f,%.2f,%.2f,%.2f]", r.Left, r.Top, r.Right, r.Bottom)
}

// ScaleFactor is a per-axis scale.
type ScaleFactor struct {
	X float64
	Y float64
}

// IdentityScale is a scale of 1 on both axes.
var IdentityScale = ScaleFactor{X: 1, Y: 1}

// UniformScale returns a ScaleFactor with the same value on both axes.
func UniformScale(v float64) ScaleFactor {
	return ScaleFactor{X: v, Y: v}
}

func (f ScaleFactor) Times(o ScaleFactor) ScaleFactor {
	return ScaleFactor{X: f.X * o.X, Y: f.Y * o.Y}
}

func (f ScaleFactor) Div(o ScaleFactor) ScaleFactor {
	return ScaleFactor{X: safeDiv(f.X, o.X), Y: safeDiv(f.Y, o.Y)}
}

func (f ScaleFactor) String() string {
	return fmt.Sprintf("%.2fx%.2f", f.X, f.Y)
}

// TransformOrigin is a pivot expressed as a fraction of the content size.
type TransformOrigin struct {
	PivotX float64
	PivotY float64
}

var (
	OriginTopStart = TransformOrigin{}
	OriginCenter   = TransformOrigin{PivotX: 0.5, PivotY: 0.5}
)

// Format rounds v to the given number of decimal places. Scale comparisons
// go through it so that level switches do not flicker on float noise.
func Format(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
