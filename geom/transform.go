package geom

import "fmt"

// Transform maps rotated content coordinates into container coordinates:
// p' = p*Scale + Offset. Rotation is carried for the renderer and always
// pivots around RotationOrigin of the unrotated content.
type Transform struct {
	Scale          ScaleFactor
	Offset         Offset
	Rotation       int
	ScaleOrigin    TransformOrigin
	RotationOrigin TransformOrigin
}

// Identity is the neutral transform.
var Identity = Transform{Scale: IdentityScale}

// IsIdentity reports whether the transform has no effect.
func (t Transform) IsIdentity() bool {
	return t.Scale == IdentityScale && t.Offset == (Offset{}) && t.Rotation == 0
}

// ScaleX returns the horizontal scale, used as the scalar scale for
// uniform content scales.
func (t Transform) ScaleX() float64 {
	return t.Scale.X
}

// Plus applies other after t: display = base.Plus(user).
func (t Transform) Plus(other Transform) Transform {
	return Transform{
		Scale:          t.Scale.Times(other.Scale),
		Offset:         t.Offset.Times(other.Scale).Add(other.Offset),
		Rotation:       NormalizeRotation(t.Rotation + other.Rotation),
		ScaleOrigin:    t.ScaleOrigin,
		RotationOrigin: t.RotationOrigin,
	}
}

// Minus removes other from t, so that t.Minus(user) recovers base when
// t == base.Plus(user).
func (t Transform) Minus(other Transform) Transform {
	return Transform{
		Scale:          t.Scale.Div(other.Scale),
		Offset:         t.Offset.Sub(other.Offset).Div(other.Scale),
		Rotation:       NormalizeRotation(t.Rotation - other.Rotation),
		ScaleOrigin:    t.ScaleOrigin,
		RotationOrigin: t.RotationOrigin,
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Offset) Offset {
	return p.Times(t.Scale).Add(t.Offset)
}

// Invert maps a transformed point back.
func (t Transform) Invert(p Offset) Offset {
	return p.Sub(t.Offset).Div(t.Scale)
}

// ApplyRect maps a rect through the transform.
func (t Transform) ApplyRect(r Rect) Rect {
	return r.Scale(t.Scale).Translate(t.Offset)
}

// InvertRect maps a transformed rect back.
func (t Transform) InvertRect(r Rect) Rect {
	return r.Translate(Offset{X: -t.Offset.X, Y: -t.Offset.Y}).Scale(ScaleFactor{X: safeDiv(1, t.Scale.X), Y: safeDiv(1, t.Scale.Y)})
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform(scale=%s, offset=%s, rotation=%d)", t.Scale, t.Offset, t.Rotation)
}
