package geom

// NormalizeRotation folds degrees into [0, 360). Values that are not a
// multiple of 90 are treated as no rotation.
func NormalizeRotation(degrees int) int {
	r := ((degrees % 360) + 360) % 360
	if r%90 != 0 {
		return 0
	}
	return r
}

// RotatePoint maps a point of content with the given size into the
// coordinates of the content rotated clockwise.
func RotatePoint(p Offset, size Size, rotation int) Offset {
	switch NormalizeRotation(rotation) {
	case 90:
		return Offset{X: size.Height - p.Y, Y: p.X}
	case 180:
		return Offset{X: size.Width - p.X, Y: size.Height - p.Y}
	case 270:
		return Offset{X: p.Y, Y: size.Width - p.X}
	default:
		return p
	}
}

// UnrotatePoint is the inverse of RotatePoint. size is the unrotated size.
func UnrotatePoint(p Offset, size Size, rotation int) Offset {
	switch NormalizeRotation(rotation) {
	case 90:
		return Offset{X: p.Y, Y: size.Height - p.X}
	case 180:
		return Offset{X: size.Width - p.X, Y: size.Height - p.Y}
	case 270:
		return Offset{X: size.Width - p.Y, Y: p.X}
	default:
		return p
	}
}

// RotateRect maps a content rect into rotated content coordinates.
func RotateRect(r Rect, size Size, rotation int) Rect {
	a := RotatePoint(r.TopLeft(), size, rotation)
	b := RotatePoint(Offset{X: r.Right, Y: r.Bottom}, size, rotation)
	return Rect{Left: a.X, Top: a.Y, Right: b.X, Bottom: b.Y}.Normalize()
}

// UnrotateRect maps a rotated content rect back into content coordinates.
func UnrotateRect(r Rect, size Size, rotation int) Rect {
	a := UnrotatePoint(r.TopLeft(), size, rotation)
	b := UnrotatePoint(Offset{X: r.Right, Y: r.Bottom}, size, rotation)
	return Rect{Left: a.X, Top: a.Y, Right: b.X, Bottom: b.Y}.Normalize()
}
