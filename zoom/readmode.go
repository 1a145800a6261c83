package zoom

import "zoomimage/geom"

// ReadModeSizes selects which kinds of long content read mode applies to.
type ReadModeSizes int

const (
	ReadModeHorizontal ReadModeSizes = 1 << iota
	ReadModeVertical

	ReadModeBoth = ReadModeHorizontal | ReadModeVertical
)

// ReadModeDecider reports whether read mode should apply to the rotated
// content size in the container.
type ReadModeDecider func(container, content geom.IntSize) bool

// ReadMode starts long content filled along its short edge and aligned to
// its start, as for comic strips.
type ReadMode struct {
	Sizes   ReadModeSizes
	Decider ReadModeDecider
}

// DefaultLongImageRatio is how much the content aspect must differ from the
// container's before it counts as a long image.
const DefaultLongImageRatio = 2.5

// LongImageDecider accepts content whose aspect ratio differs from the
// container's by at least ratio.
func LongImageDecider(ratio float64) ReadModeDecider {
	return func(container, content geom.IntSize) bool {
		if container.IsEmpty() || content.IsEmpty() {
			return false
		}
		s := geom.ContentScaleCrop.Scale(content.ToSize(), container.ToSize()).X /
			geom.ContentScaleFit.Scale(content.ToSize(), container.ToSize()).X
		return s >= ratio
	}
}

// DefaultReadMode applies to both orientations with DefaultLongImageRatio.
func DefaultReadMode() *ReadMode {
	return &ReadMode{Sizes: ReadModeBoth, Decider: LongImageDecider(DefaultLongImageRatio)}
}

// accepts reports whether read mode applies to the layout.
func (r *ReadMode) accepts(l geom.Layout) bool {
	if r == nil || l.IsEmpty() {
		return false
	}
	content := l.RotatedContent()
	container := l.Container
	wide := float64(content.Width)/float64(content.Height) > float64(container.Width)/float64(container.Height)
	if wide && r.Sizes&ReadModeHorizontal == 0 {
		return false
	}
	if !wide && r.Sizes&ReadModeVertical == 0 {
		return false
	}
	decider := r.Decider
	if decider == nil {
		decider = LongImageDecider(DefaultLongImageRatio)
	}
	return decider(container, content)
}

// initialUserTransform fills the short edge of long content and aligns it
// to the start edge.
func (r *ReadMode) initialUserTransform(l geom.Layout, base geom.Transform, limitToBaseVisible bool) geom.Transform {
	if !r.accepts(l) {
		return geom.Identity
	}
	rotated := l.RotatedContent().ToSize()
	crop := geom.ContentScaleCrop.Scale(rotated, l.Container.ToSize())
	scale := crop.X / base.Scale.X
	if scale <= 1 {
		return geom.Identity
	}
	offset := base.Offset.Mul(-scale)
	offset = geom.LimitOffset(offset, geom.UserOffsetBounds(l, scale, limitToBaseVisible))
	return geom.Transform{Scale: geom.UniformScale(scale), Offset: offset}
}
