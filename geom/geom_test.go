package geom

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentScale(t *testing.T) {
	src := Size{Width: 500, Height: 250}
	dst := Size{Width: 1000, Height: 1000}

	tests := []struct {
		name     string
		scale    ContentScale
		expected ScaleFactor
	}{
		{"Fit", ContentScaleFit, UniformScale(2)},
		{"Crop", ContentScaleCrop, UniformScale(4)},
		{"Inside small content", ContentScaleInside, IdentityScale},
		{"FillWidth", ContentScaleFillWidth, UniformScale(2)},
		{"FillHeight", ContentScaleFillHeight, UniformScale(4)},
		{"FillBounds", ContentScaleFillBounds, ScaleFactor{X: 2, Y: 4}},
		{"None", ContentScaleNone, IdentityScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.scale.Scale(src, dst))
		})
	}

	t.Run("Inside large content", func(t *testing.T) {
		got := ContentScaleInside.Scale(Size{Width: 2000, Height: 1000}, dst)
		assert.Equal(t, UniformScale(0.5), got)
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Equal(t, IdentityScale, ContentScaleFit.Scale(Size{}, dst))
	})
}

func TestBaseTransform(t *testing.T) {
	tests := []struct {
		name           string
		layout         Layout
		expectedScale  ScaleFactor
		expectedOffset Offset
	}{
		{
			name:           "Fit square into square",
			layout:         Layout{Container: IntSize{1000, 1000}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignCenter},
			expectedScale:  UniformScale(2),
			expectedOffset: Offset{},
		},
		{
			name:           "Fit square into wide container",
			layout:         Layout{Container: IntSize{1000, 800}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignCenter},
			expectedScale:  UniformScale(1.6),
			expectedOffset: Offset{X: 100},
		},
		{
			name:           "Fit aligned to end",
			layout:         Layout{Container: IntSize{1000, 800}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignBottomEnd},
			expectedScale:  UniformScale(1.6),
			expectedOffset: Offset{X: 200},
		},
		{
			name:           "Rotated content",
			layout:         Layout{Container: IntSize{200, 400}, Content: IntSize{400, 200}, ContentScale: ContentScaleFit, Alignment: AlignCenter, Rotation: 90},
			expectedScale:  UniformScale(1),
			expectedOffset: Offset{},
		},
		{
			name:           "Empty container",
			layout:         Layout{Content: IntSize{400, 200}},
			expectedScale:  IdentityScale,
			expectedOffset: Offset{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := BaseTransform(tt.layout)
			assert.InDelta(t, tt.expectedScale.X, base.Scale.X, 1e-9)
			assert.InDelta(t, tt.expectedScale.Y, base.Scale.Y, 1e-9)
			assert.InDelta(t, tt.expectedOffset.X, base.Offset.X, 1e-9)
			assert.InDelta(t, tt.expectedOffset.Y, base.Offset.Y, 1e-9)
		})
	}
}

func TestBaseTransformRoundTrip(t *testing.T) {
	containers := []IntSize{{1000, 1000}, {1080, 1920}, {1920, 1080}, {333, 777}}
	contents := []IntSize{{500, 500}, {4000, 3000}, {300, 6000}, {12, 7}}
	scales := []ContentScale{ContentScaleFit, ContentScaleCrop, ContentScaleInside, ContentScaleFillWidth, ContentScaleFillHeight, ContentScaleFillBounds, ContentScaleNone}

	for _, container := range containers {
		for _, content := range contents {
			for _, cs := range scales {
				l := Layout{Container: container, Content: content, ContentScale: cs, Alignment: AlignCenter}
				rect := ContentBaseDisplayRect(l)
				factor := cs.Scale(content.ToSize(), container.ToSize())
				assert.InDelta(t, float64(content.Width)*factor.X, rect.Width(), 1e-6, "%s %s %s", container, content, cs)
				assert.InDelta(t, float64(content.Height)*factor.Y, rect.Height(), 1e-6, "%s %s %s", container, content, cs)
				center := rect.Center()
				assert.InDelta(t, float64(container.Width)/2, center.X, 1e-6)
				assert.InDelta(t, float64(container.Height)/2, center.Y, 1e-6)
			}
		}
	}
}

func TestTransformPlusMinus(t *testing.T) {
	base := Transform{Scale: UniformScale(2), Offset: Offset{X: 10, Y: 20}}
	user := Transform{Scale: UniformScale(3), Offset: Offset{X: 5, Y: 5}}

	display := base.Plus(user)
	assert.Equal(t, UniformScale(6), display.Scale)
	assert.Equal(t, Offset{X: 35, Y: 65}, display.Offset)

	back := display.Minus(user)
	assert.InDelta(t, 2, back.Scale.X, 1e-9)
	assert.InDelta(t, 10, back.Offset.X, 1e-9)
	assert.InDelta(t, 20, back.Offset.Y, 1e-9)

	p := Offset{X: 7, Y: 9}
	assert.Equal(t, user.Apply(base.Apply(p)), display.Apply(p))
	q := display.Invert(display.Apply(p))
	assert.InDelta(t, p.X, q.X, 1e-9)
	assert.InDelta(t, p.Y, q.Y, 1e-9)
}

func TestRotation(t *testing.T) {
	size := Size{Width: 400, Height: 200}

	assert.Equal(t, 90, NormalizeRotation(-270))
	assert.Equal(t, 0, NormalizeRotation(45))
	assert.Equal(t, 180, NormalizeRotation(540))

	assert.Equal(t, Offset{X: 200, Y: 0}, RotatePoint(Offset{}, size, 90))
	assert.Equal(t, Offset{X: 0, Y: 400}, RotatePoint(Offset{X: 400, Y: 200}, size, 90))
	assert.Equal(t, Offset{X: 0, Y: 400}, RotatePoint(Offset{}, size, 270))

	for _, rotation := range []int{0, 90, 180, 270} {
		p := Offset{X: 123, Y: 45}
		assert.Equal(t, p, UnrotatePoint(RotatePoint(p, size, rotation), size, rotation), "rotation %d", rotation)

		r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}
		back := UnrotateRect(RotateRect(r, size, rotation), size, rotation)
		assert.Equal(t, r, back, "rotation %d", rotation)
	}

	assert.Equal(t, IntSize{200, 400}, IntSize{400, 200}.Rotate(270))
}

func TestUserOffsetBounds(t *testing.T) {
	square := Layout{Container: IntSize{1000, 1000}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignCenter}
	wide := Layout{Container: IntSize{1000, 800}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignCenter}

	tests := []struct {
		name     string
		layout   Layout
		scale    float64
		expected Rect
	}{
		{"Square at min scale", square, 1, Rect{}},
		{"Square zoomed", square, 2, Rect{Left: -1000, Top: -1000, Right: 0, Bottom: 0}},
		{"Wide at min scale", wide, 1, Rect{}},
		{"Wide zoomed", wide, 2, Rect{Left: -800, Top: -800, Right: -200, Bottom: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserOffsetBounds(tt.layout, tt.scale, false)
			assert.InDelta(t, tt.expected.Left, got.Left, 1e-9)
			assert.InDelta(t, tt.expected.Top, got.Top, 1e-9)
			assert.InDelta(t, tt.expected.Right, got.Right, 1e-9)
			assert.InDelta(t, tt.expected.Bottom, got.Bottom, 1e-9)
		})
	}

	t.Run("Limit to base visible rect", func(t *testing.T) {
		crop := Layout{Container: IntSize{1000, 1000}, Content: IntSize{1000, 500}, ContentScale: ContentScaleCrop, Alignment: AlignCenter}
		free := UserOffsetBounds(crop, 1, false)
		limited := UserOffsetBounds(crop, 1, true)
		assert.Equal(t, -500.0, free.Left)
		assert.Equal(t, 500.0, free.Right)
		assert.Equal(t, 0.0, limited.Left)
		assert.Equal(t, 0.0, limited.Right)
	})
}

func TestLimitOffsetIdempotent(t *testing.T) {
	bounds := Rect{Left: -1000, Top: -800, Right: -200, Bottom: 0}
	offsets := []Offset{{0, 0}, {-500, -400}, {-2000, 100}, {300, -900}, {-200, -800}}

	for _, o := range offsets {
		once := LimitOffset(o, bounds)
		assert.GreaterOrEqual(t, once.X, bounds.Left)
		assert.LessOrEqual(t, once.X, bounds.Right)
		assert.GreaterOrEqual(t, once.Y, bounds.Top)
		assert.LessOrEqual(t, once.Y, bounds.Bottom)
		assert.Equal(t, once, LimitOffset(once, bounds))
	}

	inBounds := Offset{X: -500, Y: -400}
	assert.Equal(t, inBounds, LimitOffset(inBounds, bounds))
}

func TestContentVisibleRect(t *testing.T) {
	l := Layout{Container: IntSize{1000, 1000}, Content: IntSize{500, 500}, ContentScale: ContentScaleFit, Alignment: AlignCenter}
	base := BaseTransform(l)

	full := ContentVisibleRect(l, base)
	assert.Equal(t, Rect{Right: 500, Bottom: 500}, full)

	user := Transform{Scale: UniformScale(2), Offset: Offset{X: -500, Y: -500}}
	zoomed := ContentVisibleRect(l, base.Plus(user))
	assert.InDelta(t, 125, zoomed.Left, 1e-9)
	assert.InDelta(t, 125, zoomed.Top, 1e-9)
	assert.InDelta(t, 375, zoomed.Right, 1e-9)
	assert.InDelta(t, 375, zoomed.Bottom, 1e-9)

	assert.True(t, ContentVisibleRect(Layout{}, base).IsEmpty())
}

func TestContainerContentMapping(t *testing.T) {
	l := Layout{Container: IntSize{1000, 1000}, Content: IntSize{500, 250}, ContentScale: ContentScaleFit, Alignment: AlignCenter, Rotation: 90}
	display := BaseTransform(l)

	p := Offset{X: 100, Y: 50}
	c := ContentToContainer(l, display, p)
	back := ContainerToContent(l, display, c)
	require.InDelta(t, p.X, back.X, 1e-9)
	require.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestScrollEdges(t *testing.T) {
	bounds := Rect{Left: -1000, Top: -1000, Right: 0, Bottom: 0}

	tests := []struct {
		name     string
		offset   Offset
		bounds   Rect
		expected ScrollEdges
	}{
		{"Top left", Offset{}, bounds, ScrollEdges{EdgeStart, EdgeStart}},
		{"Middle", Offset{X: -500, Y: -500}, bounds, ScrollEdges{EdgeNone, EdgeNone}},
		{"Bottom right", Offset{X: -1000, Y: -1000}, bounds, ScrollEdges{EdgeEnd, EdgeEnd}},
		{"Collapsed", Offset{}, Rect{}, ScrollEdges{EdgeBoth, EdgeBoth}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeScrollEdges(tt.offset, tt.bounds))
		})
	}

	assert.False(t, EdgeStart.CanScroll(10))
	assert.True(t, EdgeStart.CanScroll(-10))
	assert.False(t, EdgeEnd.CanScroll(-10))
	assert.False(t, EdgeBoth.CanScroll(1))
	assert.True(t, EdgeNone.CanScroll(1))
}

func TestRectRound(t *testing.T) {
	r := Rect{Left: 0.5, Top: 1.2, Right: 10.1, Bottom: 20}
	assert.Equal(t, image.Rect(0, 1, 11, 20), r.Round())
	assert.Equal(t, image.Rectangle{}, Rect{}.Round())
	assert.Equal(t, 1.23, Format(1.2349, 2))
}
