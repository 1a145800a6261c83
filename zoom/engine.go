package zoom

import (
	"log/slog"
	"math"
	"time"

	"zoomimage/anim"
	"zoomimage/geom"
)

// Options configures an Engine.
type Options struct {
	ContentScale     geom.ContentScale
	Alignment        geom.Alignment
	ReadMode         *ReadMode
	ScalesCalculator ScalesCalculator
	ThreeStepScale   bool
	RubberBandScale  bool
	RubberBandRatio  float64
	Animation        AnimationSpec
	// LimitOffsetWithinBaseVisibleRect restricts panning to the part of
	// the content visible at base scale.
	LimitOffsetWithinBaseVisibleRect bool
	Clock                            anim.Clock
}

// DefaultOptions returns Fit, centered, dynamic scales, rubber band on.
func DefaultOptions() Options {
	return Options{
		ContentScale:     geom.ContentScaleFit,
		Alignment:        geom.AlignCenter,
		ScalesCalculator: DynamicScales{Multiple: DefaultScaleMultiple},
		ThreeStepScale:   false,
		RubberBandScale:  true,
		RubberBandRatio:  DefaultRubberBandRatio,
		Animation:        DefaultAnimationSpec(),
	}
}

// Engine is the zoomable state of one view.
type Engine struct {
	logger *slog.Logger
	opts   Options
	clock  anim.Clock
	driver anim.Driver

	container     geom.IntSize
	content       geom.IntSize
	contentOrigin geom.IntSize
	rotation      int

	layout      geom.Layout
	base        geom.Transform
	user        geom.Transform
	initialUser geom.Transform
	minScale    float64
	mediumScale float64
	maxScale    float64
	continuous  ContinuousTransformType

	subscribers map[int]func(Snapshot)
	nextSubID   int

	onTap       func(geom.Offset)
	onLongPress func(geom.Offset)
}

// NewEngine creates an engine with no container or content. A nil logger
// discards output.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ScalesCalculator == nil {
		opts.ScalesCalculator = DynamicScales{Multiple: DefaultScaleMultiple}
	}
	if opts.Animation.Easing == nil {
		opts.Animation.Easing = anim.FastOutSlowIn
	}
	clock := opts.Clock
	if clock == nil {
		clock = anim.SystemClock{}
	}
	e := &Engine{
		logger:      logger,
		opts:        opts,
		clock:       clock,
		base:        geom.Identity,
		user:        geom.Identity,
		initialUser: geom.Identity,
		minScale:    1,
		mediumScale: 1,
		maxScale:    1,
		subscribers: make(map[int]func(Snapshot)),
	}
	return e
}

func (e *Engine) SetContainerSize(s geom.IntSize) {
	if e.container == s {
		return
	}
	e.container = s
	e.Reset()
}

func (e *Engine) SetContentSize(s geom.IntSize) {
	if e.content == s {
		return
	}
	e.content = s
	e.Reset()
}

// SetContentOriginSize sets the full-resolution size of the content, used
// for the 1:1 medium scale and by subsampling.
func (e *Engine) SetContentOriginSize(s geom.IntSize) {
	if e.contentOrigin == s {
		return
	}
	e.contentOrigin = s
	e.Reset()
}

// SetContent attaches new content with its display and full-resolution
// sizes. The user transform starts over even when both sizes match the
// previous content.
func (e *Engine) SetContent(content, origin geom.IntSize) {
	e.content = content
	e.contentOrigin = origin
	e.reset(true)
}

func (e *Engine) SetContentScale(c geom.ContentScale) {
	if e.opts.ContentScale == c {
		return
	}
	e.opts.ContentScale = c
	e.Reset()
}

func (e *Engine) SetAlignment(a geom.Alignment) {
	if e.opts.Alignment == a {
		return
	}
	e.opts.Alignment = a
	e.Reset()
}

// SetRotation sets the absolute rotation; it is rounded to a multiple of 90.
func (e *Engine) SetRotation(degrees int) {
	r := geom.NormalizeRotation(int(math.Round(float64(degrees)/90)) * 90)
	if e.rotation == r {
		return
	}
	e.rotation = r
	e.Reset()
}

// Rotate adds degrees to the current rotation.
func (e *Engine) Rotate(degrees int) {
	e.SetRotation(e.rotation + degrees)
}

func (e *Engine) SetReadMode(r *ReadMode) {
	e.opts.ReadMode = r
	e.reset(true)
}

func (e *Engine) SetScalesCalculator(c ScalesCalculator) {
	if c == nil {
		c = DynamicScales{Multiple: DefaultScaleMultiple}
	}
	e.opts.ScalesCalculator = c
	e.Reset()
}

func (e *Engine) SetThreeStepScale(on bool) {
	e.opts.ThreeStepScale = on
}

func (e *Engine) SetRubberBandScale(on bool) {
	e.opts.RubberBandScale = on
}

func (e *Engine) SetAnimationSpec(spec AnimationSpec) {
	if spec.Easing == nil {
		spec.Easing = anim.FastOutSlowIn
	}
	e.opts.Animation = spec
}

func (e *Engine) SetLimitOffsetWithinBaseVisibleRect(on bool) {
	if e.opts.LimitOffsetWithinBaseVisibleRect == on {
		return
	}
	e.opts.LimitOffsetWithinBaseVisibleRect = on
	e.Reset()
}

// SetOnTap installs the single tap callback.
func (e *Engine) SetOnTap(fn func(geom.Offset)) {
	e.onTap = fn
}

// SetOnLongPress installs the long press callback.
func (e *Engine) SetOnLongPress(fn func(geom.Offset)) {
	e.onLongPress = fn
}

// Options returns the current options.
func (e *Engine) Options() Options {
	return e.opts
}

// Reset recomputes the base transform and scale bounds from the current
// inputs. With unchanged inputs the user transform is kept; when only the
// container changed, a zoomed-in user transform keeps the content point at
// the container center. Otherwise the user transform returns to its
// initial value.
func (e *Engine) Reset() {
	e.reset(false)
}

func (e *Engine) reset(toInitial bool) {
	prevLayout := e.layout
	prevDisplay := e.base.Plus(e.user)
	prevUser := e.user
	prevInitial := e.initialUser

	layout := geom.Layout{
		Container:    e.container,
		Content:      e.content,
		ContentScale: e.opts.ContentScale,
		Alignment:    e.opts.Alignment,
		Rotation:     e.rotation,
	}
	e.layout = layout

	if layout.IsEmpty() {
		e.driver.Stop()
		e.base = geom.Identity
		e.user = geom.Identity
		e.initialUser = geom.Identity
		e.minScale, e.mediumScale, e.maxScale = 1, 1, 1
		e.continuous = ContinuousNone
		e.logger.Debug("reset: empty layout", "container", e.container, "content", e.content)
		e.notify()
		return
	}

	e.base = geom.BaseTransform(layout)
	e.initialUser = e.opts.ReadMode.initialUserTransform(layout, e.base, e.opts.LimitOffsetWithinBaseVisibleRect)
	e.computeScales()

	switch {
	case toInitial:
		e.driver.Stop()
		e.continuous = ContinuousNone
		e.user = e.initialUser
	case layout == prevLayout:
		e.user = e.clampUser(prevUser.Scale.X, prevUser.Offset)
	case !prevLayout.IsEmpty() && prevLayout.Content == layout.Content &&
		prevLayout.Rotation == layout.Rotation && prevUser != prevInitial:
		e.driver.Stop()
		e.continuous = ContinuousNone
		center := geom.RectFromSize(prevLayout.Container.ToSize()).Center()
		point := geom.ContainerToContent(prevLayout, prevDisplay, center)
		scale := math.Max(e.minScale, math.Min(e.maxScale, prevUser.Scale.X))
		e.user = e.centeredUser(point, scale)
	default:
		e.driver.Stop()
		e.continuous = ContinuousNone
		e.user = e.initialUser
	}

	e.logger.Debug("reset",
		"container", layout.Container,
		"content", layout.Content,
		"contentScale", layout.ContentScale,
		"alignment", layout.Alignment,
		"rotation", layout.Rotation,
		"base", e.base,
		"user", e.user,
		"scales", []float64{e.minScale, e.mediumScale, e.maxScale})
	e.notify()
}

func (e *Engine) computeScales() {
	medium, max := e.opts.ScalesCalculator.Calculate(ScalesInput{
		Container:     e.layout.Container,
		Content:       e.layout.Content,
		ContentOrigin: e.contentOrigin,
		ContentScale:  e.layout.ContentScale,
		Rotation:      e.layout.Rotation,
		BaseScale:     e.base.Scale,
		InitialScale:  e.initialUser.Scale.X,
	})
	if math.IsNaN(medium) || medium < 1 {
		medium = 1
	}
	if math.IsNaN(max) || max < medium {
		max = medium
	}
	e.minScale, e.mediumScale, e.maxScale = 1, medium, max
}

// clampUser limits scale to [min, max] and the offset to its bounds.
func (e *Engine) clampUser(scale float64, offset geom.Offset) geom.Transform {
	scale = math.Max(e.minScale, math.Min(e.maxScale, scale))
	return geom.Transform{
		Scale:  geom.UniformScale(scale),
		Offset: geom.LimitOffset(offset, e.offsetBounds(scale)),
	}
}

func (e *Engine) offsetBounds(scale float64) geom.Rect {
	return geom.UserOffsetBounds(e.layout, scale, e.opts.LimitOffsetWithinBaseVisibleRect)
}

// centeredUser returns the user transform at scale that puts the content
// point at the container center, clamped into bounds.
func (e *Engine) centeredUser(contentPoint geom.Offset, scale float64) geom.Transform {
	rotated := geom.RotatePoint(contentPoint, e.layout.Content.ToSize(), e.layout.Rotation)
	b := e.base.Apply(rotated)
	center := geom.RectFromSize(e.layout.Container.ToSize()).Center()
	offset := center.Sub(b.Mul(scale))
	return geom.Transform{
		Scale:  geom.UniformScale(scale),
		Offset: geom.LimitOffset(offset, e.offsetBounds(scale)),
	}
}

// setUser replaces the user transform and notifies subscribers.
func (e *Engine) setUser(scale float64, offset geom.Offset) {
	u := geom.Transform{Scale: geom.UniformScale(scale), Offset: offset}
	if u == e.user {
		return
	}
	e.user = u
	e.notify()
}

func (e *Engine) setContinuous(t ContinuousTransformType) {
	if e.continuous == t {
		return
	}
	e.continuous = t
	e.notify()
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	display := e.base.Plus(e.user)
	bounds := e.offsetBounds(e.user.Scale.X)
	s := Snapshot{
		Layout:            e.layout,
		ContentOriginSize: e.contentOrigin,
		BaseTransform:     e.base,
		UserTransform:     e.user,
		Transform:         display,
		MinScale:          e.minScale,
		MediumScale:       e.mediumScale,
		MaxScale:          e.maxScale,
		UserOffsetBounds:  bounds,
		Continuous:        e.continuous,
	}
	if !e.layout.IsEmpty() {
		s.ContentBaseDisplayRect = geom.ContentBaseDisplayRect(e.layout)
		s.ContentDisplayRect = geom.ContentDisplayRect(e.layout, display)
		s.ContentVisibleRect = geom.ContentVisibleRect(e.layout, display)
		s.ScrollEdges = geom.ComputeScrollEdges(e.user.Offset, bounds)
	} else {
		s.ScrollEdges = geom.ScrollEdges{Horizontal: geom.EdgeBoth, Vertical: geom.EdgeBoth}
	}
	return s
}

// Subscribe registers fn for state changes. The returned func removes it.
func (e *Engine) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	return func() { delete(e.subscribers, id) }
}

func (e *Engine) notify() {
	if len(e.subscribers) == 0 {
		return
	}
	s := e.Snapshot()
	for _, fn := range e.subscribers {
		fn(s)
	}
}

// Tick advances the running animation and reports whether one is still
// running.
func (e *Engine) Tick(now time.Time) bool {
	return e.driver.Tick(now)
}

// Animating reports whether an animation is running.
func (e *Engine) Animating() bool {
	return e.driver.Running()
}

// StopAnimation cancels the running animation where it stands.
func (e *Engine) StopAnimation() {
	if e.driver.Running() {
		e.driver.Stop()
		e.setContinuous(ContinuousNone)
	}
}
