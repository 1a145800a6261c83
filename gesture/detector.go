package gesture

import (
	"log/slog"
	"math"
	"time"

	"zoomimage/geom"
)

// Options tunes the detector.
type Options struct {
	Types            Types
	TouchSlop        float64
	DoubleTapSlop    float64
	LongPressTimeout time.Duration
	DoubleTapTimeout time.Duration
	VelocityWindow   time.Duration
	MinFlingVelocity float64
	MaxFlingVelocity float64
	// OneFingerScale maps a vertical pan step to a zoom factor.
	OneFingerScale func(panY float64) float64
	// WheelStep is the zoom factor for one wheel notch.
	WheelStep float64
}

// DefaultOptions returns the options used on touch screens.
func DefaultOptions() Options {
	return Options{
		Types:            AllTypes,
		TouchSlop:        8,
		DoubleTapSlop:    100,
		LongPressTimeout: 500 * time.Millisecond,
		DoubleTapTimeout: 300 * time.Millisecond,
		VelocityWindow:   100 * time.Millisecond,
		MinFlingVelocity: 50,
		MaxFlingVelocity: 8000,
		OneFingerScale:   DefaultOneFingerScale,
		WheelStep:        1.1,
	}
}

// DefaultOneFingerScale zooms in when the finger moves down.
func DefaultOneFingerScale(panY float64) float64 {
	return math.Max(0.1, 1+panY/200)
}

type tap struct {
	pos  geom.Offset
	time time.Time
}

// Detector is the gesture state machine.
type Detector struct {
	handler Handler
	edges   EdgeChecker
	opts    Options
	logger  *slog.Logger

	state    State
	pointers map[int]geom.Offset
	order    []int

	downPos  geom.Offset
	downTime time.Time

	lastCentroid geom.Offset
	lastSpread   float64
	scaleAnchor  geom.Offset

	pendingTap *tap
	velocity   VelocityTracker
}

// NewDetector creates a detector. A nil logger discards output.
func NewDetector(handler Handler, opts Options, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.OneFingerScale == nil {
		opts.OneFingerScale = DefaultOneFingerScale
	}
	if opts.WheelStep <= 1 {
		opts.WheelStep = 1.1
	}
	return &Detector{
		handler:  handler,
		opts:     opts,
		logger:   logger,
		pointers: make(map[int]geom.Offset),
		velocity: VelocityTracker{Window: opts.VelocityWindow},
	}
}

// SetEdgeChecker installs the drag veto.
func (d *Detector) SetEdgeChecker(e EdgeChecker) {
	d.edges = e
}

// SetTypes replaces the enabled gesture types.
func (d *Detector) SetTypes(t Types) {
	d.opts.Types = t
}

// Enabled reports whether all of t are enabled.
func (d *Detector) Enabled(t Types) bool {
	return d.opts.Types.Has(t)
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Pointers returns the number of pointers down.
func (d *Detector) Pointers() int {
	return len(d.order)
}

// OnEvent feeds one pointer event and reports whether it was consumed.
// A panic raised by the handler is recovered and the event reported as not
// consumed.
func (d *Detector) OnEvent(ev PointerEvent) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("gesture dispatch panicked", "event", ev.Kind, "panic", r)
			d.reset()
			consumed = false
		}
	}()

	switch ev.Kind {
	case Down:
		return d.onDown(ev)
	case Move:
		return d.onMove(ev)
	case Up:
		return d.onUp(ev)
	case Cancel:
		return d.onCancel()
	}
	return false
}

// Tick resolves long-press and single-tap timeouts.
func (d *Detector) Tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("gesture tick panicked", "panic", r)
			d.reset()
		}
	}()

	if d.state == StatePressed && len(d.order) == 1 && now.Sub(d.downTime) >= d.opts.LongPressTimeout {
		d.setState(StateLongPressed)
		d.handler.OnLongPress(d.downPos)
		return
	}
	if d.pendingTap != nil && d.state == StateIdle && now.Sub(d.pendingTap.time) >= d.opts.DoubleTapTimeout {
		pos := d.pendingTap.pos
		d.pendingTap = nil
		d.handler.OnTap(pos)
	}
}

// Wheel handles a scroll wheel step at pos. Positive delta zooms in.
func (d *Detector) Wheel(pos geom.Offset, delta float64) (consumed bool) {
	if !d.opts.Types.Has(TypeWheelScale) || delta == 0 || d.state != StateIdle {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("wheel dispatch panicked", "panic", r)
			consumed = false
		}
	}()
	d.handler.OnGesture(Change{Zoom: math.Pow(d.opts.WheelStep, delta), Centroid: pos, Pointers: 0})
	d.handler.OnEnd(pos, geom.Offset{})
	return true
}

func (d *Detector) onDown(ev PointerEvent) bool {
	if d.opts.Types == 0 {
		return false
	}
	if _, ok := d.pointers[ev.ID]; !ok {
		d.order = append(d.order, ev.ID)
	}
	d.pointers[ev.ID] = ev.Position

	if len(d.order) == 1 {
		d.downPos = ev.Position
		d.downTime = ev.Time
		d.velocity.Reset()
		d.rebase(ev.Time)
		if d.isDoubleTap(ev) {
			if d.opts.Types.Has(TypeDoubleTapScale) {
				d.pendingTap = nil
			} else {
				d.flushPendingTap()
			}
			d.scaleAnchor = ev.Position
			d.setState(StateDoubleTapPending)
			return true
		}
		d.flushPendingTap()
		d.setState(StatePressed)
		return true
	}

	// Another pointer joined: a pinch wins over any drag veto.
	switch d.state {
	case StateLongPressed:
		return true
	}
	if d.opts.Types&(TypeTwoFingerScale|TypeDrag) == 0 {
		d.setState(StateIgnored)
		return false
	}
	d.setState(StatePinching)
	d.rebase(ev.Time)
	return true
}

func (d *Detector) onMove(ev PointerEvent) bool {
	if _, ok := d.pointers[ev.ID]; !ok {
		return false
	}
	d.pointers[ev.ID] = ev.Position

	switch d.state {
	case StatePressed:
		if d.beyondSlop(ev.Position) {
			return d.startDrag(ev)
		}
		return true

	case StateDoubleTapPending:
		if !d.beyondSlop(ev.Position) {
			return true
		}
		if d.opts.Types.Has(TypeOneFingerScale) {
			d.setState(StateOneFingerScaling)
			d.rebase(ev.Time)
			return true
		}
		return d.startDrag(ev)

	case StateDragging:
		centroid := d.centroid()
		pan := centroid.Sub(d.lastCentroid)
		d.lastCentroid = centroid
		d.velocity.Add(ev.Time, centroid)
		d.handler.OnGesture(Change{Zoom: 1, Centroid: centroid, Pan: pan, Pointers: len(d.order)})
		return true

	case StatePinching:
		centroid := d.centroid()
		spread := d.spread(centroid)
		zoom := 1.0
		if d.opts.Types.Has(TypeTwoFingerScale) && d.lastSpread > 0 && spread > 0 {
			zoom = spread / d.lastSpread
		}
		var pan geom.Offset
		if d.opts.Types.Has(TypeDrag) {
			pan = centroid.Sub(d.lastCentroid)
		}
		d.lastCentroid = centroid
		d.lastSpread = spread
		d.velocity.Add(ev.Time, centroid)
		d.handler.OnGesture(Change{Zoom: zoom, Centroid: centroid, Pan: pan, Pointers: len(d.order)})
		return true

	case StateOneFingerScaling:
		centroid := d.centroid()
		dy := centroid.Y - d.lastCentroid.Y
		d.lastCentroid = centroid
		if dy != 0 {
			d.handler.OnGesture(Change{Zoom: d.opts.OneFingerScale(dy), Centroid: d.scaleAnchor, Pointers: 1})
		}
		return true

	case StateLongPressed:
		return true
	}
	return false
}

func (d *Detector) startDrag(ev PointerEvent) bool {
	if !d.opts.Types.Has(TypeDrag) {
		d.setState(StateIgnored)
		return false
	}
	delta := ev.Position.Sub(d.downPos)
	horizontal := math.Abs(delta.X) >= math.Abs(delta.Y)
	axisDelta := delta.Y
	if horizontal {
		axisDelta = delta.X
	}
	if d.edges != nil && !d.edges.CanDrag(horizontal, axisDelta) {
		d.logger.Debug("drag vetoed at edge", "horizontal", horizontal, "delta", axisDelta)
		d.setState(StateIgnored)
		return false
	}
	d.setState(StateDragging)
	d.rebase(ev.Time)
	return true
}

func (d *Detector) onUp(ev PointerEvent) bool {
	if _, ok := d.pointers[ev.ID]; !ok {
		return false
	}
	d.pointers[ev.ID] = ev.Position
	centroid := d.centroid()
	d.velocity.Add(ev.Time, centroid)
	d.remove(ev.ID)

	if len(d.order) > 0 {
		switch d.state {
		case StatePinching:
			if len(d.order) == 1 && d.opts.Types.Has(TypeDrag) {
				d.setState(StateDragging)
			}
			d.rebase(ev.Time)
			return true
		case StateDragging, StateOneFingerScaling:
			d.rebase(ev.Time)
			return true
		case StateIgnored:
			return false
		}
		return true
	}

	state := d.state
	d.setState(StateIdle)
	switch state {
	case StatePressed:
		if d.opts.Types&(TypeDoubleTapScale|TypeOneFingerScale) != 0 {
			d.pendingTap = &tap{pos: ev.Position, time: ev.Time}
		} else {
			d.handler.OnTap(ev.Position)
		}
		return true
	case StateDoubleTapPending:
		if d.opts.Types.Has(TypeDoubleTapScale) {
			d.handler.OnDoubleTap(ev.Position)
		} else {
			d.handler.OnTap(ev.Position)
		}
		return true
	case StateDragging, StatePinching:
		d.handler.OnEnd(centroid, d.flingVelocity())
		return true
	case StateOneFingerScaling:
		d.handler.OnEnd(d.scaleAnchor, geom.Offset{})
		return true
	case StateLongPressed:
		return true
	}
	return false
}

func (d *Detector) onCancel() bool {
	state := d.state
	centroid := d.centroid()
	d.reset()
	switch state {
	case StateDragging, StatePinching, StateOneFingerScaling:
		d.handler.OnEnd(centroid, geom.Offset{})
		return true
	}
	return false
}

func (d *Detector) reset() {
	d.pointers = make(map[int]geom.Offset)
	d.order = d.order[:0]
	d.pendingTap = nil
	d.velocity.Reset()
	d.state = StateIdle
}

func (d *Detector) setState(s State) {
	if d.state != s {
		d.logger.Debug("gesture state", "from", d.state, "to", s)
	}
	d.state = s
}

// rebase restarts incremental tracking after the pointer set changed, so
// the next step carries no jump.
func (d *Detector) rebase(t time.Time) {
	d.lastCentroid = d.centroid()
	d.lastSpread = d.spread(d.lastCentroid)
	d.velocity.Reset()
	if len(d.order) > 0 {
		d.velocity.Add(t, d.lastCentroid)
	}
}

func (d *Detector) isDoubleTap(ev PointerEvent) bool {
	if d.pendingTap == nil || d.opts.Types&(TypeDoubleTapScale|TypeOneFingerScale) == 0 {
		return false
	}
	if ev.Time.Sub(d.pendingTap.time) > d.opts.DoubleTapTimeout {
		return false
	}
	return ev.Position.Sub(d.pendingTap.pos).Length() <= d.opts.DoubleTapSlop
}

func (d *Detector) flushPendingTap() {
	if d.pendingTap != nil {
		pos := d.pendingTap.pos
		d.pendingTap = nil
		d.handler.OnTap(pos)
	}
}

func (d *Detector) beyondSlop(p geom.Offset) bool {
	return p.Sub(d.downPos).Length() > d.opts.TouchSlop
}

func (d *Detector) remove(id int) {
	delete(d.pointers, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Detector) centroid() geom.Offset {
	if len(d.order) == 0 {
		return geom.Offset{}
	}
	var sum geom.Offset
	for _, id := range d.order {
		sum = sum.Add(d.pointers[id])
	}
	return sum.Mul(1 / float64(len(d.order)))
}

func (d *Detector) spread(centroid geom.Offset) float64 {
	if len(d.order) < 2 {
		return 0
	}
	total := 0.0
	for _, id := range d.order {
		total += d.pointers[id].Sub(centroid).Length()
	}
	return total / float64(len(d.order))
}

func (d *Detector) flingVelocity() geom.Offset {
	v := d.velocity.Velocity()
	speed := v.Length()
	if speed < d.opts.MinFlingVelocity {
		return geom.Offset{}
	}
	if d.opts.MaxFlingVelocity > 0 && speed > d.opts.MaxFlingVelocity {
		v = v.Mul(d.opts.MaxFlingVelocity / speed)
	}
	return v
}

// LogValue lets the detector be logged as a group.
func (d *Detector) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("state", d.state.String()),
		slog.Int("pointers", len(d.order)),
		slog.String("types", d.opts.Types.String()),
	)
}

var _ slog.LogValuer = (*Detector)(nil)
