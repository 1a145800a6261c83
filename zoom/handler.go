package zoom

import (
	"zoomimage/geom"
	"zoomimage/gesture"
)

var (
	_ gesture.Handler     = (*Engine)(nil)
	_ gesture.EdgeChecker = (*Engine)(nil)
)

func (e *Engine) OnGesture(c gesture.Change) {
	e.Gesture(c.Centroid, c.Pan, c.Zoom, c.Pointers)
}

func (e *Engine) OnEnd(focus, velocity geom.Offset) {
	e.EndGesture(focus, velocity)
}

func (e *Engine) OnTap(pos geom.Offset) {
	if e.onTap != nil {
		e.onTap(pos)
	}
}

func (e *Engine) OnDoubleTap(pos geom.Offset) {
	e.SwitchScale(pos, true)
}

func (e *Engine) OnLongPress(pos geom.Offset) {
	if e.onLongPress != nil {
		e.onLongPress(pos)
	}
}

// CanDrag reports whether content can still move by delta along the axis.
func (e *Engine) CanDrag(horizontal bool, delta float64) bool {
	if e.layout.IsEmpty() {
		return false
	}
	edges := geom.ComputeScrollEdges(e.user.Offset, e.offsetBounds(e.user.Scale.X))
	if horizontal {
		return edges.Horizontal.CanScroll(delta)
	}
	return edges.Vertical.CanScroll(delta)
}
