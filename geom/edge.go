package geom

// ScrollEdge tells which ends of an axis the content has reached.
type ScrollEdge int

const (
	EdgeNone ScrollEdge = iota
	EdgeStart
	EdgeEnd
	EdgeBoth
)

func (e ScrollEdge) String() string {
	switch e {
	case EdgeStart:
		return "Start"
	case EdgeEnd:
		return "End"
	case EdgeBoth:
		return "Both"
	default:
		return "None"
	}
}

// ScrollEdges holds the edge state of both axes.
type ScrollEdges struct {
	Horizontal ScrollEdge
	Vertical   ScrollEdge
}

const edgeTolerance = 0.5

// ComputeScrollEdges derives the edge state from the user offset and its
// bounds. Offset at the upper bound means the content start is showing.
func ComputeScrollEdges(o Offset, bounds Rect) ScrollEdges {
	return ScrollEdges{
		Horizontal: axisEdge(o.X, bounds.Left, bounds.Right),
		Vertical:   axisEdge(o.Y, bounds.Top, bounds.Bottom),
	}
}

func axisEdge(v, lo, hi float64) ScrollEdge {
	atStart := v >= hi-edgeTolerance
	atEnd := v <= lo+edgeTolerance
	switch {
	case atStart && atEnd:
		return EdgeBoth
	case atStart:
		return EdgeStart
	case atEnd:
		return EdgeEnd
	default:
		return EdgeNone
	}
}

// CanScroll reports whether content may move by delta along the axis.
// A positive delta moves content towards the end, revealing its start.
func (e ScrollEdge) CanScroll(delta float64) bool {
	switch e {
	case EdgeBoth:
		return false
	case EdgeStart:
		return delta < 0
	case EdgeEnd:
		return delta > 0
	default:
		return true
	}
}
