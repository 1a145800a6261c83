// Package gesture turns raw pointer streams into pan, zoom, tap and fling
// callbacks. The detector is an explicit state machine driven from the UI
// thread; it never starts goroutines.
package gesture

import (
	"fmt"
	"strings"
	"time"

	"zoomimage/geom"
)

// Kind is the pointer event kind.
type Kind int

const (
	Down Kind = iota
	Move
	Up
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "Down"
	case Move:
		return "Move"
	case Up:
		return "Up"
	case Cancel:
		return "Cancel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PointerEvent is one raw event for one pointer.
type PointerEvent struct {
	ID       int
	Kind     Kind
	Position geom.Offset
	Time     time.Time
}

// Types selects which gesture classes the detector acts on.
type Types uint8

const (
	TypeDrag Types = 1 << iota
	TypeTwoFingerScale
	TypeOneFingerScale
	TypeDoubleTapScale
	TypeWheelScale
	TypeKeyboard

	AllTypes = TypeDrag | TypeTwoFingerScale | TypeOneFingerScale | TypeDoubleTapScale | TypeWheelScale | TypeKeyboard
)

var typeNames = []struct {
	t    Types
	name string
}{
	{TypeDrag, "drag"},
	{TypeTwoFingerScale, "two_finger_scale"},
	{TypeOneFingerScale, "one_finger_scale"},
	{TypeDoubleTapScale, "double_tap_scale"},
	{TypeWheelScale, "wheel_scale"},
	{TypeKeyboard, "keyboard"},
}

// Has reports whether every type in other is enabled.
func (t Types) Has(other Types) bool {
	return t&other == other
}

func (t Types) String() string {
	var parts []string
	for _, n := range typeNames {
		if t&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseTypes parses names joined by '|' or ','. Unknown names are
// returned as an error.
func ParseTypes(s string) (Types, error) {
	var t Types
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "all" {
			t |= AllTypes
			continue
		}
		found := false
		for _, n := range typeNames {
			if n.name == part {
				t |= n.t
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown gesture type %q", part)
		}
	}
	return t, nil
}

// Change is one incremental gesture step.
type Change struct {
	// Zoom is the multiplicative scale change since the previous step.
	Zoom     float64
	Centroid geom.Offset
	Pan      geom.Offset
	Pointers int
}

// Handler receives recognized gestures.
type Handler interface {
	OnGesture(c Change)
	OnEnd(focus, velocity geom.Offset)
	OnTap(pos geom.Offset)
	OnDoubleTap(pos geom.Offset)
	OnLongPress(pos geom.Offset)
}

// EdgeChecker lets the zoom engine veto a single-pointer drag that would
// push content past an edge it has already reached, so that a parent can
// take the events instead.
type EdgeChecker interface {
	CanDrag(horizontal bool, delta float64) bool
}

// State is the detector state.
type State int

const (
	StateIdle State = iota
	StatePressed
	StateDragging
	StatePinching
	StateDoubleTapPending
	StateOneFingerScaling
	StateLongPressed
	StateIgnored
)

var stateNames = []string{
	"Idle", "Pressed", "Dragging", "Pinching",
	"DoubleTapPending", "OneFingerScaling", "LongPressed", "Ignored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}
