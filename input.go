package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"zoomimage/geom"
	"zoomimage/gesture"
)

// mousePointerID is the gesture pointer id of the left mouse button. Touch
// ids from ebiten are never negative.
const mousePointerID = -1

// InputHandler handles keyboard, mouse button, wheel and touch input
type InputHandler struct {
	inputActions        InputActions
	keybindingManager   *KeybindingManager
	mousebindingManager *MousebindingManager
	pointers            *PointerRouter
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, keybindingManager *KeybindingManager, mousebindingManager *MousebindingManager, pointers *PointerRouter) *InputHandler {
	return &InputHandler{
		inputActions:        inputActions,
		keybindingManager:   keybindingManager,
		mousebindingManager: mousebindingManager,
		pointers:            pointers,
	}
}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput(now time.Time) bool {
	inputProcessed := false

	// Bound actions run in definition order so that e.g. exit wins
	for _, action := range actionNames() {
		if h.keybindingManager.ExecuteAction(action, h.inputActions) {
			inputProcessed = true
		}
		if h.mousebindingManager.ExecuteAction(action, h.inputActions) {
			inputProcessed = true
		}
	}
	if h.inputActions.GetTotalPagesCount() == 0 {
		return inputProcessed
	}

	if !inputProcessed && h.handleWheelZoom() {
		inputProcessed = true
	}
	if h.pointers.Update(now) {
		inputProcessed = true
	}
	return inputProcessed
}

// handleWheelZoom zooms around the cursor when the wheel moved without a
// modifier and no binding claimed it.
func (h *InputHandler) handleWheelZoom() bool {
	settings := h.mousebindingManager.GetSettings()
	if !settings.EnableMouse || !settings.WheelZoom || !modifiersMatch(false, false, false) {
		return false
	}
	_, wy := h.mousebindingManager.wheel()
	if wy == 0 {
		return false
	}
	x, y := ebiten.CursorPosition()
	return h.pointers.detector.Wheel(geom.Offset{X: float64(x), Y: float64(y)}, wy)
}

// PointerRouter turns ebiten touches and the left mouse button into
// gesture pointer events.
type PointerRouter struct {
	detector  *gesture.Detector
	mouseDrag bool

	touchIDs  []ebiten.TouchID
	positions map[int]geom.Offset
}

// NewPointerRouter creates a router feeding detector. With mouseDrag the
// left button acts as a pointer.
func NewPointerRouter(detector *gesture.Detector, mouseDrag bool) *PointerRouter {
	return &PointerRouter{
		detector:  detector,
		mouseDrag: mouseDrag,
		positions: make(map[int]geom.Offset),
	}
}

// Update sends this tick's pointer events and reports whether any was consumed
func (p *PointerRouter) Update(now time.Time) bool {
	consumed := false
	send := func(id int, kind gesture.Kind, x, y int) {
		pos := geom.Offset{X: float64(x), Y: float64(y)}
		if kind == gesture.Move {
			if last, ok := p.positions[id]; ok && last == pos {
				return
			}
		}
		switch kind {
		case gesture.Up, gesture.Cancel:
			delete(p.positions, id)
		default:
			p.positions[id] = pos
		}
		if p.detector.OnEvent(gesture.PointerEvent{ID: id, Kind: kind, Position: pos, Time: now}) {
			consumed = true
		}
	}

	p.touchIDs = inpututil.AppendJustReleasedTouchIDs(p.touchIDs[:0])
	for _, id := range p.touchIDs {
		x, y := inpututil.TouchPositionInPreviousTick(id)
		send(int(id), gesture.Up, x, y)
	}
	p.touchIDs = inpututil.AppendJustPressedTouchIDs(p.touchIDs[:0])
	for _, id := range p.touchIDs {
		x, y := ebiten.TouchPosition(id)
		send(int(id), gesture.Down, x, y)
	}
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	for _, id := range p.touchIDs {
		x, y := ebiten.TouchPosition(id)
		send(int(id), gesture.Move, x, y)
	}

	if p.mouseDrag {
		x, y := ebiten.CursorPosition()
		switch {
		case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
			send(mousePointerID, gesture.Down, x, y)
		case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
			send(mousePointerID, gesture.Up, x, y)
		case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
			send(mousePointerID, gesture.Move, x, y)
		}
	}
	return consumed
}
