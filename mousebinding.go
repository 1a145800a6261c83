package main

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseSettings contains mouse-specific configuration
type MouseSettings struct {
	EnableMouse      bool    `json:"enable_mouse"`
	WheelSensitivity float64 `json:"wheel_sensitivity"`
	WheelInverted    bool    `json:"wheel_inverted"`
	// WheelZoom zooms around the cursor on an unbound, unmodified wheel
	WheelZoom bool `json:"wheel_zoom"`
	// DragPan feeds the left button into the gesture detector as a pointer
	DragPan bool `json:"drag_pan"`
}

// GetDefaultMouseSettings returns the default mouse settings
func GetDefaultMouseSettings() MouseSettings {
	return MouseSettings{
		EnableMouse:      true,
		WheelSensitivity: 1.0,
		WheelZoom:        true,
		DragPan:          true,
	}
}

// MouseCombination represents a mouse action with optional modifiers
type MouseCombination struct {
	Button      ebiten.MouseButton
	IsWheel     bool
	WheelDeltaX float64
	WheelDeltaY float64
	Shift       bool
	Ctrl        bool
	Alt         bool
}

// MousebindingManager handles dynamic mouse binding processing
type MousebindingManager struct {
	mousebindings map[string][]string
	combinations  map[string][]MouseCombination
	settings      MouseSettings
}

// NewMousebindingManager creates a new MousebindingManager
func NewMousebindingManager(mousebindings map[string][]string, settings MouseSettings) *MousebindingManager {
	mm := &MousebindingManager{settings: settings}
	mm.UpdateMousebindings(mousebindings)
	return mm
}

// getMouseMapping returns a mapping from string mouse actions to Ebiten mouse buttons
func getMouseMapping() map[string]ebiten.MouseButton {
	return map[string]ebiten.MouseButton{
		"LeftClick":   ebiten.MouseButtonLeft,
		"RightClick":  ebiten.MouseButtonRight,
		"MiddleClick": ebiten.MouseButtonMiddle,
		"Back":        ebiten.MouseButton3, // Back button (side button)
		"Forward":     ebiten.MouseButton4, // Forward button (side button)
	}
}

// parseMouseString parses a mouse string like "Shift+MiddleClick" or "WheelUp" into a MouseCombination
func parseMouseString(mouseStr string, mapping map[string]ebiten.MouseButton) (MouseCombination, bool) {
	if mouseStr == "" {
		return MouseCombination{}, false
	}
	parts := strings.Split(mouseStr, "+")
	actionName := parts[len(parts)-1]

	var c MouseCombination
	switch actionName {
	case "WheelUp":
		c.IsWheel, c.WheelDeltaY = true, 1
	case "WheelDown":
		c.IsWheel, c.WheelDeltaY = true, -1
	case "WheelLeft":
		c.IsWheel, c.WheelDeltaX = true, -1
	case "WheelRight":
		c.IsWheel, c.WheelDeltaX = true, 1
	default:
		button, exists := mapping[actionName]
		if !exists {
			return MouseCombination{}, false
		}
		c.Button = button
	}
	c.Shift, c.Ctrl, c.Alt = parseModifiers(parts[:len(parts)-1])
	return c, true
}

// wheel returns this tick's wheel movement after sensitivity and inversion
func (mm *MousebindingManager) wheel() (x, y float64) {
	x, y = ebiten.Wheel()
	if mm.settings.WheelInverted {
		y = -y
	}
	return x * mm.settings.WheelSensitivity, y * mm.settings.WheelSensitivity
}

// triggered reports whether the combination fires this tick
func (mm *MousebindingManager) triggered(c MouseCombination) bool {
	if !mm.settings.EnableMouse || !modifiersMatch(c.Shift, c.Ctrl, c.Alt) {
		return false
	}
	if c.IsWheel {
		wx, wy := mm.wheel()
		switch {
		case c.WheelDeltaX != 0:
			return c.WheelDeltaX*wx > 0
		case c.WheelDeltaY != 0:
			return c.WheelDeltaY*wy > 0
		}
		return false
	}
	return inpututil.IsMouseButtonJustPressed(c.Button)
}

// CheckAction checks if any mouse binding for the given action is triggered
func (mm *MousebindingManager) CheckAction(action string) bool {
	for _, c := range mm.combinations[action] {
		if mm.triggered(c) {
			return true
		}
	}
	return false
}

// ExecuteAction executes the given action if one of its mouse bindings fired
func (mm *MousebindingManager) ExecuteAction(action string, inputActions InputActions) bool {
	if !mm.CheckAction(action) {
		return false
	}
	return globalActionExecutor.ExecuteAction(action, inputActions)
}

// GetMousebindings returns the current mouse bindings map (for display purposes)
func (mm *MousebindingManager) GetMousebindings() map[string][]string {
	return mm.mousebindings
}

// UpdateMousebindings replaces the mouse bindings and re-parses them
func (mm *MousebindingManager) UpdateMousebindings(mousebindings map[string][]string) {
	mapping := getMouseMapping()
	mm.mousebindings = mousebindings
	mm.combinations = make(map[string][]MouseCombination, len(mousebindings))
	for action, buttons := range mousebindings {
		for _, s := range buttons {
			if c, ok := parseMouseString(s, mapping); ok {
				mm.combinations[action] = append(mm.combinations[action], c)
			}
		}
	}
}

// GetSettings returns the current mouse settings
func (mm *MousebindingManager) GetSettings() MouseSettings {
	return mm.settings
}
