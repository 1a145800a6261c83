package main

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Key repeat timing in ticks for actions that fire while a key is held
const (
	keyRepeatDelay    = 24
	keyRepeatInterval = 4
)

// repeatableActions fire repeatedly while their key is held
var repeatableActions = map[string]bool{
	"pan_up": true, "pan_down": true, "pan_left": true, "pan_right": true,
	"zoom_in": true, "zoom_out": true,
}

// KeybindingManager handles dynamic keybinding processing
type KeybindingManager struct {
	keybindings  map[string][]string
	combinations map[string][]KeyCombination
}

// NewKeybindingManager creates a new KeybindingManager. Unparseable key
// strings are dropped; config validation reports them.
func NewKeybindingManager(keybindings map[string][]string) *KeybindingManager {
	km := &KeybindingManager{}
	km.UpdateKeybindings(keybindings)
	return km
}

// getKeyMapping returns a mapping from string keys to Ebiten keys
func getKeyMapping() map[string]ebiten.Key {
	mapping := map[string]ebiten.Key{
		"Space":      ebiten.KeySpace,
		"Backspace":  ebiten.KeyBackspace,
		"Enter":      ebiten.KeyEnter,
		"Escape":     ebiten.KeyEscape,
		"Tab":        ebiten.KeyTab,
		"Home":       ebiten.KeyHome,
		"End":        ebiten.KeyEnd,
		"PageUp":     ebiten.KeyPageUp,
		"PageDown":   ebiten.KeyPageDown,
		"ArrowUp":    ebiten.KeyArrowUp,
		"ArrowDown":  ebiten.KeyArrowDown,
		"ArrowLeft":  ebiten.KeyArrowLeft,
		"ArrowRight": ebiten.KeyArrowRight,

		"Comma":     ebiten.KeyComma,
		"Period":    ebiten.KeyPeriod,
		"Slash":     ebiten.KeySlash,
		"Semicolon": ebiten.KeySemicolon,
		"Quote":     ebiten.KeyQuote,
		"Minus":     ebiten.KeyMinus,
		"Equal":     ebiten.KeyEqual,

		"NumpadAdd":      ebiten.KeyNumpadAdd,
		"NumpadSubtract": ebiten.KeyNumpadSubtract,
		"NumpadEnter":    ebiten.KeyNumpadEnter,
	}
	for i := 0; i < 26; i++ {
		mapping["Key"+string(rune('A'+i))] = ebiten.KeyA + ebiten.Key(i)
	}
	for i := 0; i < 10; i++ {
		mapping["Key"+string(rune('0'+i))] = ebiten.Key0 + ebiten.Key(i)
		mapping["Numpad"+string(rune('0'+i))] = ebiten.KeyNumpad0 + ebiten.Key(i)
	}
	return mapping
}

// KeyCombination represents a key with optional modifiers
type KeyCombination struct {
	Key   ebiten.Key
	Shift bool
	Ctrl  bool
	Alt   bool
}

func isModifierName(name string) bool {
	switch strings.ToLower(name) {
	case "shift", "ctrl", "alt":
		return true
	default:
		return false
	}
}

// parseModifiers fills the modifier flags from the leading parts of a
// binding string like "Ctrl+Shift+KeyB".
func parseModifiers(parts []string) (shift, ctrl, alt bool) {
	for _, part := range parts {
		switch strings.ToLower(part) {
		case "shift":
			shift = true
		case "ctrl":
			ctrl = true
		case "alt":
			alt = true
		}
	}
	return shift, ctrl, alt
}

// modifiersMatch reports whether exactly the wanted modifiers are held
func modifiersMatch(shift, ctrl, alt bool) bool {
	return shift == ebiten.IsKeyPressed(ebiten.KeyShift) &&
		ctrl == ebiten.IsKeyPressed(ebiten.KeyControl) &&
		alt == ebiten.IsKeyPressed(ebiten.KeyAlt)
}

// parseKeyString parses a key string like "Shift+KeyB" into a KeyCombination
func parseKeyString(keyStr string, mapping map[string]ebiten.Key) (KeyCombination, bool) {
	if keyStr == "" {
		return KeyCombination{}, false
	}
	parts := strings.Split(keyStr, "+")
	key, exists := mapping[parts[len(parts)-1]]
	if !exists {
		return KeyCombination{}, false
	}
	c := KeyCombination{Key: key}
	c.Shift, c.Ctrl, c.Alt = parseModifiers(parts[:len(parts)-1])
	return c, true
}

// triggered reports whether the combination fires this tick
func (c KeyCombination) triggered(repeat bool) bool {
	if !modifiersMatch(c.Shift, c.Ctrl, c.Alt) {
		return false
	}
	if inpututil.IsKeyJustPressed(c.Key) {
		return true
	}
	if !repeat {
		return false
	}
	d := inpututil.KeyPressDuration(c.Key)
	return d > keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}

// CheckAction checks if any keybinding for the given action is pressed
func (km *KeybindingManager) CheckAction(action string) bool {
	repeat := repeatableActions[action]
	for _, c := range km.combinations[action] {
		if c.triggered(repeat) {
			return true
		}
	}
	return false
}

// ExecuteAction executes the given action if one of its keys fired
func (km *KeybindingManager) ExecuteAction(action string, inputActions InputActions) bool {
	if !km.CheckAction(action) {
		return false
	}
	return globalActionExecutor.ExecuteAction(action, inputActions)
}

// GetKeybindings returns the current keybindings map (for display purposes)
func (km *KeybindingManager) GetKeybindings() map[string][]string {
	return km.keybindings
}

// UpdateKeybindings replaces the keybindings and re-parses them
func (km *KeybindingManager) UpdateKeybindings(keybindings map[string][]string) {
	mapping := getKeyMapping()
	km.keybindings = keybindings
	km.combinations = make(map[string][]KeyCombination, len(keybindings))
	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if c, ok := parseKeyString(keyStr, mapping); ok {
				km.combinations[action] = append(km.combinations[action], c)
			}
		}
	}
}
