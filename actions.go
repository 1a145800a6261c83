package main

// ActionDefinition defines an action with its default keybindings, mouse bindings, and description
type ActionDefinition struct {
	Name         string
	Keys         []string
	MouseActions []string
	Description  string
}

// actionDefinitions contains all action definitions with default keybindings, mouse bindings, and descriptions
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"Escape", "KeyQ"}, []string{}, "Quit application"},
	{"help", []string{"Shift+Slash"}, []string{"Alt+RightClick"}, "Show/hide help"},
	{"info", []string{"KeyI"}, []string{"RightClick"}, "Show/hide zoom and tile info"},
	{"next", []string{"Space", "KeyN", "PageDown"}, []string{"Forward", "Shift+WheelDown"}, "Next image"},
	{"previous", []string{"Backspace", "KeyP", "PageUp"}, []string{"Back", "Shift+WheelUp"}, "Previous image"},
	{"jump_first", []string{"Home"}, []string{}, "Jump to first image"},
	{"jump_last", []string{"End"}, []string{}, "Jump to last image"},
	{"fullscreen", []string{"Enter"}, []string{}, "Toggle fullscreen"},
	{"cycle_sort", []string{"Shift+KeyS"}, []string{}, "Cycle sort method (Natural/Simple/Entry)"},

	// Zoom actions
	{"zoom_in", []string{"Equal", "Shift+Equal"}, []string{"Ctrl+WheelUp"}, "Zoom in one step"},
	{"zoom_out", []string{"Minus"}, []string{"Ctrl+WheelDown"}, "Zoom out one step"},
	{"switch_scale", []string{"KeyZ"}, []string{"MiddleClick"}, "Switch to the next step scale"},
	{"zoom_reset", []string{"Key0"}, []string{"Shift+MiddleClick"}, "Reset to the initial transform"},
	{"rotate_left", []string{"KeyL"}, []string{}, "Rotate left 90 degrees"},
	{"rotate_right", []string{"KeyR"}, []string{}, "Rotate right 90 degrees"},
	{"cycle_content_scale", []string{"KeyF"}, []string{}, "Cycle content scale (Fit/Crop/Inside/...)"},
	{"cycle_alignment", []string{"KeyA"}, []string{}, "Cycle content alignment"},

	// Pan actions
	{"pan_up", []string{"ArrowUp", "KeyK"}, []string{}, "Pan up"},
	{"pan_down", []string{"ArrowDown", "KeyJ"}, []string{}, "Pan down"},
	{"pan_left", []string{"ArrowLeft", "KeyH"}, []string{}, "Pan left"},
	{"pan_right", []string{"ArrowRight", "Semicolon"}, []string{}, "Pan right"},

	// Toggles
	{"toggle_subsampling", []string{"KeyT"}, []string{}, "Toggle tile subsampling"},
	{"toggle_tile_bounds", []string{"Shift+KeyT"}, []string{}, "Show/hide tile bounds"},
	{"toggle_three_step", []string{"Key3"}, []string{}, "Toggle three step double tap scale"},
	{"toggle_read_mode", []string{"KeyM"}, []string{}, "Toggle read mode for long images"},
	{"toggle_scroll_bar", []string{"KeyB"}, []string{}, "Show/hide scroll bars"},
	{"toggle_rubber_band", []string{"KeyU"}, []string{}, "Toggle rubber band scale"},
}

// panStepFraction is the share of the container moved by one pan action
const panStepFraction = 0.2

// ActionExecutor provides centralized action execution logic for both
// KeybindingManager and MousebindingManager
type ActionExecutor struct{}

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	return &ActionExecutor{}
}

// ExecuteAction executes the given action using the InputActions interface.
// It returns false for unknown actions.
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions) bool {
	switch action {
	case "exit":
		inputActions.Exit()
	case "help":
		inputActions.ToggleHelp()
	case "info":
		inputActions.ToggleInfo()
	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "jump_first":
		inputActions.JumpToPage(1)
	case "jump_last":
		if total := inputActions.GetTotalPagesCount(); total > 0 {
			inputActions.JumpToPage(total)
		}
	case "fullscreen":
		inputActions.ToggleFullscreen()
	case "cycle_sort":
		inputActions.CycleSortMethod()

	case "zoom_in":
		inputActions.ZoomStep(1)
	case "zoom_out":
		inputActions.ZoomStep(-1)
	case "switch_scale":
		inputActions.SwitchScale()
	case "zoom_reset":
		inputActions.ZoomReset()
	case "rotate_left":
		inputActions.Rotate(-90)
	case "rotate_right":
		inputActions.Rotate(90)
	case "cycle_content_scale":
		inputActions.CycleContentScale()
	case "cycle_alignment":
		inputActions.CycleAlignment()

	case "pan_up":
		inputActions.PanByFraction(0, panStepFraction)
	case "pan_down":
		inputActions.PanByFraction(0, -panStepFraction)
	case "pan_left":
		inputActions.PanByFraction(panStepFraction, 0)
	case "pan_right":
		inputActions.PanByFraction(-panStepFraction, 0)

	case "toggle_subsampling":
		inputActions.ToggleSubsampling()
	case "toggle_tile_bounds":
		inputActions.ToggleTileBounds()
	case "toggle_three_step":
		inputActions.ToggleThreeStepScale()
	case "toggle_read_mode":
		inputActions.ToggleReadMode()
	case "toggle_scroll_bar":
		inputActions.ToggleScrollBar()
	case "toggle_rubber_band":
		inputActions.ToggleRubberBand()

	default:
		return false
	}

	return true
}

// globalActionExecutor is the global instance of ActionExecutor used throughout the application
var globalActionExecutor = NewActionExecutor()

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = append([]string(nil), action.Keys...)
	}
	return keybindings
}

// GetDefaultMousebindings returns a map of action names to their default mouse bindings
func GetDefaultMousebindings() map[string][]string {
	mousebindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		mousebindings[action.Name] = append([]string(nil), action.MouseActions...)
	}
	return mousebindings
}

// actionNames returns the action names in definition order
func actionNames() []string {
	names := make([]string, 0, len(actionDefinitions))
	for _, action := range actionDefinitions {
		names = append(names, action.Name)
	}
	return names
}
