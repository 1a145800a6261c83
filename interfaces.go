package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"zoomimage/subsampling"
	"zoomimage/zoom"
)

const (
	// Overlay message display duration
	overlayMessageDuration = 2 * time.Second
)

// RenderState provides read-only access to viewer state for the renderer
type RenderState interface {
	// Current image
	GetPreview() *ebiten.Image
	GetZoomSnapshot() zoom.Snapshot
	GetTileSnapshot() subsampling.Snapshot
	GetScrollBarAlpha(now time.Time) float64
	// GetRevision changes whenever the zoom or tile state changed
	GetRevision() uint64

	// UI state
	IsShowingHelp() bool
	IsShowingInfo() bool
	IsShowingTileBounds() bool
	IsShowingScrollBar() bool
	GetOverlayMessage() string
	GetOverlayMessageTime() time.Time

	// Display data
	GetCurrentPageNumber() string
	GetCurrentName() string
	GetFontSize() float64
	GetConfigStatus() ConfigLoadResult
	GetKeybindings() map[string][]string
	GetMousebindings() map[string][]string
}

// RenderStateSnapshot captures the state that decides whether a frame has
// to be redrawn. Frames whose snapshot equals the previous one are skipped.
type RenderStateSnapshot struct {
	Revision       uint64
	PreviewID      *ebiten.Image
	ScrollBarAlpha float64

	ShowHelp       bool
	ShowInfo       bool
	ShowTileBounds bool
	ShowScrollBar  bool

	// Overlay message state (auto-expires after 2 seconds)
	OverlayMessage string
	OverlayActive  bool

	// Window dimensions for resize detection
	WindowWidth  int
	WindowHeight int
}

// NewRenderStateSnapshot captures the redraw-relevant state at now
func NewRenderStateSnapshot(state RenderState, windowWidth, windowHeight int, now time.Time) *RenderStateSnapshot {
	message := state.GetOverlayMessage()
	return &RenderStateSnapshot{
		Revision:       state.GetRevision(),
		PreviewID:      state.GetPreview(),
		ScrollBarAlpha: state.GetScrollBarAlpha(now),
		ShowHelp:       state.IsShowingHelp(),
		ShowInfo:       state.IsShowingInfo(),
		ShowTileBounds: state.IsShowingTileBounds(),
		ShowScrollBar:  state.IsShowingScrollBar(),
		OverlayMessage: message,
		OverlayActive:  message != "" && now.Sub(state.GetOverlayMessageTime()) < overlayMessageDuration,
		WindowWidth:    windowWidth,
		WindowHeight:   windowHeight,
	}
}

// Equals checks if two snapshots are equal
func (s *RenderStateSnapshot) Equals(other *RenderStateSnapshot) bool {
	if other == nil {
		return false
	}
	return *s == *other
}

// InputActions provides action methods for the input handler
type InputActions interface {
	// Application control
	Exit()

	// Display toggles
	ToggleHelp()
	ToggleInfo()
	ToggleFullscreen()
	ToggleTileBounds()
	ToggleScrollBar()

	// Settings
	CycleSortMethod()
	ToggleSubsampling()
	ToggleThreeStepScale()
	ToggleReadMode()
	ToggleRubberBand()
	CycleContentScale()
	CycleAlignment()

	// Navigation
	NavigateNext()
	NavigatePrevious()
	JumpToPage(page int)

	// Zoom and pan
	ZoomStep(direction int)
	SwitchScale()
	ZoomReset()
	Rotate(degrees int)
	PanByFraction(fx, fy float64)

	// Messages
	ShowOverlayMessage(message string)

	// Common data access
	GetCurrentIndex() int
	GetTotalPagesCount() int
}
