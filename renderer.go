package main

import (
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"zoomimage/scrollbar"
	"zoomimage/subsampling"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}
	colorCyan      = color.RGBA{100, 255, 255, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}
	colorGreen     = color.RGBA{100, 255, 100, 255}
	colorOrange    = color.RGBA{255, 200, 100, 255}
	colorLightRed  = color.RGBA{255, 150, 150, 255}

	// Background colors for semi-transparent overlays
	bgColorLight  = color.RGBA{0, 0, 0, 128}
	bgColorMedium = color.RGBA{0, 0, 0, 160}
	bgColorDark   = color.RGBA{0, 0, 0, 200}

	// Tile bounds by state
	colorTileLoaded  = color.RGBA{0, 255, 0, 160}
	colorTileLoading = color.RGBA{255, 255, 0, 160}
	colorTileError   = color.RGBA{255, 0, 0, 160}

	colorScrollBar = color.RGBA{128, 128, 128, 200}
)

const (
	helpPadding     = 40.0
	helpMinFontSize = 12.0
)

// Renderer handles all drawing operations
type Renderer struct {
	renderState  RenderState
	textures     *TileTextures
	lastSnapshot *RenderStateSnapshot // Previous frame's state for comparison
}

// NewRenderer creates a new Renderer
func NewRenderer(renderState RenderState, textures *TileTextures) *Renderer {
	return &Renderer{
		renderState: renderState,
		textures:    textures,
	}
}

// Draw renders the entire screen. Frames whose state did not change are
// skipped since SetScreenClearedEveryFrame(false) keeps the last one.
func (r *Renderer) Draw(screen *ebiten.Image) {
	now := time.Now()
	snapshot := NewRenderStateSnapshot(r.renderState, screen.Bounds().Dx(), screen.Bounds().Dy(), now)
	if snapshot.Equals(r.lastSnapshot) {
		return
	}
	r.lastSnapshot = snapshot

	screen.Clear()

	preview := r.renderState.GetPreview()
	if preview == nil {
		return
	}
	zs := r.renderState.GetZoomSnapshot()
	gs := geomSnapshot{layout: zs.Layout, display: zs.Transform, origin: zs.ContentOriginSize}

	op := &ebiten.DrawImageOptions{}
	op.GeoM = contentGeoM(zs.Layout, zs.Transform)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(preview, op)

	tiles := r.renderState.GetTileSnapshot()
	r.drawTiles(screen, tiles, gs)

	if r.renderState.IsShowingTileBounds() {
		r.drawTileBounds(screen, tiles, gs)
	}
	if r.renderState.IsShowingScrollBar() {
		r.drawScrollBars(screen, snapshot.ScrollBarAlpha)
	}
	if r.renderState.IsShowingInfo() {
		r.drawInfoDisplay(screen, tiles)
	}
	if r.renderState.IsShowingHelp() {
		r.drawHelpOverlay(screen)
	}
	if snapshot.OverlayActive {
		r.drawOverlayMessage(screen)
	}
}

func (r *Renderer) drawTiles(screen *ebiten.Image, tiles subsampling.Snapshot, gs geomSnapshot) {
	if !tiles.Ready {
		return
	}
	for _, tile := range tiles.LoadedTiles() {
		tex := r.textures.Texture(tile)
		if tex == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM = tileGeoM(tile, tex.Bounds().Size(), gs)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(tex, op)
	}
}

func (r *Renderer) drawTileBounds(screen *ebiten.Image, tiles subsampling.Snapshot, gs geomSnapshot) {
	for _, tile := range tiles.Tiles {
		var c color.Color
		switch tile.State {
		case subsampling.TileStateLoaded:
			c = colorTileLoaded
		case subsampling.TileStateLoading:
			c = colorTileLoading
		case subsampling.TileStateError:
			c = colorTileError
		default:
			continue
		}
		rect := tileScreenRect(tile, gs)
		StrokeRect(screen, rect.Left, rect.Top, rect.Width(), rect.Height(), 1, c)
	}
}

func (r *Renderer) drawScrollBars(screen *ebiten.Image, alpha float64) {
	if alpha <= 0 {
		return
	}
	bars := scrollbar.Compute(scrollbar.DefaultSpec(), r.renderState.GetZoomSnapshot())
	c := color.RGBA{
		R: uint8(float64(colorScrollBar.R) * alpha),
		G: uint8(float64(colorScrollBar.G) * alpha),
		B: uint8(float64(colorScrollBar.B) * alpha),
		A: uint8(float64(colorScrollBar.A) * alpha),
	}
	if bars.HasHorizontal {
		b := bars.Horizontal
		DrawFilledRect(screen, b.Left, b.Top, b.Width(), b.Height(), c)
	}
	if bars.HasVertical {
		b := bars.Vertical
		DrawFilledRect(screen, b.Left, b.Top, b.Width(), b.Height(), c)
	}
}

// buildInfoString describes the current page, zoom and tile state
func (r *Renderer) buildInfoString(tiles subsampling.Snapshot) string {
	zs := r.renderState.GetZoomSnapshot()
	parts := []string{
		r.renderState.GetCurrentPageNumber(),
		r.renderState.GetCurrentName(),
	}
	if origin := zs.ContentOriginSize; !origin.IsEmpty() {
		parts = append(parts, origin.String())
	}
	parts = append(parts, fmt.Sprintf("x%.2f (%.2f-%.2f)", zs.UserScale(), zs.MinScale, zs.MaxScale))
	if zs.Layout.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("%d°", zs.Layout.Rotation))
	}
	if tiles.Ready {
		parts = append(parts, fmt.Sprintf("sample %d, tiles %d/%d", tiles.SampleSize, len(tiles.LoadedTiles()), len(tiles.Tiles)))
	}
	return strings.Join(parts, "  ")
}

func (r *Renderer) drawInfoDisplay(screen *ebiten.Image, tiles subsampling.Snapshot) {
	infoFont := newFace(r.renderState.GetFontSize())
	infoText := r.buildInfoString(tiles)
	textWidth, textHeight := text.Measure(infoText, infoFont, 0)

	// Position at bottom right corner
	padding := 10.0
	textX := float64(screen.Bounds().Dx()) - textWidth - padding
	textY := float64(screen.Bounds().Dy()) - textHeight - padding

	bgPadding := 5.0
	DrawFilledRect(screen, textX-bgPadding, textY-bgPadding, textWidth+bgPadding*2, textHeight+bgPadding*2, bgColorLight)
	DrawText(screen, infoText, infoFont, textX, textY, colorWhite)
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	messageFont := newFace(r.renderState.GetFontSize())
	message := r.renderState.GetOverlayMessage()
	textWidth, textHeight := text.Measure(message, messageFont, 0)

	// Center of screen
	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}

// helpRow is one bound action in the help overlay
type helpRow struct {
	action      string
	keys        string
	mouse       string
	description string
}

// helpRows returns the bound actions in definition order
func (r *Renderer) helpRows() []helpRow {
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()
	descriptions := GetActionDescriptions()

	var rows []helpRow
	for _, action := range actionNames() {
		keys, mouse := keybindings[action], mousebindings[action]
		if len(keys) == 0 && len(mouse) == 0 {
			continue
		}
		rows = append(rows, helpRow{
			action:      action,
			keys:        strings.Join(keys, ", "),
			mouse:       strings.Join(mouse, ", "),
			description: descriptions[action],
		})
	}
	return rows
}

// helpStatusLines returns the config status and its first warnings
func (r *Renderer) helpStatusLines() []string {
	status := r.renderState.GetConfigStatus()
	lines := []string{"Config Status: " + status.Status}
	for _, warning := range status.Warnings[:min(2, len(status.Warnings))] {
		if len(warning) > 50 {
			warning = warning[:47] + "..."
		}
		lines = append(lines, "• "+warning)
	}
	return lines
}

// helpLayout holds the column positions of the help table at one font size
type helpLayout struct {
	fontSize   float64
	lineHeight float64
	inputX     float64
	descX      float64
	width      float64
	height     float64
}

func (r *Renderer) layoutHelp(rows []helpRow, statusLines int, fontSize float64) helpLayout {
	face := newFace(fontSize)
	maxAction, maxInput, maxDesc := 0.0, 0.0, 0.0
	for _, row := range rows {
		aw, _ := text.Measure(row.action, face, 0)
		iw, _ := text.Measure(row.input(), face, 0)
		dw, _ := text.Measure(row.description, face, 0)
		maxAction = max(maxAction, aw)
		maxInput = max(maxInput, iw)
		maxDesc = max(maxDesc, dw)
	}

	l := helpLayout{fontSize: fontSize, lineHeight: fontSize * 1.5}
	l.inputX = 40 + maxAction + 20
	l.descX = l.inputX + maxInput + 20
	l.width = l.descX + maxDesc + 20
	l.height = 30 + fontSize*2 + l.lineHeight*1.5 + l.lineHeight*float64(len(rows)+2+statusLines)
	return l
}

func (row helpRow) input() string {
	switch {
	case row.keys != "" && row.mouse != "":
		return row.keys + " | " + row.mouse
	case row.keys != "":
		return row.keys
	default:
		return row.mouse
	}
}

// fitHelp finds the largest font size whose help table fits the area
func (r *Renderer) fitHelp(rows []helpRow, statusLines int, availableWidth, availableHeight float64) (helpLayout, bool) {
	fits := func(l helpLayout) bool { return l.width <= availableWidth && l.height <= availableHeight }

	best := r.layoutHelp(rows, statusLines, helpMinFontSize)
	if !fits(best) {
		return best, false
	}
	if l := r.layoutHelp(rows, statusLines, r.renderState.GetFontSize()); fits(l) {
		return l, true
	}

	// Binary search for optimal font size
	low, high := helpMinFontSize, r.renderState.GetFontSize()
	for high-low > 0.5 {
		mid := (low + high) / 2
		if l := r.layoutHelp(rows, statusLines, mid); fits(l) {
			best, low = l, mid
		} else {
			high = mid
		}
	}
	return best, true
}

func (r *Renderer) drawHelpOverlay(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	rows := r.helpRows()
	status := r.helpStatusLines()

	layout, canFit := r.fitHelp(rows, len(status), w-helpPadding*2, h-helpPadding*2)
	if !canFit {
		r.drawMarginTooSmallMessage(screen)
		return
	}

	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)
	DrawFilledRect(screen, helpPadding, helpPadding, w-helpPadding*2, h-helpPadding*2, bgColorMedium)

	face := newFace(layout.fontSize)
	y := helpPadding + 30
	DrawText(screen, "HELP:", face, helpPadding+20, y, colorWhite)
	y += layout.fontSize * 2
	DrawText(screen, "Controls (Keyboard | Mouse):", face, helpPadding+20, y, colorWhite)
	y += layout.lineHeight * 1.5

	for _, row := range rows {
		DrawText(screen, row.action, face, helpPadding+40, y, colorLightBlue)

		// Keyboard bindings in yellow, mouse bindings in cyan
		x := helpPadding + layout.inputX
		if row.keys != "" {
			DrawText(screen, row.keys, face, x, y, colorYellow)
			kw, _ := text.Measure(row.keys, face, 0)
			x += kw
		}
		if row.keys != "" && row.mouse != "" {
			DrawText(screen, " | ", face, x, y, colorWhite)
			sw, _ := text.Measure(" | ", face, 0)
			x += sw
		}
		if row.mouse != "" {
			DrawText(screen, row.mouse, face, x, y, colorCyan)
		}

		DrawText(screen, row.description, face, helpPadding+layout.descX, y, colorGray)
		y += layout.lineHeight
	}

	y += layout.lineHeight
	DrawText(screen, "System:", face, helpPadding+20, y, colorWhite)
	y += layout.lineHeight

	configStatus := r.renderState.GetConfigStatus().Status
	for i, line := range status {
		c := colorLightRed
		if i == 0 {
			c = colorGreen
			if slices.Contains([]string{"Warning", "Error"}, configStatus) {
				c = colorOrange
			}
		}
		DrawText(screen, line, face, helpPadding+40, y, c)
		y += layout.lineHeight
	}
}

// drawMarginTooSmallMessage displays Fermat's margin joke when help cannot fit
func (r *Renderer) drawMarginTooSmallMessage(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)

	jokeFont := newFace(16)
	message := "Hanc marginis exiguitas non caperet."
	subtitle := "(This margin is too small to contain it.)"

	messageWidth, messageHeight := text.Measure(message, jokeFont, 0)
	subtitleWidth, _ := text.Measure(subtitle, jokeFont, 0)

	messageY := h/2 - messageHeight/2
	DrawText(screen, message, jokeFont, w/2-messageWidth/2, messageY, colorWhite)
	DrawText(screen, subtitle, jokeFont, w/2-subtitleWidth/2, messageY+messageHeight+10, colorGray)
}
