package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"zoomimage/geom"
	"zoomimage/gesture"
	"zoomimage/imagesource"
	"zoomimage/scrollbar"
	"zoomimage/subsampling"
	"zoomimage/zoom"
)

const (
	// zoomStepFactor is the zoom change of one zoom_in or zoom_out
	zoomStepFactor = 1.5

	// tileCacheEntries bounds the decoded tile cache besides its byte budget
	tileCacheEntries = 1024

	// tileTextureEntries bounds the uploaded tile textures
	tileTextureEntries = 256

	// tapZoneFraction is the width of the left and right page turn zones
	tapZoneFraction = 1.0 / 3
)

// Game wires the zoom, gesture and tile engines to ebiten
type Game struct {
	logger       *slog.Logger
	imageManager ImageManager
	idx          int
	config       Config
	configStatus ConfigLoadResult

	zoom      *zoom.Engine
	detector  *gesture.Detector
	tiles     *subsampling.Engine
	tileCache *subsampling.LRUMemoryCache
	pool      *subsampling.BitmapPool
	queue     *subsampling.MainQueue
	textures  *TileTextures
	fader     *scrollbar.Fader

	source  *imagesource.Source
	preview *Preview

	renderer            *Renderer
	inputHandler        *InputHandler
	keybindingManager   *KeybindingManager
	mousebindingManager *MousebindingManager

	container   geom.IntSize
	revision    uint64
	unsubscribe []func()

	fullscreen           bool
	savedWinW, savedWinH int
	showHelp, showInfo   bool
	showTileBounds       bool
	showScrollBar        bool
	overlayMessage       string
	overlayMessageTime   time.Time
	exitRequested        bool
}

// NewGame creates the viewer for the images of imageManager, starting at startIdx
func NewGame(config Config, configStatus ConfigLoadResult, imageManager ImageManager, startIdx int, logger *slog.Logger) (*Game, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool := subsampling.NewBitmapPool(subsampling.DefaultPoolBytes)
	tileCache, err := subsampling.NewLRUMemoryCache(tileCacheEntries, int64(config.TileCacheMB)<<20, pool, logger.With("component", "tilecache"))
	if err != nil {
		return nil, err
	}
	textures, err := NewTileTextures(tileTextureEntries)
	if err != nil {
		return nil, err
	}

	g := &Game{
		logger:         logger,
		imageManager:   imageManager,
		config:         config,
		configStatus:   configStatus,
		pool:           pool,
		tileCache:      tileCache,
		queue:          &subsampling.MainQueue{},
		textures:       textures,
		fader:          scrollbar.NewFader(),
		fullscreen:     config.Fullscreen,
		showTileBounds: config.ShowTileBounds,
		showScrollBar:  config.ShowScrollBar,
	}

	g.zoom = zoom.NewEngine(config.zoomOptions(), logger.With("component", "zoom"))
	g.zoom.SetOnTap(g.onTap)
	g.zoom.SetOnLongPress(g.onLongPress)

	g.detector = gesture.NewDetector(g.zoom, config.gestureOptions(), logger.With("component", "gesture"))
	g.detector.SetEdgeChecker(g.zoom)

	g.tiles = subsampling.NewEngine(g.zoom, g.queue, tileCache, pool, config.subsamplingOptions(), logger.With("component", "subsampling"))

	g.unsubscribe = append(g.unsubscribe,
		g.zoom.Subscribe(func(zoom.Snapshot) { g.revision++ }),
		g.tiles.Subscribe(func(subsampling.Snapshot) { g.revision++ }),
	)

	g.keybindingManager = NewKeybindingManager(config.Keybindings)
	g.mousebindingManager = NewMousebindingManager(config.Mousebindings, config.MouseSettings)
	pointers := NewPointerRouter(g.detector, config.MouseSettings.EnableMouse && config.MouseSettings.DragPan)
	g.inputHandler = NewInputHandler(g, g.keybindingManager, g.mousebindingManager, pointers)
	g.renderer = NewRenderer(g, g.textures)

	if imageManager.GetPathsCount() > 0 {
		g.showImage(startIdx, NavigationJump)
	}
	return g, nil
}

// showImage makes idx the current image and attaches its tile source
func (g *Game) showImage(idx int, direction NavigationDirection) {
	preview := g.imageManager.GetPreview(idx)
	if preview == nil {
		return
	}
	g.idx = idx
	g.preview = preview

	g.zoom.StopAnimation()
	g.tiles.SetImageSource(nil)
	if g.source != nil {
		g.source.Release()
		g.source = nil
	}
	g.textures.Purge()

	g.zoom.SetContent(geom.SizeOf(preview.Image.Bounds()), preview.Origin)

	if preview.Err == nil {
		if path, ok := g.imageManager.GetPath(idx); ok {
			g.source = imagesource.Open(path)
			g.tiles.SetImageSource(g.source)
		}
	}

	g.imageManager.StartPreload(idx, direction)
	g.revision++
	g.logger.Debug("showing image", "index", idx+1, "origin", preview.Origin.String())
}

// onTap turns pages from the side zones while the image is not zoomed in
func (g *Game) onTap(pos geom.Offset) {
	snap := g.zoom.Snapshot()
	if snap.UserScale() > snap.MinScale+0.01 || g.container.IsEmpty() {
		return
	}
	zone := float64(g.container.Width) * tapZoneFraction
	switch {
	case pos.X < zone:
		g.NavigatePrevious()
	case pos.X > float64(g.container.Width)-zone:
		g.NavigateNext()
	}
}

// onLongPress shows the full resolution pixel under the pointer
func (g *Game) onLongPress(pos geom.Offset) {
	snap := g.zoom.Snapshot()
	if snap.Layout.IsEmpty() {
		return
	}
	p := geom.ContainerToContent(snap.Layout, snap.Transform, pos)
	if origin := snap.ContentOriginSize; !origin.IsEmpty() {
		p = p.Times(geom.ScaleFactor{
			X: float64(origin.Width) / float64(snap.Layout.Content.Width),
			Y: float64(origin.Height) / float64(snap.Layout.Content.Height),
		})
	}
	g.ShowOverlayMessage(fmt.Sprintf("Pixel: %d, %d", int(p.X), int(p.Y)))
}

func (g *Game) containerCenter() geom.Offset {
	return geom.Offset{X: float64(g.container.Width) / 2, Y: float64(g.container.Height) / 2}
}

func (g *Game) saveCurrentWindowSize() {
	if g.fullscreen {
		// Save the size from before fullscreen
		if g.savedWinW > 0 && g.savedWinH > 0 {
			g.config.WindowWidth = g.savedWinW
			g.config.WindowHeight = g.savedWinH
		}
	} else {
		w, h := ebiten.WindowSize()
		g.config.WindowWidth = w
		g.config.WindowHeight = h
	}
	g.config.Fullscreen = g.fullscreen
	g.config.ShowTileBounds = g.showTileBounds
	g.config.ShowScrollBar = g.showScrollBar
	saveConfig(g.config)
}

// Close detaches every engine and releases the current image
func (g *Game) Close() {
	for _, cancel := range g.unsubscribe {
		cancel()
	}
	g.unsubscribe = nil
	g.tiles.Close()
	if g.source != nil {
		g.source.Release()
		g.source = nil
	}
	g.tileCache.Clear()
	g.pool.Clear()
	g.textures.Purge()
	g.imageManager.StopPreload()
}

func (g *Game) Update() error {
	if g.exitRequested {
		g.saveCurrentWindowSize()
		g.Close()
		return ebiten.Termination
	}

	now := time.Now()
	g.zoom.SetContainerSize(g.container)
	if g.queue.Drain() > 0 {
		g.revision++
	}
	g.inputHandler.HandleInput(now)
	if g.imageManager.GetPathsCount() == 0 {
		return nil
	}
	g.detector.Tick(now)
	g.zoom.Tick(now)
	g.fader.Update(g.zoom.Snapshot(), now)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.container = geom.IntSize{Width: outsideWidth, Height: outsideHeight}
	return outsideWidth, outsideHeight
}

// InputActions implementation

func (g *Game) Exit() {
	g.exitRequested = true
}

func (g *Game) ToggleHelp() {
	g.showHelp = !g.showHelp
}

func (g *Game) ToggleInfo() {
	g.showInfo = !g.showInfo
}

func (g *Game) ToggleFullscreen() {
	g.fullscreen = !g.fullscreen
	if g.fullscreen {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
		return
	}
	ebiten.SetFullscreen(false)
	if g.savedWinW > 0 && g.savedWinH > 0 {
		ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
	}
}

func (g *Game) ToggleTileBounds() {
	g.showTileBounds = !g.showTileBounds
}

func (g *Game) ToggleScrollBar() {
	g.showScrollBar = !g.showScrollBar
}

func (g *Game) CycleSortMethod() {
	count := g.imageManager.GetPathsCount()
	if count == 0 {
		return
	}
	current, _ := g.imageManager.GetPath(g.idx)
	paths := make([]ImagePath, 0, count)
	for i := range count {
		if p, ok := g.imageManager.GetPath(i); ok {
			paths = append(paths, p)
		}
	}

	g.config.SortMethod = nextSortMethod(g.config.SortMethod)
	sorted := sortImagePaths(paths, g.config.SortMethod)
	g.imageManager.SetPaths(sorted)
	for i, p := range sorted {
		if p == current {
			g.idx = i
			break
		}
	}
	g.imageManager.StartPreload(g.idx, NavigationJump)
	g.ShowOverlayMessage("Sort: " + getSortMethodName(g.config.SortMethod))
}

func (g *Game) ToggleSubsampling() {
	g.config.Subsampling = !g.config.Subsampling
	g.tiles.SetDisabled(!g.config.Subsampling)
	if !g.config.Subsampling {
		g.textures.Purge()
	}
	g.ShowOverlayMessage(onOff("Subsampling", g.config.Subsampling))
}

func (g *Game) ToggleThreeStepScale() {
	g.config.ThreeStepScale = !g.config.ThreeStepScale
	g.zoom.SetThreeStepScale(g.config.ThreeStepScale)
	g.ShowOverlayMessage(onOff("Three step scale", g.config.ThreeStepScale))
}

func (g *Game) ToggleReadMode() {
	g.config.ReadMode = !g.config.ReadMode
	if g.config.ReadMode {
		g.zoom.SetReadMode(zoom.DefaultReadMode())
	} else {
		g.zoom.SetReadMode(nil)
	}
	g.zoom.ResetToInitial(true)
	g.ShowOverlayMessage(onOff("Read mode", g.config.ReadMode))
}

func (g *Game) ToggleRubberBand() {
	g.config.RubberBandScale = !g.config.RubberBandScale
	g.zoom.SetRubberBandScale(g.config.RubberBandScale)
	g.ShowOverlayMessage(onOff("Rubber band scale", g.config.RubberBandScale))
}

func (g *Game) CycleContentScale() {
	next := (g.zoom.Options().ContentScale + 1) % (geom.ContentScaleNone + 1)
	g.zoom.SetContentScale(next)
	g.config.ContentScale = next.String()
	g.ShowOverlayMessage("Content scale: " + next.String())
}

func (g *Game) CycleAlignment() {
	next := (g.zoom.Options().Alignment + 1) % (geom.AlignBottomEnd + 1)
	g.zoom.SetAlignment(next)
	g.config.Alignment = next.String()
	g.ShowOverlayMessage("Alignment: " + next.String())
}

func (g *Game) NavigateNext() {
	count := g.imageManager.GetPathsCount()
	if count == 0 {
		return
	}
	g.showImage((g.idx+1)%count, NavigationForward)
}

func (g *Game) NavigatePrevious() {
	count := g.imageManager.GetPathsCount()
	if count == 0 {
		return
	}
	g.showImage((g.idx-1+count)%count, NavigationBackward)
}

// JumpToPage shows the 1-based page
func (g *Game) JumpToPage(page int) {
	count := g.imageManager.GetPathsCount()
	if page < 1 || page > count {
		return
	}
	g.showImage(page-1, NavigationJump)
}

func (g *Game) ZoomStep(direction int) {
	if !g.detector.Enabled(gesture.TypeKeyboard) || direction == 0 {
		return
	}
	factor := zoomStepFactor
	if direction < 0 {
		factor = 1 / factor
	}
	g.zoom.ZoomBy(factor, g.containerCenter(), true)
}

func (g *Game) SwitchScale() {
	if !g.detector.Enabled(gesture.TypeKeyboard) {
		return
	}
	g.zoom.SwitchScale(g.containerCenter(), true)
}

func (g *Game) ZoomReset() {
	g.zoom.ResetToInitial(true)
}

func (g *Game) Rotate(degrees int) {
	g.zoom.Rotate(degrees)
	g.textures.Purge()
}

// PanByFraction moves the content by a fraction of the container size
func (g *Game) PanByFraction(fx, fy float64) {
	if !g.detector.Enabled(gesture.TypeKeyboard) {
		return
	}
	g.zoom.PanBy(geom.Offset{X: fx * float64(g.container.Width), Y: fy * float64(g.container.Height)}, true)
}

func (g *Game) ShowOverlayMessage(message string) {
	g.overlayMessage = message
	g.overlayMessageTime = time.Now()
}

func (g *Game) GetCurrentIndex() int {
	return g.idx
}

func (g *Game) GetTotalPagesCount() int {
	return g.imageManager.GetPathsCount()
}

// RenderState implementation

func (g *Game) GetPreview() *ebiten.Image {
	if g.preview == nil {
		return nil
	}
	return g.preview.Image
}

func (g *Game) GetZoomSnapshot() zoom.Snapshot {
	return g.zoom.Snapshot()
}

func (g *Game) GetTileSnapshot() subsampling.Snapshot {
	return g.tiles.Snapshot()
}

func (g *Game) GetScrollBarAlpha(now time.Time) float64 {
	if !g.showScrollBar {
		return 0
	}
	return g.fader.Alpha(now)
}

func (g *Game) GetRevision() uint64 {
	return g.revision
}

func (g *Game) IsShowingHelp() bool       { return g.showHelp }
func (g *Game) IsShowingInfo() bool       { return g.showInfo }
func (g *Game) IsShowingTileBounds() bool { return g.showTileBounds }
func (g *Game) IsShowingScrollBar() bool  { return g.showScrollBar }

func (g *Game) GetOverlayMessage() string {
	return g.overlayMessage
}

func (g *Game) GetOverlayMessageTime() time.Time {
	return g.overlayMessageTime
}

func (g *Game) GetCurrentPageNumber() string {
	return fmt.Sprintf("%d / %d", g.idx+1, g.imageManager.GetPathsCount())
}

func (g *Game) GetCurrentName() string {
	path, ok := g.imageManager.GetPath(g.idx)
	if !ok {
		return ""
	}
	return path.Name()
}

func (g *Game) GetFontSize() float64 {
	return g.config.HelpFontSize
}

func (g *Game) GetConfigStatus() ConfigLoadResult {
	return g.configStatus
}

func (g *Game) GetKeybindings() map[string][]string {
	return g.keybindingManager.GetKeybindings()
}

func (g *Game) GetMousebindings() map[string][]string {
	return g.mousebindingManager.GetMousebindings()
}

func onOff(name string, on bool) string {
	if on {
		return name + ": ON"
	}
	return name + ": OFF"
}

var (
	_ InputActions = (*Game)(nil)
	_ RenderState  = (*Game)(nil)
)
