package subsampling

import (
	"context"
	"image"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"zoomimage/geom"
	"zoomimage/zoom"
)

// DefaultParallelism caps concurrent region decodes.
const DefaultParallelism = 4

// Viewport is the zoom state the engine follows. zoom.Engine implements it.
type Viewport interface {
	Snapshot() zoom.Snapshot
	Subscribe(fn func(zoom.Snapshot)) (cancel func())
	SetContentOriginSize(s geom.IntSize)
}

var _ Viewport = (*zoom.Engine)(nil)

// Options configures an Engine.
type Options struct {
	Disabled            bool
	PausedTypes         zoom.ContinuousTransformType
	DisallowReuseBitmap bool
	MemoryCacheDisabled bool
	Parallelism         int64
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{PausedTypes: DefaultPausedTypes, Parallelism: DefaultParallelism}
}

// TileSnapshot is a read-only view of one tile for renderers.
type TileSnapshot struct {
	Key        string
	Rect       image.Rectangle
	SampleSize int
	State      TileState
	// Image is borrowed; it stays valid until the next refresh on the UI
	// thread.
	Image *image.RGBA
}

// Snapshot is the subsampling state for renderers.
type Snapshot struct {
	Ready            bool
	ImageKey         string
	ImageInfo        ImageInfo
	SampleSize       int
	ImageVisibleRect image.Rectangle
	ImageLoadRect    image.Rectangle
	Tiles            []TileSnapshot
}

// LoadedTiles returns the tiles that have a bitmap.
func (s Snapshot) LoadedTiles() []TileSnapshot {
	var out []TileSnapshot
	for _, t := range s.Tiles {
		if t.State == TileStateLoaded && t.Image != nil {
			out = append(out, t)
		}
	}
	return out
}

// Engine binds an ImageSource to a Viewport and keeps the tile set in
// step with it. Every method must be called on the UI thread.
type Engine struct {
	logger     *slog.Logger
	viewport   Viewport
	dispatcher Dispatcher
	cache      MemoryCache
	pool       *BitmapPool
	sem        *semaphore.Weighted
	opts       Options

	source     ImageSource
	info       *ImageInfo
	readCancel context.CancelFunc
	lastReject string

	manager     *Manager
	ready       bool
	unsubscribe func()
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewEngine creates an engine following viewport. cache may be nil, and
// results of decode goroutines are delivered through dispatcher.
func NewEngine(viewport Viewport, dispatcher Dispatcher, cache MemoryCache, pool *BitmapPool, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	if pool == nil {
		pool = NewBitmapPool(DefaultPoolBytes)
	}
	pool.SetDisallowReuse(opts.DisallowReuseBitmap)
	e := &Engine{
		logger:      logger,
		viewport:    viewport,
		dispatcher:  dispatcher,
		cache:       cache,
		pool:        pool,
		sem:         semaphore.NewWeighted(opts.Parallelism),
		opts:        opts,
		subscribers: make(map[int]func(Snapshot)),
	}
	e.unsubscribe = viewport.Subscribe(e.onViewport)
	return e
}

// SetImageSource switches to src; nil detaches the current image. Image
// info is read off the UI thread.
func (e *Engine) SetImageSource(src ImageSource) {
	if e.source == src {
		return
	}
	e.detach()
	e.source = src
	if src == nil {
		e.notify()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.readCancel = cancel
	go func() {
		info, err := src.ReadImageInfo(ctx)
		e.dispatcher.Post(func() {
			e.onImageInfo(src, info, err)
		})
	}()
	e.notify()
}

func (e *Engine) onImageInfo(src ImageSource, info ImageInfo, err error) {
	if src != e.source {
		return
	}
	e.readCancel = nil
	if err != nil {
		e.logger.Warn("read image info failed", "image", src.Key(), "error", err)
		return
	}
	e.logger.Debug("image info", "image", src.Key(), "info", info)
	e.info = &info
	// Triggers onViewport through the subscription.
	e.viewport.SetContentOriginSize(info.Size())
	e.refresh(e.viewport.Snapshot())
}

func (e *Engine) detach() {
	if e.readCancel != nil {
		e.readCancel()
		e.readCancel = nil
	}
	e.destroyManager()
	e.info = nil
	e.lastReject = ""
	e.ready = false
}

func (e *Engine) destroyManager() {
	if e.manager != nil {
		e.manager.Close()
		e.manager = nil
	}
}

func (e *Engine) onViewport(s zoom.Snapshot) {
	e.refresh(s)
}

func (e *Engine) refresh(s zoom.Snapshot) {
	if e.opts.Disabled || e.source == nil || e.info == nil {
		e.setReady(false)
		return
	}
	if err := CanUseSubsampling(*e.info, s.Layout.Content); err != nil {
		if msg := err.Error(); msg != e.lastReject {
			e.lastReject = msg
			e.logger.Info("subsampling not used", "image", e.source.Key(), "reason", err)
		}
		e.setReady(false)
		return
	}
	e.lastReject = ""

	tileSize := PreferredTileSize(s.Layout.Container)
	if e.manager == nil || e.manager.TileSize() != tileSize {
		e.destroyManager()
		var cache MemoryCache
		if !e.opts.MemoryCacheDisabled {
			cache = e.cache
		}
		e.manager = NewManager(ManagerConfig{
			Source:      e.source,
			Info:        *e.info,
			TileSize:    tileSize,
			Cache:       cache,
			Pool:        e.pool,
			Dispatcher:  e.dispatcher,
			Semaphore:   e.sem,
			PausedTypes: e.opts.PausedTypes,
			Logger:      e.logger,
			OnChange:    e.notify,
		})
	}
	e.ready = true
	e.manager.Refresh(ViewStateOf(s))
	e.notify()
}

func (e *Engine) setReady(ready bool) {
	if !ready {
		e.destroyManager()
	}
	if e.ready != ready {
		e.ready = ready
		e.notify()
	}
}

// SetDisabled turns tiling off; the base image keeps showing.
func (e *Engine) SetDisabled(disabled bool) {
	if e.opts.Disabled == disabled {
		return
	}
	e.opts.Disabled = disabled
	e.refresh(e.viewport.Snapshot())
}

// SetPausedTypes replaces the continuous transforms that pause loading.
func (e *Engine) SetPausedTypes(t zoom.ContinuousTransformType) {
	e.opts.PausedTypes = t
	if e.manager != nil {
		e.manager.SetPausedTypes(t)
	}
	e.refresh(e.viewport.Snapshot())
}

// SetDisallowReuseBitmap turns off bitmap pooling.
func (e *Engine) SetDisallowReuseBitmap(disallow bool) {
	e.opts.DisallowReuseBitmap = disallow
	e.pool.SetDisallowReuse(disallow)
}

// SetMemoryCacheDisabled bypasses the memory cache for new managers.
func (e *Engine) SetMemoryCacheDisabled(disabled bool) {
	if e.opts.MemoryCacheDisabled == disabled {
		return
	}
	e.opts.MemoryCacheDisabled = disabled
	e.destroyManager()
	e.refresh(e.viewport.Snapshot())
}

// Options returns the current options.
func (e *Engine) Options() Options {
	return e.opts
}

// Snapshot returns the current tile state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{Ready: e.ready}
	if e.source != nil {
		s.ImageKey = e.source.Key()
	}
	if e.info != nil {
		s.ImageInfo = *e.info
	}
	if e.manager == nil {
		return s
	}
	s.SampleSize = e.manager.SampleSize()
	s.ImageVisibleRect = e.manager.VisibleRect()
	s.ImageLoadRect = e.manager.LoadRect()
	for _, t := range e.manager.Tiles() {
		s.Tiles = append(s.Tiles, TileSnapshot{
			Key:        CacheKey(s.ImageKey, t.Rect, t.SampleSize),
			Rect:       t.Rect,
			SampleSize: t.SampleSize,
			State:      t.State,
			Image:      t.Image(),
		})
	}
	return s
}

// Subscribe registers fn for tile changes. The returned func removes it.
func (e *Engine) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	return func() { delete(e.subscribers, id) }
}

func (e *Engine) notify() {
	if len(e.subscribers) == 0 {
		return
	}
	s := e.Snapshot()
	for _, fn := range e.subscribers {
		fn(s)
	}
}

// Close detaches the image and stops following the viewport.
func (e *Engine) Close() {
	e.detach()
	e.source = nil
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}
