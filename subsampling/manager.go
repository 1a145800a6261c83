package subsampling

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"zoomimage/geom"
	"zoomimage/zoom"
)

// ViewState is what the Manager needs from the zoom state on each refresh.
type ViewState struct {
	ContentSize geom.IntSize
	// ContentVisibleRect is in unrotated content coordinates.
	ContentVisibleRect geom.Rect
	// DisplayScale maps content pixels to screen pixels.
	DisplayScale float64
	UserScale    float64
	MinScale     float64
	Continuous   zoom.ContinuousTransformType
}

// ViewStateOf extracts a ViewState from a zoom snapshot.
func ViewStateOf(s zoom.Snapshot) ViewState {
	return ViewState{
		ContentSize:        s.Layout.Content,
		ContentVisibleRect: s.ContentVisibleRect,
		DisplayScale:       s.Transform.Scale.X,
		UserScale:          s.UserScale(),
		MinScale:           s.MinScale,
		Continuous:         s.Continuous,
	}
}

// DefaultPausedTypes stops tile loading while scaling, pinching or
// locating.
const DefaultPausedTypes = zoom.ContinuousScale | zoom.ContinuousPinch | zoom.ContinuousLocate

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Source      ImageSource
	Info        ImageInfo
	TileSize    geom.IntSize
	Cache       MemoryCache
	Pool        *BitmapPool
	Dispatcher  Dispatcher
	Semaphore   *semaphore.Weighted
	PausedTypes zoom.ContinuousTransformType
	Logger      *slog.Logger
	// OnChange runs on the UI thread after tiles changed.
	OnChange func()
}

// Manager drives the tile lifecycle for one image. Every method runs on
// the UI thread; decode jobs run on goroutines bounded by the semaphore
// and post their results back through the Dispatcher.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	grid   *TileGrid

	ctx    context.Context
	cancel context.CancelFunc
	jobSeq uint64
	jobs   sync.WaitGroup
	closed bool

	sampleSize  int
	visibleRect image.Rectangle
	loadRect    image.Rectangle
}

// NewManager builds the tile grid for cfg.Info.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Semaphore == nil {
		cfg.Semaphore = semaphore.NewWeighted(DefaultParallelism)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("image", cfg.Source.Key())
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:    cfg,
		logger: logger,
		grid:   NewTileGrid(cfg.Info.Size(), cfg.TileSize),
		ctx:    ctx,
		cancel: cancel,
	}
	logger.Debug("tile grid",
		"imageSize", cfg.Info.Size(),
		"tileSize", cfg.TileSize,
		"sampleSizes", m.grid.SampleSizes())
	return m
}

// Grid returns the tile grid.
func (m *Manager) Grid() *TileGrid {
	return m.grid
}

// TileSize returns the preferred tile size the grid was built for.
func (m *Manager) TileSize() geom.IntSize {
	return m.cfg.TileSize
}

// SetPausedTypes replaces the continuous transform types that pause
// loading.
func (m *Manager) SetPausedTypes(t zoom.ContinuousTransformType) {
	m.cfg.PausedTypes = t
}

// SampleSize returns the active level, 0 when no tiles are wanted.
func (m *Manager) SampleSize() int {
	return m.sampleSize
}

// VisibleRect returns the visible image rect of the last refresh.
func (m *Manager) VisibleRect() image.Rectangle {
	return m.visibleRect
}

// LoadRect returns the load image rect of the last refresh.
func (m *Manager) LoadRect() image.Rectangle {
	return m.loadRect
}

// Refresh recomputes the wanted tiles from v, starting and cancelling
// decode jobs as needed.
func (m *Manager) Refresh(v ViewState) {
	if m.closed {
		return
	}
	if v.Continuous&m.cfg.PausedTypes != 0 {
		return
	}
	if v.ContentSize.IsEmpty() || v.ContentVisibleRect.IsEmpty() {
		m.Clean("empty view")
		return
	}
	if geom.Format(v.UserScale, zoom.ScalePrecision) <= geom.Format(v.MinScale, zoom.ScalePrecision) {
		m.Clean("min scale")
		return
	}

	imageSize := m.cfg.Info.Size()
	sx := float64(imageSize.Width) / float64(v.ContentSize.Width)
	sy := float64(imageSize.Height) / float64(v.ContentSize.Height)
	visible := geom.Rect{
		Left:   v.ContentVisibleRect.Left * sx,
		Top:    v.ContentVisibleRect.Top * sy,
		Right:  v.ContentVisibleRect.Right * sx,
		Bottom: v.ContentVisibleRect.Bottom * sy,
	}.Round().Intersect(imageSize.Bounds())

	sample := SampleSizeForScale(v.DisplayScale/sx, zoom.ScalePrecision)
	if sample <= 0 || sample > m.grid.MaxSampleSize() {
		sample = m.grid.MaxSampleSize()
	}
	if sample != m.sampleSize && m.sampleSize != 0 {
		m.logger.Debug("sample size changed", "from", m.sampleSize, "to", sample)
	}
	m.sampleSize = sample

	tile := m.grid.LevelTileSize(sample)
	m.visibleRect = visible
	m.loadRect = image.Rect(
		visible.Min.X-tile.Width/2, visible.Min.Y-tile.Height/2,
		visible.Max.X+tile.Width/2, visible.Max.Y+tile.Height/2,
	).Intersect(imageSize.Bounds())

	changed := false
	for _, size := range m.grid.SampleSizes() {
		for _, t := range m.grid.Tiles(size) {
			if size == sample && t.Rect.Overlaps(m.loadRect) {
				changed = m.load(t) || changed
			} else {
				changed = m.free(t) || changed
			}
		}
	}
	if changed {
		m.changed()
	}
}

// Clean releases every tile and cancels every job.
func (m *Manager) Clean(reason string) {
	changed := false
	for _, size := range m.grid.SampleSizes() {
		for _, t := range m.grid.Tiles(size) {
			changed = m.free(t) || changed
		}
	}
	if m.sampleSize != 0 || changed {
		m.logger.Debug("clean tiles", "reason", reason)
	}
	m.sampleSize = 0
	m.visibleRect = image.Rectangle{}
	m.loadRect = image.Rectangle{}
	if changed {
		m.changed()
	}
}

// Close cleans all tiles and stops accepting results.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.Clean("close")
	m.closed = true
	m.cancel()
}

// Wait blocks until every decode goroutine has posted its result.
func (m *Manager) Wait() {
	m.jobs.Wait()
}

// Tiles returns the tiles of the active level that overlap the load rect.
func (m *Manager) Tiles() []*Tile {
	if m.sampleSize == 0 {
		return nil
	}
	var out []*Tile
	for _, t := range m.grid.Tiles(m.sampleSize) {
		if t.Rect.Overlaps(m.loadRect) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Manager) changed() {
	if m.cfg.OnChange != nil {
		m.cfg.OnChange()
	}
}

// load makes sure t is loaded or loading and reports whether t changed.
func (m *Manager) load(t *Tile) bool {
	switch t.State {
	case TileStateLoaded, TileStateLoading, TileStateError:
		return false
	}
	key := CacheKey(m.cfg.Source.Key(), t.Rect, t.SampleSize)
	if m.cfg.Cache != nil {
		if e := m.cfg.Cache.Get(key); e != nil {
			t.entry = e
			t.State = TileStateLoaded
			return true
		}
	}

	m.jobSeq++
	jobID := m.jobSeq
	ctx, cancel := context.WithCancel(m.ctx)
	t.cancel = cancel
	t.jobID = jobID
	t.State = TileStateLoading

	rect, sample := t.Rect, t.SampleSize
	m.jobs.Add(1)
	go func() {
		defer m.jobs.Done()
		img, err := m.decode(ctx, rect, sample)
		m.cfg.Dispatcher.Post(func() {
			m.onDecoded(t, jobID, key, img, err)
		})
	}()
	return true
}

// free cancels any job of t and releases its bitmap. It reports whether t
// changed. A tile in the error state becomes loadable again.
func (m *Manager) free(t *Tile) bool {
	if t.State == TileStateNone && t.entry == nil && t.cancel == nil {
		return false
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.jobID = 0
	if t.entry != nil {
		t.entry.Release()
		t.entry = nil
	}
	t.State = TileStateNone
	return true
}

// decode runs off the UI thread. Cancellation is checked before and after
// the decode; a bitmap decoded for a cancelled job goes straight back to
// the pool.
func (m *Manager) decode(ctx context.Context, rect image.Rectangle, sample int) (*image.RGBA, error) {
	if err := m.cfg.Semaphore.Acquire(ctx, 1); err != nil {
		return nil, ErrCanceled
	}
	defer m.cfg.Semaphore.Release(1)
	if ctx.Err() != nil {
		return nil, ErrCanceled
	}
	img, err := m.cfg.Source.DecodeRegion(ctx, rect, sample, m.cfg.Pool)
	if ctx.Err() != nil {
		m.cfg.Pool.Put(img)
		return nil, ErrCanceled
	}
	if err != nil {
		return nil, fmt.Errorf("decode region %v at sample size %d: %w", rect, sample, err)
	}
	if img == nil {
		return nil, fmt.Errorf("decode region %v at sample size %d: no image", rect, sample)
	}
	return img, nil
}

// onDecoded runs on the UI thread. Results of stale jobs are dropped.
func (m *Manager) onDecoded(t *Tile, jobID uint64, key string, img *image.RGBA, err error) {
	if m.closed || t.jobID != jobID || t.State != TileStateLoading {
		m.cfg.Pool.Put(img)
		return
	}
	t.cancel = nil
	if err != nil {
		if errors.Is(err, ErrCanceled) {
			t.State = TileStateNone
			t.jobID = 0
			return
		}
		m.logger.Error("tile decode failed", "tile", t, "error", err)
		t.State = TileStateError
		m.changed()
		return
	}
	if m.cfg.Cache != nil {
		t.entry = m.cfg.Cache.Put(key, img, m.cfg.Source.Key())
	} else {
		t.entry = newUncachedEntry(key, img, m.cfg.Source.Key(), m.cfg.Pool)
	}
	t.State = TileStateLoaded
	m.changed()
}
