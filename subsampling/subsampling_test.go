package subsampling

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomimage/geom"
	"zoomimage/zoom"
)

type fakeSource struct {
	key  string
	info ImageInfo

	mu    sync.Mutex
	calls int
	gate  chan struct{}
	fail  bool
}

func (f *fakeSource) Key() string { return f.key }

func (f *fakeSource) ReadImageInfo(context.Context) (ImageInfo, error) {
	return f.info, nil
}

func (f *fakeSource) DecodeRegion(_ context.Context, rect image.Rectangle, sampleSize int, pool *BitmapPool) (*image.RGBA, error) {
	f.mu.Lock()
	f.calls++
	gate, fail := f.gate, f.fail
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, errors.New("corrupt stream")
	}
	return pool.Get(ceilDiv(rect.Dx(), sampleSize), ceilDiv(rect.Dy(), sampleSize)), nil
}

func (f *fakeSource) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	zoom   *zoom.Engine
	engine *Engine
	queue  *MainQueue
	cache  *LRUMemoryCache
	pool   *BitmapPool
	source *fakeSource
}

func newFixture(t *testing.T, source *fakeSource) *fixture {
	t.Helper()
	z := zoom.NewEngine(zoom.DefaultOptions(), nil)
	z.SetContainerSize(geom.IntSize{Width: 1000, Height: 750})
	z.SetContentSize(geom.IntSize{Width: 1000, Height: 750})

	pool := NewBitmapPool(DefaultPoolBytes)
	cache, err := NewLRUMemoryCache(64, 256<<20, pool, nil)
	require.NoError(t, err)
	queue := &MainQueue{}
	e := NewEngine(z, queue, cache, pool, DefaultOptions(), nil)
	t.Cleanup(e.Close)

	e.SetImageSource(source)
	f := &fixture{zoom: z, engine: e, queue: queue, cache: cache, pool: pool, source: source}
	f.drainUntil(t, func() bool { return e.Snapshot().Ready })
	return f
}

func (f *fixture) drainUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.queue.Drain()
		return cond()
	}, 2*time.Second, time.Millisecond)
}

func largeSource() *fakeSource {
	return &fakeSource{
		key:  "fake://large.jpg",
		info: ImageInfo{Width: 4000, Height: 3000, MimeType: "image/jpeg"},
	}
}

func allLoaded(e *Engine) func() bool {
	return func() bool {
		s := e.Snapshot()
		return len(s.Tiles) > 0 && len(s.LoadedTiles()) == len(s.Tiles)
	}
}

func TestTileGridCoverage(t *testing.T) {
	tests := []struct {
		image geom.IntSize
		tile  geom.IntSize
	}{
		{geom.IntSize{Width: 4000, Height: 3000}, geom.IntSize{Width: 500, Height: 375}},
		{geom.IntSize{Width: 1001, Height: 77}, geom.IntSize{Width: 100, Height: 10}},
		{geom.IntSize{Width: 5, Height: 5}, geom.IntSize{Width: 1, Height: 1}},
		{geom.IntSize{Width: 300, Height: 9000}, geom.IntSize{Width: 540, Height: 960}},
	}
	for _, tt := range tests {
		t.Run(tt.image.String(), func(t *testing.T) {
			g := NewTileGrid(tt.image, tt.tile)
			require.NotEmpty(t, g.SampleSizes())
			assert.Equal(t, 1, g.SampleSizes()[0])
			assert.Len(t, g.Tiles(g.MaxSampleSize()), 1)

			for _, size := range g.SampleSizes() {
				tiles := g.Tiles(size)
				area := 0
				var union image.Rectangle
				for i, a := range tiles {
					area += a.Rect.Dx() * a.Rect.Dy()
					union = union.Union(a.Rect)
					for _, b := range tiles[i+1:] {
						assert.False(t, a.Rect.Overlaps(b.Rect), "%v overlaps %v", a.Rect, b.Rect)
					}
				}
				assert.Equal(t, tt.image.Width*tt.image.Height, area, "sample %d", size)
				assert.Equal(t, tt.image.Bounds(), union, "sample %d", size)
			}
		})
	}
}

func TestSampleSizeForScale(t *testing.T) {
	tests := []struct {
		ratio float64
		want  int
	}{
		{3, 1},
		{1, 1},
		{0.5, 2},
		{0.33, 2},
		{0.25, 4},
		{0.2499, 4},
		{0.1, 8},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SampleSizeForScale(tt.ratio, 2), "ratio %v", tt.ratio)
	}
}

func TestCanUseSubsampling(t *testing.T) {
	info := ImageInfo{Width: 4000, Height: 3000, MimeType: "image/jpeg"}
	tests := []struct {
		name    string
		info    ImageInfo
		content geom.IntSize
		want    error
	}{
		{"ok", info, geom.IntSize{Width: 1000, Height: 750}, nil},
		{"rounded preview", ImageInfo{Width: 4001, Height: 3001, MimeType: "image/png"}, geom.IntSize{Width: 1000, Height: 750}, nil},
		{"same size", info, geom.IntSize{Width: 4000, Height: 3000}, ErrImageTooSmall},
		{"aspect", info, geom.IntSize{Width: 1000, Height: 500}, ErrAspectRatio},
		{"gif", ImageInfo{Width: 4000, Height: 3000, MimeType: "image/gif"}, geom.IntSize{Width: 1000, Height: 750}, ErrUnsupportedMimeType},
		{"empty content", info, geom.IntSize{}, ErrImageTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanUseSubsampling(tt.info, tt.content)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "img_tile_[0,0,500,375]_1", CacheKey("img", image.Rect(0, 0, 500, 375), 1))
}

func TestMinScaleHasNoTiles(t *testing.T) {
	f := newFixture(t, largeSource())
	s := f.engine.Snapshot()

	assert.True(t, s.Ready)
	assert.Empty(t, s.Tiles)
	assert.Equal(t, 0, s.SampleSize)
	assert.Equal(t, geom.IntSize{Width: 4000, Height: 3000}, f.zoom.Snapshot().ContentOriginSize)
	assert.Equal(t, 12.0, f.zoom.Snapshot().MaxScale)
}

func TestMaxScaleLoadsFullResolutionTiles(t *testing.T) {
	f := newFixture(t, largeSource())
	zs := f.zoom.Snapshot()

	f.zoom.Scale(zs.MaxScale, geom.Offset{X: 500, Y: 375}, false)
	s := f.engine.Snapshot()
	assert.Equal(t, 1, s.SampleSize)
	require.Len(t, s.Tiles, 4)
	assert.True(t, s.ImageLoadRect.In(image.Rect(0, 0, 4000, 3000)))
	assert.True(t, s.ImageVisibleRect.In(s.ImageLoadRect))

	f.drainUntil(t, allLoaded(f.engine))
	for _, tile := range f.engine.Snapshot().LoadedTiles() {
		assert.Equal(t, image.Rect(0, 0, 500, 375), tile.Image.Bounds())
	}

	f.zoom.Scale(zs.MinScale, geom.Offset{X: 500, Y: 375}, false)
	assert.Empty(t, f.engine.Snapshot().Tiles)
	stats := f.cache.Stats()
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 4, stats.Idle)

	// Zooming back in reuses the cached tiles without decoding.
	calls := f.source.Calls()
	f.zoom.Scale(zs.MaxScale, geom.Offset{X: 500, Y: 375}, false)
	assert.True(t, allLoaded(f.engine)())
	assert.Equal(t, calls, f.source.Calls())
}

func TestMediumScaleUsesCoarserLevel(t *testing.T) {
	f := newFixture(t, largeSource())
	f.zoom.Scale(2, geom.Offset{X: 500, Y: 375}, false)
	assert.Equal(t, 2, f.engine.Snapshot().SampleSize)
}

func TestCancelledTileNeverGetsBitmap(t *testing.T) {
	src := largeSource()
	centerGate := make(chan struct{})
	src.gate = centerGate
	f := newFixture(t, src)

	f.zoom.Scale(f.zoom.Snapshot().MaxScale, geom.Offset{X: 500, Y: 375}, false)
	centerTiles := f.engine.manager.Tiles()
	require.Len(t, centerTiles, 4)
	for _, tile := range centerTiles {
		require.Equal(t, TileStateLoading, tile.State)
	}
	require.Eventually(t, func() bool { return src.Calls() == 4 }, 2*time.Second, time.Millisecond)

	// Later decodes wait on their own gate so the pooled buffers stay put.
	cornerGate := make(chan struct{})
	src.setGate(cornerGate)

	// Pan to the top left corner while the center decodes are in flight.
	f.zoom.Offset(geom.Offset{}, false)
	for _, tile := range centerTiles {
		assert.Equal(t, TileStateNone, tile.State)
	}
	close(centerGate)

	require.Eventually(t, func() bool {
		count, _ := f.pool.Size()
		return count == 4
	}, 2*time.Second, time.Millisecond)

	close(cornerGate)
	f.drainUntil(t, allLoaded(f.engine))
	f.engine.manager.Wait()
	f.queue.Drain()
	assert.Equal(t, 8, src.Calls())
	count, _ := f.pool.Size()
	assert.Equal(t, 0, count)

	for _, tile := range centerTiles {
		assert.Nil(t, tile.Image(), "%v", tile)
		assert.Equal(t, TileStateNone, tile.State)
		assert.Nil(t, f.cache.Get(CacheKey(src.Key(), tile.Rect, tile.SampleSize)))
	}
}

func TestDecodeFailureIsNotRetriedUntilReentry(t *testing.T) {
	src := largeSource()
	src.fail = true
	f := newFixture(t, src)

	f.zoom.Scale(f.zoom.Snapshot().MaxScale, geom.Offset{X: 500, Y: 375}, false)
	f.drainUntil(t, func() bool {
		for _, tile := range f.engine.Snapshot().Tiles {
			if tile.State != TileStateError {
				return false
			}
		}
		return true
	})
	calls := src.Calls()
	assert.Equal(t, 4, calls)

	f.zoom.PanBy(geom.Offset{X: 1}, false)
	assert.Equal(t, calls, src.Calls())

	// Leave and come back: the center tiles are decoded again.
	f.zoom.Offset(geom.Offset{}, false)
	f.engine.manager.Wait()
	f.queue.Drain()
	assert.Equal(t, 8, src.Calls())

	f.zoom.Locate(geom.Offset{X: 500, Y: 375}, f.zoom.Snapshot().MaxScale, false)
	f.engine.manager.Wait()
	f.queue.Drain()
	assert.Equal(t, 12, src.Calls())
}

func TestPausedWhilePinching(t *testing.T) {
	f := newFixture(t, largeSource())
	center := geom.Offset{X: 500, Y: 375}

	f.zoom.Gesture(center, geom.Offset{}, 4, 2)
	assert.Equal(t, zoom.ContinuousPinch, f.zoom.Snapshot().Continuous)
	assert.Empty(t, f.engine.Snapshot().Tiles)

	f.zoom.EndGesture(center, geom.Offset{})
	assert.NotEmpty(t, f.engine.Snapshot().Tiles)
}

func TestUnsupportedImageIsNotReady(t *testing.T) {
	src := largeSource()
	src.info.MimeType = "image/gif"
	z := zoom.NewEngine(zoom.DefaultOptions(), nil)
	z.SetContainerSize(geom.IntSize{Width: 1000, Height: 750})
	z.SetContentSize(geom.IntSize{Width: 1000, Height: 750})
	queue := &MainQueue{}
	e := NewEngine(z, queue, nil, nil, DefaultOptions(), nil)
	defer e.Close()

	e.SetImageSource(src)
	require.Eventually(t, func() bool {
		queue.Drain()
		return e.Snapshot().ImageInfo.Width == 4000
	}, 2*time.Second, time.Millisecond)

	z.Scale(z.Snapshot().MaxScale, geom.Offset{}, false)
	s := e.Snapshot()
	assert.False(t, s.Ready)
	assert.Empty(t, s.Tiles)
}

func TestDisabledEngine(t *testing.T) {
	f := newFixture(t, largeSource())
	f.engine.SetDisabled(true)
	f.zoom.Scale(f.zoom.Snapshot().MaxScale, geom.Offset{}, false)
	assert.False(t, f.engine.Snapshot().Ready)

	f.engine.SetDisabled(false)
	assert.True(t, f.engine.Snapshot().Ready)
	assert.NotEmpty(t, f.engine.Snapshot().Tiles)
}

func TestMemoryCacheDisabledReturnsBitmapsToPool(t *testing.T) {
	f := newFixture(t, largeSource())
	f.engine.SetMemoryCacheDisabled(true)

	f.zoom.Scale(f.zoom.Snapshot().MaxScale, geom.Offset{X: 500, Y: 375}, false)
	f.drainUntil(t, allLoaded(f.engine))
	f.zoom.Scale(1, geom.Offset{}, false)

	assert.Equal(t, 0, f.cache.Stats().Idle)
	count, _ := f.pool.Size()
	assert.Equal(t, 4, count)
}

func TestLRUMemoryCacheRefCounting(t *testing.T) {
	pool := NewBitmapPool(DefaultPoolBytes)
	cache, err := NewLRUMemoryCache(2, 1<<20, pool, nil)
	require.NoError(t, err)

	a := cache.Put("a", pool.Get(10, 10), "src")
	again := cache.Get("a")
	assert.Same(t, a, again)
	assert.Equal(t, 2, a.Refs())

	a.Release()
	assert.Equal(t, CacheStats{Active: 1}, cache.Stats())
	a.Release()
	assert.Equal(t, 0, cache.Stats().Active)
	assert.Equal(t, 1, cache.Stats().Idle)

	revived := cache.Get("a")
	require.NotNil(t, revived)
	assert.NotNil(t, revived.Image)
	assert.Equal(t, 0, cache.Stats().Idle)
	revived.Release()

	cache.Put("b", pool.Get(10, 10), "src").Release()
	cache.Put("c", pool.Get(10, 10), "src").Release()
	assert.Equal(t, 2, cache.Stats().Idle)
	assert.Nil(t, cache.Get("a"))
	count, _ := pool.Size()
	assert.Equal(t, 1, count)
}

func TestLRUMemoryCacheNeverEvictsReferenced(t *testing.T) {
	pool := NewBitmapPool(DefaultPoolBytes)
	cache, err := NewLRUMemoryCache(1, 400, pool, nil)
	require.NoError(t, err)

	held := cache.Put("held", pool.Get(10, 10), "src")
	for _, key := range []string{"x", "y", "z"} {
		cache.Put(key, pool.Get(10, 10), "src").Release()
	}
	assert.NotNil(t, held.Image)
	assert.Same(t, held, cache.Get("held"))
	assert.LessOrEqual(t, cache.Stats().IdleBytes, int64(400))
}

func TestBitmapPool(t *testing.T) {
	pool := NewBitmapPool(DefaultPoolBytes)
	img := pool.Get(4, 4)
	img.Pix[0] = 255
	assert.True(t, pool.Put(img))
	reused := pool.Get(4, 4)
	assert.Same(t, img, reused)
	assert.Equal(t, uint8(0), reused.Pix[0])

	pool.SetDisallowReuse(true)
	assert.False(t, pool.Put(reused))
	count, bytes := pool.Size()
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), bytes)

	small := NewBitmapPool(10)
	assert.False(t, small.Put(image.NewRGBA(image.Rect(0, 0, 4, 4))))
}

func TestMainQueueOrder(t *testing.T) {
	var q MainQueue
	var got []int
	for i := 0; i < 3; i++ {
		q.Post(func() { got = append(got, i) })
	}
	q.Post(func() { q.Post(func() { got = append(got, 99) }) })
	assert.Equal(t, 4, q.Drain())
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 1, q.Len())
	q.Drain()
	assert.Equal(t, []int{0, 1, 2, 99}, got)
}
