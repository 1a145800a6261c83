package subsampling

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache stores decoded tiles by key. Returned entries hold a
// reference that the caller must Release.
type MemoryCache interface {
	Get(key string) *CacheEntry
	Put(key string, img *image.RGBA, sourceKey string) *CacheEntry
}

// CacheEntry is a reference-counted decoded tile.
type CacheEntry struct {
	Key       string
	Image     *image.RGBA
	SourceKey string

	refs      int
	onRelease func(*CacheEntry)
}

// NewCacheEntry returns an entry with one reference. Release hands the
// entry to onRelease, which owns the reference count from then on.
func NewCacheEntry(key string, img *image.RGBA, sourceKey string, onRelease func(*CacheEntry)) *CacheEntry {
	return &CacheEntry{Key: key, Image: img, SourceKey: sourceKey, refs: 1, onRelease: onRelease}
}

// newUncachedEntry is used when the memory cache is disabled: the bitmap
// goes back to the pool with the last reference.
func newUncachedEntry(key string, img *image.RGBA, sourceKey string, pool *BitmapPool) *CacheEntry {
	return NewCacheEntry(key, img, sourceKey, func(e *CacheEntry) {
		if e.refs <= 0 {
			return
		}
		e.refs--
		if e.refs == 0 {
			pool.Put(e.Image)
			e.Image = nil
		}
	})
}

// Bytes returns the pixel buffer size.
func (e *CacheEntry) Bytes() int64 {
	if e.Image == nil {
		return 0
	}
	return int64(len(e.Image.Pix))
}

// Release drops one reference.
func (e *CacheEntry) Release() {
	if e.onRelease == nil {
		if e.refs > 0 {
			e.refs--
		}
		return
	}
	e.onRelease(e)
}

// Refs returns the current reference count.
func (e *CacheEntry) Refs() int {
	return e.refs
}

// LRUMemoryCache keeps referenced entries in an active set that is never
// evicted. Entries whose count drops to zero move into an LRU bounded by
// count and bytes; evicted buffers go back to the pool.
type LRUMemoryCache struct {
	mu        sync.Mutex
	logger    *slog.Logger
	active    map[string]*CacheEntry
	idle      *lru.Cache[string, *CacheEntry]
	idleBytes int64
	maxBytes  int64
	pool      *BitmapPool
}

// NewLRUMemoryCache creates a cache holding at most maxEntries idle entries
// and maxBytes of idle pixels.
func NewLRUMemoryCache(maxEntries int, maxBytes int64, pool *BitmapPool, logger *slog.Logger) (*LRUMemoryCache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &LRUMemoryCache{
		logger:   logger,
		active:   make(map[string]*CacheEntry),
		maxBytes: maxBytes,
		pool:     pool,
	}
	idle, err := lru.NewWithEvict[string, *CacheEntry](maxEntries, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create tile lru: %w", err)
	}
	c.idle = idle
	return c, nil
}

// onEvict runs whenever an entry leaves the idle LRU, including when a Get
// revives it. Only unreferenced entries are recycled.
func (c *LRUMemoryCache) onEvict(key string, e *CacheEntry) {
	c.idleBytes -= e.Bytes()
	if e.refs > 0 {
		return
	}
	c.logger.Debug("tile evicted", "key", key)
	c.pool.Put(e.Image)
	e.Image = nil
}

func (c *LRUMemoryCache) Get(key string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.active[key]; ok {
		e.refs++
		return e
	}
	if e, ok := c.idle.Peek(key); ok {
		e.refs++
		c.idle.Remove(key)
		c.active[key] = e
		return e
	}
	return nil
}

// Put stores img under key. If key is already present the stored entry is
// returned and img goes back to the pool.
func (c *LRUMemoryCache) Put(key string, img *image.RGBA, sourceKey string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.active[key]; ok {
		e.refs++
		c.pool.Put(img)
		return e
	}
	if e, ok := c.idle.Peek(key); ok {
		e.refs++
		c.idle.Remove(key)
		c.active[key] = e
		c.pool.Put(img)
		return e
	}
	e := NewCacheEntry(key, img, sourceKey, c.release)
	c.active[key] = e
	return e
}

func (c *LRUMemoryCache) release(e *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.refs <= 0 {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(c.active, e.Key)
	c.idle.Add(e.Key, e)
	c.idleBytes += e.Bytes()
	for c.idleBytes > c.maxBytes && c.idle.Len() > 0 {
		c.idle.RemoveOldest()
	}
}

// Clear evicts every idle entry.
func (c *LRUMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle.Purge()
}

// CacheStats is a point-in-time view of the cache.
type CacheStats struct {
	Active    int
	Idle      int
	IdleBytes int64
}

func (c *LRUMemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Active: len(c.active), Idle: c.idle.Len(), IdleBytes: c.idleBytes}
}

var _ MemoryCache = (*LRUMemoryCache)(nil)
