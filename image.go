package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"zoomimage/geom"
	"zoomimage/imagesource"
)

// ImagePath locates an image on disk or inside an archive
type ImagePath = imagesource.Path

// NavigationDirection represents the direction of navigation
type NavigationDirection int

const (
	NavigationForward NavigationDirection = iota
	NavigationBackward
	NavigationJump
)

// preloadParallelism caps concurrent preview decodes during preloading
const preloadParallelism = 2

// Preview is the display-sized image shown while tiles load
type Preview struct {
	Image  *ebiten.Image
	Origin geom.IntSize // full resolution size; empty when loading failed
	Err    error
}

// PreloadRequest represents a request to preload previews
type PreloadRequest struct {
	Index     int
	Direction NavigationDirection
}

// PreloadStats provides statistics about preloading
type PreloadStats struct {
	LoadedCount   int
	FailedCount   int
	LastDirection NavigationDirection
}

// PreloadManager decodes previews of neighbouring images in the background
type PreloadManager struct {
	requestChan  chan PreloadRequest
	ctx          context.Context
	cancel       context.CancelFunc
	imageManager *DefaultImageManager
	mu           sync.RWMutex
	stats        PreloadStats
	maxPreload   int
	enabled      bool
}

// NewPreloadManager creates a PreloadManager and starts its worker
func NewPreloadManager(imageManager *DefaultImageManager, maxPreload int) *PreloadManager {
	ctx, cancel := context.WithCancel(context.Background())
	pm := &PreloadManager{
		requestChan:  make(chan PreloadRequest, 1),
		ctx:          ctx,
		cancel:       cancel,
		imageManager: imageManager,
		maxPreload:   maxPreload,
		enabled:      true,
	}
	go pm.worker()
	return pm
}

// SetEnabled enables or disables preloading
func (pm *PreloadManager) SetEnabled(enabled bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = enabled
}

// IsEnabled returns whether preloading is enabled
func (pm *PreloadManager) IsEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// GetStats returns current preload statistics
func (pm *PreloadManager) GetStats() PreloadStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.stats
}

// Stop stops the preload worker
func (pm *PreloadManager) Stop() {
	pm.cancel()
}

// StartPreload replaces any pending request with one around currentIdx
func (pm *PreloadManager) StartPreload(currentIdx int, direction NavigationDirection) {
	if !pm.IsEnabled() {
		return
	}
	select {
	case <-pm.requestChan:
	default:
	}
	select {
	case pm.requestChan <- PreloadRequest{Index: currentIdx, Direction: direction}:
	default:
		debugLog("preload request dropped", "index", currentIdx)
	}
}

func (pm *PreloadManager) worker() {
	for {
		select {
		case <-pm.ctx.Done():
			return
		case req := <-pm.requestChan:
			if pm.IsEnabled() {
				pm.processPreloadRequest(req)
			}
		}
	}
}

// processPreloadRequest decodes the previews for req with bounded parallelism
func (pm *PreloadManager) processPreloadRequest(req PreloadRequest) {
	pm.mu.Lock()
	pm.stats.LastDirection = req.Direction
	pm.mu.Unlock()

	indices := calculatePreloadIndices(req.Index, req.Direction, pm.maxPreload, pm.imageManager.GetPathsCount())
	if len(indices) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(pm.ctx)
	g.SetLimit(preloadParallelism)
	for _, idx := range indices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pm.preloadImage(ctx, idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		debugLog("preload interrupted", "err", err)
	}
}

// calculatePreloadIndices returns the image indices to preload
func calculatePreloadIndices(currentIdx int, direction NavigationDirection, maxPreload, pathsCount int) []int {
	var indices []int
	add := func(idx int) {
		if idx >= 0 && idx < pathsCount {
			indices = append(indices, idx)
		}
	}

	switch direction {
	case NavigationForward:
		for i := 1; i <= maxPreload; i++ {
			add(currentIdx + i)
		}
	case NavigationBackward:
		for i := 1; i <= maxPreload; i++ {
			add(currentIdx - i)
		}
	case NavigationJump:
		// Both directions from the jump point, nearest first
		for i := 1; i <= max(1, maxPreload/2); i++ {
			add(currentIdx + i)
			add(currentIdx - i)
		}
	}
	return indices
}

// preloadImage decodes one preview into the cache if not already cached
func (pm *PreloadManager) preloadImage(ctx context.Context, idx int) {
	path, ok := pm.imageManager.GetPath(idx)
	if !ok {
		return
	}
	if pm.imageManager.cache.Contains(path.Path) {
		return
	}

	preview := pm.imageManager.loadPreview(ctx, path)
	if ctx.Err() != nil {
		preview.Image.Deallocate()
		return
	}
	pm.imageManager.cache.Add(path.Path, preview)

	pm.mu.Lock()
	if preview.Err != nil {
		pm.stats.FailedCount++
	} else {
		pm.stats.LoadedCount++
	}
	pm.mu.Unlock()

	debugLog("preloaded preview", "index", idx+1, "path", path.Path, "cache", pm.imageManager.cache.Len())
}

// ImageManager loads and caches previews for the image list
type ImageManager interface {
	GetPreview(idx int) *Preview
	GetPath(idx int) (ImagePath, bool)
	SetPaths(paths []ImagePath)
	GetPathsCount() int
	StartPreload(currentIdx int, direction NavigationDirection)
	StopPreload()
	GetPreloadStats() PreloadStats
}

// DefaultImageManager implements ImageManager
type DefaultImageManager struct {
	paths          []ImagePath
	cache          *lru.Cache[string, *Preview]
	maxSize        geom.IntSize
	mu             sync.RWMutex
	preloadManager *PreloadManager
}

// NewImageManager creates a manager keeping cacheSize previews no larger
// than maxSize. With preloadEnabled neighbours are decoded in the background.
func NewImageManager(cacheSize int, maxSize geom.IntSize, preloadCount int, preloadEnabled bool) (*DefaultImageManager, error) {
	cache, err := lru.NewWithEvict[string, *Preview](cacheSize, func(_ string, p *Preview) {
		if p != nil && p.Image != nil {
			p.Image.Deallocate()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create preview cache: %w", err)
	}

	manager := &DefaultImageManager{
		cache:   cache,
		maxSize: maxSize,
	}
	manager.preloadManager = NewPreloadManager(manager, preloadCount)
	manager.preloadManager.SetEnabled(preloadEnabled)
	return manager, nil
}

func (m *DefaultImageManager) SetPaths(paths []ImagePath) {
	m.mu.Lock()
	m.paths = paths
	m.mu.Unlock()
	// Keys are paths, so cached previews stay valid across re-sorts
	debugLog("paths replaced", "count", len(paths), "cached", m.cache.Len())
}

func (m *DefaultImageManager) GetPathsCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.paths)
}

// GetPath safely returns the ImagePath at index if available
func (m *DefaultImageManager) GetPath(idx int) (ImagePath, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx < 0 || idx >= len(m.paths) {
		return ImagePath{}, false
	}
	return m.paths[idx], true
}

func (m *DefaultImageManager) StartPreload(currentIdx int, direction NavigationDirection) {
	m.preloadManager.StartPreload(currentIdx, direction)
}

func (m *DefaultImageManager) StopPreload() {
	m.preloadManager.Stop()
}

func (m *DefaultImageManager) GetPreloadStats() PreloadStats {
	return m.preloadManager.GetStats()
}

// GetPreview returns the cached preview for idx, decoding it on a miss
func (m *DefaultImageManager) GetPreview(idx int) *Preview {
	path, ok := m.GetPath(idx)
	if !ok {
		return nil
	}

	if preview, ok := m.cache.Get(path.Path); ok {
		debugLog("preview cache hit", "path", path.Path, "cache", m.cache.Len())
		return preview
	}

	preview := m.loadPreview(context.Background(), path)
	if preview.Err != nil {
		slog.Error("failed to load image", "index", idx+1, "total", m.GetPathsCount(), "path", path.Path, "err", preview.Err)
	}
	m.cache.Add(path.Path, preview)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	debugLog("preview cache miss", "path", path.Path, "cache", m.cache.Len(), "memoryMB", mem.Alloc/1024/1024)
	return preview
}

// loadPreview decodes a display-sized preview. Failures produce an error
// placeholder so the viewer always has something to show.
func (m *DefaultImageManager) loadPreview(ctx context.Context, path ImagePath) *Preview {
	src := imagesource.Open(path)
	defer src.Release()

	img, origin, err := imagesource.Preview(ctx, src, m.maxSize)
	if err != nil {
		return &Preview{
			Image: CreateErrorImage(400, 300, path.Name(), err.Error()),
			Err:   err,
		}
	}
	return &Preview{Image: ebiten.NewImageFromImage(img), Origin: origin}
}

// File collection functions

// sortImagePaths sorts the given image paths using the specified sort strategy.
// Returns a new sorted slice without modifying the original.
func sortImagePaths(images []ImagePath, sortMethod int) []ImagePath {
	return GetSortStrategy(sortMethod).Sort(images)
}

// processArchive lists the images of an archive, sorted
func processArchive(archivePath string, sortMethod int) ([]ImagePath, error) {
	images, err := imagesource.ListArchive(archivePath)
	if err != nil {
		return nil, err
	}
	return sortImagePaths(images, sortMethod), nil
}

// collectImagesFromSameDirectory collects image files next to filePath.
// Archives and subdirectories are not included.
func collectImagesFromSameDirectory(filePath string, sortMethod int) ([]ImagePath, error) {
	dir := filepath.Dir(filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var images []ImagePath
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if imagesource.IsSupportedExt(fullPath) {
			images = append(images, imagesource.FilePath(fullPath))
		}
	}
	return sortImagePaths(images, sortMethod), nil
}

// collectImages expands the command line arguments into an image list.
// Directories are walked recursively; archives contribute their entries.
func collectImages(args []string, sortMethod int) ([]ImagePath, error) {
	var list []ImagePath
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			list = append(list, collectFile(p, sortMethod)...)
			continue
		}

		var dirImages []ImagePath
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			dirImages = append(dirImages, collectFile(path, sortMethod)...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		list = append(list, sortImagePaths(dirImages, sortMethod)...)
	}
	return list, nil
}

// collectFile returns the images contributed by one file
func collectFile(path string, sortMethod int) []ImagePath {
	switch {
	case imagesource.IsSupportedExt(path):
		return []ImagePath{imagesource.FilePath(path)}
	case imagesource.IsArchiveExt(path):
		images, err := processArchive(path, sortMethod)
		if err != nil {
			slog.Warn("skipping problematic archive", "path", path, "err", err)
			return nil
		}
		return images
	default:
		return nil
	}
}

// indexOfPath returns the index of path in images, or 0
func indexOfPath(images []ImagePath, path string) int {
	abs, _ := filepath.Abs(path)
	for i, img := range images {
		if p, _ := filepath.Abs(img.Path); p == abs {
			return i
		}
	}
	return 0
}
