package subsampling

import (
	"image"
	"sync"

	"zoomimage/geom"
)

// DefaultPoolBytes bounds the idle buffers kept by a default pool.
const DefaultPoolBytes = 64 << 20

// BitmapPool recycles tile buffers by size. It is safe for concurrent use.
type BitmapPool struct {
	mu            sync.Mutex
	free          map[geom.IntSize][]*image.RGBA
	bytes         int64
	maxBytes      int64
	disallowReuse bool
}

// NewBitmapPool returns a pool holding at most maxBytes of idle buffers.
func NewBitmapPool(maxBytes int64) *BitmapPool {
	return &BitmapPool{
		free:     make(map[geom.IntSize][]*image.RGBA),
		maxBytes: maxBytes,
	}
}

// Get returns a cleared buffer of the given size.
func (p *BitmapPool) Get(width, height int) *image.RGBA {
	if p == nil {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}
	size := geom.IntSize{Width: width, Height: height}
	p.mu.Lock()
	list := p.free[size]
	if n := len(list); n > 0 {
		img := list[n-1]
		p.free[size] = list[:n-1]
		p.bytes -= int64(len(img.Pix))
		p.mu.Unlock()
		clear(img.Pix)
		return img
	}
	p.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Put offers img for reuse and reports whether the pool kept it.
func (p *BitmapPool) Put(img *image.RGBA) bool {
	if p == nil || img == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := int64(len(img.Pix))
	if p.disallowReuse || p.bytes+n > p.maxBytes {
		return false
	}
	size := geom.SizeOf(img.Bounds())
	p.free[size] = append(p.free[size], img)
	p.bytes += n
	return true
}

// SetDisallowReuse turns pooling off and drops idle buffers.
func (p *BitmapPool) SetDisallowReuse(disallow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disallowReuse = disallow
	if disallow {
		p.free = make(map[geom.IntSize][]*image.RGBA)
		p.bytes = 0
	}
}

// Clear drops all idle buffers.
func (p *BitmapPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = make(map[geom.IntSize][]*image.RGBA)
	p.bytes = 0
}

// Size returns the idle buffer count and bytes.
func (p *BitmapPool) Size() (count int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, list := range p.free {
		count += len(list)
	}
	return count, p.bytes
}
