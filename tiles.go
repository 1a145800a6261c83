package main

import (
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"zoomimage/geom"
	"zoomimage/subsampling"
)

// tileTextureKey identifies an uploaded tile. Pooled bitmaps are reused
// across tiles, so the bitmap alone is not enough.
type tileTextureKey struct {
	key string
	img *image.RGBA
}

// TileTextures keeps GPU copies of decoded tiles
type TileTextures struct {
	cache *lru.Cache[tileTextureKey, *ebiten.Image]
}

// NewTileTextures creates a texture cache holding at most size tiles
func NewTileTextures(size int) (*TileTextures, error) {
	cache, err := lru.NewWithEvict[tileTextureKey, *ebiten.Image](size, func(_ tileTextureKey, img *ebiten.Image) {
		img.Deallocate()
	})
	if err != nil {
		return nil, fmt.Errorf("create tile texture cache: %w", err)
	}
	return &TileTextures{cache: cache}, nil
}

// Texture returns the texture of a loaded tile, uploading it on first use
func (t *TileTextures) Texture(tile subsampling.TileSnapshot) *ebiten.Image {
	if tile.Image == nil {
		return nil
	}
	key := tileTextureKey{key: tile.Key, img: tile.Image}
	if tex, ok := t.cache.Get(key); ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(tile.Image)
	t.cache.Add(key, tex)
	return tex
}

// Len returns the number of uploaded tiles
func (t *TileTextures) Len() int {
	return t.cache.Len()
}

// Purge drops every texture
func (t *TileTextures) Purge() {
	t.cache.Purge()
}

// contentGeoM maps unrotated content pixels to the screen: the rotation
// into rotated content space followed by the display transform.
func contentGeoM(layout geom.Layout, display geom.Transform) ebiten.GeoM {
	var m ebiten.GeoM
	w, h := float64(layout.Content.Width), float64(layout.Content.Height)
	switch geom.NormalizeRotation(layout.Rotation) {
	case 90:
		m.Rotate(math.Pi / 2)
		m.Translate(h, 0)
	case 180:
		m.Rotate(math.Pi)
		m.Translate(w, h)
	case 270:
		m.Rotate(3 * math.Pi / 2)
		m.Translate(0, w)
	}
	m.Scale(display.Scale.X, display.Scale.Y)
	m.Translate(display.Offset.X, display.Offset.Y)
	return m
}

// tileGeoM maps the pixels of a tile bitmap to the screen. Tile rects are
// in full resolution coordinates while the content is the preview.
func tileGeoM(tile subsampling.TileSnapshot, bitmap image.Point, snap geomSnapshot) ebiten.GeoM {
	var m ebiten.GeoM
	if bitmap.X > 0 && bitmap.Y > 0 {
		m.Scale(float64(tile.Rect.Dx())/float64(bitmap.X), float64(tile.Rect.Dy())/float64(bitmap.Y))
	}
	m.Translate(float64(tile.Rect.Min.X), float64(tile.Rect.Min.Y))
	m.Scale(snap.originScale())
	m.Concat(contentGeoM(snap.layout, snap.display))
	return m
}

// geomSnapshot is the part of the zoom state the renderer maps through
type geomSnapshot struct {
	layout  geom.Layout
	display geom.Transform
	origin  geom.IntSize
}

// originScale returns the factors from full resolution to content pixels
func (s geomSnapshot) originScale() (float64, float64) {
	if s.origin.IsEmpty() {
		return 1, 1
	}
	return float64(s.layout.Content.Width) / float64(s.origin.Width),
		float64(s.layout.Content.Height) / float64(s.origin.Height)
}

// tileScreenRect returns the screen rectangle covered by a tile
func tileScreenRect(tile subsampling.TileSnapshot, snap geomSnapshot) geom.Rect {
	sx, sy := snap.originScale()
	r := geom.RectOf(tile.Rect).Scale(geom.ScaleFactor{X: sx, Y: sy})
	r = geom.RotateRect(r, snap.layout.Content.ToSize(), snap.layout.Rotation)
	return snap.display.ApplyRect(r).Normalize()
}
