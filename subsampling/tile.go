package subsampling

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"zoomimage/geom"
)

// TileState is the decode state of a tile.
type TileState int

const (
	TileStateNone TileState = iota
	TileStateLoading
	TileStateLoaded
	TileStateError
)

func (s TileState) String() string {
	switch s {
	case TileStateNone:
		return "None"
	case TileStateLoading:
		return "Loading"
	case TileStateLoaded:
		return "Loaded"
	case TileStateError:
		return "Error"
	default:
		return fmt.Sprintf("TileState(%d)", int(s))
	}
}

// Tile is one cell of the grid at one sample size. Only the UI thread
// touches it.
type Tile struct {
	// Rect is in full-resolution image coordinates.
	Rect       image.Rectangle
	SampleSize int
	Coord      image.Point
	State      TileState

	entry  *CacheEntry
	cancel context.CancelFunc
	jobID  uint64
}

// Image returns the decoded bitmap, or nil.
func (t *Tile) Image() *image.RGBA {
	if t.entry == nil {
		return nil
	}
	return t.entry.Image
}

func (t *Tile) String() string {
	return fmt.Sprintf("Tile(%v, sample=%d, %s)", t.Rect, t.SampleSize, t.State)
}

// TileGrid holds the tiles of every sample size level.
type TileGrid struct {
	ImageSize geom.IntSize
	TileSize  geom.IntSize
	levels    map[int][]*Tile
	sizes     []int
}

// PreferredTileSize is half the container on each axis.
func PreferredTileSize(container geom.IntSize) geom.IntSize {
	return geom.IntSize{
		Width:  max(1, int(math.Round(float64(container.Width)/2))),
		Height: max(1, int(math.Round(float64(container.Height)/2))),
	}
}

// NewTileGrid partitions an image into tiles for sample sizes 1, 2, 4, ...
// up to the first level whose grid is a single tile. At sample size s a
// tile covers about tileSize*s image pixels per axis.
func NewTileGrid(imageSize, tileSize geom.IntSize) *TileGrid {
	g := &TileGrid{ImageSize: imageSize, TileSize: tileSize, levels: make(map[int][]*Tile)}
	if imageSize.IsEmpty() || tileSize.IsEmpty() {
		return g
	}
	for sample := 1; ; sample *= 2 {
		cols := ceilDiv(imageSize.Width, tileSize.Width*sample)
		rows := ceilDiv(imageSize.Height, tileSize.Height*sample)
		tileW := ceilDiv(imageSize.Width, cols)
		tileH := ceilDiv(imageSize.Height, rows)
		tiles := make([]*Tile, 0, cols*rows)
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				r := image.Rect(
					col*tileW, row*tileH,
					min((col+1)*tileW, imageSize.Width), min((row+1)*tileH, imageSize.Height),
				)
				if r.Empty() {
					continue
				}
				tiles = append(tiles, &Tile{Rect: r, SampleSize: sample, Coord: image.Pt(col, row)})
			}
		}
		g.levels[sample] = tiles
		g.sizes = append(g.sizes, sample)
		if cols == 1 && rows == 1 {
			break
		}
	}
	sort.Ints(g.sizes)
	return g
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// SampleSizes returns the levels, finest first.
func (g *TileGrid) SampleSizes() []int {
	return g.sizes
}

// Tiles returns the tiles of one level.
func (g *TileGrid) Tiles(sampleSize int) []*Tile {
	return g.levels[sampleSize]
}

// MaxSampleSize returns the coarsest level.
func (g *TileGrid) MaxSampleSize() int {
	if len(g.sizes) == 0 {
		return 1
	}
	return g.sizes[len(g.sizes)-1]
}

// LevelTileSize returns the size of the first tile of a level.
func (g *TileGrid) LevelTileSize(sampleSize int) geom.IntSize {
	tiles := g.levels[sampleSize]
	if len(tiles) == 0 {
		return geom.IntSize{}
	}
	return geom.SizeOf(tiles[0].Rect)
}

// SampleSizeForScale returns the largest power of two not above 1/ratio,
// where ratio is screen pixels per image pixel, compared at precision.
func SampleSizeForScale(ratio float64, precision int) int {
	r := geom.Format(ratio, precision)
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	if r >= 1 {
		return 1
	}
	inv := 1 / r
	sample := 1
	for float64(sample*2) <= inv {
		sample *= 2
	}
	return sample
}
