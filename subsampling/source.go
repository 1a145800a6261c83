// Package subsampling decodes only the visible part of a large image, at
// the resolution the current zoom needs, as a grid of tiles.
package subsampling

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"zoomimage/geom"
)

var (
	// ErrUnsupportedMimeType means the format cannot be region decoded.
	ErrUnsupportedMimeType = errors.New("mime type does not support region decoding")
	// ErrImageTooSmall means the content is already as large as the image.
	ErrImageTooSmall = errors.New("content is not smaller than the image")
	// ErrAspectRatio means content and image aspect ratios differ.
	ErrAspectRatio = errors.New("content and image aspect ratios differ")
	// ErrCanceled is returned by decode jobs that were cancelled.
	ErrCanceled = errors.New("decode canceled")
)

// ImageInfo describes the full-resolution image.
type ImageInfo struct {
	Width           int
	Height          int
	MimeType        string
	ExifOrientation int
}

// Size returns the image dimensions.
func (i ImageInfo) Size() geom.IntSize {
	return geom.IntSize{Width: i.Width, Height: i.Height}
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("ImageInfo(%dx%d, %s, exif=%d)", i.Width, i.Height, i.MimeType, i.ExifOrientation)
}

// ImageSource supplies pixel data. Implementations must be safe to call
// from decode goroutines.
type ImageSource interface {
	// Key identifies the image in caches and logs.
	Key() string
	ReadImageInfo(ctx context.Context) (ImageInfo, error)
	// DecodeRegion decodes rect, in full-resolution coordinates, reduced
	// by sampleSize. The returned image should come from pool.
	DecodeRegion(ctx context.Context, rect image.Rectangle, sampleSize int, pool *BitmapPool) (*image.RGBA, error)
}

var regionDecodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// SupportsRegionDecode reports whether images of mimeType can be tiled.
func SupportsRegionDecode(mimeType string) bool {
	return regionDecodable[strings.ToLower(mimeType)]
}

// aspectTolerance is how many image pixels the scaled content may be off.
const aspectTolerance = 1.0

// CanUseSubsampling returns nil when tiling content that displays info is
// worthwhile.
func CanUseSubsampling(info ImageInfo, content geom.IntSize) error {
	if !SupportsRegionDecode(info.MimeType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMimeType, info.MimeType)
	}
	if content.IsEmpty() || info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("%w: image %dx%d, content %s", ErrImageTooSmall, info.Width, info.Height, content)
	}
	if content.Width >= info.Width && content.Height >= info.Height {
		return fmt.Errorf("%w: image %dx%d, content %s", ErrImageTooSmall, info.Width, info.Height, content)
	}
	scale := math.Max(float64(info.Width)/float64(content.Width), float64(info.Height)/float64(content.Height))
	w := math.Round(float64(content.Width) * scale)
	h := math.Round(float64(content.Height) * scale)
	if math.Abs(w-float64(info.Width)) > aspectTolerance || math.Abs(h-float64(info.Height)) > aspectTolerance {
		return fmt.Errorf("%w: image %dx%d, content %s", ErrAspectRatio, info.Width, info.Height, content)
	}
	return nil
}

// CacheKey identifies one decoded tile.
func CacheKey(imageKey string, rect image.Rectangle, sampleSize int) string {
	return fmt.Sprintf("%s_tile_[%d,%d,%d,%d]_%d", imageKey, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, sampleSize)
}
