package imagesource

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"zoomimage/geom"
)

// Preview returns the image scaled down to fit inside maxSize, and the
// original size. Images already inside maxSize are returned as is.
func Preview(ctx context.Context, src *Source, maxSize geom.IntSize) (image.Image, geom.IntSize, error) {
	full, err := src.Image(ctx)
	if err != nil {
		return nil, geom.IntSize{}, err
	}
	origin := geom.SizeOf(full.Bounds())
	if maxSize.IsEmpty() || (origin.Width <= maxSize.Width && origin.Height <= maxSize.Height) {
		return full, origin, nil
	}
	f := geom.ContentScaleInside.Scale(origin.ToSize(), maxSize.ToSize())
	w := max(1, int(float64(origin.Width)*f.X))
	h := max(1, int(float64(origin.Height)*f.Y))
	if err := ctx.Err(); err != nil {
		return nil, geom.IntSize{}, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), full, full.Bounds(), draw.Src, nil)
	return dst, origin, nil
}
