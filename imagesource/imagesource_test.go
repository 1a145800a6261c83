package imagesource

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomimage/geom"
	"zoomimage/subsampling"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsSupportedExt("a/b.JPG"))
	assert.True(t, IsSupportedExt("x.webp"))
	assert.False(t, IsSupportedExt("x.txt"))
	assert.False(t, IsSupportedExt(""))

	assert.True(t, IsArchiveExt("book.zip"))
	assert.True(t, IsArchiveExt("book.RAR"))
	assert.True(t, IsArchiveExt("book.7z"))
	assert.False(t, IsArchiveExt("book.tar"))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 200, 100), 0o644))

	src := File(path)
	assert.True(t, strings.HasPrefix(src.Key(), "file://"))
	assert.Equal(t, "image.png", src.Name())

	info, err := src.ReadImageInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 100, info.Height)
	assert.Equal(t, "image/png", info.MimeType)
}

func TestDecodeRegion(t *testing.T) {
	src := Bytes(encodePNG(t, 200, 100), "")
	pool := subsampling.NewBitmapPool(subsampling.DefaultPoolBytes)
	ctx := context.Background()

	tile, err := src.DecodeRegion(ctx, image.Rect(100, 0, 200, 50), 1, pool)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), tile.Bounds())
	assert.Equal(t, color.RGBA{R: 100, G: 0, B: 0x80, A: 0xff}, tile.RGBAAt(0, 0))

	tile, err = src.DecodeRegion(ctx, image.Rect(0, 0, 101, 51), 2, pool)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 51, 26), tile.Bounds())

	_, err = src.DecodeRegion(ctx, image.Rect(300, 300, 400, 400), 1, pool)
	assert.Error(t, err)
}

func TestDecodeRegionCanceled(t *testing.T) {
	src := Bytes(encodePNG(t, 10, 10), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.DecodeRegion(ctx, image.Rect(0, 0, 10, 10), 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBytesKeys(t *testing.T) {
	data := encodePNG(t, 4, 4)
	a := Bytes(data, "")
	b := Bytes(data, "")
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, strings.HasPrefix(a.Key(), "bytes://"))
	assert.Equal(t, "mine", Bytes(data, "mine").Key())
}

func TestUnsupportedData(t *testing.T) {
	src := Bytes([]byte("not an image"), "")
	_, err := src.ReadImageInfo(context.Background())
	assert.Error(t, err)
}

func TestDecodeFailureIsRemembered(t *testing.T) {
	src := Bytes([]byte("not an image"), "")
	ctx := context.Background()

	_, err := src.Image(ctx)
	require.Error(t, err)

	// Valid bytes behind the source are not decoded again until Release.
	src.data = encodePNG(t, 4, 4)
	_, again := src.Image(ctx)
	assert.Same(t, err, again)
	_, err = src.DecodeRegion(ctx, image.Rect(0, 0, 4, 4), 1, nil)
	assert.Error(t, err)

	src.Release()
	src.load = func() ([]byte, error) { return encodePNG(t, 4, 4), nil }
	img, err := src.Image(ctx)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}

func TestZipArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "book.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"p1.png", "notes.txt", "sub/p2.png"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if strings.HasSuffix(name, ".png") {
			_, err = w.Write(encodePNG(t, 30, 20))
		} else {
			_, err = w.Write([]byte("hello"))
		}
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	entries, err := ListArchive(archive)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1.png", entries[0].EntryPath)
	assert.Equal(t, "p2.png", entries[1].Name())
	assert.True(t, entries[1].IsArchiveEntry())

	src := Open(entries[1])
	assert.Equal(t, "archive://"+archive+":sub/p2.png", src.Key())
	info, err := src.ReadImageInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, geom.IntSize{Width: 30, Height: 20}, info.Size())

	_, err = ReadBytes(EntryOf(archive, "missing.png"))
	assert.Error(t, err)

	_, err = ListArchive(filepath.Join(dir, "book.tar"))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	src := Bytes(encodePNG(t, 400, 200), "")
	ctx := context.Background()

	img, origin, err := Preview(ctx, src, geom.IntSize{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, geom.IntSize{Width: 400, Height: 200}, origin)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())

	img, _, err = Preview(ctx, src, geom.IntSize{Width: 1000, Height: 1000})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 200), img.Bounds())
}

func TestRelease(t *testing.T) {
	src := Bytes(encodePNG(t, 8, 8), "")
	_, err := src.Image(context.Background())
	require.NoError(t, err)
	src.Release()
	img, err := src.Image(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}
