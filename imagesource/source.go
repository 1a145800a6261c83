package imagesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"zoomimage/subsampling"
)

// Source is an ImageSource backed by encoded bytes. The full image is
// decoded once, on first region request, and regions are cropped and
// scaled from it.
type Source struct {
	key  string
	name string
	load func() ([]byte, error)

	mu        sync.Mutex
	data      []byte
	decoded   image.Image
	decodeErr error
	err       error
}

var _ subsampling.ImageSource = (*Source)(nil)

// Open returns the Source for p.
func Open(p Path) *Source {
	if p.IsArchiveEntry() {
		return ArchiveEntry(p.ArchivePath, p.EntryPath)
	}
	return File(p.Path)
}

// File returns a Source reading a local file.
func File(path string) *Source {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p := FilePath(path)
	return &Source{
		key:  "file://" + abs,
		name: p.Name(),
		load: func() ([]byte, error) { return ReadBytes(p) },
	}
}

// ArchiveEntry returns a Source reading one entry of a zip, rar or 7z
// archive.
func ArchiveEntry(archivePath, entryPath string) *Source {
	p := EntryOf(archivePath, entryPath)
	return &Source{
		key:  "archive://" + p.Path,
		name: p.Name(),
		load: func() ([]byte, error) { return ReadBytes(p) },
	}
}

// Bytes returns a Source over data. An empty key is replaced by a random
// one.
func Bytes(data []byte, key string) *Source {
	if key == "" {
		key = "bytes://" + uuid.NewString()
	}
	return &Source{
		key:  key,
		name: key,
		load: func() ([]byte, error) { return data, nil },
	}
}

func (s *Source) Key() string { return s.key }

// Name returns a display name.
func (s *Source) Name() string { return s.name }

func (s *Source) String() string { return s.key }

func (s *Source) bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil && s.err == nil {
		s.data, s.err = s.load()
		if s.err != nil {
			s.err = fmt.Errorf("read %s: %w", s.key, s.err)
		}
	}
	return s.data, s.err
}

// ReadImageInfo reads dimensions and format without decoding pixels.
func (s *Source) ReadImageInfo(ctx context.Context) (subsampling.ImageInfo, error) {
	data, err := s.bytes()
	if err != nil {
		return subsampling.ImageInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return subsampling.ImageInfo{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return subsampling.ImageInfo{}, fmt.Errorf("decode config %s: %w", s.key, err)
	}
	return subsampling.ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		MimeType: "image/" + format,
	}, nil
}

// Image returns the full decoded image.
func (s *Source) Image(ctx context.Context) (image.Image, error) {
	data, err := s.bytes()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decoded == nil && s.decodeErr == nil {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			s.decodeErr = fmt.Errorf("decoding %s: %w", s.key, err)
		}
		s.decoded = img
	}
	return s.decoded, s.decodeErr
}

// DecodeRegion crops rect out of the full image and reduces it by
// sampleSize into a buffer from pool.
func (s *Source) DecodeRegion(ctx context.Context, rect image.Rectangle, sampleSize int, pool *subsampling.BitmapPool) (*image.RGBA, error) {
	full, err := s.Image(ctx)
	if err != nil {
		return nil, err
	}
	rect = rect.Intersect(full.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region %v outside %s", rect, s.key)
	}
	if sampleSize < 1 {
		sampleSize = 1
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := (rect.Dx() + sampleSize - 1) / sampleSize
	h := (rect.Dy() + sampleSize - 1) / sampleSize
	var dst *image.RGBA
	if pool != nil {
		dst = pool.Get(w, h)
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if sampleSize == 1 {
		draw.Draw(dst, dst.Bounds(), full, rect.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), full, rect, draw.Src, nil)
	}
	return dst, nil
}

// Release drops the cached bytes and decoded image.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.decoded = nil
	s.decodeErr = nil
	s.err = nil
}
