// Package thumbs produces downscaled copies of gallery images and keeps them
// in a local store.
package thumbs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"time"

	"galleryserver/internal/api"

	"github.com/nfnt/resize"
	"golang.org/x/sync/singleflight"
)

// Size is a named thumbnail width.
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Sizes lists every size in ascending width.
var Sizes = []Size{Small, Medium, Large}

var widths = map[Size]uint{
	Small:  128,
	Medium: 512,
	Large:  1024,
}

// ParseSize returns the size named s.
func ParseSize(s string) (Size, bool) {
	size := Size(s)
	_, ok := widths[size]
	return size, ok
}

// Width returns the pixel width of the size.
func (s Size) Width() uint {
	return widths[s]
}

// MaxSourceBytes bounds the originals that are decoded.
const MaxSourceBytes = 32 << 20

var (
	ErrNotCached = errors.New("thumbnail not cached")
	ErrTooLarge  = errors.New("source image too large")
)

// Thumbnail is a stored, encoded thumbnail.
type Thumbnail struct {
	Key         string `gorm:"primaryKey"`
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Source streams original images.
type Source interface {
	DownloadImage(ctx context.Context, name string) (*api.Download, error)
}

// Store persists thumbnails. GetThumbnail returns ErrNotCached for misses.
type Store interface {
	GetThumbnail(ctx context.Context, key string) (*Thumbnail, error)
	SaveThumbnail(ctx context.Context, t *Thumbnail) error
}

// Service serves thumbnails, rendering and storing them on first use.
type Service struct {
	src   Source
	store Store
	group singleflight.Group
}

func New(src Source, store Store) *Service {
	return &Service{src: src, store: store}
}

// Key returns the store key of a thumbnail.
func Key(size Size, name string) string {
	return string(size) + "/" + name
}

// Get returns the thumbnail of name at size.
func (s *Service) Get(ctx context.Context, size Size, name string) (*Thumbnail, error) {
	key := Key(size, name)

	t, err := s.store.GetThumbnail(ctx, key)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotCached) {
		return nil, fmt.Errorf("load thumbnail %s: %w", key, err)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.render(ctx, size, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Thumbnail), nil
}

func (s *Service) render(ctx context.Context, size Size, name string) (*Thumbnail, error) {
	dl, err := s.src.DownloadImage(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer dl.Body.Close()

	if dl.Size > MaxSourceBytes {
		return nil, fmt.Errorf("download %s: %w", name, ErrTooLarge)
	}

	data, err := Resize(io.LimitReader(dl.Body, MaxSourceBytes), size.Width())
	if err != nil {
		return nil, fmt.Errorf("resize %s: %w", name, err)
	}

	t := &Thumbnail{
		Key:         Key(size, name),
		ContentType: "image/jpeg",
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveThumbnail(ctx, t); err != nil {
		return nil, fmt.Errorf("save thumbnail %s: %w", t.Key, err)
	}
	return t, nil
}

// Resize decodes an image and re-encodes it as JPEG, scaled down to width
// with its aspect ratio preserved. Narrower images keep their size.
func Resize(r io.Reader, width uint) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
