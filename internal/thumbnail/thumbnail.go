// Package thumbnail renders fixed-width JPEG previews of gallery images.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/nfnt/resize"

	"artgallery/internal/config"
)

var ErrUnsupportedFormat = errors.New("unsupported image format for thumbnails")

type Renderer struct {
	width   uint
	quality int
}

func NewRenderer(cfg config.ThumbnailConfig) *Renderer {
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &Renderer{width: cfg.Width, quality: quality}
}

// Render scales the image to the configured width keeping its aspect ratio.
// Images already narrower than that are re-encoded at their own size.
func (r *Renderer) Render(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) > r.width {
		img = resize.Resize(r.width, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Key derives the thumbnail object key from the original's key.
func Key(originalKey string) string {
	ext := path.Ext(originalKey)
	return "thumbs/" + strings.TrimSuffix(originalKey, ext) + ".jpg"
}
