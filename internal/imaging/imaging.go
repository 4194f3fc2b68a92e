// Package imaging decodes, resizes, and re-encodes page images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/errors"
)

// Options control a single encode operation.
type Options struct {
	// Width is the target width; height follows the aspect ratio.
	// Zero keeps the source width.
	Width int
	// Quality is the lossy quality (1-100). Ignored for png.
	Quality int
	// Speed trades effort for speed. Kept for codec parity; the stdlib
	// encoders ignore it.
	Speed int
	// Format is "jpeg" or "png".
	Format string
}

// CoverOptions returns the encode profile for cover and resampled
// derivatives.
func CoverOptions(cfg config.ImageConfig) Options {
	return Options{
		Width:   cfg.CoverWidth,
		Quality: cfg.Quality,
		Speed:   cfg.Speed,
		Format:  cfg.Format,
	}
}

// ThumbnailOptions returns the encode profile for thumbnail derivatives.
func ThumbnailOptions(cfg config.ImageConfig) Options {
	return Options{
		Width:   cfg.ThumbWidth,
		Quality: cfg.Quality,
		Speed:   cfg.Speed,
		Format:  cfg.Format,
	}
}

// Decode returns the pixel dimensions of the image without decoding the
// full frame.
func Decode(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Decode(err)
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeImage decodes the full frame.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Decode(err)
	}
	return img, nil
}

// Encode decodes the source, scales it to the target width preserving
// aspect ratio, and re-encodes it in the requested format. Sources
// already at or below the target width are re-encoded without scaling.
func Encode(data []byte, opts Options) ([]byte, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if opts.Width > 0 && bounds.Dx() > opts.Width {
		img = resize(img, opts.Width)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg", "":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		return nil, errors.Encode(fmt.Errorf("unsupported format %q", opts.Format))
	}
	if err != nil {
		return nil, errors.Encode(err)
	}
	return buf.Bytes(), nil
}

// resize scales img to the target width with CatmullRom resampling.
func resize(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	height := int(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
