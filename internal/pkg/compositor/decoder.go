package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // garment photos from phones are often WebP
)

// Decoder turns encoded image bytes into a Raster.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (Raster, error)
}

// MaxDecodePixels caps width×height of a single input. The header is checked
// before any pixels are allocated.
const MaxDecodePixels = 50_000_000

type imagingDecoder struct{}

// NewImagingDecoder returns a decoder for JPEG, PNG, GIF and WebP input that
// honours EXIF orientation.
func NewImagingDecoder() Decoder {
	return imagingDecoder{}
}

func (imagingDecoder) Decode(ctx context.Context, data []byte) (Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}

	if err := checkDimensions(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return NewRaster(img), nil
}

func checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width > maxSurfaceSide || cfg.Height > maxSurfaceSide ||
		int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return fmt.Errorf("image of %dx%d exceeds the decode limit", cfg.Width, cfg.Height)
	}
	return nil
}
