package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/ImGucci/smart-wardrobe-ai/internal/entity"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxSide bounds the longer edge of a stored garment photo.
	MaxSide = 1600
	// ThumbnailSize is the default square box for wardrobe grid previews.
	ThumbnailSize = 256
	jpegQuality   = 90

	// MaxDecodePixels and maxDecodeSide bound an upload by its header, before
	// any pixels are allocated.
	MaxDecodePixels = 50_000_000
	maxDecodeSide   = 1 << 14
)

// Result is an encoded image ready for blob storage.
type Result struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

type ImageProcessor interface {
	// Normalize decodes an upload, applies EXIF orientation, caps its size and
	// re-encodes it. Transparency is kept as PNG, opaque photos become JPEG.
	Normalize(ctx context.Context, data []byte) (*Result, error)
	Thumbnail(data []byte, size int) (*Result, error)
}

type imageProcessor struct {
	maxSide int
}

func NewImageProcessor() ImageProcessor {
	return &imageProcessor{maxSide: MaxSide}
}

func (p *imageProcessor) Normalize(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := p.load(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > p.maxSide || b.Dy() > p.maxSide {
		img = imaging.Fit(img, p.maxSide, p.maxSide, imaging.Lanczos)
	}
	return encode(img)
}

func (p *imageProcessor) Thumbnail(data []byte, size int) (*Result, error) {
	if size <= 0 {
		size = ThumbnailSize
	}
	img, err := p.load(data)
	if err != nil {
		return nil, err
	}
	return encode(imaging.Fit(img, size, size, imaging.Lanczos))
}

func (p *imageProcessor) load(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", entity.ErrInvalidInput)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", entity.ErrInvalidInput, err)
	}
	if cfg.Width > maxDecodeSide || cfg.Height > maxDecodeSide ||
		int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("%w: image of %dx%d is too large", entity.ErrInvalidInput, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", entity.ErrInvalidInput, err)
	}
	return img, nil
}

func encode(img image.Image) (*Result, error) {
	format, mime := imaging.JPEG, "image/jpeg"
	if hasTransparency(img) {
		format, mime = imaging.PNG, "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &Result{Data: buf.Bytes(), MIMEType: mime, Width: b.Dx(), Height: b.Dy()}, nil
}

func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
