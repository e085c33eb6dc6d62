package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Format is an encoded output format.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// maxSurfaceSide caps surface allocation; anything larger is treated as an
// acquisition failure.
const maxSurfaceSide = 1 << 14

// Shadow describes a drop shadow painted under an item, using canvas
// semantics: Blur is the shadowBlur value, the gaussian sigma is Blur/2.
type Shadow struct {
	Color   RGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// Surface is a writable raster.
type Surface interface {
	Raster
	// Fill paints every pixel with c.
	Fill(c RGBA)
	// DrawImageRegion copies region of src into dst, scaling when the sizes
	// differ. Destination pixels are replaced, not blended.
	DrawImageRegion(src Raster, region BoundingBox, dst Rect)
	// DrawImage scales src into dst and blends it over the surface, painting
	// shadow underneath when it is non-nil.
	DrawImage(src Raster, dst Rect, shadow *Shadow)
	// Encode serialises the surface. quality applies to lossy formats only.
	Encode(format Format, quality int) ([]byte, error)
}

// SurfaceFactory acquires rendering surfaces.
type SurfaceFactory interface {
	NewSurface(width, height int) (Surface, error)
}

// SurfaceFactoryFunc adapts a function to SurfaceFactory.
type SurfaceFactoryFunc func(width, height int) (Surface, error)

func (f SurfaceFactoryFunc) NewSurface(width, height int) (Surface, error) {
	return f(width, height)
}

type imagingSurfaces struct{}

// NewImagingSurfaceFactory returns the default factory backed by
// disintegration/imaging.
func NewImagingSurfaceFactory() SurfaceFactory {
	return imagingSurfaces{}
}

func (imagingSurfaces) NewSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 || width > maxSurfaceSide || height > maxSurfaceSide {
		return nil, fmt.Errorf("%w: cannot allocate %dx%d", ErrSurface, width, height)
	}
	return &imagingSurface{nrgbaRaster{img: image.NewNRGBA(image.Rect(0, 0, width, height))}}, nil
}

type imagingSurface struct {
	nrgbaRaster
}

// emptySurface is the zero-area surface handed out when acquisition fails.
func emptySurface() Surface {
	return &imagingSurface{nrgbaRaster{img: image.NewNRGBA(image.Rectangle{})}}
}

func isEmpty(r Raster) bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (s *imagingSurface) Fill(c RGBA) {
	fill := image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
	draw.Draw(s.img, s.img.Bounds(), fill, image.Point{}, draw.Src)
}

func (s *imagingSurface) DrawImageRegion(src Raster, region BoundingBox, dst Rect) {
	if isEmpty(s) || isEmpty(src) {
		return
	}
	part := imaging.Crop(toNRGBA(src), image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height))
	target := pixelRect(dst)
	part = scaleTo(part, target.Dx(), target.Dy())
	draw.Draw(s.img, target, part, image.Point{}, draw.Src)
}

func (s *imagingSurface) DrawImage(src Raster, dst Rect, shadow *Shadow) {
	if isEmpty(s) || isEmpty(src) {
		return
	}
	target := pixelRect(dst)
	item := scaleTo(toNRGBA(src), target.Dx(), target.Dy())
	if shadow != nil {
		s.drawShadow(item, target.Min, *shadow)
	}
	s.img = imaging.Overlay(s.img, item, target.Min, 1.0)
}

// drawShadow paints a blurred, tinted copy of item's alpha mask.
func (s *imagingSurface) drawShadow(item *image.NRGBA, at image.Point, sh Shadow) {
	if sh.Color.A == 0 {
		return
	}
	pad := int(math.Ceil(sh.Blur))
	w, h := item.Bounds().Dx(), item.Bounds().Dy()

	mask := image.NewNRGBA(image.Rect(0, 0, w+2*pad, h+2*pad))
	for i := 0; i < len(mask.Pix); i += 4 {
		mask.Pix[i+0] = sh.Color.R
		mask.Pix[i+1] = sh.Color.G
		mask.Pix[i+2] = sh.Color.B
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := item.Pix[item.PixOffset(x, y)+3]
			if a == 0 {
				continue
			}
			mask.Pix[mask.PixOffset(x+pad, y+pad)+3] = uint8(uint16(a) * uint16(sh.Color.A) / 255)
		}
	}
	if sh.Blur > 0 {
		mask = imaging.Blur(mask, sh.Blur/2)
	}

	pos := image.Pt(
		at.X-pad+int(math.Round(sh.OffsetX)),
		at.Y-pad+int(math.Round(sh.OffsetY)),
	)
	s.img = imaging.Overlay(s.img, mask, pos, 1.0)
}

func (s *imagingSurface) Encode(format Format, quality int) ([]byte, error) {
	if isEmpty(s) {
		return nil, fmt.Errorf("%w: cannot encode an empty surface", ErrSurface)
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, s.img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		err = imaging.Encode(&buf, s.img, imaging.PNG)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// pixelRect snaps a fractional rectangle to whole pixels. Edges are rounded
// independently so rectangles that abut in canvas units still abut in pixels.
func pixelRect(r Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := max(int(math.Round(r.X+r.W)), x0+1)
	y1 := max(int(math.Round(r.Y+r.H)), y0+1)
	return image.Rect(x0, y0, x1, y1)
}

func scaleTo(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
