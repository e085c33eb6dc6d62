package compositor

import (
	"image"

	"github.com/disintegration/imaging"
)

// RGBA is a single non-premultiplied pixel, one byte per channel.
type RGBA struct {
	R, G, B, A uint8
}

// Raster is a read-only grid of pixels addressed from (0,0).
type Raster interface {
	Width() int
	Height() int
	PixelAt(x, y int) RGBA
}

// BoundingBox is a rectangle in source pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a destination rectangle in canvas units. Values may be fractional.
type Rect struct {
	X, Y, W, H float64
}

// nrgbaRaster adapts *image.NRGBA to Raster. The image always starts at (0,0).
type nrgbaRaster struct {
	img *image.NRGBA
}

// NewRaster wraps any decoded image. The pixels are copied into a
// zero-origin NRGBA buffer so alpha is read non-premultiplied, like a canvas
// getImageData call.
func NewRaster(img image.Image) Raster {
	return &nrgbaRaster{img: imaging.Clone(img)}
}

func (r *nrgbaRaster) Width() int  { return r.img.Bounds().Dx() }
func (r *nrgbaRaster) Height() int { return r.img.Bounds().Dy() }

func (r *nrgbaRaster) PixelAt(x, y int) RGBA {
	i := r.img.PixOffset(x, y)
	p := r.img.Pix[i : i+4 : i+4]
	return RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Image exposes the backing buffer.
func (r *nrgbaRaster) Image() *image.NRGBA { return r.img }

// nrgbaBacked is implemented by rasters that can hand out their pixel buffer.
type nrgbaBacked interface {
	Image() *image.NRGBA
}

// toNRGBA returns an NRGBA view of any raster, copying only when the raster is
// not already NRGBA-backed.
func toNRGBA(r Raster) *image.NRGBA {
	if nr, ok := r.(nrgbaBacked); ok {
		return nr.Image()
	}
	w, h := r.Width(), r.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := r.PixelAt(x, y)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = p.R
			dst.Pix[i+1] = p.G
			dst.Pix[i+2] = p.B
			dst.Pix[i+3] = p.A
		}
	}
	return dst
}
