package compositor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDecode means an input could not be decoded into an image.
	ErrDecode = errors.New("image could not be decoded")
	// ErrSurface means a rendering surface could not be acquired or encoded.
	ErrSurface = errors.New("rendering surface unavailable")
)

// JPEGQuality is the output quality on the 1-100 scale.
const JPEGQuality = 90

var (
	Background = RGBA{R: 255, G: 255, B: 255, A: 255}
	ItemShadow = Shadow{Color: RGBA{A: 26}, Blur: 20, OffsetY: 8}
)

// Compositor stacks a top and a bottom garment into a single flat-lay image.
type Compositor struct {
	decoder  Decoder
	surfaces SurfaceFactory
}

// New builds a Compositor. Nil arguments fall back to the imaging-backed
// implementations.
func New(decoder Decoder, surfaces SurfaceFactory) *Compositor {
	if decoder == nil {
		decoder = NewImagingDecoder()
	}
	if surfaces == nil {
		surfaces = NewImagingSurfaceFactory()
	}
	return &Compositor{decoder: decoder, surfaces: surfaces}
}

// ComposeFlatLay decodes both garments, trims their blank margins and stacks
// them top over bottom on a white canvas. The result is JPEG bytes. On any
// failure no output is produced.
func (c *Compositor) ComposeFlatLay(ctx context.Context, top, bottom []byte) ([]byte, error) {
	start := time.Now()

	var topImg, bottomImg Raster
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.decode(gctx, ctx, "top", top)
		topImg = r
		return err
	})
	g.Go(func() error {
		r, err := c.decode(gctx, ctx, "bottom", bottom)
		bottomImg = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := c.Compose(topImg, bottomImg)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"bytes":    len(out),
		"duration": time.Since(start).String(),
	}).Debug("flat-lay composed")
	return out, nil
}

func (c *Compositor) decode(gctx, parent context.Context, name string, data []byte) (Raster, error) {
	r, err := c.decoder.Decode(gctx, data)
	if err == nil {
		return r, nil
	}
	if parent.Err() != nil {
		return nil, parent.Err()
	}
	return nil, fmt.Errorf("%w: %s garment: %w", ErrDecode, name, err)
}

// Compose runs the crop, layout and render steps on already decoded rasters.
func (c *Compositor) Compose(top, bottom Raster) ([]byte, error) {
	topBox := DetectContentBounds(top)
	bottomBox := DetectContentBounds(bottom)

	croppedTop := Crop(top, topBox, c.surfaces)
	croppedBottom := Crop(bottom, bottomBox, c.surfaces)
	if isEmpty(croppedTop) || isEmpty(croppedBottom) {
		return nil, fmt.Errorf("%w: cropped garment has no area", ErrSurface)
	}

	layout := ComputeLayout(croppedTop.Width(), croppedTop.Height(), croppedBottom.Width(), croppedBottom.Height())
	logrus.WithFields(logrus.Fields{
		"top_box":       topBox,
		"bottom_box":    bottomBox,
		"canvas_height": layout.CanvasHeight,
		"scale":         layout.Scale,
	}).Debug("flat-lay layout")

	canvas, err := c.surfaces.NewSurface(layout.CanvasWidth, layout.CanvasHeight)
	if err != nil {
		if errors.Is(err, ErrSurface) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSurface, err)
	}

	canvas.Fill(Background)
	canvas.DrawImage(croppedTop, layout.Top, &ItemShadow)
	canvas.DrawImage(croppedBottom, layout.Bottom, &ItemShadow)

	out, err := canvas.Encode(FormatJPEG, JPEGQuality)
	if err != nil {
		if errors.Is(err, ErrSurface) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSurface, err)
	}
	return out, nil
}
