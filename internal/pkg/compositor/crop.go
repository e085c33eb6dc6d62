package compositor

import (
	"github.com/sirupsen/logrus"
)

// Crop copies box out of src into a new surface of exactly box's size. The box
// must lie inside src. If no surface can be acquired an empty surface is
// returned instead of an error.
func Crop(src Raster, box BoundingBox, surfaces SurfaceFactory) Surface {
	s, err := surfaces.NewSurface(box.Width, box.Height)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"width":  box.Width,
			"height": box.Height,
		}).Warnf("crop surface unavailable: %v", err)
		return emptySurface()
	}

	s.DrawImageRegion(src, box, Rect{W: float64(box.Width), H: float64(box.Height)})
	return s
}
