package compositor

import "math"

const (
	CanvasWidth      = 800
	Padding          = 20
	ItemGap          = 0
	MaxContentHeight = 700
)

// Layout is the placement of both garments on the flat-lay canvas.
type Layout struct {
	CanvasWidth  int
	CanvasHeight int
	// Scale is the uniform factor applied to fit MaxContentHeight, 1 when the
	// stack already fits.
	Scale  float64
	Top    Rect
	Bottom Rect
}

// ComputeLayout places a top and a bottom garment of the given cropped sizes.
// Both are shown at the same width: the narrower of the two, capped by the
// canvas. All dimensions must be positive.
func ComputeLayout(topW, topH, bottomW, bottomH int) Layout {
	available := float64(CanvasWidth - 2*Padding)
	target := math.Min(available, math.Min(float64(topW), float64(bottomW)))

	topDW := target
	topDH := target * float64(topH) / float64(topW)
	bottomDW := target
	bottomDH := target * float64(bottomH) / float64(bottomW)

	scale := 1.0
	if total := topDH + ItemGap + bottomDH; total > MaxContentHeight {
		scale = MaxContentHeight / total
		topDW *= scale
		topDH *= scale
		bottomDW *= scale
		bottomDH *= scale
	}

	// A canvas height is an integer; the epsilon keeps float error in the
	// scaled sum from dropping a whole pixel.
	height := Padding + topDH + ItemGap + bottomDH + Padding
	canvasHeight := int(math.Floor(height + 1e-6))

	return Layout{
		CanvasWidth:  CanvasWidth,
		CanvasHeight: canvasHeight,
		Scale:        scale,
		Top: Rect{
			X: Padding + (available-topDW)/2,
			Y: Padding,
			W: topDW,
			H: topDH,
		},
		Bottom: Rect{
			X: Padding + (available-bottomDW)/2,
			Y: Padding + topDH + ItemGap,
			W: bottomDW,
			H: bottomDH,
		},
	}
}
