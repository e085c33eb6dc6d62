package compositor

// refineWindow bounds how many rows past the coarse extremes the vertical
// refinement is allowed to scan.
const refineWindow = 100

// DetectContentBounds returns the tightest box around the non-blank pixels of
// img. A fully blank image yields the full image extent.
//
// Only the vertical bounds are refined after the coarse pass, and only within
// refineWindow rows of the coarse extremes. Horizontal bounds keep the coarse
// result.
func DetectContentBounds(img Raster) BoundingBox {
	w, h := img.Width(), img.Height()
	full := BoundingBox{X: 0, Y: 0, Width: w, Height: h}
	if w <= 0 || h <= 0 {
		return full
	}

	blank := blankFunc(img)

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if blank(x, y) {
				continue
			}
			found = true
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if !found {
		return full
	}

	actualMinY := minY
	for y := 0; y < min(minY+refineWindow, h); y++ {
		if rowHasContent(blank, y, w) {
			actualMinY = y
			break
		}
	}

	actualMaxY := maxY
	for y := h - 1; y >= max(0, maxY-refineWindow); y-- {
		if rowHasContent(blank, y, w) {
			actualMaxY = y
			break
		}
	}

	return BoundingBox{
		X:      minX,
		Y:      actualMinY,
		Width:  maxX - minX + 1,
		Height: actualMaxY - actualMinY + 1,
	}
}

func rowHasContent(blank func(x, y int) bool, y, w int) bool {
	for x := 0; x < w; x++ {
		if !blank(x, y) {
			return true
		}
	}
	return false
}

// blankFunc picks a classifier that reads the pixel buffer directly when the
// raster is NRGBA-backed.
func blankFunc(img Raster) func(x, y int) bool {
	if nr, ok := img.(nrgbaBacked); ok {
		buf := nr.Image()
		return func(x, y int) bool {
			i := buf.PixOffset(x, y)
			return IsBlankPixel(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3])
		}
	}
	return func(x, y int) bool {
		p := img.PixelAt(x, y)
		return IsBlankPixel(p.R, p.G, p.B, p.A)
	}
}
