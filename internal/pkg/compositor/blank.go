package compositor

const (
	// alphaThreshold is the alpha below which a pixel counts as transparent.
	alphaThreshold = 10
	// whiteThreshold is the per-channel value above which a pixel counts as
	// near-white backdrop.
	whiteThreshold = 250
)

// IsBlankPixel reports whether a pixel carries no garment content: either it
// is (almost) transparent or all three colour channels are near white.
func IsBlankPixel(r, g, b, a uint8) bool {
	if a < alphaThreshold {
		return true
	}
	return r > whiteThreshold && g > whiteThreshold && b > whiteThreshold
}
