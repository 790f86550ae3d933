package blorb

// ComputeScale returns the factor a picture should be scaled by when drawn in
// a window of winW by winH pixels.
//
// The window's fit against the standard geometry (the smaller of the two axis
// ratios) is multiplied by the picture's standard ratio, then raised to the
// minimum ratio or lowered to the maximum ratio when those are set. Pictures
// without a Reso entry use 1/1 with no limits, and a bundle without a Reso
// chunk always returns 1.
func (b *Bundle) ComputeScale(image, winW, winH uint32) float64 {
	if !b.hasResolution {
		return 1
	}

	erf := 1.0
	g := b.resolution.Geometry
	if g.StandardWidth != 0 && g.StandardHeight != 0 {
		erf = min(float64(winW)/float64(g.StandardWidth), float64(winH)/float64(g.StandardHeight))
	}

	entry, ok := b.scales[image]
	if !ok {
		entry = ScaleEntry{Image: image, Standard: Ratio{1, 1}}
	}
	r := erf * entry.Standard.Float()

	if lo := entry.Min.Float(); lo != 0 && r < lo {
		return lo
	}
	if hi := entry.Max.Float(); hi != 0 && r > hi {
		return hi
	}
	return r
}
