package blorb

const paletteSize = 16

// AdaptPalette returns the palette to draw picture image with and folds the
// proposed palette into the bundle's carried table.
//
// Pictures listed in the APal chunk ignore proposed and get the carried table.
// For any other picture, each non-black entry of proposed from index 2 on
// replaces the carried entry, and proposed (cut to 16 entries) is returned.
// Entries 0 and 1 of the carried table are never written. An empty proposal
// is returned unchanged.
//
// AdaptPalette mutates the bundle; callers sharing a Bundle must serialise it.
func (b *Bundle) AdaptPalette(image uint32, proposed []Color) []Color {
	if len(proposed) == 0 {
		return proposed
	}
	proposed = proposed[:min(len(proposed), paletteSize):min(len(proposed), paletteSize)]

	if _, ok := b.adaptive[image]; ok {
		carried := b.palette
		return carried[:]
	}
	for i := 2; i < len(proposed); i++ {
		if proposed[i] != (Color{}) {
			b.palette[i] = proposed[i]
		}
	}
	return proposed
}

// Palette returns a copy of the carried table.
func (b *Bundle) Palette() [paletteSize]Color {
	return b.palette
}

// IsAdaptive reports whether picture image is listed in the APal chunk.
func (b *Bundle) IsAdaptive(image uint32) bool {
	_, ok := b.adaptive[image]
	return ok
}
