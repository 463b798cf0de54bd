package raw

// PixelGrid is the canonical decoder output: a height × width grid of
// samples at the format's native bit depth, row-major. Bayer and mono
// formats fill Samples; pre-demosaiced formats fill Pix with interleaved
// 3-channel 8-bit values instead. Exactly one of the two slices is non-nil.
// Ownership passes to the color pipeline; the decoder never touches a grid
// after returning it.
type PixelGrid struct {
	Width    int
	Height   int
	BitDepth int

	Samples []uint16 // len Width*Height, Bayer/mono formats
	Pix     []uint8  // len Width*Height*3, RGB formats
}

// IsColor reports whether the grid holds interleaved RGB channels.
func (g *PixelGrid) IsColor() bool {
	return g.Pix != nil
}

// SampleAt returns the Bayer/mono sample at (x, y). Callers index within
// bounds; this is a hot path and does not re-check.
func (g *PixelGrid) SampleAt(x, y int) uint16 {
	return g.Samples[y*g.Width+x]
}

// RGBAt returns the 8-bit channel triple at (x, y) for color grids.
func (g *PixelGrid) RGBAt(x, y int) (r, gr, b uint8) {
	i := (y*g.Width + x) * 3
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

// MaxValue returns the largest representable sample for the grid's depth.
func (g *PixelGrid) MaxValue() int {
	return (1 << g.BitDepth) - 1
}

func newBayerGrid(d Dimensions, depth int) *PixelGrid {
	return &PixelGrid{
		Width:    int(d.Width),
		Height:   int(d.Height),
		BitDepth: depth,
		Samples:  make([]uint16, d.PixelCount()),
	}
}

func newColorGrid(d Dimensions) *PixelGrid {
	return &PixelGrid{
		Width:    int(d.Width),
		Height:   int(d.Height),
		BitDepth: 8,
		Pix:      make([]uint8, d.PixelCount()*3),
	}
}
