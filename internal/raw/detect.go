package raw

// Detector matches payload byte counts against the catalog's expected frame
// sizes at fixed dimensions. Some transports append trailer or padding
// bytes, so expected sizes are compared with a slack tolerance. Detection is
// pure; pinning a detected format for a stream's lifetime is session state.
type Detector struct {
	dims      Dimensions
	tolerance int

	// expected sizes precomputed in catalog order
	sizes []int
}

// NewDetector creates a detector for the given dimensions and byte-count
// tolerance.
func NewDetector(dims Dimensions, tolerance int) *Detector {
	sizes := make([]int, len(catalog))
	for i, f := range catalog {
		sizes[i] = f.FrameSize(dims)
	}
	return &Detector{dims: dims, tolerance: tolerance, sizes: sizes}
}

// Detect returns the first catalog entry whose expected size is within the
// tolerance of byteLen, and false when no entry matches. Ties between
// same-size entries resolve to the earlier declaration, which puts
// pre-demosaiced formats ahead of raw ones.
func (d *Detector) Detect(byteLen int) (Format, bool) {
	for i, f := range catalog {
		if absDiff(byteLen, d.sizes[i]) <= d.tolerance {
			return f, true
		}
	}
	return FormatUnknown, false
}

// Tolerance returns the configured byte-count slack.
func (d *Detector) Tolerance() int {
	return d.tolerance
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
