package raw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_ExactSizes(t *testing.T) {
	dims := Dimensions{Width: 1936, Height: 1100}
	d := NewDetector(dims, 1000)

	tests := []struct {
		name    string
		byteLen int
		want    Format
	}{
		{"rgb888", 1936 * 1100 * 3, FormatRGB888},
		{"rgb565 wins the 2-byte-per-pixel tie", 1936 * 1100 * 2, FormatRGB565},
		{"raw8", 1936 * 1100, FormatRaw8},
		{"raw10 packed wins the 5-per-4 tie", 1936 * 1100 * 5 / 4, FormatRaw10Packed},
		{"raw12 msb-first wins the 3-per-2 tie", 1936 * 1100 * 3 / 2, FormatRaw12PackedMSB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Detect(tt.byteLen)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetector_Tolerance(t *testing.T) {
	dims := Dimensions{Width: 640, Height: 480}
	d := NewDetector(dims, 1000)
	exact := FormatRGB888.FrameSize(dims)

	// Within the slack on both sides.
	for _, delta := range []int{-1000, -1, 0, 1, 999, 1000} {
		got, ok := d.Detect(exact + delta)
		require.True(t, ok, "delta %d", delta)
		assert.Equal(t, FormatRGB888, got, "delta %d", delta)
	}

	// Off by more than the tolerance from every catalog entry.
	_, ok := d.Detect(exact + 100000)
	assert.False(t, ok)

	_, ok = d.Detect(1)
	assert.False(t, ok)
}

func TestDetector_ZeroTolerance(t *testing.T) {
	dims := Dimensions{Width: 64, Height: 64}
	d := NewDetector(dims, 0)

	got, ok := d.Detect(FormatRaw8.FrameSize(dims))
	require.True(t, ok)
	assert.Equal(t, FormatRaw8, got)

	_, ok = d.Detect(FormatRaw8.FrameSize(dims) + 1)
	assert.False(t, ok)
}

func TestCatalog_DetectionOrder(t *testing.T) {
	// Pre-demosaiced entries come first so they win size ties against raw
	// formats; the order is load-bearing for detection determinism.
	got := Catalog()
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, FormatRGB888, got[0])
	assert.Equal(t, FormatRGB565, got[1])

	seenRaw := false
	for _, f := range got {
		if !f.IsColor() {
			seenRaw = true
		} else {
			assert.False(t, seenRaw, "color format %s declared after a raw format", f)
		}
	}
}

func TestFormat_FrameSizes(t *testing.T) {
	dims := Dimensions{Width: 1936, Height: 1100}

	tests := []struct {
		format Format
		want   int
	}{
		{FormatRGB888, 6388800},
		{FormatRGB565, 4259200},
		{FormatRaw8, 2129600},
		{FormatRaw10Packed, 2662000},
		{FormatRaw10In12, 2662000},
		{FormatRaw12PackedMSB, 3194400},
		{FormatRaw12PackedSBGGR, 3194400},
		{FormatRaw12LSB, 4259200},
		{FormatRaw12MSB, 4259200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.format.FrameSize(dims), tt.format.String())
	}

	assert.Equal(t, 6388800, MaxFrameSize(dims))
}

func TestParseFormat(t *testing.T) {
	for _, f := range Catalog() {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("auto")
	assert.Error(t, err, "auto is a config sentinel, not a format")

	_, err = ParseFormat("jpeg")
	assert.Error(t, err)
}

func TestFormat_BitDepths(t *testing.T) {
	assert.Equal(t, 8, FormatRGB888.BitDepth())
	assert.Equal(t, 8, FormatRGB565.BitDepth())
	assert.Equal(t, 10, FormatRaw8.BitDepth())
	assert.Equal(t, 10, FormatRaw10Packed.BitDepth())
	assert.Equal(t, 12, FormatRaw10In12.BitDepth())
	assert.Equal(t, 12, FormatRaw12PackedMSB.BitDepth())
	assert.Equal(t, 12, FormatRaw12PackedSBGGR.BitDepth())
	assert.Equal(t, 12, FormatRaw12LSB.BitDepth())
	assert.Equal(t, 12, FormatRaw12MSB.BitDepth())
}
