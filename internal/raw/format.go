package raw

import "fmt"

// Format identifies one of the supported frame encodings. The set is closed:
// the decoder switches exhaustively over it, so adding an encoding means
// adding a catalog entry and a decode arm, both checked at compile time.
type Format uint8

const (
	FormatUnknown Format = iota

	// Pre-demosaiced formats (ISP output).
	FormatRGB888 // 3 bytes per pixel, channel order as emitted by the ISP
	FormatRGB565 // 2 bytes per pixel, little-endian 5-6-5 word

	// Bayer formats.
	FormatRaw8             // 1 byte per pixel, widened to 10-bit working depth
	FormatRaw10Packed      // MIPI RAW10: 5 bytes carry 4 pixels
	FormatRaw10In12        // RAW10 packing scaled to 12-bit working depth
	FormatRaw12PackedMSB   // 3 bytes carry 2 pixels, MSBs first (ESP32-P4)
	FormatRaw12PackedSBGGR // MIPI RAW12 little-endian variant, LSBs first
	FormatRaw12LSB         // 16-bit LE word per pixel, sample in low 12 bits
	FormatRaw12MSB         // 16-bit LE word per pixel, sample in high 12 bits
)

// FormatNameAuto is the configuration value requesting byte-count detection.
const FormatNameAuto = "auto"

// catalog lists every supported format in declaration order. Detection walks
// this slice front to back, so pre-demosaiced formats win size ties against
// raw formats, and RAW10 at native depth wins against its 12-bit variant.
var catalog = []Format{
	FormatRGB888,
	FormatRGB565,
	FormatRaw8,
	FormatRaw10Packed,
	FormatRaw10In12,
	FormatRaw12PackedMSB,
	FormatRaw12PackedSBGGR,
	FormatRaw12LSB,
	FormatRaw12MSB,
}

// Catalog returns the supported formats in detection order.
func Catalog() []Format {
	out := make([]Format, len(catalog))
	copy(out, catalog)
	return out
}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatRGB888:
		return "rgb888"
	case FormatRGB565:
		return "rgb565"
	case FormatRaw8:
		return "raw8"
	case FormatRaw10Packed:
		return "raw10_packed"
	case FormatRaw10In12:
		return "raw10_in12"
	case FormatRaw12PackedMSB:
		return "raw12_packed_msb"
	case FormatRaw12PackedSBGGR:
		return "raw12_packed_sbggr"
	case FormatRaw12LSB:
		return "raw12_lsb"
	case FormatRaw12MSB:
		return "raw12_msb"
	default:
		return "unknown"
	}
}

// ParseFormat resolves a configuration name to a Format. The "auto" sentinel
// is not a format; callers handle it before parsing.
func ParseFormat(name string) (Format, error) {
	for _, f := range catalog {
		if f.String() == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown frame format %q", name)
}

// BitDepth returns the native sample depth after decoding: 0..255 for 8-bit,
// 0..1023 for 10-bit, 0..4095 for 12-bit.
func (f Format) BitDepth() int {
	switch f {
	case FormatRGB888, FormatRGB565:
		return 8
	case FormatRaw8, FormatRaw10Packed:
		return 10
	case FormatRaw10In12, FormatRaw12PackedMSB, FormatRaw12PackedSBGGR, FormatRaw12LSB, FormatRaw12MSB:
		return 12
	default:
		return 0
	}
}

// IsColor reports whether the format is already demosaiced.
func (f Format) IsColor() bool {
	return f == FormatRGB888 || f == FormatRGB565
}

// group returns the wire packing: how many bytes carry how many pixels.
func (f Format) group() (bytesPerGroup, pixelsPerGroup int) {
	switch f {
	case FormatRGB888:
		return 3, 1
	case FormatRGB565:
		return 2, 1
	case FormatRaw8:
		return 1, 1
	case FormatRaw10Packed, FormatRaw10In12:
		return 5, 4
	case FormatRaw12PackedMSB, FormatRaw12PackedSBGGR:
		return 3, 2
	case FormatRaw12LSB, FormatRaw12MSB:
		return 2, 1
	default:
		return 0, 1
	}
}

// BytesPerGroup returns the byte count of one pixel group on the wire.
func (f Format) BytesPerGroup() int {
	b, _ := f.group()
	return b
}

// PixelsPerGroup returns the number of pixels folded into one group. Frame
// widths must be a multiple of this.
func (f Format) PixelsPerGroup() int {
	_, p := f.group()
	return p
}

// FrameSize returns the exact byte count of one frame at the given
// dimensions.
func (f Format) FrameSize(d Dimensions) int {
	b, p := f.group()
	if p == 0 {
		return 0
	}
	return d.PixelCount() * b / p
}

// MaxFrameSize returns the largest catalog frame size at the given
// dimensions. The stream reassembly ceiling is derived from it.
func MaxFrameSize(d Dimensions) int {
	max := 0
	for _, f := range catalog {
		if s := f.FrameSize(d); s > max {
			max = s
		}
	}
	return max
}
