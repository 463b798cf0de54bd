package raw

import (
	"encoding/binary"

	"github.com/viefmoon/rawstream/internal/errors"
)

// Decode unpacks a frame using its declared format. Trailing bytes beyond
// the format's exact frame size are sliced off; a payload shorter than the
// frame size fails with an INSUFFICIENT_DATA error and the frame is skipped.
// The returned grid always has exactly the frame's declared dimensions.
func Decode(f *Frame) (*PixelGrid, error) {
	return DecodeAs(f.Data, f.Dims, f.Format)
}

// DecodeAs unpacks data as the given format at the given dimensions.
func DecodeAs(data []byte, dims Dimensions, format Format) (*PixelGrid, error) {
	need := format.FrameSize(dims)
	if need <= 0 {
		return nil, errors.New(errors.ErrorTypeUnrecognizedFormat, "cannot decode unknown format")
	}
	if len(data) < need {
		return nil, errors.NewInsufficientData(format.String(), need, len(data))
	}
	data = data[:need]

	switch format {
	case FormatRGB888:
		return decodeRGB888(data, dims), nil
	case FormatRGB565:
		return decodeRGB565(data, dims), nil
	case FormatRaw8:
		return decodeRaw8(data, dims), nil
	case FormatRaw10Packed:
		return decodeRaw10Packed(data, dims, 0), nil
	case FormatRaw10In12:
		// Same MIPI packing, scaled into the 12-bit working range.
		return decodeRaw10Packed(data, dims, 2), nil
	case FormatRaw12PackedMSB:
		return decodeRaw12PackedMSB(data, dims), nil
	case FormatRaw12PackedSBGGR:
		return decodeRaw12PackedSBGGR(data, dims), nil
	case FormatRaw12LSB:
		return decodeRaw12Word(data, dims, false), nil
	case FormatRaw12MSB:
		return decodeRaw12Word(data, dims, true), nil
	default:
		return nil, errors.New(errors.ErrorTypeUnrecognizedFormat, "cannot decode unknown format")
	}
}

// decodeRGB888 copies the ISP's interleaved 3-channel output through
// unchanged. The ESP32 ISP emits BGR byte order; channel order is not
// swapped here, the color pipeline owns channel semantics.
func decodeRGB888(data []byte, dims Dimensions) *PixelGrid {
	g := newColorGrid(dims)
	copy(g.Pix, data)
	return g
}

// decodeRGB565 unpacks little-endian 5-6-5 words, widening each channel to
// 8 bits by replicating its top bits into the vacated low bits.
func decodeRGB565(data []byte, dims Dimensions) *PixelGrid {
	g := newColorGrid(dims)
	for i := 0; i < dims.PixelCount(); i++ {
		w := binary.LittleEndian.Uint16(data[i*2:])
		r5 := uint8((w >> 11) & 0x1F)
		g6 := uint8((w >> 5) & 0x3F)
		b5 := uint8(w & 0x1F)
		g.Pix[i*3] = (r5 << 3) | (r5 >> 2)
		g.Pix[i*3+1] = (g6 << 2) | (g6 >> 4)
		g.Pix[i*3+2] = (b5 << 3) | (b5 >> 2)
	}
	return g
}

// decodeRaw8 widens byte samples into the 10-bit working range so downstream
// color math stays depth-agnostic.
func decodeRaw8(data []byte, dims Dimensions) *PixelGrid {
	g := newBayerGrid(dims, 10)
	for i, b := range data {
		g.Samples[i] = uint16(b) << 2
	}
	return g
}

// decodeRaw10Packed unpacks MIPI RAW10: every 5 bytes carry 4 pixels. Bytes
// 0-3 hold each pixel's upper 8 bits; byte 4 packs the four 2-bit remainders,
// pixel 0 in the lowest pair. scale shifts the result into a wider working
// depth (0 for native 10-bit, 2 for the 12-bit variant).
func decodeRaw10Packed(data []byte, dims Dimensions, scale uint) *PixelGrid {
	g := newBayerGrid(dims, 10+2*int(scale))
	groups := dims.PixelCount() / 4
	for gi := 0; gi < groups; gi++ {
		b := data[gi*5 : gi*5+5]
		low := b[4]
		for n := 0; n < 4; n++ {
			px := (uint16(b[n]) << 2) | uint16((low>>(2*uint(n)))&0x3)
			g.Samples[gi*4+n] = px << scale
		}
	}
	return g
}

// decodeRaw12PackedMSB unpacks the ESP32-P4 RAW12 layout: bytes 0 and 1 hold
// the two pixels' upper 8 bits, byte 2 their 4-bit remainders (pixel 0 in
// the low nibble).
func decodeRaw12PackedMSB(data []byte, dims Dimensions) *PixelGrid {
	g := newBayerGrid(dims, 12)
	groups := dims.PixelCount() / 2
	for gi := 0; gi < groups; gi++ {
		b0, b1, b2 := data[gi*3], data[gi*3+1], data[gi*3+2]
		g.Samples[gi*2] = (uint16(b0) << 4) | uint16(b2&0x0F)
		g.Samples[gi*2+1] = (uint16(b1) << 4) | uint16((b2>>4)&0x0F)
	}
	return g
}

// decodeRaw12PackedSBGGR unpacks V4L2 SBGGR12 (MIPI RAW12, little-endian
// variant): bytes 0 and 1 hold the two pixels' low 8 bits, byte 2 their
// 4 MSBs (pixel 0 in the low nibble).
func decodeRaw12PackedSBGGR(data []byte, dims Dimensions) *PixelGrid {
	g := newBayerGrid(dims, 12)
	groups := dims.PixelCount() / 2
	for gi := 0; gi < groups; gi++ {
		b0, b1, b2 := data[gi*3], data[gi*3+1], data[gi*3+2]
		g.Samples[gi*2] = (uint16(b2&0x0F) << 8) | uint16(b0)
		g.Samples[gi*2+1] = (uint16(b2>>4) << 8) | uint16(b1)
	}
	return g
}

// decodeRaw12Word unpacks one little-endian 16-bit word per pixel. The
// sample sits in the low 12 bits (mask) or the high 12 bits (shift).
func decodeRaw12Word(data []byte, dims Dimensions, msbAligned bool) *PixelGrid {
	g := newBayerGrid(dims, 12)
	for i := 0; i < dims.PixelCount(); i++ {
		w := binary.LittleEndian.Uint16(data[i*2:])
		if msbAligned {
			g.Samples[i] = w >> 4
		} else {
			g.Samples[i] = w & 0x0FFF
		}
	}
	return g
}
