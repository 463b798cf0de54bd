package raw

import "time"

// Dimensions is the declared frame geometry. The wire carries no metadata,
// so width and height always come from configuration.
type Dimensions struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// PixelCount returns width × height.
func (d Dimensions) PixelCount() int {
	return int(d.Width) * int(d.Height)
}

// Frame is one captured frame payload: an opaque byte buffer plus the
// declared geometry and, once known, the format that interprets it. Frames
// are created by the file loader or the stream session and consumed exactly
// once by the decoder; the buffer is never mutated after creation.
type Frame struct {
	Data   []byte
	Dims   Dimensions
	Format Format

	// ReceivedAt and ConnID identify when and on which connection attempt
	// the frame arrived. Zero values for file-loaded frames.
	ReceivedAt time.Time
	ConnID     string
}

// Size returns the payload length in bytes.
func (f *Frame) Size() int {
	return len(f.Data)
}
