package raw

import (
	"fmt"
	"os"

	"github.com/viefmoon/rawstream/internal/errors"
)

// ReadFile loads one captured frame from a headerless .raw file. The file
// must contain at least the expected byte count for the format at the given
// dimensions; dimensions and format are supplied out of band. Passing
// FormatUnknown resolves the format from the file size with the given
// tolerance.
func ReadFile(path string, dims Dimensions, format Format, tolerance int) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw frame: %w", err)
	}

	if format == FormatUnknown {
		detected, ok := NewDetector(dims, tolerance).Detect(len(data))
		if !ok {
			return nil, errors.NewUnrecognizedFormat(len(data), tolerance)
		}
		format = detected
	}

	if need := format.FrameSize(dims); len(data) < need {
		return nil, errors.NewInsufficientData(format.String(), need, len(data))
	}

	return &Frame{Data: data, Dims: dims, Format: format}, nil
}
