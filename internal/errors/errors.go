package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies frame-path failures. Nothing in this taxonomy is
// fatal: decode failures skip the frame, transport failures trigger the
// session retry path, and overflow trims the reassembly buffer.
type ErrorType string

const (
	ErrorTypeInsufficientData   ErrorType = "INSUFFICIENT_DATA"
	ErrorTypeUnrecognizedFormat ErrorType = "UNRECOGNIZED_FORMAT"
	ErrorTypeTransport          ErrorType = "TRANSPORT_ERROR"
	ErrorTypeBufferOverflow     ErrorType = "BUFFER_OVERFLOW"
)

// FrameError carries a classified error with optional context details.
type FrameError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *FrameError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *FrameError) WithDetails(details map[string]interface{}) *FrameError {
	e.Details = details
	return e
}

// New creates a new FrameError.
func New(errType ErrorType, message string) *FrameError {
	return &FrameError{Type: errType, Message: message}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *FrameError {
	return &FrameError{Type: errType, Message: message, Err: err}
}

// NewInsufficientData reports a buffer shorter than a format requires.
func NewInsufficientData(format string, expected, actual int) *FrameError {
	return New(ErrorTypeInsufficientData,
		fmt.Sprintf("%s needs %d bytes, got %d", format, expected, actual)).
		WithDetails(map[string]interface{}{
			"format":   format,
			"expected": expected,
			"actual":   actual,
		})
}

// NewUnrecognizedFormat reports a byte count matching no catalog entry.
func NewUnrecognizedFormat(byteLen, tolerance int) *FrameError {
	return New(ErrorTypeUnrecognizedFormat,
		fmt.Sprintf("%d bytes match no catalog entry within %d bytes", byteLen, tolerance)).
		WithDetails(map[string]interface{}{
			"byte_len":  byteLen,
			"tolerance": tolerance,
		})
}

// WrapTransport wraps a connection/read failure.
func WrapTransport(err error, message string) *FrameError {
	return Wrap(err, ErrorTypeTransport, message)
}

// NewBufferOverflow reports a reassembly buffer trim.
func NewBufferOverflow(buffered, ceiling int) *FrameError {
	return New(ErrorTypeBufferOverflow,
		fmt.Sprintf("reassembly buffer at %d bytes exceeded ceiling %d", buffered, ceiling)).
		WithDetails(map[string]interface{}{
			"buffered": buffered,
			"ceiling":  ceiling,
		})
}

// IsType reports whether err is a FrameError of the given type.
func IsType(err error, errType ErrorType) bool {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Type == errType
	}
	return false
}

// GetFrameError extracts a FrameError from an error chain.
func GetFrameError(err error) (*FrameError, bool) {
	var fe *FrameError
	ok := errors.As(err, &fe)
	return fe, ok
}
