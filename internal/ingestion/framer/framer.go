package framer

import (
	"bytes"
	"sync/atomic"

	"github.com/viefmoon/rawstream/internal/errors"
	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/metrics"
)

// headerSep terminates the per-frame header block; everything after it up to
// the next boundary token is frame payload. Payloads are binary and may end
// in CRLF themselves, so nothing is stripped from them.
var headerSep = []byte("\r\n\r\n")

// Framer reassembles frame payloads out of an unbounded chunked byte stream.
// Each frame on the wire is a boundary token, header lines, a blank line,
// then raw payload. Chunks arrive at arbitrary sizes and split frames at
// arbitrary positions; the framer buffers unmatched bytes between calls so
// the emitted payload sequence is independent of chunk boundaries.
//
// The boundary token is not escaped against occurring inside payload bytes.
// That ambiguity is inherent to the wire format and accepted; a corrupted
// split produces a payload that fails size validation downstream.
//
// Feed and Reset belong to one ingestion goroutine; the trim counter is
// atomic so stats surfaces may read it from other goroutines.
type Framer struct {
	boundary  []byte
	maxBuffer int
	buf       []byte
	trims     atomic.Uint64
	log       logger.Logger
}

// New creates a framer for the given boundary token. maxBuffer caps the
// reassembly buffer; two maximum frame sizes leaves room for one in-flight
// frame plus one being delimited.
func New(boundary string, maxBuffer int, log logger.Logger) *Framer {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Framer{
		boundary:  []byte(boundary),
		maxBuffer: maxBuffer,
		log:       log,
	}
}

// Feed appends a chunk and returns every complete frame payload now
// delimited. Extraction runs before the overflow check, so fully delimited
// frames are always delivered; only the undelimited tail is subject to the
// ceiling. Returned slices are copies; the caller may retain them.
func (f *Framer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var payloads [][]byte
	for {
		idx := bytes.Index(f.buf, f.boundary)
		if idx < 0 {
			break
		}
		segment := f.buf[:idx]
		f.buf = f.buf[idx+len(f.boundary):]

		if hdrEnd := bytes.Index(segment, headerSep); hdrEnd >= 0 {
			payload := make([]byte, len(segment)-hdrEnd-len(headerSep))
			copy(payload, segment[hdrEnd+len(headerSep):])
			payloads = append(payloads, payload)
		}
	}

	if len(f.buf) > f.maxBuffer {
		f.trim()
	}

	metrics.SetBufferBytes(len(f.buf))
	return payloads
}

// trim bounds memory during producer/consumer stalls. It only ever sees the
// undelimited tail left after extraction, which holds no boundary token: a
// partial frame that outgrew the ceiling is noise, so the buffer is cleared.
// Only in-flight partial frames are lost, never completed ones.
func (f *Framer) trim() {
	before := len(f.buf)
	f.buf = f.buf[:0]

	f.trims.Add(1)
	metrics.BufferTrimmed(0)
	f.log.WithError(errors.NewBufferOverflow(before, f.maxBuffer)).
		Warn("Reassembly buffer cleared")
}

// Buffered returns the number of bytes held for the next Feed call.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Trims returns the number of overflow trims since creation or Reset. Safe
// to call from any goroutine.
func (f *Framer) Trims() uint64 {
	return f.trims.Load()
}

// Reset discards all buffered bytes and counters, for reuse across
// reconnects.
func (f *Framer) Reset() {
	f.buf = nil
	f.trims.Store(0)
}
