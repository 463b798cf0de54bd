package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	framesExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rawstream_frames_extracted_total",
		Help: "Frame payloads extracted from the multipart stream",
	}, []string{"format"})

	framesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rawstream_frames_dropped_total",
		Help: "Frames overwritten in the hand-off queue before delivery",
	})

	payloadsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rawstream_payloads_rejected_total",
		Help: "Extracted payloads rejected before decoding",
	}, []string{"reason"})

	bytesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rawstream_bytes_received_total",
		Help: "Raw bytes read from the stream transport",
	})

	framesPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rawstream_frames_per_second",
		Help: "Frames extracted per wall-clock second",
	})

	pinnedFormatInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rawstream_pinned_format",
		Help: "1 for the format pinned on the current connection",
	}, []string{"format"})

	// Framer metrics
	framerBufferTrimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rawstream_framer_buffer_trims_total",
		Help: "Reassembly buffer trims after exceeding the ceiling",
	})

	framerBufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rawstream_framer_buffer_bytes",
		Help: "Bytes currently held in the reassembly buffer",
	})

	// Decode metrics
	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rawstream_decode_errors_total",
		Help: "Frame decode failures by error type",
	}, []string{"error_type"})

	framesDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rawstream_frames_decoded_total",
		Help: "Frames decoded to pixel grids",
	}, []string{"format"})

	// Connection metrics
	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rawstream_reconnects_total",
		Help: "Stream reconnection attempts",
	})

	connectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rawstream_connection_duration_seconds",
		Help:    "Duration of stream connections in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1s to ~16k seconds
	})
)

// FrameExtracted records an accepted payload for a format.
func FrameExtracted(format string) {
	framesExtractedTotal.WithLabelValues(format).Inc()
}

// FrameDropped records a queue overwrite.
func FrameDropped() {
	framesDroppedTotal.Inc()
}

// PayloadRejected records a rejected payload with the reason.
func PayloadRejected(reason string) {
	payloadsRejectedTotal.WithLabelValues(reason).Inc()
}

// BytesReceived adds to the transport byte counter.
func BytesReceived(n int) {
	bytesReceivedTotal.Add(float64(n))
}

// SetPinnedFormat publishes the format pinned on the current connection.
// An empty format clears the gauge (no pin yet).
func SetPinnedFormat(format string) {
	pinnedFormatInfo.Reset()
	if format != "" {
		pinnedFormatInfo.WithLabelValues(format).Set(1)
	}
}

// SetFPS publishes the rolling frames-per-second measurement.
func SetFPS(fps float64) {
	framesPerSecond.Set(fps)
}

// BufferTrimmed records an overflow trim and the resulting buffer size.
func BufferTrimmed(remaining int) {
	framerBufferTrimsTotal.Inc()
	framerBufferBytes.Set(float64(remaining))
}

// SetBufferBytes publishes the reassembly buffer occupancy.
func SetBufferBytes(n int) {
	framerBufferBytes.Set(float64(n))
}

// DecodeError records a decode failure by taxonomy type.
func DecodeError(errorType string) {
	decodeErrorsTotal.WithLabelValues(errorType).Inc()
}

// FrameDecoded records a successful decode for a format.
func FrameDecoded(format string) {
	framesDecodedTotal.WithLabelValues(format).Inc()
}

// Reconnect records a reconnection attempt.
func Reconnect() {
	reconnectsTotal.Inc()
}

// ConnectionClosed records the duration of a finished connection.
func ConnectionClosed(seconds float64) {
	connectionDuration.Observe(seconds)
}
