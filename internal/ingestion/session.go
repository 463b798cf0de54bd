package ingestion

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/viefmoon/rawstream/internal/errors"
	"github.com/viefmoon/rawstream/internal/ingestion/framer"
	"github.com/viefmoon/rawstream/internal/ingestion/queue"
	"github.com/viefmoon/rawstream/internal/ingestion/reconnect"
	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/metrics"
	"github.com/viefmoon/rawstream/internal/raw"
)

// State tracks where the session is in its connection lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateBackoff
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SessionConfig carries everything a Session needs to run one stream.
type SessionConfig struct {
	URL            string
	Boundary       string
	Dims           raw.Dimensions
	Format         raw.Format // FormatUnknown enables size-based detection
	FallbackFormat raw.Format
	Tolerance      int
	ChunkSize      int
	ConnectTimeout time.Duration
	MinFragment    int
	MaxBuffer      int // 0 defaults to 2x the largest catalog frame size
}

// Session owns the ingest half of the pipeline: it connects to the camera's
// HTTP stream, feeds chunks through the framer, validates and pins the frame
// format, and publishes frames to the latest-frame queue. On transport errors
// it reconnects according to the backoff strategy; the format pin is
// per-connection and is re-established after every reconnect.
type Session struct {
	cfg      SessionConfig
	client   *http.Client
	framer   *framer.Framer
	queue    *queue.LatestQueue
	detector *raw.Detector
	strategy reconnect.Strategy
	log      logger.Logger
	sampled  *logger.SampledLogger

	state atomic.Int32
	stats *statsTracker

	mu     sync.Mutex
	pinned raw.Format

	cancel context.CancelFunc
	done   chan struct{}

	// timeAfter is swapped out in tests so backoff waits don't burn
	// wall-clock time.
	timeAfter func(time.Duration) <-chan time.Time
}

// NewSession wires a session against the given queue. The strategy decides
// reconnect pacing; pass nil to retry forever at a fixed half-second delay.
func NewSession(cfg SessionConfig, strategy reconnect.Strategy, q *queue.LatestQueue, log logger.Logger) *Session {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 128 * 1024
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = 2 * raw.MaxFrameSize(cfg.Dims)
	}
	if strategy == nil {
		strategy = reconnect.NewLinearBackoff(500*time.Millisecond, 0)
	}

	sampled := logger.NewSampledLogger(log)
	sampled.WithSampler("fragment", 5*time.Second)
	sampled.WithSampler("short_payload", 5*time.Second)
	sampled.WithSampler("unknown_size", 5*time.Second)
	sampled.WithSampler("stats", time.Second)

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	client := &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: cfg.ConnectTimeout,
		},
	}

	s := &Session{
		cfg:       cfg,
		client:    client,
		framer:    framer.New(cfg.Boundary, cfg.MaxBuffer, log),
		queue:     q,
		detector:  raw.NewDetector(cfg.Dims, cfg.Tolerance),
		strategy:  strategy,
		log:       log.WithField("component", "session"),
		sampled:   sampled,
		stats:     newStatsTracker(),
		timeAfter: time.After,
	}
	s.state.Store(int32(StateIdle))
	return s
}

// Start launches the session loop. It returns immediately; use Stop or
// cancel the context to shut down.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.run(ctx)
	}()
}

// Stop cancels the session and waits for the loop to exit.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// PinnedFormat returns the format locked in for the current connection, or
// FormatUnknown when no valid payload has arrived yet.
func (s *Session) PinnedFormat() raw.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinned
}

// Stats returns a point-in-time snapshot of session counters.
func (s *Session) Stats() Stats {
	fps, frames, bytes, reconnects := s.stats.snapshot()
	return Stats{
		FramesPerSecond: fps,
		DroppedFrames:   s.queue.Dropped(),
		PinnedFormat:    s.PinnedFormat().String(),
		FramesReceived:  frames,
		BytesReceived:   bytes,
		Reconnects:      reconnects,
		BufferTrims:     s.framer.Trims(),
		State:           s.State().String(),
	}
}

func (s *Session) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.setState(StateStopped)
			return
		}

		s.setState(StateConnecting)
		err := s.connectAndStream(ctx)
		if ctx.Err() != nil {
			s.setState(StateStopped)
			return
		}
		if err != nil {
			s.log.WithError(err).Warn("Stream connection lost")
		}

		delay, ok := s.strategy.NextDelay()
		if !ok {
			s.log.Error("Reconnect attempts exhausted, giving up")
			s.setState(StateStopped)
			return
		}

		s.setState(StateBackoff)
		s.stats.reconnected()
		metrics.Reconnect()
		s.log.WithField("retry_in", delay.String()).Info("Reconnecting to stream")

		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		case <-s.timeAfter(delay):
		}
	}
}

// connectAndStream runs a single connection lifetime: connect, reset the
// per-connection state, then read chunks until the transport fails or the
// context is cancelled.
func (s *Session) connectAndStream(ctx context.Context) error {
	connID := uuid.New().String()[:8]
	log := s.log.WithField("conn_id", connID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return errors.WrapTransport(err, "build stream request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WrapTransport(err, "connect stream")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrorTypeTransport, "stream returned status "+resp.Status)
	}

	// Fresh connection: clear any partial data from the previous one and
	// re-arm detection so a camera reconfiguration is picked up.
	s.framer.Reset()
	s.resetPin()
	s.strategy.Reset()
	s.setState(StateConnected)
	log.WithField("url", s.cfg.URL).Info("Stream connected")

	start := time.Now()
	defer func() {
		metrics.ConnectionClosed(time.Since(start).Seconds())
	}()

	buf := make([]byte, s.cfg.ChunkSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			s.stats.bytesReceived(n)
			metrics.BytesReceived(n)
			for _, payload := range s.framer.Feed(buf[:n]) {
				s.handlePayload(payload, connID)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.WrapTransport(err, "stream read")
		}
	}
}

// handlePayload validates one extracted payload against the catalog sizes,
// pins the format on the first valid frame, and publishes to the queue.
// Every payload must sit within tolerance of a catalog expected size; the
// single exception is the first frame of a connection whose size matches
// nothing, which is delivered as the configured fallback format rather than
// failing. Once a format is pinned, unmatched sizes are corruption (a bad
// boundary split merging frames) and are rejected.
func (s *Session) handlePayload(payload []byte, connID string) {
	detected, ok := s.detector.Detect(len(payload))
	if s.cfg.Format != raw.FormatUnknown {
		detected = s.cfg.Format
		ok = absDiff(len(payload), detected.FrameSize(s.cfg.Dims)) <= s.cfg.Tolerance
	}

	accepted := ok
	s.mu.Lock()
	if s.pinned == raw.FormatUnknown {
		switch {
		case ok:
			s.pinned = detected
			metrics.SetPinnedFormat(detected.String())
			s.log.WithFields(logger.Fields{
				"format":     detected.String(),
				"frame_size": len(payload),
			}).Info("Frame format pinned")
		case len(payload) >= s.cfg.MinFragment:
			// Frame-sized but matches nothing in the catalog: assume
			// the configured fallback rather than stalling the stream.
			// A declared format beats the generic fallback here.
			fallback := s.cfg.FallbackFormat
			if s.cfg.Format != raw.FormatUnknown {
				fallback = s.cfg.Format
			}
			s.pinned = fallback
			accepted = true
			metrics.SetPinnedFormat(s.pinned.String())
			s.log.WithFields(logger.Fields{
				"byte_count": len(payload),
				"fallback":   fallback.String(),
			}).Warn("Unrecognized frame size, assuming fallback format")
		}
	}
	pinned := s.pinned
	s.mu.Unlock()

	if pinned == raw.FormatUnknown || len(payload) < s.cfg.MinFragment {
		if entry := s.sampled.Entry("fragment"); entry != nil {
			entry.WithField("byte_count", len(payload)).Debug("Dropping sub-frame fragment")
		}
		metrics.PayloadRejected("fragment")
		return
	}

	if !accepted {
		if entry := s.sampled.Entry("unknown_size"); entry != nil {
			entry.WithFields(logger.Fields{
				"byte_count": len(payload),
				"format":     pinned.String(),
			}).Warn("Payload matches no catalog frame size")
		}
		metrics.PayloadRejected("unknown_size")
		return
	}

	need := pinned.FrameSize(s.cfg.Dims)
	if len(payload) < need {
		if entry := s.sampled.Entry("short_payload"); entry != nil {
			entry.WithFields(logger.Fields{
				"byte_count": len(payload),
				"expected":   need,
				"format":     pinned.String(),
			}).Warn("Payload shorter than pinned frame size")
		}
		metrics.PayloadRejected("short")
		return
	}

	frame := &raw.Frame{
		Data:       payload,
		Dims:       s.cfg.Dims,
		Format:     pinned,
		ReceivedAt: time.Now(),
		ConnID:     connID,
	}
	s.queue.Push(frame)
	s.stats.frameReceived()
	metrics.FrameExtracted(pinned.String())

	if entry := s.sampled.Entry("stats"); entry != nil {
		fps, frames, bytes, _ := s.stats.snapshot()
		entry.WithFields(logger.Fields{
			"fps":     fps,
			"frames":  frames,
			"bytes":   bytes,
			"dropped": s.queue.Dropped(),
			"format":  pinned.String(),
		}).Debug("Stream statistics")
	}
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func (s *Session) resetPin() {
	s.mu.Lock()
	s.pinned = raw.FormatUnknown
	s.mu.Unlock()
	metrics.SetPinnedFormat("")
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}
