package ingestion

import (
	"sync"
	"time"

	"github.com/viefmoon/rawstream/internal/metrics"
)

// Stats is the session statistics surface exposed to the consumer.
type Stats struct {
	FramesPerSecond float64 `json:"frames_per_second"`
	DroppedFrames   uint64  `json:"dropped_frames"`
	PinnedFormat    string  `json:"pinned_format"`
	FramesReceived  uint64  `json:"frames_received"`
	BytesReceived   uint64  `json:"bytes_received"`
	Reconnects      uint64  `json:"reconnects"`
	BufferTrims     uint64  `json:"buffer_trims"`
	State           string  `json:"state"`
}

// statsTracker maintains the rolling frames-per-second measurement: frames
// are counted per elapsed wall-clock second, the way the viewfinder reports
// FPS. The clock is injectable for tests.
type statsTracker struct {
	mu sync.Mutex

	frames     uint64
	bytes      uint64
	reconnects uint64

	windowStart  time.Time
	windowFrames int
	fps          float64

	now func() time.Time
}

func newStatsTracker() *statsTracker {
	return &statsTracker{now: time.Now}
}

func (t *statsTracker) frameReceived() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.windowStart.IsZero() {
		t.windowStart = now
	}

	t.frames++
	t.windowFrames++

	if elapsed := now.Sub(t.windowStart); elapsed >= time.Second {
		t.fps = float64(t.windowFrames) / elapsed.Seconds()
		t.windowFrames = 0
		t.windowStart = now
		metrics.SetFPS(t.fps)
	}
}

func (t *statsTracker) bytesReceived(n int) {
	t.mu.Lock()
	t.bytes += uint64(n)
	t.mu.Unlock()
}

func (t *statsTracker) reconnected() {
	t.mu.Lock()
	t.reconnects++
	t.mu.Unlock()
}

// fpsStaleAfter bounds how long a computed FPS value survives without new
// frames. A stalled stream reports 0 instead of the last rate forever.
const fpsStaleAfter = 2 * time.Second

func (t *statsTracker) snapshot() (fps float64, frames, bytes, reconnects uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fps = t.fps
	if t.windowStart.IsZero() || t.now().Sub(t.windowStart) > fpsStaleAfter {
		fps = 0
	}
	return fps, t.frames, t.bytes, t.reconnects
}
