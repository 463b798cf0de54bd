package queue

import (
	"sync"

	"github.com/viefmoon/rawstream/internal/metrics"
	"github.com/viefmoon/rawstream/internal/raw"
)

// LatestQueue is the hand-off point between the ingestion goroutine and the
// consumer: a single slot holding the most recently produced frame. Push
// overwrites an undelivered frame rather than queueing behind it, so the
// producer never blocks on a slow consumer and the consumer never receives
// stale data. Overwritten frames are counted as dropped and are never
// delivered.
//
// This is deliberately not a FIFO: delivering in arrival order would trade
// the latency guarantee for completeness, which is the wrong trade for a
// live viewfinder.
type LatestQueue struct {
	mu      sync.Mutex
	slot    *raw.Frame
	dropped uint64
}

// NewLatestQueue creates an empty queue.
func NewLatestQueue() *LatestQueue {
	return &LatestQueue{}
}

// Push stores the frame as the newest available, overwriting any undelivered
// predecessor. Never blocks.
func (q *LatestQueue) Push(f *raw.Frame) {
	q.mu.Lock()
	if q.slot != nil {
		q.dropped++
		metrics.FrameDropped()
	}
	q.slot = f
	q.mu.Unlock()
}

// PullLatest takes the newest frame and clears the slot. The second return
// is false when nothing new arrived since the last pull; the consumer keeps
// showing its previous frame instead of waiting.
func (q *LatestQueue) PullLatest() (*raw.Frame, bool) {
	q.mu.Lock()
	f := q.slot
	q.slot = nil
	q.mu.Unlock()
	return f, f != nil
}

// Dropped returns the number of frames overwritten before delivery.
func (q *LatestQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Reset clears the slot and the dropped counter, for reuse across stream
// sessions.
func (q *LatestQueue) Reset() {
	q.mu.Lock()
	q.slot = nil
	q.dropped = 0
	q.mu.Unlock()
}
