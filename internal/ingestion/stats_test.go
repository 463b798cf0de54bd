package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsTracker_FPSOverWallClockSecond(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := newStatsTracker()
	tracker.now = func() time.Time { return now }

	// 29 frames inside the first second: window still open, no FPS yet.
	for i := 0; i < 29; i++ {
		tracker.frameReceived()
		now = now.Add(33 * time.Millisecond)
	}
	fps, frames, _, _ := tracker.snapshot()
	assert.Zero(t, fps)
	assert.Equal(t, uint64(29), frames)

	// The 30th frame lands past the one second mark and closes the window.
	now = time.Unix(1001, 0).Add(10 * time.Millisecond)
	tracker.frameReceived()
	fps, frames, _, _ = tracker.snapshot()
	assert.InDelta(t, 30.0/1.01, fps, 0.5)
	assert.Equal(t, uint64(30), frames)
}

func TestStatsTracker_FPSGoesStaleAfterStall(t *testing.T) {
	now := time.Unix(1000, 0)
	tracker := newStatsTracker()
	tracker.now = func() time.Time { return now }

	// Close one full window so a real FPS value exists.
	for i := 0; i < 30; i++ {
		tracker.frameReceived()
		now = now.Add(35 * time.Millisecond)
	}
	// The 30th frame lands at 1.015s and closes the window.
	fps, _, _, _ := tracker.snapshot()
	assert.InDelta(t, 30.0/1.015, fps, 0.1)

	// Shortly after the last frame the value still stands.
	now = now.Add(time.Second)
	fps, _, _, _ = tracker.snapshot()
	assert.NotZero(t, fps)

	// A stalled stream must not report the last rate forever.
	now = now.Add(5 * time.Second)
	fps, _, _, _ = tracker.snapshot()
	assert.Zero(t, fps)
}

func TestStatsTracker_Counters(t *testing.T) {
	tracker := newStatsTracker()
	tracker.bytesReceived(1024)
	tracker.bytesReceived(512)
	tracker.reconnected()

	_, _, bytes, reconnects := tracker.snapshot()
	assert.Equal(t, uint64(1536), bytes)
	assert.Equal(t, uint64(1), reconnects)
}
