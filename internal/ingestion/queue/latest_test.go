package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viefmoon/rawstream/internal/raw"
)

func frameWithID(id byte) *raw.Frame {
	return &raw.Frame{Data: []byte{id}, Dims: raw.Dimensions{Width: 1, Height: 1}}
}

func TestLatestQueue_LastWriteWins(t *testing.T) {
	q := NewLatestQueue()

	q.Push(frameWithID(1))
	q.Push(frameWithID(2))
	q.Push(frameWithID(3))

	got, ok := q.PullLatest()
	require.True(t, ok)
	assert.Equal(t, byte(3), got.Data[0], "only the newest frame is delivered")
	assert.Equal(t, uint64(2), q.Dropped(), "the two overwritten frames count as dropped")

	// F1 and F2 are gone for good.
	_, ok = q.PullLatest()
	assert.False(t, ok)
}

func TestLatestQueue_PullEmptyIsNonBlocking(t *testing.T) {
	q := NewLatestQueue()

	f, ok := q.PullLatest()
	assert.False(t, ok)
	assert.Nil(t, f)
	assert.Equal(t, uint64(0), q.Dropped())
}

func TestLatestQueue_PullClearsSlot(t *testing.T) {
	q := NewLatestQueue()
	q.Push(frameWithID(7))

	_, ok := q.PullLatest()
	require.True(t, ok)
	_, ok = q.PullLatest()
	assert.False(t, ok, "a delivered frame is not delivered twice")
}

func TestLatestQueue_DeliveredFramesNotDropped(t *testing.T) {
	q := NewLatestQueue()

	for i := byte(0); i < 10; i++ {
		q.Push(frameWithID(i))
		got, ok := q.PullLatest()
		require.True(t, ok)
		assert.Equal(t, i, got.Data[0])
	}
	assert.Equal(t, uint64(0), q.Dropped())
}

func TestLatestQueue_Reset(t *testing.T) {
	q := NewLatestQueue()
	q.Push(frameWithID(1))
	q.Push(frameWithID(2))

	q.Reset()
	assert.Equal(t, uint64(0), q.Dropped())
	_, ok := q.PullLatest()
	assert.False(t, ok)
}

func TestLatestQueue_ConcurrentPushPull(t *testing.T) {
	q := NewLatestQueue()
	const pushes = 1000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < pushes; i++ {
			q.Push(frameWithID(byte(i)))
		}
	}()

	delivered := 0
	go func() {
		defer wg.Done()
		for i := 0; i < pushes; i++ {
			if _, ok := q.PullLatest(); ok {
				delivered++
			}
		}
	}()

	wg.Wait()

	// Every pushed frame was either delivered or counted dropped, with at
	// most one still sitting in the slot.
	remaining := 0
	if _, ok := q.PullLatest(); ok {
		remaining = 1
	}
	assert.Equal(t, pushes, delivered+int(q.Dropped())+remaining)
}
