package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viefmoon/rawstream/internal/ingestion/pipeline"
	"github.com/viefmoon/rawstream/internal/ingestion/queue"
	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/raw"
)

func raw8Frame(t *testing.T, seed byte) *raw.Frame {
	t.Helper()
	data := make([]byte, testDims.PixelCount())
	for i := range data {
		data[i] = seed + byte(i)
	}
	return &raw.Frame{
		Data:       data,
		Dims:       testDims,
		Format:     raw.FormatRaw8,
		ReceivedAt: time.Now(),
		ConnID:     "test",
	}
}

func TestConsumer_DecodesAndForwardsGrid(t *testing.T) {
	q := queue.NewLatestQueue()
	grids := make(chan *raw.PixelGrid, 1)
	sink := pipeline.Func(func(_ context.Context, g *raw.PixelGrid) error {
		select {
		case grids <- g:
		default:
		}
		return nil
	})

	c := NewConsumer(q, sink, time.Millisecond, "", &logger.NullLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	q.Push(raw8Frame(t, 10))

	select {
	case g := <-grids:
		assert.Equal(t, 4, g.Width)
		assert.Equal(t, 2, g.Height)
		assert.Equal(t, 10, g.BitDepth)
		// Raw8 widens to 10-bit range: sample = byte << 2.
		assert.Equal(t, uint16(10<<2), g.SampleAt(0, 0))
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never received a grid")
	}
}

func TestConsumer_SkipsUndecodableFrame(t *testing.T) {
	q := queue.NewLatestQueue()
	var calls int
	sink := pipeline.Func(func(_ context.Context, _ *raw.PixelGrid) error {
		calls++
		return nil
	})

	c := NewConsumer(q, sink, time.Millisecond, "", &logger.NullLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	// Frame claims raw8 but carries too few bytes to decode.
	q.Push(&raw.Frame{
		Data:   []byte{1, 2, 3},
		Dims:   testDims,
		Format: raw.FormatRaw8,
	})

	// Give the consumer a few poll cycles to pull and reject the frame.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls)
}

func TestConsumer_SavesRawDump(t *testing.T) {
	dir := t.TempDir()
	q := queue.NewLatestQueue()
	done := make(chan struct{}, 1)
	sink := pipeline.Func(func(_ context.Context, _ *raw.PixelGrid) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	c := NewConsumer(q, sink, time.Millisecond, dir, &logger.NullLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	frame := raw8Frame(t, 42)
	q.Push(frame)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame never consumed")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "frame_*_raw8.raw"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	saved, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, frame.Data, saved)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	q := queue.NewLatestQueue()
	c := NewConsumer(q, pipeline.NewLogSink(&logger.NullLogger{}), time.Millisecond, "", &logger.NullLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
