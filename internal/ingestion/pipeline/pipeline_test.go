package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viefmoon/rawstream/internal/raw"
)

func TestFunc_ImplementsColorPipeline(t *testing.T) {
	var got *raw.PixelGrid
	var p ColorPipeline = Func(func(_ context.Context, grid *raw.PixelGrid) error {
		got = grid
		return nil
	})

	grid := &raw.PixelGrid{Width: 4, Height: 2, BitDepth: 10, Samples: make([]uint16, 8)}
	require.NoError(t, p.Process(context.Background(), grid))
	assert.Same(t, grid, got)
}

func TestLogSink_ProcessesBayerAndColorGrids(t *testing.T) {
	sink := NewLogSink(nil)

	bayer := &raw.PixelGrid{
		Width: 4, Height: 2, BitDepth: 12,
		Samples: []uint16{0, 100, 2048, 512, 7, 99, 1000, 3},
	}
	assert.NoError(t, sink.Process(context.Background(), bayer))

	color := &raw.PixelGrid{
		Width: 4, Height: 2, BitDepth: 8,
		Pix: make([]uint8, 24),
	}
	assert.NoError(t, sink.Process(context.Background(), color))
}

func TestSampleRange(t *testing.T) {
	min, max := sampleRange([]uint16{512, 3, 4095, 80})
	assert.Equal(t, uint16(3), min)
	assert.Equal(t, uint16(4095), max)

	min, max = sampleRange(nil)
	assert.Equal(t, uint16(0), min)
	assert.Equal(t, uint16(0), max)
}
