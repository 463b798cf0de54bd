package pipeline

import (
	"context"

	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/raw"
)

// ColorPipeline consumes decoded pixel grids. Demosaicing, white balance,
// gamma and enhancement live behind this interface in the display layer;
// the ingestion side only promises a grid with exact declared dimensions
// and samples within the grid's native bit depth.
type ColorPipeline interface {
	Process(ctx context.Context, grid *raw.PixelGrid) error
}

// Func adapts a plain function to a ColorPipeline.
type Func func(ctx context.Context, grid *raw.PixelGrid) error

// Process implements ColorPipeline.
func (f Func) Process(ctx context.Context, grid *raw.PixelGrid) error {
	return f(ctx, grid)
}

// LogSink is a ColorPipeline that reports grid shape and sample range. It
// stands in for a real display pipeline in headless runs and in the file
// one-shot mode.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &LogSink{log: log}
}

// Process implements ColorPipeline.
func (s *LogSink) Process(_ context.Context, grid *raw.PixelGrid) error {
	entry := s.log.WithFields(logger.Fields{
		"width":     grid.Width,
		"height":    grid.Height,
		"bit_depth": grid.BitDepth,
		"color":     grid.IsColor(),
	})

	if !grid.IsColor() {
		min, max := sampleRange(grid.Samples)
		entry = entry.WithFields(logger.Fields{
			"sample_min": min,
			"sample_max": max,
		})
		if int(max) > grid.MaxValue()*9/10 {
			entry.Warn("Frame near saturation, possibly overexposed")
			return nil
		}
	}

	entry.Debug("Frame processed")
	return nil
}

func sampleRange(samples []uint16) (min, max uint16) {
	if len(samples) == 0 {
		return 0, 0
	}
	min, max = samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}
