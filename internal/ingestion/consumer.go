package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/viefmoon/rawstream/internal/errors"
	"github.com/viefmoon/rawstream/internal/ingestion/pipeline"
	"github.com/viefmoon/rawstream/internal/ingestion/queue"
	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/metrics"
	"github.com/viefmoon/rawstream/internal/raw"
)

// Consumer is the display-side half of the pipeline. It polls the
// latest-frame queue, decodes to a pixel grid, and hands the grid to the
// color pipeline. When the queue is empty it simply waits for the next
// tick, so the downstream keeps whatever it rendered last. Decode errors
// skip the frame; nothing on this path is fatal.
type Consumer struct {
	queue    *queue.LatestQueue
	pipe     pipeline.ColorPipeline
	interval time.Duration
	saveDir  string
	log      logger.Logger

	frameNum uint64
}

// NewConsumer builds a consumer polling at the given interval. saveDir is
// optional; when set, every consumed payload is also written there as a
// numbered .raw dump.
func NewConsumer(q *queue.LatestQueue, pipe pipeline.ColorPipeline, interval time.Duration, saveDir string, log logger.Logger) *Consumer {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &Consumer{
		queue:    q,
		pipe:     pipe,
		interval: interval,
		saveDir:  saveDir,
		log:      log.WithField("component", "consumer"),
	}
}

// Run polls until the context is cancelled. Always returns nil or the
// context error.
func (c *Consumer) Run(ctx context.Context) error {
	if c.saveDir != "" {
		if err := os.MkdirAll(c.saveDir, 0755); err != nil {
			return fmt.Errorf("create save directory: %w", err)
		}
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, ok := c.queue.PullLatest()
			if !ok {
				continue
			}
			c.consume(ctx, frame)
		}
	}
}

func (c *Consumer) consume(ctx context.Context, frame *raw.Frame) {
	c.frameNum++

	if c.saveDir != "" {
		c.save(frame)
	}

	grid, err := raw.Decode(frame)
	if err != nil {
		errType := "unknown"
		if fe, ok := errors.GetFrameError(err); ok {
			errType = string(fe.Type)
		}
		metrics.DecodeError(errType)
		c.log.WithError(err).WithFields(logger.Fields{
			"frame":   c.frameNum,
			"format":  frame.Format.String(),
			"conn_id": frame.ConnID,
		}).Warn("Frame decode failed, skipping")
		return
	}
	metrics.FrameDecoded(frame.Format.String())

	if err := c.pipe.Process(ctx, grid); err != nil {
		c.log.WithError(err).WithField("frame", c.frameNum).Warn("Color pipeline rejected frame")
	}
}

func (c *Consumer) save(frame *raw.Frame) {
	name := fmt.Sprintf("frame_%06d_%s.raw", c.frameNum, frame.Format.String())
	path := filepath.Join(c.saveDir, name)
	if err := os.WriteFile(path, frame.Data, 0644); err != nil {
		c.log.WithError(err).WithField("path", path).Warn("Failed to save raw frame")
	}
}
