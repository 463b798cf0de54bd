package config

import (
	"fmt"
	"strings"

	"github.com/viefmoon/rawstream/internal/raw"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Sensor.Validate(); err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	if c.Consumer.PollInterval <= 0 {
		return fmt.Errorf("consumer: poll_interval must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics: invalid port %d", c.Metrics.Port)
	}
	return nil
}

// Validate checks the sensor geometry against the declared format. A width
// that does not divide into the format's pixel group is a configuration
// error, never a runtime one.
func (s *SensorConfig) Validate() error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.DetectionTolerance < 0 {
		return fmt.Errorf("detection_tolerance must not be negative")
	}

	if s.Format != raw.FormatNameAuto {
		format, err := raw.ParseFormat(s.Format)
		if err != nil {
			return err
		}
		if s.Width%uint32(format.PixelsPerGroup()) != 0 {
			return fmt.Errorf("width %d is not a multiple of the %s pixel group (%d)",
				s.Width, format, format.PixelsPerGroup())
		}
	} else if s.Width%4 != 0 {
		// Auto mode may land on any packed format, so the strictest group
		// size applies.
		return fmt.Errorf("width %d must be a multiple of 4 for auto format detection", s.Width)
	}

	fallback, err := raw.ParseFormat(s.FallbackFormat)
	if err != nil {
		return fmt.Errorf("fallback_format: %w", err)
	}
	if s.Width%uint32(fallback.PixelsPerGroup()) != 0 {
		return fmt.Errorf("width %d is not a multiple of the fallback %s pixel group (%d)",
			s.Width, fallback, fallback.PixelsPerGroup())
	}
	return nil
}

// Dimensions returns the configured frame dimensions.
func (s *SensorConfig) Dimensions() raw.Dimensions {
	return raw.Dimensions{Width: s.Width, Height: s.Height}
}

func (s *StreamConfig) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("url must be set")
	}
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return fmt.Errorf("url must be http or https, got %q", s.URL)
	}
	if s.Boundary == "" {
		return fmt.Errorf("boundary must be set")
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if s.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if s.MinFragment < 0 {
		return fmt.Errorf("min_fragment must not be negative")
	}
	return s.Backoff.Validate()
}

func (b *BackoffConfig) Validate() error {
	switch b.Strategy {
	case "linear", "exponential":
	default:
		return fmt.Errorf("backoff strategy must be linear or exponential, got %q", b.Strategy)
	}
	if b.InitialDelay <= 0 {
		return fmt.Errorf("backoff initial_delay must be positive")
	}
	if b.Strategy == "exponential" {
		if b.MaxDelay < b.InitialDelay {
			return fmt.Errorf("backoff max_delay must be >= initial_delay")
		}
		if b.Multiplier < 1.0 {
			return fmt.Errorf("backoff multiplier must be >= 1.0")
		}
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("backoff max_retries must not be negative")
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid level %q", l.Level)
	}
	switch l.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text, got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("output must be set")
	}
	return nil
}
