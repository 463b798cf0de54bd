package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Sensor   SensorConfig   `mapstructure:"sensor"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SensorConfig declares the frame geometry and byte interpretation. The
// sensor sends no metadata on the wire, so dimensions and format are decided
// here, out of band.
type SensorConfig struct {
	Width  uint32 `mapstructure:"width"`
	Height uint32 `mapstructure:"height"`
	// Format names a catalog entry, or "auto" to detect from byte counts.
	Format string `mapstructure:"format"`
	// FallbackFormat is decoded when auto-detection matches nothing.
	FallbackFormat string `mapstructure:"fallback_format"`
	// DetectionTolerance is the byte-count slack allowed when matching a
	// payload against a catalog entry (trailer/padding bytes).
	DetectionTolerance int `mapstructure:"detection_tolerance"`
}

type StreamConfig struct {
	// URL of the multipart frame stream, e.g. http://192.168.1.100:80/stream
	URL            string        `mapstructure:"url"`
	Boundary       string        `mapstructure:"boundary"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MinFragment is the smallest payload length considered a plausible
	// frame; anything below is dropped as noise.
	MinFragment int           `mapstructure:"min_fragment"`
	Backoff     BackoffConfig `mapstructure:"backoff"`
}

type BackoffConfig struct {
	Strategy     string        `mapstructure:"strategy"` // linear or exponential
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	// MaxRetries of 0 retries forever; the session only stops when told to.
	MaxRetries int `mapstructure:"max_retries"`
}

type ConsumerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SaveDir, when set, receives a raw dump of each consumed payload.
	SaveDir string `mapstructure:"save_dir"`
}

type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("RAWSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Sensor defaults: IMX662 full readout
	viper.SetDefault("sensor.width", 1936)
	viper.SetDefault("sensor.height", 1100)
	viper.SetDefault("sensor.format", "auto")
	viper.SetDefault("sensor.fallback_format", "rgb888")
	viper.SetDefault("sensor.detection_tolerance", 1000)

	// Stream defaults
	viper.SetDefault("stream.url", "http://192.168.1.100:80/stream")
	viper.SetDefault("stream.boundary", "--raw_frame_boundary")
	viper.SetDefault("stream.chunk_size", 131072)
	viper.SetDefault("stream.connect_timeout", "10s")
	viper.SetDefault("stream.min_fragment", 1000)
	viper.SetDefault("stream.backoff.strategy", "linear")
	viper.SetDefault("stream.backoff.initial_delay", "500ms")
	viper.SetDefault("stream.backoff.max_delay", "10s")
	viper.SetDefault("stream.backoff.multiplier", 2.0)
	viper.SetDefault("stream.backoff.max_retries", 0) // retry forever

	// Consumer defaults
	viper.SetDefault("consumer.poll_interval", "10ms")
	viper.SetDefault("consumer.save_dir", "")

	// API defaults
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.addr", ":8080")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)
}
