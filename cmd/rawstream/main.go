package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/viefmoon/rawstream/internal/config"
	"github.com/viefmoon/rawstream/internal/ingestion"
	"github.com/viefmoon/rawstream/internal/ingestion/pipeline"
	"github.com/viefmoon/rawstream/internal/ingestion/queue"
	"github.com/viefmoon/rawstream/internal/ingestion/reconnect"
	"github.com/viefmoon/rawstream/internal/logger"
	"github.com/viefmoon/rawstream/internal/raw"
	"github.com/viefmoon/rawstream/internal/server"
	"github.com/viefmoon/rawstream/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
		testFile    string
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&testFile, "file", "", "Decode a single .raw capture instead of streaming")
	flag.Parse()

	// Show version and exit if requested
	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting rawstream frame receiver")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	if testFile != "" {
		if err := runFile(cfg, testFile, log); err != nil {
			log.WithError(err).Fatal("File decode failed")
		}
		return
	}

	if err := runStream(cfg, log); err != nil {
		log.WithError(err).Fatal("Stream receiver error")
	}

	log.Info("Shutdown complete")
}

// runFile is the one-shot path: load a capture from disk, decode it with the
// configured geometry, and run it through the color pipeline once.
func runFile(cfg *config.Config, path string, log *logrus.Logger) error {
	format, err := sensorFormat(&cfg.Sensor)
	if err != nil {
		return err
	}

	frame, err := raw.ReadFile(path, cfg.Sensor.Dimensions(), format, cfg.Sensor.DetectionTolerance)
	if err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"path":   path,
		"format": frame.Format.String(),
		"bytes":  frame.Size(),
	}).Info("Capture loaded")

	grid, err := raw.Decode(frame)
	if err != nil {
		return err
	}

	sink := pipeline.NewLogSink(logger.NewLogrusAdapter(logger.WithComponent(log, "pipeline")))
	return sink.Process(context.Background(), grid)
}

// runStream is the continuous path: session ingesting into the latest-frame
// queue, consumer decoding out of it, API and metrics servers alongside.
func runStream(cfg *config.Config, log *logrus.Logger) error {
	format, err := sensorFormat(&cfg.Sensor)
	if err != nil {
		return err
	}
	fallback, err := raw.ParseFormat(cfg.Sensor.FallbackFormat)
	if err != nil {
		return err
	}

	strategy, err := reconnect.FromConfig(&cfg.Stream.Backoff)
	if err != nil {
		return err
	}

	rootLog := logger.NewLogrusAdapter(logrus.NewEntry(log))
	q := queue.NewLatestQueue()

	session := ingestion.NewSession(ingestion.SessionConfig{
		URL:            cfg.Stream.URL,
		Boundary:       cfg.Stream.Boundary,
		Dims:           cfg.Sensor.Dimensions(),
		Format:         format,
		FallbackFormat: fallback,
		Tolerance:      cfg.Sensor.DetectionTolerance,
		ChunkSize:      cfg.Stream.ChunkSize,
		ConnectTimeout: cfg.Stream.ConnectTimeout,
		MinFragment:    cfg.Stream.MinFragment,
	}, strategy, q, rootLog)

	sink := pipeline.NewLogSink(rootLog.WithField("component", "pipeline"))
	consumer := ingestion.NewConsumer(q, sink, cfg.Consumer.PollInterval, cfg.Consumer.SaveDir, rootLog)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Start metrics server if enabled
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, rootLog)
	}

	session.Start(ctx)
	defer session.Stop()

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(ctx)
	}()

	if cfg.API.Enabled {
		srv := server.New(&cfg.API, log, session)
		if err := srv.Start(ctx); err != nil {
			return err
		}
	} else {
		<-ctx.Done()
	}

	<-consumerErr
	return nil
}

// sensorFormat resolves the configured format name, where "auto" means
// detect from byte counts.
func sensorFormat(cfg *config.SensorConfig) (raw.Format, error) {
	if cfg.Format == raw.FormatNameAuto {
		return raw.FormatUnknown, nil
	}
	return raw.ParseFormat(cfg.Format)
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}
