package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/micscribe/micscribe/internal/capture"
	"github.com/micscribe/micscribe/internal/config"
	"github.com/micscribe/micscribe/internal/metrics"
	"github.com/micscribe/micscribe/internal/recorder"
	"github.com/micscribe/micscribe/internal/server"
	"github.com/micscribe/micscribe/internal/transcribe"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "micscribe"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	recordNow := flag.Bool("record", false, "Start recording immediately")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("buffer_seconds", cfg.Audio.BufferSeconds),
		slog.Int("chunk_duration_ms", cfg.Audio.ChunkDurationMs),
		slog.String("model_path", cfg.Transcription.ModelPath),
		slog.Int("threads", cfg.Transcription.Threads),
		slog.String("output_dir", cfg.Recording.OutputDir),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Shared transcription state: the queue and worker outlive individual
	// recording sessions.
	queue := transcribe.NewQueue(appMetrics)
	threads, err := transcribe.NewThreadCount(cfg.Transcription.Threads)
	if err != nil {
		logger.Error("Invalid thread count", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load the whisper model. This can take a while for large models.
	logger.Info("Loading whisper model", slog.String("model", cfg.Transcription.ModelPath))
	engine, err := transcribe.NewWhisperEngine(transcribe.WhisperConfig{
		ModelPath: cfg.Transcription.ModelPath,
		Language:  cfg.Transcription.Language,
		Translate: cfg.Transcription.Translate,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to load whisper model", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer engine.Close()

	worker, err := transcribe.NewWorker(transcribe.WorkerConfig{
		Queue:        queue,
		Transcriber:  engine,
		Threads:      threads,
		PollInterval: cfg.Transcription.GetPollInterval(),
		Logger:       logger,
		Metrics:      appMetrics,
	})
	if err != nil {
		logger.Error("Failed to create transcription worker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	worker.Start()
	worker.SetEnabled(true)
	logger.Info("Transcription worker started",
		slog.Duration("poll_interval", cfg.Transcription.GetPollInterval()),
	)

	// Initialize recording controller
	controller, err := recorder.NewController(recorder.ControllerConfig{
		SampleRate:      cfg.Audio.SampleRate,
		BufferDuration:  cfg.Audio.GetBufferDuration(),
		ChunkDuration:   cfg.Audio.GetChunkDuration(),
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		OutputDir:       cfg.Recording.OutputDir,
		OpenSource: func() (capture.Source, error) {
			return capture.OpenDevice(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)
		},
		Queue:   queue,
		Logger:  logger,
		Metrics: appMetrics,
	})
	if err != nil {
		logger.Error("Failed to create recording controller", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Recording controller initialized",
		slog.String("output_dir", cfg.Recording.OutputDir),
	)

	// Consume transcription results into the transcript file. The goroutine
	// exits when the worker closes its results channel.
	var g errgroup.Group
	g.Go(func() error {
		return writeTranscript(cfg.Recording.TranscriptPath, worker.Results(), logger)
	})

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpConfig := server.HTTPServerConfig{
			Port:    cfg.HTTP.Port,
			Address: cfg.HTTP.Address,
		}
		httpServer = server.NewHTTPServer(httpConfig, logger, cfg, controller, worker, threads, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("HTTP API server started",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	if *recordNow {
		if err := controller.Start(); err != nil {
			logger.Error("Failed to start recording", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Finalize any active recording first so the WAV file is written.
	if err := controller.Close(); err != nil {
		logger.Error("Error stopping recording", slog.String("error", err.Error()))
	}

	// Stop HTTP server (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop the worker. Chunks still queued are abandoned; results already
	// produced are flushed by the transcript writer before it exits.
	pending := queue.Len()
	worker.Stop()
	if err := g.Wait(); err != nil {
		logger.Error("Error writing transcript", slog.String("error", err.Error()))
	}
	if pending > 0 {
		logger.Info("Shutdown abandoned queued chunks", slog.Int("pending", pending))
	}

	logger.Info("Service stopped")
}

// writeTranscript appends transcription results to the transcript file until
// the results channel closes. Failed chunks are logged and skipped.
func writeTranscript(path string, results <-chan transcribe.Result, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript file %s: %w", path, err)
	}
	defer file.Close()

	for result := range results {
		if result.Err != nil {
			logger.Warn("Skipping failed chunk in transcript",
				slog.String("chunk_id", result.ChunkID),
				slog.String("error", result.Err.Error()),
			)
			continue
		}
		line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), result.Text)
		if _, err := file.WriteString(line); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
	}
	return nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
