package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/micscribe/micscribe/internal/audio"
	"github.com/micscribe/micscribe/internal/capture"
	"github.com/micscribe/micscribe/internal/metrics"
	"github.com/micscribe/micscribe/internal/transcribe"
)

// Player is an optional audio playback surface. Starting a recording stops
// any playback first so the microphone does not pick up our own output.
type Player interface {
	Playing() bool
	Stop()
}

// SourceFactory opens a capture source for a new session.
type SourceFactory func() (capture.Source, error)

// ControllerConfig contains recording controller dependencies.
type ControllerConfig struct {
	SampleRate      int
	BufferDuration  time.Duration
	ChunkDuration   time.Duration
	FramesPerBuffer int
	OutputDir       string
	OpenSource      SourceFactory
	Queue           *transcribe.Queue
	Player          Player
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Status is a point-in-time view of the controller for the HTTP API.
type Status struct {
	Recording  bool      `json:"recording"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	QueueDepth int       `json:"queue_depth"`
}

// session holds per-recording state. A new one is built for every Start so
// sessions never share buffers.
type session struct {
	engine    *capture.Engine
	path      string
	startedAt time.Time
	watched   chan struct{}
}

// Controller serializes recording lifecycle transitions. Start and Stop are
// safe to call from concurrent HTTP handlers.
type Controller struct {
	sampleRate      int
	bufferDuration  time.Duration
	chunkDuration   time.Duration
	framesPerBuffer int
	outputDir       string
	openSource      SourceFactory
	queue           *transcribe.Queue
	player          Player
	logger          *slog.Logger
	metrics         *metrics.Metrics

	mu      sync.Mutex
	current *session
}

// NewController creates a recording controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.BufferDuration <= 0 {
		return nil, fmt.Errorf("buffer duration must be positive, got %v", cfg.BufferDuration)
	}
	if cfg.ChunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", cfg.ChunkDuration)
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", cfg.FramesPerBuffer)
	}
	if cfg.OpenSource == nil {
		return nil, fmt.Errorf("source factory cannot be nil")
	}
	if cfg.Queue == nil {
		return nil, fmt.Errorf("transcription queue cannot be nil")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	return &Controller{
		sampleRate:      cfg.SampleRate,
		bufferDuration:  cfg.BufferDuration,
		chunkDuration:   cfg.ChunkDuration,
		framesPerBuffer: cfg.FramesPerBuffer,
		outputDir:       cfg.OutputDir,
		openSource:      cfg.OpenSource,
		queue:           cfg.Queue,
		player:          cfg.Player,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
	}, nil
}

// Start begins a new recording session. It fails if one is already running.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return fmt.Errorf("recording already in progress (started %s)",
			c.current.startedAt.Format(time.RFC3339))
	}

	if c.player != nil && c.player.Playing() {
		c.logger.Info("Stopping playback before recording")
		c.player.Stop()
	}

	source, err := c.openSource()
	if err != nil {
		return fmt.Errorf("failed to open audio source: %w", err)
	}

	ringCapacity := int(c.bufferDuration.Seconds() * float64(c.sampleRate))
	ring := audio.NewRing(ringCapacity)

	segmenter, err := audio.NewSegmenter(c.sampleRate, c.chunkDuration, func(chunk audio.Chunk) {
		c.metrics.RecordChunkEmitted(len(chunk.Samples))
		c.queue.Enqueue(chunk)
	})
	if err != nil {
		source.Close()
		return fmt.Errorf("failed to create segmenter: %w", err)
	}

	now := time.Now()
	path := filepath.Join(c.outputDir, now.Format("recording_20060102_150405.wav"))
	sink := audio.FileSink{Path: path, SampleRate: c.sampleRate}

	engine, err := capture.NewEngine(capture.EngineConfig{
		Source:    source,
		Ring:      ring,
		Segmenter: segmenter,
		Sink:      sink,
		BatchSize: c.framesPerBuffer,
		Logger:    c.logger,
		Metrics:   c.metrics,
	})
	if err != nil {
		source.Close()
		return fmt.Errorf("failed to create capture engine: %w", err)
	}

	sess := &session{
		engine:    engine,
		path:      path,
		startedAt: now,
		watched:   make(chan struct{}),
	}
	if err := engine.Start(); err != nil {
		source.Close()
		return fmt.Errorf("failed to start capture engine: %w", err)
	}

	c.current = sess
	c.metrics.RecordRecordingStarted()
	c.logger.Info("Recording started",
		slog.String("output", path),
		slog.Int("ring_capacity", ringCapacity),
		slog.Duration("chunk_duration", c.chunkDuration),
	)

	go c.watch(sess)
	return nil
}

// Stop ends the active recording session and blocks until it is finalized.
// Stopping when idle is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()

	if sess == nil {
		c.logger.Debug("Stop requested with no active recording")
		return nil
	}

	if err := sess.engine.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture engine: %w", err)
	}
	<-sess.watched
	return nil
}

// Recording reports whether a session is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Status returns the current controller state for the HTTP API.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{QueueDepth: c.queue.Len()}
	if c.current != nil {
		status.Recording = true
		status.OutputPath = c.current.path
		status.StartedAt = c.current.startedAt
	}
	return status
}

// Close stops any active recording. Used during shutdown.
func (c *Controller) Close() error {
	return c.Stop()
}

// watch finalizes controller state when the session's engine exits, whether
// through Stop or a fatal device error.
func (c *Controller) watch(sess *session) {
	defer close(sess.watched)

	select {
	case err := <-sess.engine.Errors():
		c.logger.Error("Recording ended by device error",
			slog.String("output", sess.path),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordDeviceError()
	case <-sess.engine.Done():
	}
	<-sess.engine.Done()

	duration := time.Since(sess.startedAt)

	c.mu.Lock()
	if c.current == sess {
		c.current = nil
	}
	c.mu.Unlock()

	c.metrics.RecordRecordingCompleted(duration.Seconds())
	c.logger.Info("Recording session finalized",
		slog.String("output", sess.path),
		slog.Duration("duration", duration.Round(time.Millisecond)),
	)
}
