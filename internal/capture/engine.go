package capture

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/micscribe/micscribe/internal/audio"
	"github.com/micscribe/micscribe/internal/metrics"
)

// State represents the capture engine lifecycle state.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// RecordingSink persists the final buffer contents of a capture session.
type RecordingSink interface {
	Encode(samples []int16) error
}

// EngineConfig contains everything a capture session needs. Ring and
// Segmenter are created fresh per session and are owned exclusively by the
// engine's capture goroutine once Start is called.
type EngineConfig struct {
	Source    Source
	Ring      *audio.Ring
	Segmenter *audio.Segmenter
	Sink      RecordingSink
	BatchSize int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Engine runs one capture session on a dedicated goroutine. The state machine
// is NotStarted -> Running -> Stopped and Stopped is terminal: a new engine is
// required per recording.
type Engine struct {
	source    Source
	ring      *audio.Ring
	segmenter *audio.Segmenter
	sink      RecordingSink
	logger    *slog.Logger
	metrics   *metrics.Metrics

	batch []int16
	state atomic.Int32

	stopping atomic.Bool
	done     chan struct{}
	errCh    chan error
}

// NewEngine creates a capture engine for a single recording session.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if cfg.Ring == nil {
		return nil, fmt.Errorf("ring buffer cannot be nil")
	}
	if cfg.Segmenter == nil {
		return nil, fmt.Errorf("segmenter cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("recording sink cannot be nil")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		source:    cfg.Source,
		ring:      cfg.Ring,
		segmenter: cfg.Segmenter,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		batch:     make([]int16, cfg.BatchSize),
		done:      make(chan struct{}),
		errCh:     make(chan error, 1),
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Errors returns a channel delivering at most one fatal DeviceError for the
// session. The session finalizes best-effort after the error is delivered.
func (e *Engine) Errors() <-chan error {
	return e.errCh
}

// Done is closed when the capture goroutine has fully exited and the
// recording has been finalized.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Start begins the capture loop on a dedicated goroutine. It fails if the
// engine was already started.
func (e *Engine) Start() error {
	if !e.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return fmt.Errorf("capture engine already started (state=%s)", e.State())
	}
	go e.run()
	return nil
}

// Stop requests cooperative termination and blocks until the capture
// goroutine has exited and the recording is finalized. Cancellation latency
// is bounded by one batch read. Stop is safe to call after a device error has
// already ended the loop.
func (e *Engine) Stop() error {
	if e.State() == StateNotStarted {
		return fmt.Errorf("capture engine not started")
	}
	e.stopping.Store(true)
	<-e.done
	return nil
}

// run is the capture loop. It owns Ring and Segmenter exclusively; no other
// goroutine touches them until Done is closed.
func (e *Engine) run() {
	defer close(e.done)
	defer e.state.Store(int32(StateStopped))

	e.logger.Debug("Capture loop started",
		slog.Int("batch_size", len(e.batch)),
		slog.Int("ring_capacity", e.ring.Capacity()),
		slog.Int("chunk_size", e.segmenter.ChunkSize()),
	)

	for !e.stopping.Load() {
		n, err := e.source.Read(e.batch)
		if err == nil && n <= 0 {
			err = fmt.Errorf("source returned %d samples", n)
		}
		if err != nil {
			devErr := &DeviceError{Op: "read", Err: err}
			e.logger.Error("Fatal capture error, ending session",
				slog.String("error", devErr.Error()),
			)
			e.errCh <- devErr
			break
		}

		for _, sample := range e.batch[:n] {
			e.ring.Push(sample)
			e.segmenter.Feed(sample)
		}
		e.metrics.RecordSamplesCaptured(n)
	}

	e.finalize()
}

// finalize flushes the trailing partial chunk, serializes the ring snapshot
// and releases the source. It runs exactly once, after loop exit, so the
// snapshot can never observe a partially-overwritten buffer.
func (e *Engine) finalize() {
	e.segmenter.Flush()

	if lost := e.ring.Lost(); lost > 0 {
		// Overflow is telemetry, not an error: the rolling buffer dropped
		// its oldest samples as designed.
		e.logger.Info("Ring buffer overflow during session",
			slog.Uint64("samples_lost", lost),
			slog.Uint64("samples_total", e.ring.Total()),
			slog.Int("ring_capacity", e.ring.Capacity()),
		)
		e.metrics.RecordSamplesLost(lost)
	}

	snapshot := e.ring.Snapshot()
	if len(snapshot) > 0 {
		if err := e.sink.Encode(snapshot); err != nil {
			e.logger.Error("Failed to serialize recording",
				slog.Int("samples", len(snapshot)),
				slog.String("error", err.Error()),
			)
		} else {
			e.logger.Info("Recording finalized",
				slog.Int("samples", len(snapshot)),
				slog.Uint64("chunks_emitted", e.segmenter.Emitted()),
			)
		}
	}

	if err := e.source.Close(); err != nil {
		e.logger.Warn("Error closing audio source", slog.String("error", err.Error()))
	}
}
