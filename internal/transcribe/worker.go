package transcribe

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/micscribe/micscribe/internal/audio"
	"github.com/micscribe/micscribe/internal/metrics"
)

// Transcriber runs speech-to-text on normalized mono samples.
type Transcriber interface {
	Transcribe(samples []float32, threads int) (string, error)
}

// DefaultPollInterval bounds how long the worker sleeps between queue checks
// when no wakeup signal arrives.
const DefaultPollInterval = 100 * time.Millisecond

// WorkerConfig contains transcription worker dependencies.
type WorkerConfig struct {
	Queue        *Queue
	Transcriber  Transcriber
	Threads      *ThreadCount
	PollInterval time.Duration
	ResultBuffer int
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Worker drains the chunk queue on a single long-lived goroutine and
// publishes results on a channel. It outlives individual recording sessions;
// chunks queued near the end of one recording may still be transcribed while
// the next is underway.
type Worker struct {
	queue        *Queue
	transcriber  Transcriber
	threads      *ThreadCount
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	enabled atomic.Bool
	results chan Result
	stop    chan struct{}
	done    chan struct{}
}

// NewWorker creates a transcription worker. The worker starts disabled so
// the model can finish loading before any chunk is processed; queued chunks
// wait rather than fail.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber cannot be nil")
	}
	if cfg.Threads == nil {
		return nil, fmt.Errorf("thread count cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Worker{
		queue:        cfg.Queue,
		transcriber:  cfg.Transcriber,
		threads:      cfg.Threads,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		results:      make(chan Result, cfg.ResultBuffer),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Results returns the channel of transcription outcomes. It is closed when
// the worker stops.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// SetEnabled toggles chunk processing. While disabled the worker keeps
// running but leaves chunks in the queue.
func (w *Worker) SetEnabled(enabled bool) {
	w.enabled.Store(enabled)
}

// Enabled reports whether the worker is currently processing chunks.
func (w *Worker) Enabled() bool {
	return w.enabled.Load()
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop terminates the worker and waits for it to exit. Chunks still queued
// are left in place; results already produced remain readable until the
// results channel is drained.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

// run waits for a queue signal or the poll interval, whichever comes first,
// then drains the queue. The timeout covers the race where a chunk lands
// between draining and re-entering the select.
func (w *Worker) run() {
	defer close(w.done)
	defer close(w.results)

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-w.queue.Ready():
		case <-timer.C:
		}

		if w.enabled.Load() {
			if stopped := w.drain(); stopped {
				return
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.pollInterval)
	}
}

// drain processes queued chunks until the queue is empty or stop is
// requested. It reports whether stop was observed.
func (w *Worker) drain() bool {
	for {
		select {
		case <-w.stop:
			return true
		default:
		}

		chunk, ok := w.queue.TryDequeue()
		if !ok {
			return false
		}
		result, publish := w.process(chunk)
		if !publish {
			continue
		}

		select {
		case w.results <- result:
		case <-w.stop:
			return true
		}
	}
}

// process transcribes one chunk. Failures are isolated into the Result; the
// worker keeps going regardless. Silence (empty text, no error) is counted
// and logged but not published.
func (w *Worker) process(chunk audio.Chunk) (Result, bool) {
	threads := w.threads.Get()
	samples := audio.SamplesToFloat32(chunk.Samples)

	start := time.Now()
	text, err := w.transcriber.Transcribe(samples, threads)
	elapsed := time.Since(start)

	result := Result{
		ChunkID: chunk.ID,
		Seq:     chunk.Seq,
		Threads: threads,
		Elapsed: elapsed,
	}

	if err != nil {
		result.Err = &TranscriptionError{ChunkID: chunk.ID, Err: err}
		w.logger.Error("Chunk transcription failed",
			slog.String("chunk_id", chunk.ID),
			slog.Uint64("seq", chunk.Seq),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		w.metrics.RecordTranscriptionFailure(elapsed.Seconds())
		return result, true
	}

	w.metrics.RecordTranscriptionSuccess(elapsed.Seconds())

	result.Text = strings.TrimSpace(text)
	if result.Text == "" {
		w.logger.Debug("Chunk transcribed to empty text",
			slog.String("chunk_id", chunk.ID),
			slog.Uint64("seq", chunk.Seq),
			slog.Duration("elapsed", elapsed),
		)
		w.metrics.RecordTranscriptionEmpty()
		return result, false
	}

	w.logger.Debug("Chunk transcribed",
		slog.String("chunk_id", chunk.ID),
		slog.Uint64("seq", chunk.Seq),
		slog.Int("threads", threads),
		slog.Duration("elapsed", elapsed),
		slog.Int("text_len", len(result.Text)),
	)
	return result, true
}
