// Package metrics exposes Prometheus instrumentation for the capture and
// transcription pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing, so components can run without a registry in
// tests.
type Metrics struct {
	// Capture metrics
	SamplesCaptured prometheus.Counter
	SamplesLost     prometheus.Counter
	ChunksEmitted   prometheus.Counter
	ChunkSamples    prometheus.Histogram

	// Recording lifecycle metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingDuration   prometheus.Histogram
	DeviceErrors        prometheus.Counter

	// Transcription queue metrics
	QueueDepth prometheus.Gauge

	// Transcription metrics
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionEmpty     prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on the default
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		SamplesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_samples_captured_total",
			Help: "Total number of PCM samples read from the audio source",
		}),
		SamplesLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_samples_lost_total",
			Help: "Total number of samples overwritten in the rolling ring buffer before persistence",
		}),
		ChunksEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_chunks_emitted_total",
			Help: "Total number of transcription chunks emitted by the segmenter",
		}),
		ChunkSamples: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "micscribe_chunk_samples",
			Help:    "Number of samples per emitted chunk",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 8), // 1k to ~128k samples
		}),

		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_recordings_completed_total",
			Help: "Total number of recording sessions completed",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "micscribe_recording_duration_seconds",
			Help:    "Duration of completed recording sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		DeviceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_device_errors_total",
			Help: "Total number of fatal audio device errors",
		}),

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "micscribe_transcription_queue_depth",
			Help: "Current number of chunks waiting for transcription",
		}),

		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_transcription_successes_total",
			Help: "Total number of chunks transcribed successfully",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_transcription_failures_total",
			Help: "Total number of chunks whose transcription failed",
		}),
		TranscriptionEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Name: "micscribe_transcription_empty_total",
			Help: "Total number of chunks transcribed to empty text",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "micscribe_transcription_duration_seconds",
			Help:    "Wall-clock duration of transcription calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "micscribe_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "micscribe_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "micscribe_http_errors_total",
			Help: "Total number of HTTP API error responses",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordSamplesCaptured adds n to the captured samples counter.
func (m *Metrics) RecordSamplesCaptured(n int) {
	if m == nil {
		return
	}
	m.SamplesCaptured.Add(float64(n))
}

// RecordSamplesLost adds n to the overflow loss counter.
func (m *Metrics) RecordSamplesLost(n uint64) {
	if m == nil {
		return
	}
	m.SamplesLost.Add(float64(n))
}

// RecordChunkEmitted records one emitted chunk of the given sample count.
func (m *Metrics) RecordChunkEmitted(samples int) {
	if m == nil {
		return
	}
	m.ChunksEmitted.Inc()
	m.ChunkSamples.Observe(float64(samples))
}

// RecordRecordingStarted increments the recordings started counter.
func (m *Metrics) RecordRecordingStarted() {
	if m == nil {
		return
	}
	m.RecordingsStarted.Inc()
}

// RecordRecordingCompleted records a completed recording session.
func (m *Metrics) RecordRecordingCompleted(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RecordingsCompleted.Inc()
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordDeviceError increments the fatal device error counter.
func (m *Metrics) RecordDeviceError() {
	if m == nil {
		return
	}
	m.DeviceErrors.Inc()
}

// SetQueueDepth sets the current transcription queue depth.
func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

// RecordTranscriptionSuccess records a successful transcription call.
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription call.
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionEmpty counts a transcription that produced no text.
func (m *Metrics) RecordTranscriptionEmpty() {
	if m == nil {
		return
	}
	m.TranscriptionEmpty.Inc()
}

// RecordHTTPRequest records an HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP API error response.
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
