package transcribe

import (
	"sync"

	"github.com/micscribe/micscribe/internal/audio"
	"github.com/micscribe/micscribe/internal/metrics"
)

// Queue is an unbounded FIFO of audio chunks awaiting transcription.
// Producers never block: the queue grows as needed, and sustained overload
// shows up as queue depth rather than capture stalls.
type Queue struct {
	mu      sync.Mutex
	items   []audio.Chunk
	ready   chan struct{}
	metrics *metrics.Metrics
}

// NewQueue creates an empty transcription queue.
func NewQueue(m *metrics.Metrics) *Queue {
	return &Queue{
		ready:   make(chan struct{}, 1),
		metrics: m,
	}
}

// Enqueue appends a chunk and wakes any consumer waiting on Ready. It never
// blocks.
func (q *Queue) Enqueue(chunk audio.Chunk) {
	q.mu.Lock()
	q.items = append(q.items, chunk)
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)

	// Non-blocking notify: one pending signal is enough, the consumer
	// drains the queue fully when it wakes.
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryDequeue removes and returns the oldest chunk, or reports false if the
// queue is empty.
func (q *Queue) TryDequeue() (audio.Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return audio.Chunk{}, false
	}
	chunk := q.items[0]
	q.items[0] = audio.Chunk{}
	q.items = q.items[1:]
	q.metrics.SetQueueDepth(len(q.items))
	return chunk, true
}

// Len returns the current number of queued chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready returns a channel that receives a signal when new chunks arrive.
// The channel carries at most one pending signal, so a consumer must drain
// the queue completely after each receive.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
