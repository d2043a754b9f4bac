package audio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chunk is an owned, bounded slice of PCM-16 samples handed to the
// transcription consumer independently of the full recording. Ownership moves
// with the chunk: the segmenter never retains a reference after emitting.
type Chunk struct {
	ID        string
	Seq       uint64 // emission order within the session, starting at 0
	Samples   []int16
	CreatedAt time.Time
}

// Duration returns the audio duration of the chunk at the given sample rate.
func (c Chunk) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(sampleRate)
}

// ChunkFunc receives an emitted chunk. Implementations must not block; the
// segmenter is fed from the capture loop and a slow sink would delay audio
// reads.
type ChunkFunc func(Chunk)

// Segmenter accumulates samples into fixed-size transcription chunks. When
// the accumulator reaches the chunk size the chunk is emitted through the
// sink and a fresh accumulator is started. The chunk size is fixed for the
// lifetime of the segmenter (one recording session).
type Segmenter struct {
	chunkSize int
	sink      ChunkFunc
	acc       []int16
	nextSeq   uint64
	emitted   uint64
}

// NewSegmenter creates a segmenter emitting chunks of chunkDuration worth of
// audio at the given sample rate.
func NewSegmenter(sampleRate int, chunkDuration time.Duration, sink ChunkFunc) (*Segmenter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %s", chunkDuration)
	}
	if sink == nil {
		return nil, fmt.Errorf("chunk sink cannot be nil")
	}

	chunkSize := int(int64(sampleRate) * chunkDuration.Milliseconds() / 1000)
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk duration %s too short for sample rate %d", chunkDuration, sampleRate)
	}

	return &Segmenter{
		chunkSize: chunkSize,
		sink:      sink,
		acc:       make([]int16, 0, chunkSize),
	}, nil
}

// ChunkSize returns the number of samples in a full chunk.
func (s *Segmenter) ChunkSize() int {
	return s.chunkSize
}

// Emitted returns how many chunks have been emitted so far.
func (s *Segmenter) Emitted() uint64 {
	return s.emitted
}

// Feed appends one sample to the accumulator, emitting a full chunk through
// the sink when the accumulator fills. Control returns immediately in either
// case.
func (s *Segmenter) Feed(sample int16) {
	s.acc = append(s.acc, sample)
	if len(s.acc) == s.chunkSize {
		s.emit()
	}
}

// Flush emits the accumulated samples as a final, possibly short, chunk.
// It emits nothing when the accumulator is empty. Called once at capture stop.
func (s *Segmenter) Flush() {
	if len(s.acc) == 0 {
		return
	}
	s.emit()
}

func (s *Segmenter) emit() {
	chunk := Chunk{
		ID:        uuid.NewString(),
		Seq:       s.nextSeq,
		Samples:   s.acc,
		CreatedAt: time.Now(),
	}
	s.nextSeq++
	s.emitted++
	s.acc = make([]int16, 0, s.chunkSize)
	s.sink(chunk)
}
