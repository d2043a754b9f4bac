package transcribe

import (
	"fmt"
	"time"
)

// Result is the outcome of transcribing one chunk. Either Text or Err is
// set; an empty Text with a nil Err means the model heard silence.
type Result struct {
	ChunkID string
	Seq     uint64
	Threads int
	Elapsed time.Duration
	Text    string
	Err     error
}

// TranscriptionError wraps a model failure for a specific chunk so failures
// stay isolated: one bad chunk never stops the worker.
type TranscriptionError struct {
	ChunkID string
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed for chunk %s: %v", e.ChunkID, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
