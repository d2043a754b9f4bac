package transcribe

import (
	"fmt"
	"sync/atomic"
)

// ThreadCount is a shared, atomically updated thread budget for the whisper
// engine. The HTTP API writes it and the worker reads it once per chunk, so
// an update takes effect on the next transcription rather than mid-call.
type ThreadCount struct {
	v atomic.Int32
}

// NewThreadCount creates a thread count cell with the given initial value.
func NewThreadCount(n int) (*ThreadCount, error) {
	tc := &ThreadCount{}
	if err := tc.Set(n); err != nil {
		return nil, err
	}
	return tc, nil
}

// Set updates the thread count. Values below 1 are rejected.
func (tc *ThreadCount) Set(n int) error {
	if n < 1 {
		return fmt.Errorf("thread count must be at least 1, got %d", n)
	}
	tc.v.Store(int32(n))
	return nil
}

// Get returns the current thread count.
func (tc *ThreadCount) Get() int {
	return int(tc.v.Load())
}
