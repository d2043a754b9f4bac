package audio

import (
	"testing"
	"time"
)

func collectChunks(dst *[]Chunk) ChunkFunc {
	return func(c Chunk) {
		*dst = append(*dst, c)
	}
}

func TestNewSegmenter(t *testing.T) {
	var chunks []Chunk
	seg, err := NewSegmenter(16000, 2*time.Second, collectChunks(&chunks))
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	if seg.ChunkSize() != 32000 {
		t.Errorf("Expected chunk size 32000, got %d", seg.ChunkSize())
	}

	if seg.Emitted() != 0 {
		t.Errorf("Expected 0 emitted chunks, got %d", seg.Emitted())
	}
}

func TestNewSegmenterValidation(t *testing.T) {
	sink := func(Chunk) {}

	if _, err := NewSegmenter(0, time.Second, sink); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	if _, err := NewSegmenter(16000, 0, sink); err == nil {
		t.Error("Expected error for zero chunk duration")
	}

	if _, err := NewSegmenter(16000, time.Second, nil); err == nil {
		t.Error("Expected error for nil sink")
	}
}

// Two full chunks plus a remainder: feed 70000 samples with a 32000-sample
// chunk size, flush, and expect chunk lengths 32000, 32000, 6000.
func TestSegmenterFullAndPartialChunks(t *testing.T) {
	var chunks []Chunk
	seg, err := NewSegmenter(16000, 2*time.Second, collectChunks(&chunks))
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	for i := 0; i < 70000; i++ {
		seg.Feed(int16(i % 32768))
	}
	seg.Flush()

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	expectedLens := []int{32000, 32000, 6000}
	for i, want := range expectedLens {
		if len(chunks[i].Samples) != want {
			t.Errorf("Expected chunk %d length %d, got %d", i, want, len(chunks[i].Samples))
		}
	}

	// Samples must be contiguous across chunk boundaries.
	pos := 0
	for _, c := range chunks {
		for _, s := range c.Samples {
			if s != int16(pos%32768) {
				t.Fatalf("Expected sample %d at stream position %d, got %d", pos%32768, pos, s)
			}
			pos++
		}
	}

	if seg.Emitted() != 3 {
		t.Errorf("Expected 3 emitted chunks, got %d", seg.Emitted())
	}
}

func TestSegmenterFlushEmptyEmitsNothing(t *testing.T) {
	var chunks []Chunk
	seg, err := NewSegmenter(16000, time.Second, collectChunks(&chunks))
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	// Exactly one full chunk, nothing left over.
	for i := 0; i < seg.ChunkSize(); i++ {
		seg.Feed(0)
	}
	seg.Flush()

	if len(chunks) != 1 {
		t.Errorf("Expected exactly 1 chunk when input is a multiple of chunk size, got %d", len(chunks))
	}
}

func TestSegmenterChunkMetadata(t *testing.T) {
	var chunks []Chunk
	seg, err := NewSegmenter(8000, time.Second, collectChunks(&chunks))
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	for i := 0; i < 2*seg.ChunkSize(); i++ {
		seg.Feed(0)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].Seq != 0 || chunks[1].Seq != 1 {
		t.Errorf("Expected sequence numbers 0,1, got %d,%d", chunks[0].Seq, chunks[1].Seq)
	}

	if chunks[0].ID == "" || chunks[0].ID == chunks[1].ID {
		t.Error("Expected distinct non-empty chunk IDs")
	}

	if chunks[0].CreatedAt.IsZero() {
		t.Error("Expected non-zero chunk creation time")
	}

	if got := chunks[0].Duration(8000); got != time.Second {
		t.Errorf("Expected chunk duration 1s, got %s", got)
	}
}

func TestSegmenterOwnershipMoves(t *testing.T) {
	var chunks []Chunk
	seg, err := NewSegmenter(16000, time.Second, collectChunks(&chunks))
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	for i := 0; i < seg.ChunkSize(); i++ {
		seg.Feed(7)
	}

	// Keep feeding; the emitted chunk must not be mutated by later input.
	for i := 0; i < 100; i++ {
		seg.Feed(9)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	for i, s := range chunks[0].Samples {
		if s != 7 {
			t.Fatalf("Expected emitted chunk untouched at index %d, got %d", i, s)
		}
	}
}
