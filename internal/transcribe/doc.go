// Package transcribe implements asynchronous speech-to-text for captured
// audio chunks.
//
// Chunks flow through an unbounded FIFO queue into a single long-lived
// worker goroutine, which converts PCM samples to normalized floats and runs
// them through a whisper.cpp model. Transcription never blocks capture: the
// queue absorbs bursts, and latency drift under sustained load is accepted
// and surfaced through the queue depth gauge.
package transcribe
