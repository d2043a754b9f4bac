// Package recorder coordinates recording sessions. The controller owns the
// start/stop lifecycle: each session gets a fresh ring buffer, segmenter and
// capture engine, emits chunks into the shared transcription queue, and
// persists the rolling buffer to a timestamped WAV file when it ends.
package recorder
