// Package audio implements PCM sample handling for the capture pipeline.
// It provides the rolling ring buffer that bounds the final recording, the
// segmenter that slices the live stream into fixed-duration transcription
// chunks, int16-to-float32 normalization, and WAV file encoding/decoding.
package audio
