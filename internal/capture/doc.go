// Package capture owns the live audio source and the capture loop.
// The engine reads batches of PCM samples from a source on a dedicated
// goroutine, feeds the rolling ring buffer and the chunk segmenter, and on
// stop serializes the retained samples to a durable recording. Device errors
// never escape the loop; they are delivered once on an error channel.
package capture
