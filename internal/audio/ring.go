package audio

// Ring is a fixed-capacity circular buffer of PCM-16 samples with
// overwrite-oldest semantics. Once full, each push silently replaces the
// oldest retained sample; this is the deliberate data-loss boundary of the
// rolling recording, not an error. Lost reports how many samples were
// overwritten so the caller can surface the loss as telemetry.
//
// A Ring has a single owner (the capture goroutine) and is not safe for
// concurrent use. Snapshot is only meant to be called after the owner has
// stopped writing.
type Ring struct {
	buf      []int16
	writeIdx int    // next write position, modulo capacity
	total    uint64 // samples pushed over the lifetime of the ring
}

// NewRing creates a ring buffer retaining the most recent capacity samples.
// It panics if capacity is not positive; the capacity comes from validated
// configuration and a zero-size recording buffer is a programming error.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("audio: ring capacity must be positive")
	}
	return &Ring{buf: make([]int16, capacity)}
}

// Push appends one sample, overwriting the oldest retained sample when the
// ring is full. It never fails and runs in constant time.
func (r *Ring) Push(sample int16) {
	r.buf[r.writeIdx] = sample
	r.writeIdx = (r.writeIdx + 1) % len(r.buf)
	r.total++
}

// Snapshot returns the retained samples in chronological order, oldest first.
// The result has min(Total, Capacity) samples and is an owned copy.
func (r *Ring) Snapshot() []int16 {
	n := r.Len()
	out := make([]int16, n)

	if r.total <= uint64(len(r.buf)) {
		copy(out, r.buf[:n])
		return out
	}

	// Wrapped: the oldest retained sample sits at writeIdx.
	copied := copy(out, r.buf[r.writeIdx:])
	copy(out[copied:], r.buf[:r.writeIdx])
	return out
}

// Len returns the number of samples currently retained.
func (r *Ring) Len() int {
	if r.total < uint64(len(r.buf)) {
		return int(r.total)
	}
	return len(r.buf)
}

// Capacity returns the maximum number of retained samples.
func (r *Ring) Capacity() int {
	return len(r.buf)
}

// Total returns the number of samples pushed over the ring's lifetime.
func (r *Ring) Total() uint64 {
	return r.total
}

// Lost returns the number of samples that were overwritten before they could
// be persisted: max(0, Total-Capacity).
func (r *Ring) Lost() uint64 {
	if r.total <= uint64(len(r.buf)) {
		return 0
	}
	return r.total - uint64(len(r.buf))
}
