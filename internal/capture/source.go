package capture

import "fmt"

// Source is a live audio input delivering mono PCM-16 samples at a fixed
// sample rate. Read blocks until a batch is available and reports how many
// samples were written into dst. A non-positive count or an error is fatal to
// the capture session.
type Source interface {
	Read(dst []int16) (int, error)
	Close() error
}

// DeviceError wraps a fatal audio source failure. It ends the current capture
// session; the session still finalizes best-effort with the data captured so
// far.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
