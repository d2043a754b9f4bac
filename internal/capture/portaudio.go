package capture

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device captures audio from the default input device via PortAudio.
// Opening the device requires an OS-granted capture permission; the caller is
// expected to have obtained it before starting a recording.
type Device struct {
	stream *portaudio.Stream
	buf    []int16
}

// OpenDevice initializes PortAudio and opens the default input stream at the
// given sample rate, mono, 16-bit, reading framesPerBuffer samples per batch.
// Close must be called to release PortAudio resources.
func OpenDevice(sampleRate, framesPerBuffer int) (*Device, error) {
	if sampleRate <= 0 {
		return nil, &DeviceError{Op: "open", Err: fmt.Errorf("sample rate must be positive, got %d", sampleRate)}
	}
	if framesPerBuffer <= 0 {
		return nil, &DeviceError{Op: "open", Err: fmt.Errorf("frames per buffer must be positive, got %d", framesPerBuffer)}
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceError{Op: "init", Err: err}
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, &DeviceError{Op: "open", Err: err}
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &DeviceError{Op: "start", Err: err}
	}

	return &Device{stream: stream, buf: buf}, nil
}

// Read blocks until the next batch of samples is available and copies it into
// dst. dst should be at least as large as the configured frames per buffer.
func (d *Device) Read(dst []int16) (int, error) {
	if err := d.stream.Read(); err != nil {
		return 0, err
	}
	return copy(dst, d.buf), nil
}

// Close stops and closes the stream and terminates PortAudio.
func (d *Device) Close() error {
	var errs []error
	if err := d.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop stream: %w", err))
	}
	if err := d.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminate portaudio: %w", err))
	}
	return errors.Join(errs...)
}
