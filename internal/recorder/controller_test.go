package recorder

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/micscribe/micscribe/internal/audio"
	"github.com/micscribe/micscribe/internal/capture"
	"github.com/micscribe/micscribe/internal/transcribe"
)

// toneSource produces a repeating ramp until closed, or fails immediately
// when failErr is set.
type toneSource struct {
	mu      sync.Mutex
	next    int16
	failErr error
	closed  bool
}

func (s *toneSource) Read(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	time.Sleep(time.Millisecond)
	for i := range dst {
		dst[i] = s.next
		s.next++
	}
	return len(dst), nil
}

func (s *toneSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakePlayer struct {
	mu      sync.Mutex
	playing bool
	stopped bool
}

func (p *fakePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.stopped = true
}

func newTestController(t *testing.T, factory SourceFactory, player Player) (*Controller, *transcribe.Queue, string) {
	t.Helper()
	dir := t.TempDir()
	queue := transcribe.NewQueue(nil)
	ctrl, err := NewController(ControllerConfig{
		SampleRate:      16000,
		BufferDuration:  time.Second,
		ChunkDuration:   10 * time.Millisecond,
		FramesPerBuffer: 64,
		OutputDir:       dir,
		OpenSource:      factory,
		Queue:           queue,
		Player:          player,
	})
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	return ctrl, queue, dir
}

func TestControllerStartStop(t *testing.T) {
	source := &toneSource{}
	player := &fakePlayer{playing: true}
	ctrl, queue, dir := newTestController(t, func() (capture.Source, error) {
		return source, nil
	}, player)

	if ctrl.Recording() {
		t.Error("Expected idle controller before Start")
	}

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if !ctrl.Recording() {
		t.Error("Expected recording state after Start")
	}
	player.mu.Lock()
	if !player.stopped {
		t.Error("Expected player to be stopped before recording")
	}
	player.mu.Unlock()

	status := ctrl.Status()
	if !status.Recording {
		t.Error("Expected status.Recording to be true")
	}
	if !strings.HasPrefix(filepath.Base(status.OutputPath), "recording_") {
		t.Errorf("Expected timestamped output path, got %s", status.OutputPath)
	}

	// Capture long enough for a few 10ms chunks to land in the queue.
	deadline := time.Now().Add(2 * time.Second)
	for queue.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for chunks to be queued")
		}
		time.Sleep(time.Millisecond)
	}

	if err := ctrl.Stop(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	if ctrl.Recording() {
		t.Error("Expected idle controller after Stop")
	}

	source.mu.Lock()
	closed := source.closed
	source.mu.Unlock()
	if !closed {
		t.Error("Expected source closed after Stop")
	}

	// The finalized WAV holds the rolling buffer contents.
	matches, err := filepath.Glob(filepath.Join(dir, "recording_*.wav"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 recording file, got %d", len(matches))
	}
	samples, rate, err := audio.ReadWAV(matches[0])
	if err != nil {
		t.Fatalf("Failed to read recording: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if len(samples) == 0 {
		t.Error("Expected non-empty recording")
	}
}

func TestControllerDoubleStart(t *testing.T) {
	ctrl, _, _ := newTestController(t, func() (capture.Source, error) {
		return &toneSource{}, nil
	}, nil)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	defer ctrl.Stop()

	if err := ctrl.Start(); err == nil {
		t.Error("Expected error starting while already recording")
	}
}

func TestControllerStopWhenIdle(t *testing.T) {
	ctrl, _, _ := newTestController(t, func() (capture.Source, error) {
		return &toneSource{}, nil
	}, nil)

	if err := ctrl.Stop(); err != nil {
		t.Errorf("Expected idle Stop to be a no-op, got %v", err)
	}
}

func TestControllerRestartAfterStop(t *testing.T) {
	ctrl, _, dir := newTestController(t, func() (capture.Source, error) {
		return &toneSource{}, nil
	}, nil)

	for i := 0; i < 2; i++ {
		if err := ctrl.Start(); err != nil {
			t.Fatalf("Session %d: failed to start: %v", i, err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := ctrl.Stop(); err != nil {
			t.Fatalf("Session %d: failed to stop: %v", i, err)
		}
		// Sessions within the same second share a timestamp, so spacing
		// keeps the filenames distinct.
		time.Sleep(time.Second + 100*time.Millisecond)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "recording_*.wav"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 recording files, got %d", len(matches))
	}
}

func TestControllerSourceOpenFailure(t *testing.T) {
	openErr := errors.New("no such device")
	ctrl, _, _ := newTestController(t, func() (capture.Source, error) {
		return nil, openErr
	}, nil)

	err := ctrl.Start()
	if err == nil {
		t.Fatal("Expected error when source cannot be opened")
	}
	if !errors.Is(err, openErr) {
		t.Errorf("Expected wrapped open error, got %v", err)
	}
	if ctrl.Recording() {
		t.Error("Expected controller to stay idle after failed Start")
	}
}

func TestControllerDeviceErrorReturnsToIdle(t *testing.T) {
	source := &toneSource{failErr: errors.New("device yanked")}
	ctrl, _, _ := newTestController(t, func() (capture.Source, error) {
		return source, nil
	}, nil)

	if err := ctrl.Start(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Recording() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for controller to return to idle")
		}
		time.Sleep(time.Millisecond)
	}

	// A later Start works again.
	source2 := &toneSource{}
	ctrl2, _, _ := newTestController(t, func() (capture.Source, error) {
		return source2, nil
	}, nil)
	if err := ctrl2.Start(); err != nil {
		t.Fatalf("Failed to start after device error: %v", err)
	}
	ctrl2.Stop()
}
