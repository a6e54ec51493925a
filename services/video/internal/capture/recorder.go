package capture

import (
	"context"
	"fmt"
	"sync"
)

type DevicePosition string

const (
	PositionFront DevicePosition = "front"
	PositionBack  DevicePosition = "back"
)

type RecorderState string

const (
	StateIdle      RecorderState = "idle"
	StateRecording RecorderState = "recording"
)

// Device is the camera hardware abstraction. StopRecording returns a local
// media reference for the captured clip.
type Device interface {
	Initialize(ctx context.Context, position DevicePosition, audioEnabled bool) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (string, error)
	Dispose(ctx context.Context) error
}

// Recorder drives a Device through the two-state recording machine. Only one
// device position is active at a time; toggling swaps between front and back.
type Recorder struct {
	mu       sync.Mutex
	device   Device
	position DevicePosition
	audio    bool
	state    RecorderState
	ready    bool
}

func NewRecorder(device Device, position DevicePosition, audioEnabled bool) *Recorder {
	return &Recorder{
		device:   device,
		position: position,
		audio:    audioEnabled,
		state:    StateIdle,
	}
}

func (r *Recorder) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.device.Initialize(ctx, r.position, r.audio); err != nil {
		return fmt.Errorf("failed to initialize camera: %w", err)
	}
	r.ready = true
	return nil
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return fmt.Errorf("camera is not initialized")
	}
	if r.state == StateRecording {
		return fmt.Errorf("recording already in progress")
	}

	if err := r.device.StartRecording(ctx); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	r.state = StateRecording
	return nil
}

// Stop ends the active recording and returns the captured media reference.
// Stopping while idle is a no-op that returns an empty reference.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateIdle {
		return "", nil
	}

	mediaRef, err := r.device.StopRecording(ctx)
	r.state = StateIdle
	if err != nil {
		return "", fmt.Errorf("failed to stop recording: %w", err)
	}
	return mediaRef, nil
}

// ToggleDevice swaps between the front and back camera. Not allowed while a
// recording is active.
func (r *Recorder) ToggleDevice(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return fmt.Errorf("cannot switch camera while recording")
	}

	next := PositionBack
	if r.position == PositionBack {
		next = PositionFront
	}

	if err := r.device.Initialize(ctx, next, r.audio); err != nil {
		return fmt.Errorf("failed to switch camera: %w", err)
	}
	r.position = next
	return nil
}

func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) Position() DevicePosition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *Recorder) Dispose(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ready = false
	r.state = StateIdle
	return r.device.Dispose(ctx)
}
