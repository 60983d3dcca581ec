// Package device abstracts camera hardware behind a getUserMedia-style
// acquisition call that yields exclusive video streams.
package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// Facing is the camera orientation preference
type Facing string

const (
	FacingFront Facing = "front"
	FacingRear  Facing = "rear"
)

// Toggle returns the opposite orientation
func (f Facing) Toggle() Facing {
	if f == FacingFront {
		return FacingRear
	}
	return FacingFront
}

// ParseFacing accepts front/rear and the browser names user/environment.
// An empty string selects the rear camera.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rear", "back", "environment":
		return FacingRear, nil
	case "front", "user":
		return FacingFront, nil
	}
	return "", fmt.Errorf("unknown camera facing %q", s)
}

// Acquisition errors. Implementations wrap these so callers can classify
// failures with errors.Is.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNotFound         = errors.New("no camera matches the requested constraints")
	ErrNotReadable      = errors.New("camera is busy or unreadable")
	ErrStreamStopped    = errors.New("stream has been stopped")
)

// Constraints describe the requested video input.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
}

// Settings describe what the device actually delivered.
type Settings struct {
	Facing Facing
	Width  int
	Height int
}

// Track is one hardware track of a stream.
type Track interface {
	Kind() string
	Live() bool
	Stop()
}

// Stream is an exclusive handle on a video input. A stream is live until
// every track is stopped.
type Stream interface {
	ID() string
	Tracks() []Track
	Settings() Settings
	// Frame returns the current frame at the stream's native resolution.
	Frame() (image.Image, error)
}

// StopNotifier is implemented by streams whose platform confirms that the
// hardware has been released after all tracks were stopped.
type StopNotifier interface {
	Stopped() <-chan struct{}
}

// MediaDevices acquires video streams.
type MediaDevices interface {
	GetUserMedia(ctx context.Context, c Constraints) (Stream, error)
}

// StopAll stops every track of the stream.
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// IsLive reports whether any track of the stream is still running.
func IsLive(s Stream) bool {
	if s == nil {
		return false
	}
	for _, t := range s.Tracks() {
		if t.Live() {
			return true
		}
	}
	return false
}
