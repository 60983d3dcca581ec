package capture

import (
	"context"
	"errors"
	"time"

	"go-skin-inspector/internal/device"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultIdealWidth  = 1280
	DefaultIdealHeight = 720
	DefaultSettleDelay = 300 * time.Millisecond
)

// CameraOptions configure a camera session
type CameraOptions struct {
	Options

	Devices device.MediaDevices
	// Facing is the initial camera; empty selects the rear camera.
	Facing      device.Facing
	IdealWidth  int
	IdealHeight int
	// SettleDelay is waited after releasing a stream before re-acquiring,
	// unless the stream confirms release through device.StopNotifier.
	SettleDelay time.Duration
	// Quality is the JPEG quality of captured stills.
	Quality int
}

var _ Session = (*CameraSession)(nil)

// CameraSession drives a live camera preview and still capture.
//
// States: Idle -> LiveActive -> Reviewing -> Accepted, with Retake returning
// to LiveActive and SwitchDevice passing through SwitchingDevice. A stream
// is held only in LiveActive and is always released before another is
// requested.
type CameraSession struct {
	review

	devices     device.MediaDevices
	idealWidth  int
	idealHeight int
	settleDelay time.Duration
	quality     int

	// acquire serializes hardware acquisition
	acquire *semaphore.Weighted

	facing  device.Facing
	stream  device.Stream
	surface liveSurface
	// gen is bumped whenever a pending activation must not complete
	gen uint64
}

// NewCameraSession creates an idle camera session
func NewCameraSession(opts CameraOptions) (*CameraSession, error) {
	if opts.Devices == nil {
		return nil, apperrors.NewValidationError("camera session requires media devices", nil)
	}
	facing := opts.Facing
	if facing == "" {
		facing = device.FacingRear
	}
	if opts.IdealWidth <= 0 || opts.IdealHeight <= 0 {
		opts.IdealWidth, opts.IdealHeight = DefaultIdealWidth, DefaultIdealHeight
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	s := &CameraSession{
		devices:     opts.Devices,
		idealWidth:  opts.IdealWidth,
		idealHeight: opts.IdealHeight,
		settleDelay: opts.SettleDelay,
		quality:     opts.Quality,
		acquire:     semaphore.NewWeighted(1),
		facing:      facing,
	}
	s.review.init(KindCamera, opts.Options)
	return s, nil
}

// Facing returns the selected camera
func (s *CameraSession) Facing() device.Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Snapshot returns the current session view
func (s *CameraSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	snap.Device = string(s.facing)
	snap.HasStream = s.stream != nil
	return snap
}

// Activate requests a stream for the selected camera and binds it to the
// live surface. It is rejected while an image is under review or accepted.
// On failure the session stays Idle and the error is returned; there is no
// retry.
func (s *CameraSession) Activate(ctx context.Context) error {
	return s.activate(ctx)
}

func (s *CameraSession) activate(ctx context.Context) error {
	if err := s.acquire.Acquire(ctx, 1); err != nil {
		return apperrors.NewTimeoutError("camera activation cancelled", err)
	}
	defer s.acquire.Release(1)

	s.mu.Lock()
	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state == StateReviewing || s.state == StateAccepted {
		s.mu.Unlock()
		return apperrors.NewInvalidStateError("cannot start the camera while an image is "+string(s.state), nil)
	}
	prev := s.state
	old := s.releaseLocked(ctx)
	s.gen++
	gen := s.gen
	facing := s.facing
	s.mu.Unlock()

	if old != nil {
		if err := s.awaitRelease(ctx, old); err != nil {
			return s.abortActivation(ctx, gen, apperrors.NewTimeoutError("camera activation cancelled", err))
		}
	}

	for {
		stream, err := s.devices.GetUserMedia(ctx, device.Constraints{
			Facing:      facing,
			IdealWidth:  s.idealWidth,
			IdealHeight: s.idealHeight,
		})
		if err != nil {
			return s.abortActivation(ctx, gen, classifyAcquireError(err))
		}

		s.mu.Lock()
		if s.state == StateClosed || s.gen != gen {
			s.mu.Unlock()
			device.StopAll(stream)
			return apperrors.NewInvalidStateError("camera activation superseded", nil)
		}
		if s.facing == facing {
			s.bindLocked(ctx, prev, stream)
			s.mu.Unlock()
			return nil
		}
		// The camera was switched while this acquisition was pending.
		facing = s.facing
		s.mu.Unlock()

		device.StopAll(stream)
		if err := s.awaitRelease(ctx, stream); err != nil {
			return s.abortActivation(ctx, gen, apperrors.NewTimeoutError("camera activation cancelled", err))
		}
	}
}

// bindLocked attaches an acquired stream to the live surface.
func (s *CameraSession) bindLocked(ctx context.Context, prev State, stream device.Stream) {
	s.stream = stream
	s.surface.bind(stream)
	s.state = StateLiveActive
	settings := stream.Settings()
	s.emitLocked(ctx, observer.Event{
		Type:          observer.StreamActivated,
		PreviousState: string(prev),
		Device:        string(s.facing),
		Metadata:      map[string]interface{}{"width": settings.Width, "height": settings.Height},
	})
}

// abortActivation leaves the session Idle after a failed acquisition.
func (s *CameraSession) abortActivation(ctx context.Context, gen uint64, err *apperrors.AppError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed && s.gen == gen {
		s.state = StateIdle
		s.failLocked(ctx, "activate", err, string(s.facing))
	}
	return err
}

// Deactivate stops every track and unbinds the surface. It also cancels an
// activation that has not completed yet. Harmless when no stream is held.
func (s *CameraSession) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	s.gen++
	s.releaseLocked(context.Background())
	if s.state == StateSwitchingDevice {
		s.state = StateIdle
	}
	return nil
}

// releaseLocked stops the held stream, if any, and returns it. The session
// is Idle afterwards when a stream was held.
func (s *CameraSession) releaseLocked(ctx context.Context) device.Stream {
	old := s.stream
	if old == nil {
		return nil
	}
	device.StopAll(old)
	s.surface.unbind()
	s.stream = nil
	prev := s.state
	s.state = StateIdle
	s.emitLocked(ctx, observer.Event{
		Type:          observer.StreamReleased,
		PreviousState: string(prev),
		Device:        string(s.facing),
	})
	return old
}

// awaitRelease blocks until the hardware behind a stopped stream is free:
// the stream's own acknowledgment when it has one, the settle delay
// otherwise.
func (s *CameraSession) awaitRelease(ctx context.Context, stream device.Stream) error {
	if n, ok := stream.(device.StopNotifier); ok {
		select {
		case <-n.Stopped():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.settleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SwitchDevice toggles between the front and rear camera. A live preview is
// restarted on the new camera once the old stream has been released.
func (s *CameraSession) SwitchDevice(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	switch s.state {
	case StateReviewing, StateAccepted:
		s.mu.Unlock()
		return apperrors.NewInvalidStateError("cannot switch camera while an image is "+string(s.state), nil)
	case StateSwitchingDevice:
		s.mu.Unlock()
		return apperrors.NewInvalidStateError("camera switch already in progress", nil)
	}

	from := s.facing
	s.facing = s.facing.Toggle()
	if s.state != StateLiveActive {
		s.emitLocked(ctx, observer.Event{Type: observer.DeviceSwitched, Device: string(s.facing),
			Metadata: map[string]interface{}{"from": string(from)}})
		s.mu.Unlock()
		return nil
	}

	old := s.releaseLocked(ctx)
	s.state = StateSwitchingDevice
	s.emitLocked(ctx, observer.Event{Type: observer.DeviceSwitched, PreviousState: string(StateLiveActive),
		Device: string(s.facing), Metadata: map[string]interface{}{"from": string(from)}})
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if err := s.awaitRelease(ctx, old); err != nil {
		return s.abortActivation(ctx, gen, apperrors.NewTimeoutError("camera switch cancelled", err))
	}

	s.mu.Lock()
	superseded := s.state != StateSwitchingDevice || s.gen != gen
	s.mu.Unlock()
	if superseded {
		return nil
	}
	return s.activate(ctx)
}

// Capture snapshots the live frame at its native resolution, releases the
// camera and moves to Reviewing.
func (s *CameraSession) Capture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	if s.state != StateLiveActive || s.stream == nil {
		return apperrors.NewInvalidStateError("camera is not live", nil)
	}

	ctx := context.Background()
	frame, err := s.surface.frame()
	if err != nil {
		appErr := apperrors.NewDeviceUnavailableError("could not read a frame from the camera", err)
		s.failLocked(ctx, "capture", appErr, string(s.facing))
		return appErr
	}
	img, err := media.Encode(frame, s.quality)
	if err != nil {
		appErr := apperrors.NewInternalError("could not encode captured frame", err)
		s.failLocked(ctx, "capture", appErr, string(s.facing))
		return appErr
	}

	s.releaseLocked(ctx)
	s.enterReviewLocked(img)
	s.emitLocked(ctx, observer.Event{
		Type:          observer.ImageCaptured,
		PreviousState: string(StateLiveActive),
		Device:        string(s.facing),
		Metadata:      map[string]interface{}{"width": img.Width, "height": img.Height, "hints": s.hints},
	})
	return nil
}

// Preview encodes the current live frame without leaving LiveActive.
func (s *CameraSession) Preview() (media.EncodedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return media.EncodedImage{}, err
	}
	if s.state != StateLiveActive {
		return media.EncodedImage{}, apperrors.NewInvalidStateError("camera is not live", nil)
	}
	frame, err := s.surface.frame()
	if err != nil {
		return media.EncodedImage{}, apperrors.NewDeviceUnavailableError("could not read a frame from the camera", err)
	}
	img, err := media.Encode(frame, s.quality)
	if err != nil {
		return media.EncodedImage{}, apperrors.NewInternalError("could not encode preview frame", err)
	}
	return img, nil
}

// Retake discards the pending image and restarts the camera. If the camera
// cannot be restarted the session is left Idle and the error is returned.
func (s *CameraSession) Retake(ctx context.Context) error {
	s.mu.Lock()
	err := s.discardLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.activate(ctx)
}

// Close releases the camera and discards any pending image. Every later
// operation fails with an invalid state error.
func (s *CameraSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.gen++
	s.releaseLocked(context.Background())
	s.clearPendingLocked()
	s.state = StateClosed
	return nil
}

func classifyAcquireError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, device.ErrPermissionDenied):
		return apperrors.NewDeviceAccessDeniedError("Unable to access camera. Please make sure you have granted camera permissions.", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("camera activation cancelled", err)
	default:
		return apperrors.NewDeviceUnavailableError("camera is unavailable", err)
	}
}
