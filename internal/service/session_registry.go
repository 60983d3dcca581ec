package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-skin-inspector/internal/capture"
	"go-skin-inspector/internal/device"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultIdleTimeout closes sessions nobody has touched for this long.
const DefaultIdleTimeout = 10 * time.Minute

// Reasons recorded on SessionClosed events
const (
	CloseReasonRequested = "requested"
	CloseReasonIdle      = "idle_timeout"
	CloseReasonShutdown  = "shutdown"
)

// RegistryOptions configure how sessions are built
type RegistryOptions struct {
	Devices     device.MediaDevices
	IdealWidth  int
	IdealHeight int
	SettleDelay time.Duration

	Normalize    media.NormalizeOptions
	MaxFileBytes int64

	Inspector capture.Inspector
	Events    observer.Subject

	IdleTimeout time.Duration
	Now         func() time.Time
}

// sessionEntry tracks one mounted session and the image it handed over.
type sessionEntry struct {
	session capture.Session

	mu       sync.Mutex
	captured *media.EncodedImage
	lastUsed time.Time
	inFlight int
}

func (e *sessionEntry) setCaptured(img media.EncodedImage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.captured = &img
}

func (e *sessionEntry) touch(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = now
}

func (e *sessionEntry) hold(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight++
	e.lastUsed = now
}

func (e *sessionEntry) release(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight--
	e.lastUsed = now
}

// idleBefore reports whether the session has no operation running and was
// last used before cutoff.
func (e *sessionEntry) idleBefore(cutoff time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight == 0 && e.lastUsed.Before(cutoff)
}

func (e *sessionEntry) capturedImage() (media.EncodedImage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.captured == nil {
		return media.EncodedImage{}, false
	}
	img := *e.captured
	img.Data = append([]byte(nil), e.captured.Data...)
	return img, true
}

// Registry owns every open capture and upload session. Closing a session
// through the registry always releases its camera.
type Registry struct {
	opts RegistryOptions

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewRegistry creates an empty registry
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Events == nil {
		opts.Events = observer.Discard{}
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create mounts a new session of the given kind. The facing is only used for
// camera sessions.
func (r *Registry) Create(kind capture.Kind, facing device.Facing) (models.SessionResponse, error) {
	id := uuid.NewString()
	entry := &sessionEntry{lastUsed: r.opts.Now()}
	common := capture.Options{
		ID:             id,
		OnImageCapture: entry.setCaptured,
		Events:         r.opts.Events,
		Inspector:      r.opts.Inspector,
	}

	switch kind {
	case capture.KindCamera:
		cam, err := capture.NewCameraSession(capture.CameraOptions{
			Options:     common,
			Devices:     r.opts.Devices,
			Facing:      facing,
			IdealWidth:  r.opts.IdealWidth,
			IdealHeight: r.opts.IdealHeight,
			SettleDelay: r.opts.SettleDelay,
		})
		if err != nil {
			return models.SessionResponse{}, err
		}
		entry.session = cam
	case capture.KindUpload:
		entry.session = capture.NewUploadSession(capture.UploadOptions{
			Options:   common,
			Normalize: r.opts.Normalize,
			MaxBytes:  r.opts.MaxFileBytes,
		})
	default:
		return models.SessionResponse{}, apperrors.NewValidationError(fmt.Sprintf("unknown session kind %q", kind), nil)
	}

	r.mu.Lock()
	r.sessions[id] = entry
	r.mu.Unlock()

	snap := entry.session.Snapshot()
	r.opts.Events.NotifyObservers(context.Background(), observer.Event{
		Type:      observer.SessionCreated,
		SessionID: id,
		Kind:      string(kind),
		State:     string(snap.State),
		Device:    snap.Device,
	})
	return toResponse(snap, false), nil
}

func (r *Registry) lookup(id string) (*sessionEntry, error) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %q not found", id), nil)
	}
	entry.touch(r.opts.Now())
	return entry, nil
}

// Hold marks an operation on the session as running until release is
// called. Held sessions are never reaped, and releasing counts as a use.
func (r *Registry) Hold(id string) (release func(), err error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.hold(r.opts.Now())
	var once sync.Once
	return func() {
		once.Do(func() { entry.release(r.opts.Now()) })
	}, nil
}

// Session returns the session with the given id
func (r *Registry) Session(id string) (capture.Session, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return entry.session, nil
}

// Camera returns the camera session with the given id
func (r *Registry) Camera(id string) (*capture.CameraSession, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	cam, ok := entry.session.(*capture.CameraSession)
	if !ok {
		return nil, apperrors.NewInvalidStateError("operation requires a camera session", nil)
	}
	return cam, nil
}

// Upload returns the upload session with the given id
func (r *Registry) Upload(id string) (*capture.UploadSession, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	up, ok := entry.session.(*capture.UploadSession)
	if !ok {
		return nil, apperrors.NewInvalidStateError("operation requires an upload session", nil)
	}
	return up, nil
}

// Describe returns the externally visible state of a session
func (r *Registry) Describe(id string) (models.SessionResponse, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return models.SessionResponse{}, err
	}
	_, hasCaptured := entry.capturedImage()
	return toResponse(entry.session.Snapshot(), hasCaptured), nil
}

// CapturedImage returns the image the session handed over on accept.
func (r *Registry) CapturedImage(id string) (media.EncodedImage, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return media.EncodedImage{}, err
	}
	img, ok := entry.capturedImage()
	if !ok {
		return media.EncodedImage{}, apperrors.NewInvalidStateError("session has no accepted image", nil)
	}
	return img, nil
}

// Close unmounts a session, releasing its camera.
func (r *Registry) Close(id string) error {
	return r.closeWithReason(id, CloseReasonRequested)
}

func (r *Registry) closeWithReason(id, reason string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("session %q not found", id), nil)
	}

	if err := entry.session.Close(); err != nil {
		logger.WithError(err).WithField("session_id", id).Warn("Session close reported an error")
	}
	r.opts.Events.NotifyObservers(context.Background(), observer.Event{
		Type:      observer.SessionClosed,
		SessionID: id,
		Kind:      string(entry.session.Kind()),
		State:     string(capture.StateClosed),
		Metadata:  map[string]interface{}{"reason": reason},
	})
	return nil
}

// CloseAll unmounts every session. It is called on shutdown.
func (r *Registry) CloseAll() {
	for _, id := range r.ids() {
		_ = r.closeWithReason(id, CloseReasonShutdown)
	}
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Reap closes sessions idle for longer than the idle timeout and returns how
// many were closed.
func (r *Registry) Reap() int {
	cutoff := r.opts.Now().Add(-r.opts.IdleTimeout)

	r.mu.Lock()
	var stale []string
	for id, entry := range r.sessions {
		if entry.idleBefore(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	closed := 0
	for _, id := range stale {
		if r.closeWithReason(id, CloseReasonIdle) == nil {
			closed++
		}
	}
	if closed > 0 {
		logger.WithFields(logrus.Fields{
			"closed":       closed,
			"idle_timeout": r.opts.IdleTimeout.String(),
		}).Info("Reaped idle sessions")
	}
	return closed
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.opts.IdleTimeout / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}

func toResponse(s capture.Snapshot, hasCaptured bool) models.SessionResponse {
	return models.SessionResponse{
		ID:            s.ID,
		Kind:          string(s.Kind),
		State:         string(s.State),
		Device:        s.Device,
		HasStream:     s.HasStream,
		HasPending:    s.HasPending,
		HasCaptured:   hasCaptured,
		PendingWidth:  s.PendingWidth,
		PendingHeight: s.PendingHeight,
		QualityHints:  s.QualityHints,
	}
}
