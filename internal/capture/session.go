// Package capture implements the capture and review state machine behind the
// camera and upload components. A session holds at most one of a live
// camera stream or a pending still image, and hands accepted images to its
// owner exactly once.
package capture

import (
	"context"
	"sync"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/pkg/validation"

	"github.com/google/uuid"
)

// Kind distinguishes camera sessions from upload sessions
type Kind string

const (
	KindCamera Kind = "camera"
	KindUpload Kind = "upload"
)

// State is the lifecycle position of a session
type State string

const (
	StateIdle            State = "idle"
	StateLiveActive      State = "live_active"
	StateSwitchingDevice State = "switching_device"
	StateReviewing       State = "reviewing"
	StateAccepted        State = "accepted"
	StateClosed          State = "closed"
)

// Inspector reports advisory quality issues for a pending image
type Inspector interface {
	Inspect(img media.EncodedImage) ([]validation.QualityIssue, error)
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID            string
	Kind          Kind
	State         State
	Device        string
	HasStream     bool
	HasPending    bool
	PendingWidth  int
	PendingHeight int
	QualityHints  []string
}

// Session is the behavior shared by camera and upload sessions
type Session interface {
	ID() string
	Kind() Kind
	Snapshot() Snapshot
	PendingImage() (media.EncodedImage, bool)
	Accept() error
	Retake(ctx context.Context) error
	Close() error
}

// Options are common to both session kinds
type Options struct {
	// ID defaults to a random UUID.
	ID string

	// OnImageCapture receives every accepted image exactly once. It is
	// called without the session lock held.
	OnImageCapture func(img media.EncodedImage)

	// Events receives state changes. Observers run under the session lock
	// and must not call back into the session.
	Events observer.Subject

	// Inspector, when set, computes quality hints on entering review.
	Inspector Inspector
}

var errClosed = apperrors.NewInvalidStateError("session closed", nil)

// review holds the state shared by both session kinds: the lifecycle state
// and the pending image awaiting a decision.
type review struct {
	id             string
	kind           Kind
	onImageCapture func(media.EncodedImage)
	events         observer.Subject
	inspector      Inspector

	mu      sync.Mutex
	state   State
	pending *media.EncodedImage
	hints   []string
}

func (r *review) init(kind Kind, opts Options) {
	r.id = opts.ID
	if r.id == "" {
		r.id = uuid.NewString()
	}
	r.events = opts.Events
	if r.events == nil {
		r.events = observer.Discard{}
	}
	r.kind = kind
	r.onImageCapture = opts.OnImageCapture
	r.inspector = opts.Inspector
	r.state = StateIdle
}

// ID returns the session identifier
func (r *review) ID() string { return r.id }

// Kind returns camera or upload
func (r *review) Kind() Kind { return r.kind }

// PendingImage returns a copy of the image under review, if any.
func (r *review) PendingImage() (media.EncodedImage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return media.EncodedImage{}, false
	}
	img := *r.pending
	img.Data = append([]byte(nil), r.pending.Data...)
	return img, true
}

func (r *review) emitLocked(ctx context.Context, e observer.Event) {
	e.SessionID = r.id
	e.Kind = string(r.kind)
	e.State = string(r.state)
	r.events.NotifyObservers(ctx, e)
}

func (r *review) failLocked(ctx context.Context, op string, err error, device string) {
	r.emitLocked(ctx, observer.Event{
		Type:     observer.OperationFailed,
		Device:   device,
		Error:    err.Error(),
		Metadata: map[string]interface{}{"operation": op},
	})
}

func (r *review) checkOpenLocked() error {
	if r.state == StateClosed {
		return errClosed
	}
	return nil
}

// enterReviewLocked stores img as the pending image and computes hints.
func (r *review) enterReviewLocked(img media.EncodedImage) {
	r.pending = &img
	r.hints = nil
	if r.inspector != nil {
		if issues, err := r.inspector.Inspect(img); err == nil {
			r.hints = validation.HintCodes(issues)
		}
	}
	r.state = StateReviewing
}

func (r *review) clearPendingLocked() {
	r.pending = nil
	r.hints = nil
}

// Accept hands the pending image to OnImageCapture and moves to Accepted.
func (r *review) Accept() error {
	r.mu.Lock()
	if err := r.checkOpenLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.state != StateReviewing || r.pending == nil {
		r.mu.Unlock()
		return apperrors.NewInvalidStateError("no image to accept", nil)
	}
	img := *r.pending
	prev := r.state
	r.clearPendingLocked()
	r.state = StateAccepted
	r.emitLocked(context.Background(), observer.Event{
		Type:          observer.ImageAccepted,
		PreviousState: string(prev),
		Metadata:      map[string]interface{}{"width": img.Width, "height": img.Height, "bytes": len(img.Data)},
	})
	cb := r.onImageCapture
	r.mu.Unlock()

	if cb != nil {
		cb(img)
	}
	return nil
}

// discardLocked clears the pending image during a retake.
func (r *review) discardLocked(ctx context.Context) error {
	if err := r.checkOpenLocked(); err != nil {
		return err
	}
	if r.state != StateReviewing {
		return apperrors.NewInvalidStateError("no image to retake", nil)
	}
	r.clearPendingLocked()
	r.state = StateIdle
	r.emitLocked(ctx, observer.Event{Type: observer.ImageDiscarded, PreviousState: string(StateReviewing)})
	return nil
}

func (r *review) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:         r.id,
		Kind:       r.kind,
		State:      r.state,
		HasPending: r.pending != nil,
	}
	if r.pending != nil {
		s.PendingWidth = r.pending.Width
		s.PendingHeight = r.pending.Height
		s.QualityHints = append([]string(nil), r.hints...)
	}
	return s
}
