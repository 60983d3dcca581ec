package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
)

// DefaultMaxFileBytes bounds how much of a selected file is read.
const DefaultMaxFileBytes = 20 << 20

// UploadOptions configure an upload session
type UploadOptions struct {
	Options

	Normalize media.NormalizeOptions
	// MaxBytes bounds the selected file size; zero uses DefaultMaxFileBytes.
	MaxBytes int64
}

var _ Session = (*UploadSession)(nil)

// UploadSession reviews a single user-selected file.
//
// States: Idle -> Reviewing -> Accepted, with Retake returning to Idle.
type UploadSession struct {
	review

	normalize media.NormalizeOptions
	maxBytes  int64
	selecting bool
}

// NewUploadSession creates an idle upload session
func NewUploadSession(opts UploadOptions) *UploadSession {
	if opts.Normalize == (media.NormalizeOptions{}) {
		opts.Normalize = media.DefaultNormalizeOptions()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxFileBytes
	}
	s := &UploadSession{
		normalize: opts.Normalize,
		maxBytes:  opts.MaxBytes,
	}
	s.review.init(KindUpload, opts.Options)
	return s
}

// Snapshot returns the current session view
func (s *UploadSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SelectFile reads and decodes the file into the pending image and moves to
// Reviewing. Anything that is not a decodable image leaves the session Idle
// with a decode failure.
func (s *UploadSession) SelectFile(ctx context.Context, fh FileHandle) error {
	if fh == nil {
		return apperrors.NewValidationError("no file selected", nil)
	}

	s.mu.Lock()
	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return apperrors.NewInvalidStateError("cannot select a file while an image is "+string(s.state), nil)
	}
	if s.selecting {
		s.mu.Unlock()
		return apperrors.NewInvalidStateError("file selection already in progress", nil)
	}
	s.selecting = true
	s.mu.Unlock()

	img, selErr := s.load(ctx, fh)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selecting = false
	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	if selErr != nil {
		s.failLocked(ctx, "select_file", selErr, "")
		return selErr
	}

	s.enterReviewLocked(img)
	s.emitLocked(ctx, observer.Event{
		Type:          observer.FileSelected,
		PreviousState: string(StateIdle),
		Metadata: map[string]interface{}{
			"file":   fh.Name(),
			"width":  img.Width,
			"height": img.Height,
			"hints":  s.hints,
		},
	})
	return nil
}

func (s *UploadSession) load(ctx context.Context, fh FileHandle) (media.EncodedImage, error) {
	rc, err := fh.Open(ctx)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return media.EncodedImage{}, appErr
		}
		return media.EncodedImage{}, apperrors.NewExternalServiceError(fmt.Sprintf("could not read %s", fh.Name()), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
	if err != nil {
		return media.EncodedImage{}, apperrors.NewExternalServiceError(fmt.Sprintf("could not read %s", fh.Name()), err)
	}
	if int64(len(data)) > s.maxBytes {
		return media.EncodedImage{}, apperrors.NewValidationError(fmt.Sprintf("file exceeds %d bytes", s.maxBytes), nil)
	}

	img, err := media.Normalize(data, s.normalize)
	if err != nil {
		return media.EncodedImage{}, apperrors.NewDecodeFailureError(fmt.Sprintf("%s is not a supported image", fh.Name()), err)
	}
	return img, nil
}

// Retake discards the pending image and returns to Idle.
func (s *UploadSession) Retake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discardLocked(ctx)
}

// Close discards any pending image. Every later operation fails with an
// invalid state error.
func (s *UploadSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearPendingLocked()
	s.state = StateClosed
	return nil
}
