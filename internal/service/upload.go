package service

import (
	"context"

	"go-skin-inspector/internal/capture"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
)

// LoadImage runs a file through a short-lived upload session: select, then
// accept. The accepted image is returned. Oversized files, unreadable
// sources and undecodable data fail the same way they do for mounted upload
// sessions.
func LoadImage(ctx context.Context, fh capture.FileHandle, opts capture.UploadOptions) (media.EncodedImage, error) {
	var accepted media.EncodedImage
	opts.OnImageCapture = func(img media.EncodedImage) { accepted = img }

	session := capture.NewUploadSession(opts)
	defer session.Close()

	if err := session.SelectFile(ctx, fh); err != nil {
		return media.EncodedImage{}, err
	}
	if err := session.Accept(); err != nil {
		return media.EncodedImage{}, err
	}
	if accepted.IsZero() {
		return media.EncodedImage{}, apperrors.NewInternalError("upload produced no image", nil)
	}
	return accepted, nil
}
