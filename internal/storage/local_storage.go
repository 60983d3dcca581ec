package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"

	apperrors "go-skin-inspector/internal/errors"
)

// LocalFileSource reads file references from the local filesystem.
type LocalFileSource struct{}

// Open opens the file named by the reference path
func (LocalFileSource) Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("file read cancelled", err)
	}
	f, err := os.Open(ref.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("file not found: "+ref.Path, err)
		}
		return nil, apperrors.NewValidationError("cannot read file: "+ref.Path, err)
	}
	return f, nil
}
