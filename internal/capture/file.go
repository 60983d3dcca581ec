package capture

import (
	"bytes"
	"context"
	"io"
)

// FileHandle is a user-selected file: a multipart upload, or a local or
// remote reference resolved by the storage layer.
type FileHandle interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// BytesFile is a file already held in memory
type BytesFile struct {
	Filename string
	Data     []byte
}

// Name returns the file name
func (f BytesFile) Name() string { return f.Filename }

// Open returns a reader over the data
func (f BytesFile) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
