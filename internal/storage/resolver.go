package storage

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/pkg/validation"
)

// SourceType identifies a storage backend
type SourceType string

const (
	HTTPSource  SourceType = "http"
	AzureSource SourceType = "azure"
	LocalSource SourceType = "local"
)

// Resolver turns user-supplied image references into file handles, routing
// each reference to the backend for its scheme.
type Resolver struct {
	validator *validation.URLValidator
	sources   map[SourceType]ImageSource
}

// ResolverOptions selects the backends a resolver may use. Nil sources are
// disabled.
type ResolverOptions struct {
	HTTP  ImageSource
	Azure ImageSource
	// Local enables plain filesystem paths. Servers leave it nil.
	Local     ImageSource
	Validator *validation.URLValidator
}

// NewResolver creates a resolver over the given backends
func NewResolver(opts ResolverOptions) *Resolver {
	v := opts.Validator
	if v == nil {
		v = validation.NewURLValidator()
	}
	sources := make(map[SourceType]ImageSource, 3)
	if opts.HTTP != nil {
		sources[HTTPSource] = opts.HTTP
	}
	if opts.Azure != nil {
		sources[AzureSource] = opts.Azure
	}
	if opts.Local != nil {
		sources[LocalSource] = opts.Local
	}
	return &Resolver{validator: v, sources: sources}
}

// Handle is a resolved reference. It satisfies the capture file handle
// contract.
type Handle struct {
	name   string
	ref    *url.URL
	source ImageSource
}

// Name returns the last path element of the reference
func (h *Handle) Name() string { return h.name }

// Open reads the referenced image
func (h *Handle) Open(ctx context.Context) (io.ReadCloser, error) {
	return h.source.Open(ctx, h.ref)
}

// Resolve validates ref and binds it to a backend.
func (r *Resolver) Resolve(ref string) (*Handle, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	if local, ok := r.sources[LocalSource]; ok && !strings.Contains(ref, "://") {
		return &Handle{
			name:   filepath.Base(ref),
			ref:    &url.URL{Scheme: "file", Path: ref},
			source: local,
		}, nil
	}

	u, err := r.validator.ValidateImageReference(ref)
	if err != nil {
		return nil, err
	}

	st := HTTPSource
	if strings.EqualFold(u.Scheme, validation.SchemeAzBlob) {
		st = AzureSource
	}
	source, ok := r.sources[st]
	if !ok {
		return nil, apperrors.NewValidationError(string(st)+" image references are not enabled", nil)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}
	return &Handle{name: name, ref: u, source: source}, nil
}
