package capture

import (
	"image"

	"go-skin-inspector/internal/device"
	apperrors "go-skin-inspector/internal/errors"
)

// liveSurface is the preview a stream is rendered into. Stills are taken
// from the surface, so they always match what is being shown.
type liveSurface struct {
	stream device.Stream
}

func (ls *liveSurface) bind(s device.Stream) { ls.stream = s }

func (ls *liveSurface) unbind() { ls.stream = nil }

// frame returns the current picture at the stream's native resolution.
func (ls *liveSurface) frame() (image.Image, error) {
	if ls.stream == nil {
		return nil, apperrors.NewInvalidStateError("no stream bound to the surface", nil)
	}
	return ls.stream.Frame()
}
