// Package media converts between decoded frames, raw uploads and the encoded
// still-image representation handed around by capture sessions.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MIMETypeJPEG = "image/jpeg"

	DefaultQuality      = 85
	DefaultMaxDimension = 2048
	DefaultMaxPixels    = 40_000_000
)

// ErrTooManyPixels is returned for images whose declared size exceeds the
// pixel budget. The check runs on the header, before any pixel is decoded.
var ErrTooManyPixels = errors.New("image exceeds the pixel limit")

// EncodedImage is a still image serialized as JPEG.
type EncodedImage struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// IsZero reports whether the image holds no data.
func (e EncodedImage) IsZero() bool {
	return len(e.Data) == 0
}

// DataURL renders the image as a text-safe data URL.
func (e EncodedImage) DataURL() string {
	mime := e.MIMEType
	if mime == "" {
		mime = MIMETypeJPEG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// Decode returns the pixel data of the encoded image.
func (e EncodedImage) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(e.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Encode serializes a frame at its native resolution.
func Encode(img image.Image, quality int) (EncodedImage, error) {
	if img == nil {
		return EncodedImage{}, fmt.Errorf("nil image")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return EncodedImage{}, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return EncodedImage{
		Data:     buf.Bytes(),
		MIMEType: MIMETypeJPEG,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// NormalizeOptions controls how arbitrary uploads are re-encoded.
type NormalizeOptions struct {
	// MaxDimension bounds the longer edge in pixels (0 = no limit).
	MaxDimension int
	// MaxPixels bounds width*height of the source image; zero uses
	// DefaultMaxPixels.
	MaxPixels int64
	Quality   int
}

// DefaultNormalizeOptions returns the upload defaults
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		MaxDimension: DefaultMaxDimension,
		MaxPixels:    DefaultMaxPixels,
		Quality:      DefaultQuality,
	}
}

// Normalize decodes any supported image format (JPEG, PNG, GIF, WebP) and
// re-encodes it as JPEG, downscaling when the longer edge exceeds
// MaxDimension.
func Normalize(data []byte, opts NormalizeOptions) (EncodedImage, error) {
	if len(data) == 0 {
		return EncodedImage{}, fmt.Errorf("empty image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > limit {
		return EncodedImage{}, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return EncodedImage{}, fmt.Errorf("image has no pixels")
	}

	w, h := fitWithin(b.Dx(), b.Dy(), opts.MaxDimension)
	if w != b.Dx() || h != b.Dy() {
		img = scale(img, w, h)
	}
	return Encode(img, opts.Quality)
}

func fitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

func scale(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// ParseDataURL extracts the payload of a base64 data URL. The MIME type is
// returned as declared; callers still have to decode the bytes.
func ParseDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("not a data URL")
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URL")
	}
	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}
