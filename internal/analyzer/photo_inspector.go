package analyzer

import (
	"image"
	"image/draw"
	"sync"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/pkg/validation"
)

// photoInspector turns a pending image into advisory quality hints
type photoInspector struct {
	metricsCalculator MetricsCalculator
	qualityValidator  *validation.QualityValidator
	grayPool          sync.Pool
}

// NewPhotoInspector creates an inspector with the given validator, or the
// default thresholds when nil.
func NewPhotoInspector(qv *validation.QualityValidator) PhotoInspector {
	if qv == nil {
		qv = validation.NewQualityValidator()
	}
	return &photoInspector{
		metricsCalculator: NewMetricsCalculator(),
		qualityValidator:  qv,
		grayPool: sync.Pool{
			New: func() interface{} {
				return &image.Gray{}
			},
		},
	}
}

// Inspect decodes the image and validates its lighting, color, sharpness
// and resolution.
func (pi *photoInspector) Inspect(img media.EncodedImage) ([]validation.QualityIssue, error) {
	if img.IsZero() {
		return nil, apperrors.NewValidationError("image is required", nil)
	}
	decoded, err := img.Decode()
	if err != nil {
		return nil, apperrors.NewDecodeFailureError("could not decode image", err)
	}
	return pi.qualityValidator.Validate(pi.measure(decoded)), nil
}

func (pi *photoInspector) measure(img image.Image) validation.PhotoMetrics {
	bounds := img.Bounds()

	gray := pi.grayPool.Get().(*image.Gray)
	defer pi.grayPool.Put(gray)
	resetGray(gray, bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	m := pi.metricsCalculator.CalculateBasicMetrics(img)
	return validation.PhotoMetrics{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		LaplacianVar:   pi.metricsCalculator.CalculateLaplacianVariance(gray),
		AvgLuminance:   m.avgLuminance,
		AvgSaturation:  m.avgSaturation,
		ChannelBalance: [3]float64{m.avgR, m.avgG, m.avgB},
	}
}

// resetGray resizes g to r, reusing its pixel buffer when it is large enough.
// Callers overwrite every pixel, so the buffer is not cleared.
func resetGray(g *image.Gray, r image.Rectangle) {
	n := r.Dx() * r.Dy()
	if cap(g.Pix) < n {
		g.Pix = make([]uint8, n)
	}
	g.Pix = g.Pix[:n]
	g.Stride = r.Dx()
	g.Rect = r
}
