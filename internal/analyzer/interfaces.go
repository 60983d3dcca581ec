package analyzer

import (
	"context"
	"image"

	"go-skin-inspector/internal/media"
	"go-skin-inspector/pkg/models"
	"go-skin-inspector/pkg/validation"
)

// DiagnosisAnalyzer produces a diagnosis for an accepted image
type DiagnosisAnalyzer interface {
	Analyze(ctx context.Context, img media.EncodedImage) (*models.DiagnosisResult, error)
}

// ConditionSource is the part of the catalog the diagnosis stub draws from
type ConditionSource interface {
	Len() int
	At(i int) models.Condition
}

// PhotoInspector reports capture quality issues for a pending image
type PhotoInspector interface {
	Inspect(img media.EncodedImage) ([]validation.QualityIssue, error)
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateBasicMetrics(img image.Image) metrics
	CalculateLaplacianVariance(gray *image.Gray) float64
}
