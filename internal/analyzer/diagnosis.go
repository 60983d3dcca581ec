package analyzer

import (
	"context"
	"time"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/pkg/models"
)

// timestampLayout is ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// mockDiagnosis stands in for a classifier. The image content is ignored:
// a condition is drawn uniformly from the catalog and a confidence uniformly
// from [MinConfidence, MaxConfidence].
type mockDiagnosis struct {
	conditions ConditionSource
	opts       Options
}

// NewMockDiagnosis creates the diagnosis stub over a non-empty catalog
func NewMockDiagnosis(conditions ConditionSource, opts Options) (DiagnosisAnalyzer, error) {
	if conditions == nil || conditions.Len() == 0 {
		return nil, apperrors.NewValidationError("diagnosis requires a non-empty condition catalog", nil)
	}
	return &mockDiagnosis{
		conditions: conditions,
		opts:       opts.withDefaults(),
	}, nil
}

// Analyze waits the configured latency and returns a random diagnosis.
// Cancelling ctx aborts the wait with a timeout error.
func (m *mockDiagnosis) Analyze(ctx context.Context, img media.EncodedImage) (*models.DiagnosisResult, error) {
	if img.IsZero() {
		return nil, apperrors.NewValidationError("image is required", nil)
	}

	if m.opts.Latency > 0 {
		timer := time.NewTimer(m.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, apperrors.NewTimeoutError("analysis cancelled", ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("analysis cancelled", err)
	}

	idx := m.opts.IntN(m.conditions.Len())
	confidence := MinConfidence + m.opts.IntN(MaxConfidence-MinConfidence+1)

	return &models.DiagnosisResult{
		Condition:  m.conditions.At(idx),
		Confidence: confidence,
		Timestamp:  m.opts.Now().UTC().Format(timestampLayout),
	}, nil
}
