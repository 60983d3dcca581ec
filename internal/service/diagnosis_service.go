package service

import (
	"context"
	"time"

	"go-skin-inspector/internal/analyzer"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/media"
	"go-skin-inspector/internal/observer"
	"go-skin-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

// DiagnosisService runs the analyzer on accepted session images and on
// images posted directly.
type DiagnosisService interface {
	AnalyzeSession(ctx context.Context, sessionID string) (*models.DiagnosisResult, error)
	AnalyzeImage(ctx context.Context, img media.EncodedImage) (*models.DiagnosisResult, error)
}

type diagnosisService struct {
	registry *Registry
	analyzer analyzer.DiagnosisAnalyzer
	events   observer.Subject
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(registry *Registry, a analyzer.DiagnosisAnalyzer, events observer.Subject) DiagnosisService {
	if events == nil {
		events = observer.Discard{}
	}
	return &diagnosisService{
		registry: registry,
		analyzer: a,
		events:   events,
	}
}

// AnalyzeSession analyzes the image the session handed over on accept.
func (s *diagnosisService) AnalyzeSession(ctx context.Context, sessionID string) (*models.DiagnosisResult, error) {
	img, err := s.registry.CapturedImage(sessionID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sessionID, img)
}

// AnalyzeImage analyzes an image that did not go through a session.
func (s *diagnosisService) AnalyzeImage(ctx context.Context, img media.EncodedImage) (*models.DiagnosisResult, error) {
	if img.IsZero() {
		return nil, apperrors.NewValidationError("no image to analyze", nil)
	}
	return s.run(ctx, "", img)
}

func (s *diagnosisService) run(ctx context.Context, sessionID string, img media.EncodedImage) (*models.DiagnosisResult, error) {
	start := time.Now()
	s.events.NotifyObservers(ctx, observer.Event{
		Type:      observer.AnalysisStarted,
		SessionID: sessionID,
		Metadata:  map[string]interface{}{"width": img.Width, "height": img.Height},
	})

	result, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.Event{
			Type:      observer.AnalysisFailed,
			SessionID: sessionID,
			Duration:  time.Since(start),
			Error:     err.Error(),
		})
		return nil, err
	}

	s.events.NotifyObservers(ctx, observer.Event{
		Type:      observer.AnalysisCompleted,
		SessionID: sessionID,
		Duration:  time.Since(start),
		Metadata: map[string]interface{}{
			"condition":  result.Condition.ID,
			"confidence": result.Confidence,
		},
	})
	logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"condition":  result.Condition.ID,
		"confidence": result.Confidence,
		"band":       result.ConfidenceBand(),
	}).Debug("Diagnosis produced")
	return result, nil
}
