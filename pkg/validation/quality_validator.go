package validation

import (
	"math"
)

// QualityThresholds defines configurable thresholds for photo quality hints
type QualityThresholds struct {
	// Sharpness threshold
	MinLaplacianVariance float64

	// Luminance thresholds (0..1)
	MinLuminance float64
	MaxLuminance float64

	// Saturation threshold (0..1)
	MaxSaturation float64

	// Channel balance threshold
	MaxChannelImbalance float64

	// Resolution thresholds
	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns thresholds tuned for close-up skin photos
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 15.0,
		MinLuminance:         0.2,
		MaxLuminance:         0.92,
		MaxSaturation:        0.85,
		MaxChannelImbalance:  0.45,
		MinWidth:             320,
		MinHeight:            240,
	}
}

// QualityValidator turns photo metrics into review hints
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the active thresholds
func (qv *QualityValidator) Thresholds() QualityThresholds {
	return qv.thresholds
}

// Hint codes surfaced in session snapshots.
const (
	HintTooDark       = "too_dark"
	HintOverexposed   = "overexposed"
	HintOversaturated = "oversaturated"
	HintBlurry        = "blurry"
	HintColorCast     = "color_cast"
	HintLowResolution = "low_resolution"
)

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// PhotoMetrics represents the metrics needed for quality validation
type PhotoMetrics struct {
	Width          int
	Height         int
	LaplacianVar   float64
	AvgLuminance   float64
	AvgSaturation  float64
	ChannelBalance [3]float64
}

// Validate returns the issues found in a photo. Issues are advisory: a photo
// with issues can still be accepted.
func (qv *QualityValidator) Validate(m PhotoMetrics) []QualityIssue {
	var issues []QualityIssue

	if m.Width < qv.thresholds.MinWidth || m.Height < qv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        HintLowResolution,
			Message:     "Photo resolution is low. Move closer or use a better camera.",
			Severity:    "warning",
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	if m.AvgLuminance <= qv.thresholds.MinLuminance {
		issues = append(issues, QualityIssue{
			Type:        HintTooDark,
			Message:     "Photo is too dark. Use more light.",
			Severity:    "warning",
			ActualValue: m.AvgLuminance,
			Threshold:   qv.thresholds.MinLuminance,
		})
	} else if m.AvgLuminance >= qv.thresholds.MaxLuminance {
		issues = append(issues, QualityIssue{
			Type:        HintOverexposed,
			Message:     "Photo has too much light. Avoid direct flash or sunlight.",
			Severity:    "warning",
			ActualValue: m.AvgLuminance,
			Threshold:   qv.thresholds.MaxLuminance,
		})
	}

	if m.AvgSaturation >= qv.thresholds.MaxSaturation {
		issues = append(issues, QualityIssue{
			Type:        HintOversaturated,
			Message:     "Colors are too strong. Use normal light.",
			Severity:    "info",
			ActualValue: m.AvgSaturation,
			Threshold:   qv.thresholds.MaxSaturation,
		})
	}

	if !qv.isChannelBalanced(m.ChannelBalance) {
		issues = append(issues, QualityIssue{
			Type:     HintColorCast,
			Message:  "Colors in the photo don't look natural. Use neutral lighting.",
			Severity: "info",
		})
	}

	if m.LaplacianVar < qv.thresholds.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        HintBlurry,
			Message:     "Photo looks blurry. Hold the camera steady and focus on the affected area.",
			Severity:    "warning",
			ActualValue: m.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	}

	return issues
}

// isChannelBalanced checks if RGB channel means are reasonably close
func (qv *QualityValidator) isChannelBalanced(channels [3]float64) bool {
	max := math.Max(channels[0], math.Max(channels[1], channels[2]))
	min := math.Min(channels[0], math.Min(channels[1], channels[2]))
	return (max - min) <= qv.thresholds.MaxChannelImbalance
}

// HintCodes extracts the issue types in order.
func HintCodes(issues []QualityIssue) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Type
	}
	return out
}
