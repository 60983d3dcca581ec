package validation

import (
	"testing"
)

func goodMetrics() PhotoMetrics {
	return PhotoMetrics{
		Width:          1280,
		Height:         720,
		LaplacianVar:   250,
		AvgLuminance:   0.6,
		AvgSaturation:  0.3,
		ChannelBalance: [3]float64{0.7, 0.55, 0.45},
	}
}

func TestValidate_CleanPhoto(t *testing.T) {
	issues := NewQualityValidator().Validate(goodMetrics())
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", HintCodes(issues))
	}
}

func TestValidate_Hints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PhotoMetrics)
		want   string
	}{
		{"dark", func(m *PhotoMetrics) { m.AvgLuminance = 0.1 }, HintTooDark},
		{"bright", func(m *PhotoMetrics) { m.AvgLuminance = 0.97 }, HintOverexposed},
		{"saturated", func(m *PhotoMetrics) { m.AvgSaturation = 0.9 }, HintOversaturated},
		{"blurry", func(m *PhotoMetrics) { m.LaplacianVar = 2 }, HintBlurry},
		{"color cast", func(m *PhotoMetrics) { m.ChannelBalance = [3]float64{0.9, 0.1, 0.1} }, HintColorCast},
		{"small", func(m *PhotoMetrics) { m.Width, m.Height = 160, 120 }, HintLowResolution},
	}

	v := NewQualityValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := goodMetrics()
			tt.mutate(&m)
			codes := HintCodes(v.Validate(m))
			if len(codes) != 1 || codes[0] != tt.want {
				t.Errorf("Expected [%s], got %v", tt.want, codes)
			}
		})
	}
}

func TestNewQualityValidatorWithThresholds(t *testing.T) {
	th := DefaultQualityThresholds()
	th.MinLaplacianVariance = 1000
	v := NewQualityValidatorWithThresholds(th)

	if v.Thresholds().MinLaplacianVariance != 1000 {
		t.Fatal("Expected custom threshold to be kept")
	}
	codes := HintCodes(v.Validate(goodMetrics()))
	if len(codes) != 1 || codes[0] != HintBlurry {
		t.Errorf("Expected blurry hint with strict threshold, got %v", codes)
	}
}

func TestHintCodes_Empty(t *testing.T) {
	if HintCodes(nil) != nil {
		t.Error("Expected nil for no issues")
	}
}
