package models

import (
	"fmt"
	"strings"
)

// Risk is the coarse severity level of a skin condition
type Risk string

const (
	RiskLow      Risk = "Low"
	RiskModerate Risk = "Moderate"
	RiskHigh     Risk = "High"
)

// ParseRisk accepts any casing of a risk name.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "moderate":
		return RiskModerate, nil
	case "high":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Condition is one record of the static condition catalog
type Condition struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Symptoms              []string `json:"symptoms"`
	Treatment             string   `json:"treatment"`
	Risk                  Risk     `json:"risk"`
	NeedsMedicalAttention bool     `json:"needsMedicalAttention"`
	ImageURL              string   `json:"imageUrl,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate catalog data.
func (c Condition) Clone() Condition {
	out := c
	out.Symptoms = append([]string(nil), c.Symptoms...)
	return out
}
