package models

// DiagnosisResult is the output of the mock analysis. Confidence is an
// integer percentage and Timestamp is an ISO-8601 string in UTC.
type DiagnosisResult struct {
	Condition  Condition `json:"condition"`
	Confidence int       `json:"confidence"`
	Timestamp  string    `json:"timestamp"`
}

// ConfidenceBand buckets the confidence the same way the result card colors it.
func (r DiagnosisResult) ConfidenceBand() string {
	switch {
	case r.Confidence > 80:
		return "high"
	case r.Confidence > 70:
		return "medium"
	default:
		return "low"
	}
}
