package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse mirrors the chat collaborator contract: a message is always
// present, Error is set when the message is a canned fallback.
type ChatResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CreateSessionRequest creates a camera or upload session
type CreateSessionRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=camera upload"`
	Facing string `json:"facing,omitempty" binding:"omitempty,oneof=front rear user environment"`
	// Activate starts the camera right away, as mounting the camera view does.
	Activate bool `json:"activate,omitempty"`
}

// ImageRequest references a remote image or carries an inline data URL. It
// is the JSON body of file selection and one-shot analysis; multipart
// requests use the "file" form field instead.
type ImageRequest struct {
	URL     string `json:"url,omitempty"`
	DataURL string `json:"data_url,omitempty"`
}

// SessionResponse is the externally visible state of a session
type SessionResponse struct {
	ID            string   `json:"id"`
	Kind          string   `json:"kind"`
	State         string   `json:"state"`
	Device        string   `json:"device,omitempty"`
	HasStream     bool     `json:"has_stream"`
	HasPending    bool     `json:"has_pending_image"`
	HasCaptured   bool     `json:"has_captured_image"`
	PendingWidth  int      `json:"pending_width,omitempty"`
	PendingHeight int      `json:"pending_height,omitempty"`
	QualityHints  []string `json:"quality_hints,omitempty"`
}

// ConditionListResponse wraps catalog listings
type ConditionListResponse struct {
	Conditions  []Condition `json:"conditions"`
	Count       int         `json:"count"`
	Suggestions []string    `json:"suggestions,omitempty"`
}
