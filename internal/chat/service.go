// Package chat answers free-text health questions through the Gemini
// generateContent API. Every call yields a displayable message: failures
// degrade to a fixed apology and carry the error text alongside.
package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-skin-inspector/internal/observer"
	"go-skin-inspector/pkg/models"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout = 30 * time.Second

	// minAPIKeyLength rejects placeholder keys
	minAPIKeyLength = 10
)

// Canned replies.
const (
	NotConfiguredMessage = "I'm sorry, but the AI chatbot is not configured yet. Please add your Gemini API key to use this feature."
	NotConfiguredError   = "API key not configured"

	UnavailableMessage = "I'm sorry, I'm having trouble connecting right now. Please try again later or consult a healthcare professional for immediate concerns."

	EmptyQuestionMessage = "Please type a question about skin health or general wellness."
	EmptyQuestionError   = "message is empty"
)

// Config holds the chat service settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Service is the chat collaborator. It is safe for concurrent use.
type Service struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	events  observer.Subject
}

// NewService creates a chat service. A nil events subject discards events.
func NewService(cfg Config, events observer.Subject) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if events == nil {
		events = observer.Discard{}
	}
	return &Service{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
		events:  events,
	}
}

// Configured reports whether an API key usable for outbound calls is set.
func (s *Service) Configured() bool {
	return len(s.apiKey) >= minAPIKeyLength
}

// Model returns the model name used for generation
func (s *Service) Model() string {
	return s.model
}

// SendMessage answers a user question. It never fails: problems are
// reported through the Error field next to a canned message.
func (s *Service) SendMessage(ctx context.Context, text string) models.ChatResponse {
	start := time.Now()

	if !s.Configured() {
		return s.degraded(ctx, start, "not_configured", models.ChatResponse{
			Message: NotConfiguredMessage,
			Error:   NotConfiguredError,
		})
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return s.degraded(ctx, start, "empty_question", models.ChatResponse{
			Message: EmptyQuestionMessage,
			Error:   EmptyQuestionError,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generateContent(callCtx, BuildPrompt(text))
	if err != nil {
		return s.degraded(ctx, start, "upstream_error", models.ChatResponse{
			Message: UnavailableMessage,
			Error:   err.Error(),
		})
	}

	s.events.NotifyObservers(ctx, observer.Event{
		Type:     observer.ChatAnswered,
		Duration: time.Since(start),
		Metadata: map[string]interface{}{"model": s.model},
	})
	return models.ChatResponse{Message: strings.TrimSpace(answer)}
}

func (s *Service) degraded(ctx context.Context, start time.Time, reason string, resp models.ChatResponse) models.ChatResponse {
	s.events.NotifyObservers(ctx, observer.Event{
		Type:     observer.ChatDegraded,
		Duration: time.Since(start),
		Error:    resp.Error,
		Metadata: map[string]interface{}{"reason": reason, "model": s.model},
	})
	return resp
}
