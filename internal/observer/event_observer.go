package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType represents the type of session event
type EventType string

const (
	SessionCreated    EventType = "session_created"
	SessionClosed     EventType = "session_closed"
	StreamActivated   EventType = "stream_activated"
	StreamReleased    EventType = "stream_released"
	DeviceSwitched    EventType = "device_switched"
	ImageCaptured     EventType = "image_captured"
	FileSelected      EventType = "file_selected"
	ImageAccepted     EventType = "image_accepted"
	ImageDiscarded    EventType = "image_discarded"
	OperationFailed   EventType = "operation_failed"
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
	ChatAnswered      EventType = "chat_answered"
	ChatDegraded      EventType = "chat_degraded"
)

// Event is emitted on every externally visible change of a session and on
// analysis and chat completions.
type Event struct {
	Type          EventType              `json:"type"`
	SessionID     string                 `json:"session_id,omitempty"`
	Kind          string                 `json:"kind,omitempty"`
	State         string                 `json:"state,omitempty"`
	PreviousState string                 `json:"previous_state,omitempty"`
	Device        string                 `json:"device,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Duration      time.Duration          `json:"duration,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for event observers. OnEvent is called on
// the publishing goroutine and must not block.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event)
}

// LoggingObserver logs session events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type": event.Type,
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
		fields["kind"] = event.Kind
		fields["state"] = event.State
	}
	if event.PreviousState != "" {
		fields["previous_state"] = event.PreviousState
	}
	if event.Device != "" {
		fields["device"] = event.Device
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.Type {
	case OperationFailed, AnalysisFailed:
		entry.Error("Session operation failed")
	case ChatDegraded:
		entry.Warn("Chat degraded to fallback response")
	case StreamActivated, StreamReleased, DeviceSwitched:
		entry.Debug("Camera stream changed")
	default:
		entry.Info("Session event")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers an event to every observer in subscription order.
// A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notifyOne(ctx, obs, event)
	}
}

func notifyOne(ctx context.Context, obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

// Discard is a Subject that drops every event.
type Discard struct{}

func (Discard) Subscribe(Observer)                     {}
func (Discard) Unsubscribe(Observer)                   {}
func (Discard) NotifyObservers(context.Context, Event) {}
