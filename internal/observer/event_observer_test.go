package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, Event) { panic("boom") }
func (panickingObserver) GetObserverName() string        { return "panicky" }

func TestEventPublisher_DeliversInOrder(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(panickingObserver{})
	p.Subscribe(rec)

	ctx := context.Background()
	p.NotifyObservers(ctx, Event{Type: SessionCreated, SessionID: "s1"})
	p.NotifyObservers(ctx, Event{Type: StreamActivated, SessionID: "s1"})

	require.Len(t, rec.events, 2)
	assert.Equal(t, SessionCreated, rec.events[0].Type)
	assert.Equal(t, StreamActivated, rec.events[1].Type)
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(rec)
	p.Unsubscribe(rec)

	p.NotifyObservers(context.Background(), Event{Type: SessionClosed})
	assert.Empty(t, rec.events)
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	NewLoggingObserver(l).OnEvent(context.Background(), Event{
		Type:      OperationFailed,
		SessionID: "s1",
		Kind:      "camera",
		State:     "idle",
		Error:     "camera permission denied",
		Duration:  1500 * time.Millisecond,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "camera permission denied", entry["error"])
	assert.EqualValues(t, 1500, entry["duration_ms"])
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.OnEvent(ctx, Event{Type: SessionCreated})
	m.OnEvent(ctx, Event{Type: StreamActivated})
	m.OnEvent(ctx, Event{Type: StreamReleased})
	m.OnEvent(ctx, Event{Type: StreamActivated})
	m.OnEvent(ctx, Event{Type: ChatDegraded})
	m.OnEvent(ctx, Event{Type: AnalysisCompleted, Duration: 2 * time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(string(StreamActivated))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("degraded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.analysisDuration))

	_, err = NewMetricsObserver(reg)
	assert.Error(t, err, "duplicate registration must fail")
}
