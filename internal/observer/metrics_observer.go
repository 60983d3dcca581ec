package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skin_inspector"

// MetricsObserver exports session events as Prometheus metrics
type MetricsObserver struct {
	events           *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	streamsOpen      prometheus.Gauge
	analysisDuration prometheus.Histogram
	chatRequests     *prometheus.CounterVec
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_events_total",
				Help:      "Total number of session events by type",
			},
			[]string{"type"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of open capture and upload sessions",
			},
		),
		streamsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "camera_streams_open",
				Help:      "Number of camera streams currently held",
			},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of diagnosis analyses in seconds",
				Buckets:   []float64{.1, .5, 1, 2, 2.5, 5, 10},
			},
		),
		chatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Total number of chat requests by outcome",
			},
			[]string{"status"}, // answered, degraded
		),
	}

	for _, c := range []prometheus.Collector{o.events, o.sessionsActive, o.streamsOpen, o.analysisDuration, o.chatRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles events by updating metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case SessionCreated:
		o.sessionsActive.Inc()
	case SessionClosed:
		o.sessionsActive.Dec()
	case StreamActivated:
		o.streamsOpen.Inc()
	case StreamReleased:
		o.streamsOpen.Dec()
	case AnalysisCompleted:
		o.analysisDuration.Observe(event.Duration.Seconds())
	case ChatAnswered:
		o.chatRequests.WithLabelValues("answered").Inc()
	case ChatDegraded:
		o.chatRequests.WithLabelValues("degraded").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
