package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	CommandsDropped  prometheus.Counter
	CommandErrors    *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	SpeechQueueDepth prometheus.Gauge
	SpeechInterrupts prometheus.Counter
	EngineErrors     prometheus.Counter
	AIRequests       *prometheus.CounterVec
	CommandLatency   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active assistant sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Processed commands by category and action.",
		}, []string{"category", "action"}),
		CommandsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "Commands dropped because the dispatch queue was full.",
		}),
		CommandErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Command execution errors by category.",
		}, []string{"category"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		SpeechQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speech_queue_depth",
			Help:      "Items waiting in the speech queue.",
		}),
		SpeechInterrupts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_interrupts_total",
			Help:      "Speech interruptions requested by the user.",
		}),
		EngineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_engine_errors_total",
			Help:      "Text-to-speech engine failures.",
		}),
		AIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Fallback model requests by outcome.",
		}, []string{"outcome"}),
		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_ms",
			Help:      "Latency from submission to spoken response in milliseconds.",
			Buckets:   []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
		}),
	}
}

func (m *Metrics) ObserveCommand(category, action string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(category, action).Inc()
}

func (m *Metrics) ObserveCommandError(category string) {
	if m == nil {
		return
	}
	m.CommandErrors.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveCommandLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.CommandLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveAIRequest(outcome string) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
