// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GenerationDuration tracks generation call duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Generation call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "mode", "status"},
	)

	// GenerationsTotal tracks generation calls by outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_generations_total",
			Help: "Total generation calls",
		},
		[]string{"provider", "mode", "status"},
	)

	// PromptChars tracks the size of composed prompts.
	PromptChars = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_prompt_chars",
			Help:    "Composed prompt size in characters",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"mode"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// TurnsTotal tracks turns appended to conversations.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_total",
			Help: "Total turns appended",
		},
		[]string{"role"},
	)

	// UploadsTotal tracks uploaded files by outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total uploaded files",
		},
		[]string{"status"},
	)

	// TurnEventsDropped tracks turn events not delivered to a slow subscriber.
	TurnEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "turn_events_dropped_total",
			Help: "Turn events dropped because a subscriber buffer was full",
		},
	)

	// SpeechTotal tracks speech operations by kind and outcome.
	SpeechTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_operations_total",
			Help: "Total speech recognition and synthesis operations",
		},
		[]string{"kind", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for a generation call.
func RecordGeneration(provider, mode, status string, duration float64, promptChars int) {
	GenerationDuration.WithLabelValues(provider, mode, status).Observe(duration)
	GenerationsTotal.WithLabelValues(provider, mode, status).Inc()
	PromptChars.WithLabelValues(mode).Observe(float64(promptChars))
}

// RecordTurn counts an appended turn.
func RecordTurn(role string) {
	TurnsTotal.WithLabelValues(role).Inc()
}

// RecordUpload counts an uploaded file.
func RecordUpload(status string) {
	UploadsTotal.WithLabelValues(status).Inc()
}

// RecordSpeech counts a speech operation.
func RecordSpeech(kind, status string) {
	SpeechTotal.WithLabelValues(kind, status).Inc()
}

// RecordDroppedTurnEvent counts a turn event dropped for a slow subscriber.
func RecordDroppedTurnEvent() {
	TurnEventsDropped.Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
