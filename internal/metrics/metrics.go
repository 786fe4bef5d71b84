// Package metrics holds the bridge's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Round trip outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeTimeout   = "timeout"
	// OutcomeSkipped marks a round trip that was never sent because the
	// caller was on the JS loop goroutine.
	OutcomeSkipped = "skipped"
)

// Completion drop reasons.
const (
	DropUnknownID = "unknown_id"
	DropDuplicate = "duplicate"
)

var (
	RoundTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bmp",
		Subsystem: "bridge",
		Name:      "roundtrips_total",
		Help:      "Native to JS round trips by callback kind and outcome",
	}, []string{"kind", "outcome"})

	RoundTripSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bmp",
		Subsystem: "bridge",
		Name:      "roundtrip_duration_seconds",
		Help:      "Time spent waiting for a JS answer",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"kind"})

	CompletionsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bmp",
		Subsystem: "bridge",
		Name:      "completions_dropped_total",
		Help:      "Completions that arrived for no waiting round trip",
	}, []string{"kind", "reason"})

	RelayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bmp",
		Subsystem: "relay",
		Name:      "events_total",
		Help:      "Native player events forwarded by the event relay",
	}, []string{"event"})

	RelayDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bmp",
		Subsystem: "relay",
		Name:      "events_dropped_total",
		Help:      "Native player events dropped by the event relay",
	}, []string{"event", "reason"})
)

// ObserveRoundTrip records a finished round trip.
func ObserveRoundTrip(kind, outcome string, took time.Duration) {
	RoundTripsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeSkipped {
		RoundTripSeconds.WithLabelValues(kind).Observe(took.Seconds())
	}
}

// IncCompletionDropped records a completion that found no waiter.
func IncCompletionDropped(kind, reason string) {
	CompletionsDroppedTotal.WithLabelValues(kind, reason).Inc()
}

// IncRelayEvent records a delivered event.
func IncRelayEvent(event string) {
	RelayEventsTotal.WithLabelValues(event).Inc()
}

// IncRelayDropped records a dropped event.
func IncRelayDropped(event, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	RelayDroppedTotal.WithLabelValues(event, reason).Inc()
}
