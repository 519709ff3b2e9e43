// Package metrics is the process-wide Prometheus registry (L3). Every
// component that records a metric imports this package and calls one of
// its recording helpers instead of declaring its own collectors, so
// `/metrics` always exposes the full required series from one place.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace is empty so every series is exposed under its bare name
// (cdc_events_processed_total, retry_attempts_total, dlq_messages_total,
// circuit_breaker_state, ...).
const namespace = ""

var (
	cdcEventsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cdc",
		Name:      "events_processed_total",
		Help:      "CDC rows successfully delivered to a consumer, counted once per consumer.",
	}, []string{"event_type"})

	cdcEventsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cdc",
		Name:      "events_failed_total",
		Help:      "CDC rows that failed delivery, by reason.",
	}, []string{"event_type", "reason"})

	cdcProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cdc",
		Name:      "processing_duration_seconds",
		Help:      "Time to parse a single CDC row and deliver it to one consumer.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	retryAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Attempts made per retried operation.",
	}, []string{"operation", "attempt"})

	retrySuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retry",
		Name:      "success_total",
		Help:      "Operations that eventually succeeded, with or without retrying.",
	}, []string{"operation"})

	retryFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retry",
		Name:      "failure_total",
		Help:      "Operations that exhausted retries or failed permanently.",
	}, []string{"operation"})

	dlqMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "messages_total",
		Help:      "Messages routed to the dead-letter queue, across all event types.",
	})

	dlqMessagesByEventType = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dlq",
		Name:      "messages_by_event_type",
		Help:      "Messages routed to the dead-letter queue, by event type.",
	}, []string{"event_type"})

	circuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current breaker state: 0=closed, 1=half-open, 2=open.",
	}, []string{"name"})

	circuitBreakerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "circuit_breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"name", "from_state", "to_state"})
)

func init() {
	prometheus.MustRegister(
		cdcEventsProcessedTotal,
		cdcEventsFailedTotal,
		cdcProcessingDuration,
		retryAttemptsTotal,
		retrySuccessTotal,
		retryFailureTotal,
		dlqMessagesTotal,
		dlqMessagesByEventType,
		circuitBreakerState,
		circuitBreakerTransitionsTotal,
	)
}

// RecordCDCProcessed increments the processed counter for an event type.
func RecordCDCProcessed(eventType string) {
	cdcEventsProcessedTotal.WithLabelValues(eventType).Inc()
}

// RecordCDCFailed increments the failed counter for an event type/reason.
func RecordCDCFailed(eventType, reason string) {
	cdcEventsFailedTotal.WithLabelValues(eventType, reason).Inc()
}

// ObserveCDCProcessingDuration records the wall time to deliver one row to
// one consumer.
func ObserveCDCProcessingDuration(eventType string, seconds float64) {
	cdcProcessingDuration.WithLabelValues(eventType).Observe(seconds)
}

// RecordRetryAttempt increments the attempt counter for an operation at a
// given attempt number (1-based).
func RecordRetryAttempt(operation string, attempt int) {
	retryAttemptsTotal.WithLabelValues(operation, strconv.Itoa(attempt)).Inc()
}

// RecordRetrySuccess increments the success counter for an operation.
func RecordRetrySuccess(operation string) {
	retrySuccessTotal.WithLabelValues(operation).Inc()
}

// RecordRetryFailure increments the failure counter for an operation.
func RecordRetryFailure(operation string) {
	retryFailureTotal.WithLabelValues(operation).Inc()
}

// RecordDLQMessage increments both the total and per-event-type DLQ
// counters.
func RecordDLQMessage(eventType string) {
	dlqMessagesTotal.Inc()
	dlqMessagesByEventType.WithLabelValues(eventType).Inc()
}

// SetCircuitBreakerState sets the breaker state gauge. state must already
// be mapped to 0 (closed), 1 (half-open), or 2 (open).
func SetCircuitBreakerState(name string, state float64) {
	circuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordCircuitBreakerTransition increments the transition counter.
func RecordCircuitBreakerTransition(name, fromState, toState string) {
	circuitBreakerTransitionsTotal.WithLabelValues(name, fromState, toState).Inc()
}
