package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	GuardDecisions       *prometheus.CounterVec
	GuardDuration        prometheus.Histogram
	AuditAppends         prometheus.Counter
	AuditAppendFailures  prometheus.Counter
	EventsEnqueued       prometheus.Counter
	EventsDelivered      prometheus.Counter
	EventDeliveryRetries prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		GuardDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sirenops_guard_decisions_total",
			Help: "Write-guard decisions by resource type and verdict",
		}, []string{"resource_type", "verdict"}),
		GuardDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sirenops_guard_duration_seconds",
			Help:    "End-to-end duration of guarded mutation attempts",
			Buckets: prometheus.DefBuckets,
		}),
		AuditAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sirenops_audit_appends_total",
			Help: "Audit ledger entries committed",
		}),
		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sirenops_audit_append_failures_total",
			Help: "Audit ledger appends that failed and rolled back the attempt",
		}),
		EventsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sirenops_outbox_events_enqueued_total",
			Help: "Domain events written to the outbox",
		}),
		EventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sirenops_outbox_events_delivered_total",
			Help: "Domain events acknowledged by all subscribers",
		}),
		EventDeliveryRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sirenops_outbox_delivery_retries_total",
			Help: "Event deliveries that failed and were scheduled for retry",
		}),
	}
}

// IncGuardDecision records one guard verdict.
func (m *Metrics) IncGuardDecision(resourceType, verdict string) {
	m.GuardDecisions.WithLabelValues(resourceType, verdict).Inc()
}

// ObserveGuardDuration records the duration of one guarded attempt.
func (m *Metrics) ObserveGuardDuration(seconds float64) {
	m.GuardDuration.Observe(seconds)
}

// IncAuditAppends increments the committed-audit-entry counter.
func (m *Metrics) IncAuditAppends() { m.AuditAppends.Inc() }

// IncAuditAppendFailures increments the failed-audit-append counter.
func (m *Metrics) IncAuditAppendFailures() { m.AuditAppendFailures.Inc() }

// IncEventsEnqueued increments the enqueued-event counter.
func (m *Metrics) IncEventsEnqueued() { m.EventsEnqueued.Inc() }

// IncEventsDelivered increments the delivered-event counter.
func (m *Metrics) IncEventsDelivered() { m.EventsDelivered.Inc() }

// IncEventDeliveryRetries increments the delivery-retry counter.
func (m *Metrics) IncEventDeliveryRetries() { m.EventDeliveryRetries.Inc() }
