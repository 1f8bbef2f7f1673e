package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records reconciliation outcomes per gateway provider.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	received   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	mismatches *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_reconcile_duration_seconds",
		Help:    "Duration of webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received_total",
		Help: "Inbound gateway webhook notifications.",
	}, []string{"provider"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate_total",
		Help: "Webhook deliveries absorbed by a terminal payment state.",
	}, []string{"provider"})
	mismatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_mismatch_total",
		Help: "Webhook deliveries rejected for amount/order mismatches.",
	}, []string{"provider"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failure_total",
		Help: "Webhook deliveries that failed with a transient error.",
	}, []string{"provider"})
	reg.MustRegister(duration, received, duplicates, mismatches, failures)
	return &WebhookMetrics{
		duration:   duration,
		received:   received,
		duplicates: duplicates,
		mismatches: mismatches,
		failures:   failures,
	}
}

// ObserveDuration records the reconciliation duration for the provider.
func (m *WebhookMetrics) ObserveDuration(provider string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncReceived increments the inbound notification counter.
func (m *WebhookMetrics) IncReceived(provider string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncDuplicate increments the absorbed-duplicate counter.
func (m *WebhookMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncMismatch increments the integrity-mismatch counter.
func (m *WebhookMetrics) IncMismatch(provider string) {
	if m == nil || m.mismatches == nil {
		return
	}
	m.mismatches.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncFailure increments the transient-failure counter.
func (m *WebhookMetrics) IncFailure(provider string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(provider)).Inc()
}

func normalizeLabel(provider string) string {
	if provider == "" {
		return "unknown"
	}
	return provider
}
