package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncReceived("upay")
	m.IncReceived("upay")
	m.IncDuplicate("upay")
	m.IncMismatch("")
	m.ObserveDuration("upay", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.received.WithLabelValues("upay")); got != 2 {
		t.Fatalf("expected 2 received, got %v", got)
	}
	if got := testutil.ToFloat64(m.duplicates.WithLabelValues("upay")); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.mismatches.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty provider should map to unknown, got %v", got)
	}
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *WebhookMetrics
	m.IncReceived("upay")
	m.IncDuplicate("upay")
	m.IncMismatch("upay")
	m.IncFailure("upay")
	m.ObserveDuration("upay", time.Second)

	empty := NewWebhookMetrics(nil)
	empty.IncReceived("upay")
}
