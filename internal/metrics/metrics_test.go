package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)

	m.TurnsTotal.WithLabelValues("GRADUATION", "delivered").Inc()
	m.ToolRequestsTotal.WithLabelValues("graduation", "success").Inc()
	m.SimilaritySearchesTotal.WithLabelValues("bm25", "success").Inc()
	m.MemoryEvictionsTotal.Inc()
	m.RateLimiterDropped.WithLabelValues("student").Inc()

	if got := testutil.ToFloat64(m.TurnsTotal.WithLabelValues("GRADUATION", "delivered")); got != 1 {
		t.Errorf("Expected 1 delivered turn, got %f", got)
	}
	if got := testutil.ToFloat64(m.MemoryEvictionsTotal); got != 1 {
		t.Errorf("Expected 1 eviction, got %f", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected registered metric families")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	New(registry)
}
