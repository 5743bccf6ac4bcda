package guardian

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricEventLogged)
	if got := m.Value(MetricEventLogged); got != 0 {
		t.Fatalf("value = %d, want 0 when disabled", got)
	}
	if got := len(m.Snapshot().Counters); got != 0 {
		t.Fatalf("snapshot size = %d, want empty when disabled", got)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricEventLogged)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics should report disabled")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricLimitAllowed)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLimitAllowed); got != 8000 {
		t.Fatalf("value = %d, want 8000", got)
	}
	if got := m.Snapshot().Counters[MetricLimitAllowed]; got != 8000 {
		t.Fatalf("snapshot = %d, want 8000", got)
	}
}

func TestMetricsUnknownIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount + 5)
	if got := m.Value(metricIDCount + 5); got != 0 {
		t.Fatalf("out-of-range value = %d, want 0", got)
	}
}

func TestEngineDistributedFailOpenMetric(t *testing.T) {
	mr, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.Distributed.Policy = RateLimitPolicy{Window: time.Minute, MaxRequests: 3}

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if result := engine.CheckDistributedLimit(context.Background(), "ip"); !result.Allowed {
		t.Fatal("first distributed check should be allowed")
	}
	if got := engine.MetricsSnapshot().Counters[MetricFailOpen]; got != 0 {
		t.Fatalf("fail open counter = %d, want 0 with a healthy backend", got)
	}

	mr.Close()
	engine.CheckDistributedLimit(context.Background(), "ip")
	if got := engine.MetricsSnapshot().Counters[MetricFailOpen]; got != 1 {
		t.Fatalf("fail open counter = %d, want 1 after backend loss", got)
	}
}
