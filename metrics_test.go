package goRedeem

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics must snapshot empty, got %v", snap.Counters)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricScanIgnored)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricScanIgnored); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		10 * time.Millisecond,
		80 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		900 * time.Millisecond,
		2 * time.Second,
		5 * time.Second,
		30 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricRedemptionLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Second)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRedemptionLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, v)
		}
	}

	var total time.Duration
	for _, d := range observations {
		total += d
	}
	if got := snap.HistogramSums[MetricRedemptionLatency]; got != total {
		t.Fatalf("expected sum %s, got %s", total, got)
	}
	if _, ok := snap.Counters[MetricRedemptionLatency]; ok {
		t.Fatal("histogram id must not appear as a counter")
	}
}

func TestMetricsLatencyDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRedemptionLatency, time.Second)

	if _, ok := m.Snapshot().Histograms[MetricRedemptionLatency]; ok {
		t.Fatal("expected no histogram when latency is disabled")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricRedemptionLatency, time.Second)
	if m.Value(MetricLogout) != 0 || m.Enabled() {
		t.Fatal("nil metrics must be inert")
	}
}
