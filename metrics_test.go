package goAccounts

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSignInSuccess)

	if got := m.Value(MetricSignInSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignInSuccess)
	m.Inc(MetricSignInSuccess)
	m.Inc(MetricSignInSuccess)

	if got := m.Value(MetricSignInSuccess); got != 3 {
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
				m.Inc(MetricFetchSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricFetchSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		2 * time.Millisecond,   // bucket 0
		8 * time.Millisecond,   // bucket 1
		20 * time.Millisecond,  // bucket 2
		40 * time.Millisecond,  // bucket 3
		90 * time.Millisecond,  // bucket 4
		200 * time.Millisecond, // bucket 5
		400 * time.Millisecond, // bucket 6
		900 * time.Millisecond, // bucket 7
	}
	for _, d := range observations {
		m.Observe(MetricFetchLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricFetchLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, count := range buckets {
		if count != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, count)
		}
	}
}

func TestMetricsHistogramDisabledNoObservation(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricFetchLatency, 10*time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Histograms) != 0 {
		t.Fatalf("expected no histogram data, got %v", snap.Histograms)
	}
}

func TestMetricsObserveOnlyLatencyMetric(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Observe(MetricSignInSuccess, 10*time.Millisecond)

	snap := m.Snapshot()
	if buckets, ok := snap.Histograms[MetricSignInSuccess]; ok {
		t.Fatalf("expected no buckets for counter metric, got %v", buckets)
	}
}

func TestMetricsSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricFetchSuccess)

	snap := m.Snapshot()
	snap.Counters[MetricFetchSuccess] = 999

	if got := m.Value(MetricFetchSuccess); got != 1 {
		t.Fatalf("expected live value untouched, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricFetchSuccess)
	m.Observe(MetricFetchLatency, time.Millisecond)

	if got := m.Value(MetricFetchSuccess); got != 0 {
		t.Fatalf("expected 0 from nil metrics, got %d", got)
	}
}
