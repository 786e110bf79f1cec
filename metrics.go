package goAccounts

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricFetchSuccess counts round trips that returned a 2xx envelope.
	MetricFetchSuccess MetricID = iota
	// MetricFetchFailure counts round trips that returned a non-2xx envelope.
	MetricFetchFailure
	// MetricFetchTransportError counts round trips that failed below HTTP
	// and yielded the synthetic 500 envelope.
	MetricFetchTransportError
	// MetricUnauthorized counts 401 responses seen by FetchWithRefresh.
	MetricUnauthorized
	// MetricRefreshIssued counts session-refresh calls.
	MetricRefreshIssued
	// MetricRetryIssued counts post-refresh retries of the original request.
	MetricRetryIssued
	// MetricRetryRecovered counts retries that came back 2xx.
	MetricRetryRecovered
	// MetricForcedSignOut counts unrecoverable-session navigations.
	MetricForcedSignOut
	// MetricSignInSuccess counts sign-ins that established a session.
	MetricSignInSuccess
	// MetricSignInPendingTwoFactor counts sign-ins parked on a TOTP step.
	MetricSignInPendingTwoFactor
	// MetricSignInFailure counts rejected sign-in attempts.
	MetricSignInFailure
	// MetricTOTPVerifySuccess counts completed two-factor sign-ins.
	MetricTOTPVerifySuccess
	// MetricTOTPVerifyFailure counts rejected TOTP codes.
	MetricTOTPVerifyFailure
	// MetricSignOut counts sign-out calls.
	MetricSignOut
	// MetricSessionChecked counts session-check calls on page load.
	MetricSessionChecked
	// MetricRegisterAccepted counts registrations the backend accepted.
	MetricRegisterAccepted
	// MetricRegisterRejected counts registrations rejected by the backend.
	MetricRegisterRejected
	// MetricProfileUpdateAccepted counts accepted profile updates.
	MetricProfileUpdateAccepted
	// MetricProfileUpdateRejected counts rejected profile updates.
	MetricProfileUpdateRejected
	// MetricValidationPassed counts local validations that returned valid.
	MetricValidationPassed
	// MetricValidationRejected counts local validations that accumulated
	// at least one error and never reached the network.
	MetricValidationRejected
	// MetricVerificationCall counts calls to the verifications endpoint
	// family (token links, reset emails, TOTP provisioning).
	MetricVerificationCall
	// MetricFetchLatency is the round-trip latency histogram.
	MetricFetchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram. A nil or
// disabled Metrics is a no-op on every method.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] configured by cfg. When Enabled is false,
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the identified counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one latency sample. Only MetricFetchLatency is histogrammed.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricFetchLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histogram buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricFetchLatency].buckets[i])
		}
		s.Histograms[MetricFetchLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
