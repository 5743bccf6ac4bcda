package guardian

import "sync/atomic"

// MetricID indexes the lock-free counter set.
type MetricID uint16

const (
	// MetricLimitAllowed counts local limit checks that admitted a request.
	MetricLimitAllowed MetricID = iota
	// MetricLimitDenied counts local limit checks that denied a request.
	MetricLimitDenied
	// MetricPlanLimitAllowed counts plan-aware checks that admitted a request.
	MetricPlanLimitAllowed
	// MetricPlanLimitDenied counts plan-aware checks that denied a request.
	MetricPlanLimitDenied
	// MetricDistributedAllowed counts distributed checks that admitted a request.
	MetricDistributedAllowed
	// MetricDistributedDenied counts distributed checks that denied a request.
	MetricDistributedDenied
	// MetricFailOpen counts distributed checks served by the local fallback.
	MetricFailOpen
	// MetricEventLogged counts ingested security events.
	MetricEventLogged
	// MetricAlertLow counts created LOW alerts.
	MetricAlertLow
	// MetricAlertMedium counts created MEDIUM alerts.
	MetricAlertMedium
	// MetricAlertHigh counts created HIGH alerts.
	MetricAlertHigh
	// MetricAlertCritical counts created CRITICAL alerts.
	MetricAlertCritical
	// MetricDetectorFailure counts detector panics recovered during LogEvent.
	MetricDetectorFailure
	// MetricBlacklistWrite counts token revocations stored.
	MetricBlacklistWrite
	// MetricBlacklistHit counts lookups that found a revoked token.
	MetricBlacklistHit
	// MetricUserLogoutAll counts logout-everywhere markers written.
	MetricUserLogoutAll
	// MetricTOTPSuccess counts successful TOTP verifications.
	MetricTOTPSuccess
	// MetricTOTPFailure counts failed TOTP verifications.
	MetricTOTPFailure
	// MetricBackupCodesGenerated counts backup-code generation operations.
	MetricBackupCodesGenerated
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed-size set of atomic counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates the counter set. When disabled, Inc is a no-op and
// Snapshot returns empty maps.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
