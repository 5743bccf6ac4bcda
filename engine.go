package guardian

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nexlearn/guardian/internal/window"
)

// Engine is the assembled abuse-resistance core. All operations are safe
// for concurrent use. Construct it with [NewBuilder]; a zero Engine is not
// usable.
type Engine struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	limiter     *window.Limiter
	plans       *planLimiter
	distributed *distributedLimiter
	monitor     *securityMonitor
	blacklist   *blacklistStore
	totp        *totpManager
	metrics     *Metrics
	dispatcher  *alertDispatcher

	closeOnce sync.Once
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// MetricsSnapshot returns the current counter values. All counters read
// zero when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AlertsDropped reports how many alert notifications were discarded because
// the dispatcher buffer was full.
func (e *Engine) AlertsDropped() uint64 {
	if e.dispatcher == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

// Close stops all background sweeps and drains the alert dispatcher. The
// engine must not be used after Close returns. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.limiter.Stop()
		e.plans.Stop()
		e.distributed.Stop()
		e.monitor.Stop()
		e.blacklist.Stop()
		if e.dispatcher != nil {
			e.dispatcher.Close()
		}
		e.logger.Debug("guardian engine closed")
	})
}

// defaultDetectors builds the detector chain in its fixed inspection order.
func defaultDetectors(cfg MonitorConfig) []Detector {
	return []Detector{
		newBruteForceDetector(cfg),
		newAnomalyDetector(),
		newAPIAbuseDetector(cfg),
		newAttackSignatureDetector(),
	}
}
