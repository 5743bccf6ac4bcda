package guardian

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexlearn/guardian/internal/window"
)

// Builder assembles an [Engine]. Builders are single use: a second Build
// call returns [ErrBuilderReused].
//
// Builder instances are intended to be configured during initialization
// and then discarded after Build.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	logger    *slog.Logger
	alertSink AlertSink
	detectors []Detector
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client backing the distributed limiter and the
// token blacklist. Without it both fall back to in-memory stores scoped
// to this process.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAlertSink sets the destination for HIGH and CRITICAL alert
// notifications.
func (b *Builder) WithAlertSink(sink AlertSink) *Builder {
	b.alertSink = sink
	return b
}

// WithDetector appends a custom detector after the built-in chain.
func (b *Builder) WithDetector(d Detector) *Builder {
	b.detectors = append(b.detectors, d)
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every component, and starts
// the background sweeps. The caller owns the returned Engine and must
// call [Engine.Close] to release it.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}

	cfg := b.config
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
		now:    now,
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.dispatcher = newAlertDispatcher(cfg.Alerts, b.alertSink)

	engine.limiter = window.New(cfg.RateLimit.Default, logger)
	engine.plans = newPlanLimiter(cfg.Plans, logger)
	engine.distributed = newDistributedLimiter(b.redis, cfg.Distributed, logger)
	engine.blacklist = newBlacklistStore(b.redis, cfg.Blacklist, logger, now)
	engine.totp = newTOTPManager(cfg.TOTP)

	detectors := defaultDetectors(cfg.Monitor)
	detectors = append(detectors, b.detectors...)
	engine.monitor = newSecurityMonitor(cfg.Monitor, detectors, engine.dispatcher, engine.metrics, logger, now)

	if cfg.RateLimit.SweepInterval > 0 {
		engine.limiter.StartSweep(cfg.RateLimit.SweepInterval)
		engine.distributed.StartFallbackSweep(cfg.RateLimit.SweepInterval)
	}
	if cfg.Plans.SweepInterval > 0 {
		engine.plans.StartSweep()
	}
	if cfg.Monitor.RetentionSweepInterval > 0 {
		engine.monitor.StartRetentionSweep()
	}
	if b.redis == nil && cfg.Blacklist.FallbackSweepInterval > 0 {
		engine.blacklist.StartFallbackSweep()
	}

	b.built = true

	return engine, nil
}
