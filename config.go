package guardian

import (
	"errors"
	"time"
)

// Config groups all tuning parameters of the abuse-resistance core.
//
// Config instances are intended to be populated before [Builder.Build] and
// treated as immutable afterwards.
type Config struct {
	RateLimit   RateLimitConfig
	Distributed DistributedConfig
	Plans       PlanConfig
	Monitor     MonitorConfig
	Blacklist   BlacklistConfig
	TOTP        TOTPConfig
	Alerts      AlertConfig
	Metrics     MetricsConfig
}

// RateLimitConfig tunes the local sliding-window limiter.
type RateLimitConfig struct {
	// Default is applied to identifiers without a custom override.
	Default RateLimitPolicy
	// SweepInterval bounds memory growth by purging fully expired windows.
	// Zero disables the background sweep; callers accept unbounded growth.
	SweepInterval time.Duration
}

// DistributedConfig tunes the Redis-backed limiter shared across processes.
type DistributedConfig struct {
	// Policy applied to every identifier checked through the distributed path.
	Policy RateLimitPolicy
	// KeyPrefix namespaces the per-identifier sorted sets.
	KeyPrefix string
	// Timeout caps the Redis round-trip; on expiry the check fails open to
	// a local approximation.
	Timeout time.Duration
}

// PlanConfig maps subscription tiers to per-category policies.
type PlanConfig struct {
	// Policies holds one policy per (plan, category) pair. Missing pairs
	// fall back to the free tier's policy for that category.
	Policies map[Plan]map[Category]RateLimitPolicy
	// SweepInterval for the per-cell window limiters.
	SweepInterval time.Duration
}

// MonitorConfig tunes the security-event monitor and its detectors.
type MonitorConfig struct {
	// MaxEvents caps the in-memory event log.
	MaxEvents int
	// Retention drops events older than this during the retention sweep.
	Retention time.Duration
	// RetentionSweepInterval schedules the retention sweep.
	RetentionSweepInterval time.Duration

	// BruteForceThreshold is the failure count that raises the alert.
	BruteForceThreshold int
	// BruteForceWindow is the trailing window for counting login failures.
	BruteForceWindow time.Duration

	// APIAbuseThreshold is the RATE_LIMIT_EXCEEDED count per IP that
	// raises the abuse alert.
	APIAbuseThreshold int
	// APIAbuseWindow is the trailing window for counting limiter denials.
	APIAbuseWindow time.Duration

	// DashboardTopN bounds the offender lists in the dashboard projection.
	DashboardTopN int
}

// BlacklistConfig tunes the token revocation store.
type BlacklistConfig struct {
	// KeyPrefix namespaces blacklist keys in Redis.
	KeyPrefix string
	// UserLogoutTTL is the lifetime of the coarse logout-everywhere marker.
	UserLogoutTTL time.Duration
	// FallbackSweepInterval schedules reaping of the in-memory fallback set.
	FallbackSweepInterval time.Duration
}

// TOTPConfig tunes the one-time-password engine. Defaults follow RFC 6238:
// 30-second period, 6 digits, SHA1.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string
	// BackupCodeCount and BackupCodeBytes shape generated backup codes.
	BackupCodeCount int
	BackupCodeBytes int
}

// AlertConfig tunes the asynchronous alert notification dispatcher.
type AlertConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops notifications instead of blocking LogEvent when the
	// buffer is saturated. Dropped counts are observable via
	// [Engine.AlertsDropped].
	DropIfFull bool
}

// MetricsConfig toggles the lock-free counter set.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Default:       RateLimitPolicy{Window: time.Minute, MaxRequests: 60},
			SweepInterval: time.Minute,
		},
		Distributed: DistributedConfig{
			Policy:    RateLimitPolicy{Window: time.Minute, MaxRequests: 60},
			KeyPrefix: "grl",
			Timeout:   50 * time.Millisecond,
		},
		Plans: PlanConfig{
			Policies:      defaultPlanPolicies(),
			SweepInterval: time.Minute,
		},
		Monitor: MonitorConfig{
			MaxEvents:              10_000,
			Retention:              30 * 24 * time.Hour,
			RetentionSweepInterval: time.Hour,
			BruteForceThreshold:    5,
			BruteForceWindow:       15 * time.Minute,
			APIAbuseThreshold:      100,
			APIAbuseWindow:         time.Minute,
			DashboardTopN:          10,
		},
		Blacklist: BlacklistConfig{
			KeyPrefix:             "gbl",
			UserLogoutTTL:         24 * time.Hour,
			FallbackSweepInterval: time.Minute,
		},
		TOTP: TOTPConfig{
			Issuer:          "guardian",
			Digits:          6,
			Period:          30,
			Skew:            1,
			Algorithm:       "SHA1",
			BackupCodeCount: 10,
			BackupCodeBytes: 4,
		},
		Alerts: AlertConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func defaultPlanPolicies() map[Plan]map[Category]RateLimitPolicy {
	return map[Plan]map[Category]RateLimitPolicy{
		PlanFree: {
			CategoryAPI:       {Window: time.Minute, MaxRequests: 30},
			CategoryLogin:     {Window: 15 * time.Minute, MaxRequests: 5},
			CategoryAIService: {Window: time.Hour, MaxRequests: 10},
		},
		PlanBasic: {
			CategoryAPI:       {Window: time.Minute, MaxRequests: 120},
			CategoryLogin:     {Window: 15 * time.Minute, MaxRequests: 10},
			CategoryAIService: {Window: time.Hour, MaxRequests: 100},
		},
		PlanPremium: {
			CategoryAPI:       {Window: time.Minute, MaxRequests: 300},
			CategoryLogin:     {Window: 15 * time.Minute, MaxRequests: 10},
			CategoryAIService: {Window: time.Hour, MaxRequests: 500},
		},
		PlanEnterprise: {
			CategoryAPI:       {Window: time.Minute, MaxRequests: 1000},
			CategoryLogin:     {Window: 15 * time.Minute, MaxRequests: 20},
			CategoryAIService: {Window: time.Hour, MaxRequests: 2000},
		},
	}
}

func validateConfig(cfg Config) error {
	if !cfg.RateLimit.Default.Valid() {
		return errors.New("rate limit default policy requires window > 0 and max requests >= 1")
	}
	if !cfg.Distributed.Policy.Valid() {
		return errors.New("distributed policy requires window > 0 and max requests >= 1")
	}
	if cfg.Distributed.Timeout <= 0 {
		return errors.New("distributed timeout must be positive")
	}
	for plan, grid := range cfg.Plans.Policies {
		for category, policy := range grid {
			if !policy.Valid() {
				return errors.New("invalid policy for plan " + string(plan) + " category " + string(category))
			}
		}
	}
	if cfg.Monitor.MaxEvents < 1 {
		return errors.New("monitor max events must be >= 1")
	}
	if cfg.Monitor.Retention <= 0 {
		return errors.New("monitor retention must be positive")
	}
	if cfg.Monitor.BruteForceThreshold < 1 || cfg.Monitor.BruteForceWindow <= 0 {
		return errors.New("invalid brute force detector configuration")
	}
	if cfg.Monitor.APIAbuseThreshold < 1 || cfg.Monitor.APIAbuseWindow <= 0 {
		return errors.New("invalid api abuse detector configuration")
	}
	if cfg.Blacklist.UserLogoutTTL <= 0 {
		return errors.New("blacklist user logout ttl must be positive")
	}
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if cfg.TOTP.Period < 1 {
		return errors.New("totp period must be >= 1 second")
	}
	if cfg.TOTP.Skew < 0 {
		return errors.New("totp skew must be >= 0")
	}
	switch cfg.TOTP.Algorithm {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	return nil
}
