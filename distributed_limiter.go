package guardian

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexlearn/guardian/internal/window"
)

// distributedLimiter enforces the sliding window over a shared Redis sorted
// set per identifier (score = unix milliseconds, member = unique request
// token), so multiple processes see one budget.
//
// The trim, cardinality read, and insert are separate commands. Concurrent
// callers can race between the read and the insert, briefly overshooting the
// ceiling under bursty load. The overshoot is bounded by in-flight
// concurrency; strict enforcement would need a single atomic script.
//
// When Redis is unreachable or the configured timeout expires, the check
// fails open to a local in-memory approximation for that identifier and
// logs a warning: availability is preferred over strict enforcement.
type distributedLimiter struct {
	redis    redis.UniversalClient
	cfg      DistributedConfig
	fallback *window.Limiter
	logger   *slog.Logger
}

func newDistributedLimiter(redisClient redis.UniversalClient, cfg DistributedConfig, logger *slog.Logger) *distributedLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "grl"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 50 * time.Millisecond
	}
	return &distributedLimiter{
		redis:    redisClient,
		cfg:      cfg,
		fallback: window.New(cfg.Policy, logger),
		logger:   logger,
	}
}

func (l *distributedLimiter) key(identifier string) string {
	return l.cfg.KeyPrefix + ":" + identifier
}

// Check runs the distributed sliding-window check. The second return value
// reports whether the decision came from the local fallback.
func (l *distributedLimiter) Check(ctx context.Context, identifier string, now time.Time) (window.Result, bool) {
	if l.redis == nil {
		return l.fallback.Check(identifier, now), true
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	result, err := l.checkRedis(ctx, identifier, now)
	if err != nil {
		l.logger.Warn("distributed rate limit backend unavailable, failing open to local window",
			"identifier", identifier,
			"error", err)
		return l.fallback.Check(identifier, now), true
	}
	return result, false
}

func (l *distributedLimiter) checkRedis(ctx context.Context, identifier string, now time.Time) (window.Result, error) {
	key := l.key(identifier)
	nowMs := now.UnixMilli()
	cutoffMs := nowMs - l.cfg.Policy.Window.Milliseconds()

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoffMs, 10))
	cardCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return window.Result{}, err
	}

	count := int(cardCmd.Val())
	limit := l.cfg.Policy.MaxRequests

	oldestExpiry := now.Add(l.cfg.Policy.Window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		oldestExpiry = time.UnixMilli(int64(oldest[0].Score)).Add(l.cfg.Policy.Window)
	}

	if count >= limit {
		retry := oldestExpiry.Sub(now)
		return window.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetTime:  oldestExpiry,
			RetryAfter: ceilToSecond(retry),
		}, nil
	}

	insert := l.redis.TxPipeline()
	insert.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: uuid.NewString()})
	insert.Expire(ctx, key, l.cfg.Policy.Window)
	if _, err := insert.Exec(ctx); err != nil {
		return window.Result{}, err
	}

	if count == 0 {
		oldestExpiry = now.Add(l.cfg.Policy.Window)
	}
	return window.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(0, limit-count-1),
		ResetTime: oldestExpiry,
	}, nil
}

// StartFallbackSweep bounds the fallback limiter's memory during prolonged
// backend outages.
func (l *distributedLimiter) StartFallbackSweep(interval time.Duration) {
	l.fallback.StartSweep(interval)
}

// Stop terminates the fallback sweep.
func (l *distributedLimiter) Stop() {
	l.fallback.Stop()
}

func ceilToSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
