package guardian

import (
	"context"
	"strconv"
)

// CheckLimit runs the local sliding-window check for an identifier under
// the default policy (or its override). Denials log a RATE_LIMIT_EXCEEDED
// event, which feeds the API abuse detector.
func (e *Engine) CheckLimit(identifier string) RateLimitResult {
	result := e.limiter.Check(identifier, e.now())
	if result.Allowed {
		e.metrics.Inc(MetricLimitAllowed)
	} else {
		e.metrics.Inc(MetricLimitDenied)
		e.logLimitExceeded(identifier, "", result)
	}
	return result
}

// CheckPlanLimit runs the check against the identifier's subscription plan
// policy for the given category. Unknown plans fall back to the free tier;
// unknown categories return [ErrUnknownCategory].
func (e *Engine) CheckPlanLimit(identifier string, category Category) (RateLimitResult, error) {
	result, err := e.plans.Check(identifier, category, e.now())
	if err != nil {
		return RateLimitResult{}, err
	}
	if result.Allowed {
		e.metrics.Inc(MetricPlanLimitAllowed)
	} else {
		e.metrics.Inc(MetricPlanLimitDenied)
		e.logLimitExceeded(identifier, category, result)
	}
	return result, nil
}

// CheckDistributedLimit runs the Redis-backed check shared across
// processes. When the backend is unavailable or slow the check fails open
// to a local approximation for that identifier.
func (e *Engine) CheckDistributedLimit(ctx context.Context, identifier string) RateLimitResult {
	result, failedOpen := e.distributed.Check(ctx, identifier, e.now())
	if failedOpen {
		e.metrics.Inc(MetricFailOpen)
	}
	if result.Allowed {
		e.metrics.Inc(MetricDistributedAllowed)
	} else {
		e.metrics.Inc(MetricDistributedDenied)
		e.logLimitExceeded(identifier, "", result)
	}
	return result
}

// SetPlan assigns an identifier's subscription plan for subsequent
// CheckPlanLimit calls.
func (e *Engine) SetPlan(identifier string, plan Plan) {
	e.plans.SetPlan(identifier, plan)
}

// SetLimitOverride replaces the default policy for one identifier on the
// local limiter. Invalid policies are ignored.
func (e *Engine) SetLimitOverride(identifier string, policy RateLimitPolicy) {
	e.limiter.SetOverride(identifier, policy)
}

// RemoveLimitOverride restores the default policy for an identifier.
func (e *Engine) RemoveLimitOverride(identifier string) {
	e.limiter.RemoveOverride(identifier)
}

// RecordRequest is a post-hoc accounting hook: it charges a request against
// the identifier's window without gating it. The success flag only affects
// metrics.
func (e *Engine) RecordRequest(identifier string, success bool) {
	e.limiter.Record(identifier, e.now())
	if success {
		e.metrics.Inc(MetricLimitAllowed)
	} else {
		e.metrics.Inc(MetricLimitDenied)
	}
}

// PlanUsage reports the identifier's current consumption across every
// category of its plan.
func (e *Engine) PlanUsage(identifier string) UsageReport {
	return e.plans.Usage(identifier, e.now())
}

// HeaviestUsers returns the n identifiers with the most live plan-limited
// requests, heaviest first.
func (e *Engine) HeaviestUsers(n int) []UsageReport {
	return e.plans.Heaviest(n, e.now())
}

func (e *Engine) logLimitExceeded(identifier string, category Category, result RateLimitResult) {
	metadata := map[string]string{
		"limit":       strconv.Itoa(result.Limit),
		"retry_after": result.RetryAfter.String(),
	}
	if category != "" {
		metadata["category"] = string(category)
	}
	e.monitor.LogEvent(EventInput{
		Type:     EventRateLimitExceeded,
		Severity: SeverityLow,
		IP:       identifier,
		Metadata: metadata,
	})
}
