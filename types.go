package guardian

import (
	"time"

	"github.com/nexlearn/guardian/internal/window"
)

// RateLimitPolicy bounds request volume for one identifier class.
type RateLimitPolicy = window.Policy

// RateLimitResult is the outcome of a limit check. RetryAfter is non-zero
// only when the request was denied.
type RateLimitResult = window.Result

// Plan is a subscription tier used to select rate limit policies.
type Plan string

const (
	// PlanFree is the lowest tier and the default for unknown identifiers.
	PlanFree Plan = "free"
	// PlanBasic is the entry paid tier.
	PlanBasic Plan = "basic"
	// PlanPremium is the standard paid tier.
	PlanPremium Plan = "premium"
	// PlanEnterprise is the top tier.
	PlanEnterprise Plan = "enterprise"
)

// Category partitions rate limit budgets by request class.
type Category string

const (
	// CategoryAPI covers general API traffic.
	CategoryAPI Category = "api"
	// CategoryLogin covers authentication attempts.
	CategoryLogin Category = "login"
	// CategoryAIService covers calls proxied to the AI tutoring backend.
	CategoryAIService Category = "ai-service"
)

// Severity ranks security events and alerts.
type Severity string

const (
	// SeverityLow marks informational findings.
	SeverityLow Severity = "low"
	// SeverityMedium marks findings that need review.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks likely attacks.
	SeverityHigh Severity = "high"
	// SeverityCritical marks confirmed or account-compromising attacks.
	SeverityCritical Severity = "critical"
)

// EventType identifies the kind of security-relevant occurrence.
type EventType string

const (
	// EventLoginSuccess is logged on successful authentication.
	EventLoginSuccess EventType = "login_success"
	// EventLoginFailure is logged on failed authentication.
	EventLoginFailure EventType = "login_failure"
	// EventRateLimitExceeded is logged when a limiter denies a request.
	EventRateLimitExceeded EventType = "rate_limit_exceeded"
	// EventBruteForceAttempt is emitted by the brute-force detector at threshold.
	EventBruteForceAttempt EventType = "brute_force_attempt"
	// EventAnomalyDetected is emitted by the behavioral anomaly detector.
	EventAnomalyDetected EventType = "anomaly_detected"
	// EventSQLInjectionAttempt marks a request flagged upstream as SQL injection.
	EventSQLInjectionAttempt EventType = "sql_injection_attempt"
	// EventXSSAttempt marks a request flagged upstream as cross-site scripting.
	EventXSSAttempt EventType = "xss_attempt"
	// EventCSRFAttempt marks a request flagged upstream as CSRF.
	EventCSRFAttempt EventType = "csrf_attempt"
	// EventSuspiciousActivity covers occurrences with no narrower type.
	EventSuspiciousActivity EventType = "suspicious_activity"
	// EventTokenRevoked is logged when a single token is blacklisted.
	EventTokenRevoked EventType = "token_revoked"
	// EventAllTokensRevoked is logged on a logout-everywhere revocation.
	EventAllTokensRevoked EventType = "all_tokens_revoked"
)

// EventInput is the caller-supplied part of a security event. The monitor
// assigns id and timestamp.
type EventInput struct {
	Type      EventType
	Severity  Severity
	UserID    string
	IP        string
	UserAgent string
	Metadata  map[string]string
}

// SecurityEvent is an immutable record of one security-relevant occurrence.
// Only Resolved/ResolvedAt change after creation, through Engine.ResolveEvent.
type SecurityEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Severity   Severity          `json:"severity"`
	UserID     string            `json:"user_id,omitempty"`
	IP         string            `json:"ip"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Resolved   bool              `json:"resolved"`
	ResolvedAt time.Time         `json:"resolved_at,omitzero"`
}

// SecurityAlert is raised when a detector pattern crosses its threshold.
// EventIDs reference the triggering events; the alert does not own their
// lifetime.
type SecurityAlert struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Severity       Severity  `json:"severity"`
	EventIDs       []string  `json:"event_ids"`
	Actions        []string  `json:"actions"`
	CreatedAt      time.Time `json:"created_at"`
	Acknowledged   bool      `json:"acknowledged"`
	AcknowledgedAt time.Time `json:"acknowledged_at,omitzero"`
	Resolved       bool      `json:"resolved"`
	ResolvedAt     time.Time `json:"resolved_at,omitzero"`
}

// OffenderCount pairs an IP or user id with its event volume.
type OffenderCount struct {
	Key    string `json:"key"`
	Events int    `json:"events"`
}

// DashboardSnapshot is a read-only projection of monitor state.
type DashboardSnapshot struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	TotalEvents      int               `json:"total_events"`
	EventsLast24h    int               `json:"events_last_24h"`
	EventsByType     map[EventType]int `json:"events_by_type"`
	AlertsBySeverity map[Severity]int  `json:"alerts_by_severity"`
	OpenAlerts       int               `json:"open_alerts"`
	TopIPs           []OffenderCount   `json:"top_ips"`
	TopUsers         []OffenderCount   `json:"top_users"`
}

// UsageReport aggregates an identifier's current in-window counts across
// categories.
type UsageReport struct {
	Identifier string           `json:"identifier"`
	Plan       Plan             `json:"plan"`
	Counts     map[Category]int `json:"counts"`
	Total      int              `json:"total"`
}
