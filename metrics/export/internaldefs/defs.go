package internaldefs

import (
	guardian "github.com/nexlearn/guardian"
)

// CounterDef names one engine counter for exposition.
type CounterDef struct {
	ID   guardian.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: guardian.MetricLimitAllowed, Name: "guardian_limit_allowed_total", Help: "Local rate limit checks that admitted a request."},
	{ID: guardian.MetricLimitDenied, Name: "guardian_limit_denied_total", Help: "Local rate limit checks that denied a request."},
	{ID: guardian.MetricPlanLimitAllowed, Name: "guardian_plan_limit_allowed_total", Help: "Plan-aware limit checks that admitted a request."},
	{ID: guardian.MetricPlanLimitDenied, Name: "guardian_plan_limit_denied_total", Help: "Plan-aware limit checks that denied a request."},
	{ID: guardian.MetricDistributedAllowed, Name: "guardian_distributed_allowed_total", Help: "Distributed limit checks that admitted a request."},
	{ID: guardian.MetricDistributedDenied, Name: "guardian_distributed_denied_total", Help: "Distributed limit checks that denied a request."},
	{ID: guardian.MetricFailOpen, Name: "guardian_fail_open_total", Help: "Distributed checks served by the local fallback."},
	{ID: guardian.MetricEventLogged, Name: "guardian_event_logged_total", Help: "Ingested security events."},
	{ID: guardian.MetricAlertLow, Name: "guardian_alert_low_total", Help: "Created LOW severity alerts."},
	{ID: guardian.MetricAlertMedium, Name: "guardian_alert_medium_total", Help: "Created MEDIUM severity alerts."},
	{ID: guardian.MetricAlertHigh, Name: "guardian_alert_high_total", Help: "Created HIGH severity alerts."},
	{ID: guardian.MetricAlertCritical, Name: "guardian_alert_critical_total", Help: "Created CRITICAL severity alerts."},
	{ID: guardian.MetricDetectorFailure, Name: "guardian_detector_failure_total", Help: "Detector panics recovered during event ingestion."},
	{ID: guardian.MetricBlacklistWrite, Name: "guardian_blacklist_write_total", Help: "Token revocations stored."},
	{ID: guardian.MetricBlacklistHit, Name: "guardian_blacklist_hit_total", Help: "Lookups that found a revoked token."},
	{ID: guardian.MetricUserLogoutAll, Name: "guardian_user_logout_all_total", Help: "Logout-everywhere markers written."},
	{ID: guardian.MetricTOTPSuccess, Name: "guardian_totp_success_total", Help: "Successful TOTP verifications."},
	{ID: guardian.MetricTOTPFailure, Name: "guardian_totp_failure_total", Help: "Failed TOTP verifications."},
	{ID: guardian.MetricBackupCodesGenerated, Name: "guardian_backup_codes_generated_total", Help: "Backup-code generation operations."},
}
