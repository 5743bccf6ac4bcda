package guardian

import "time"

// Detector is a stateful attack-pattern rule evaluated against every newly
// logged security event. Implementations must be safe for concurrent calls
// and side-effect only through the [DetectorHost].
//
// Detectors run synchronously, in registration order, during
// [Engine.LogEvent]. A panicking detector is isolated: the event stays
// recorded and the remaining detectors still run.
type Detector interface {
	// Name identifies the detector in logs and metrics.
	Name() string
	// Inspect evaluates one event and may create alerts or emit derived
	// events through the host.
	Inspect(event SecurityEvent, host DetectorHost)
}

// DetectorHost is the narrow surface the monitor exposes to detectors.
type DetectorHost interface {
	// CreateAlert stores an alert referencing the triggering events and
	// returns its id. Severity-derived remediation actions are attached
	// by the monitor.
	CreateAlert(title string, severity Severity, eventIDs []string) string
	// EmitDerivedEvent appends a detector-produced event to the log and
	// returns its id. Derived events are not fed back through the
	// detector chain.
	EmitDerivedEvent(input EventInput) string
	// Now is the monitor's clock.
	Now() time.Time
}

// recommendedActions maps alert severity to the remediation checklist
// attached to new alerts.
func recommendedActions(severity Severity) []string {
	switch severity {
	case SeverityCritical:
		return []string{
			"lock account immediately",
			"revoke all active tokens",
			"notify security on-call",
		}
	case SeverityHigh:
		return []string{
			"force password reset",
			"review recent activity for the affected account",
		}
	case SeverityMedium:
		return []string{
			"review source IP activity",
			"consider tightening rate limits",
		}
	default:
		return []string{"monitor for recurrence"}
	}
}
