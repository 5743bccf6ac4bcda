package guardian

// attackSignatureDetector matches an event's declared type against known
// attack markers and raises a HIGH alert. It compares types only; payload
// scanning is the upstream validation layer's job, which tags requests with
// these event types before calling LogEvent.
type attackSignatureDetector struct {
	signatures map[EventType]struct{}
}

func newAttackSignatureDetector() *attackSignatureDetector {
	return &attackSignatureDetector{
		signatures: map[EventType]struct{}{
			EventSQLInjectionAttempt: {},
			EventXSSAttempt:          {},
			EventCSRFAttempt:         {},
		},
	}
}

func (d *attackSignatureDetector) Name() string { return "attack_signature" }

func (d *attackSignatureDetector) Inspect(event SecurityEvent, host DetectorHost) {
	if _, ok := d.signatures[event.Type]; !ok {
		return
	}

	host.CreateAlert(
		"Attack signature "+string(event.Type)+" from "+event.IP,
		SeverityHigh,
		[]string{event.ID},
	)
}
