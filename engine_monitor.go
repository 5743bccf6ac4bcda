package guardian

import "context"

// LogEvent records a security event and runs the detector chain against
// it. The returned id identifies the stored event. ctx is accepted for
// interface symmetry; ingestion itself is synchronous and in-memory.
func (e *Engine) LogEvent(_ context.Context, input EventInput) (string, error) {
	if input.Type == "" {
		return "", ErrEventTypeRequired
	}
	return e.monitor.LogEvent(input), nil
}

// Dashboard aggregates event and alert state into a read-only projection.
func (e *Engine) Dashboard() DashboardSnapshot {
	return e.monitor.Dashboard()
}

// AcknowledgeAlert marks an alert as seen without closing it.
func (e *Engine) AcknowledgeAlert(id string) error {
	return e.monitor.AcknowledgeAlert(id)
}

// ResolveAlert closes an alert. Resolved alerts drop out of the open set
// but remain queryable.
func (e *Engine) ResolveAlert(id string) error {
	return e.monitor.ResolveAlert(id)
}

// ResolveEvent marks a single event handled.
func (e *Engine) ResolveEvent(id string) error {
	return e.monitor.ResolveEvent(id)
}

// Alerts returns alerts in creation order. openOnly skips resolved ones.
func (e *Engine) Alerts(openOnly bool) []SecurityAlert {
	return e.monitor.Alerts(openOnly)
}

// Events returns up to limit most recent events, oldest first. limit <= 0
// returns the full log.
func (e *Engine) Events(limit int) []SecurityEvent {
	return e.monitor.Events(limit)
}
