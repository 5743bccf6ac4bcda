package guardian

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// securityMonitor owns the event log, the alert store, and the detector
// chain. Event ingestion and alert mutation use separate locks so
// acknowledging or resolving alerts never pauses ingestion.
type securityMonitor struct {
	cfg        MonitorConfig
	logger     *slog.Logger
	metrics    *Metrics
	dispatcher *alertDispatcher
	now        func() time.Time

	eventsMu   sync.Mutex
	events     []*SecurityEvent
	eventIndex map[string]*SecurityEvent

	alertsMu   sync.Mutex
	alerts     map[string]*SecurityAlert
	alertOrder []string

	detectors []Detector

	stopSweep chan struct{}
	sweepWG   sync.WaitGroup
	stopOnce  sync.Once
}

func newSecurityMonitor(
	cfg MonitorConfig,
	detectors []Detector,
	dispatcher *alertDispatcher,
	metrics *Metrics,
	logger *slog.Logger,
	now func() time.Time,
) *securityMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &securityMonitor{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		dispatcher: dispatcher,
		now:        now,
		eventIndex: make(map[string]*SecurityEvent),
		alerts:     make(map[string]*SecurityAlert),
		detectors:  detectors,
	}
}

// LogEvent assigns id and timestamp, appends the event, and runs every
// registered detector against it. Detector panics are recovered so one
// failing detector cannot suppress the others or the event itself.
func (m *securityMonitor) LogEvent(input EventInput) string {
	event := m.append(input)

	for _, detector := range m.detectors {
		m.runDetector(detector, event)
	}

	m.metrics.Inc(MetricEventLogged)
	return event.ID
}

func (m *securityMonitor) runDetector(detector Detector, event SecurityEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.Inc(MetricDetectorFailure)
			m.logger.Error("security detector failed",
				"detector", detector.Name(),
				"event_id", event.ID,
				"panic", r)
		}
	}()
	detector.Inspect(event, m)
}

// append stores a new event under the ingestion lock, enforcing the log cap.
func (m *securityMonitor) append(input EventInput) SecurityEvent {
	severity := input.Severity
	if severity == "" {
		severity = SeverityLow
	}

	event := &SecurityEvent{
		ID:        uuid.NewString(),
		Type:      input.Type,
		Severity:  severity,
		UserID:    input.UserID,
		IP:        input.IP,
		UserAgent: input.UserAgent,
		Timestamp: m.now(),
		Metadata:  input.Metadata,
	}

	m.eventsMu.Lock()
	m.events = append(m.events, event)
	m.eventIndex[event.ID] = event
	if over := len(m.events) - m.cfg.MaxEvents; over > 0 {
		for _, old := range m.events[:over] {
			delete(m.eventIndex, old.ID)
		}
		m.events = append(m.events[:0:0], m.events[over:]...)
	}
	m.eventsMu.Unlock()

	return *event
}

// CreateAlert implements [DetectorHost].
func (m *securityMonitor) CreateAlert(title string, severity Severity, eventIDs []string) string {
	alert := &SecurityAlert{
		ID:        uuid.NewString(),
		Title:     title,
		Severity:  severity,
		EventIDs:  append([]string(nil), eventIDs...),
		Actions:   recommendedActions(severity),
		CreatedAt: m.now(),
	}

	m.alertsMu.Lock()
	m.alerts[alert.ID] = alert
	m.alertOrder = append(m.alertOrder, alert.ID)
	m.alertsMu.Unlock()

	m.handleAlert(*alert)
	return alert.ID
}

// handleAlert routes a freshly created alert by severity: CRITICAL and HIGH
// dispatch an external notification (CRITICAL escalates), MEDIUM is logged,
// LOW only updates metrics.
func (m *securityMonitor) handleAlert(alert SecurityAlert) {
	switch alert.Severity {
	case SeverityCritical:
		m.metrics.Inc(MetricAlertCritical)
		m.logger.Warn("critical security alert",
			"alert_id", alert.ID,
			"title", alert.Title)
		m.dispatcher.Emit(nil, notificationFor(alert, true))
	case SeverityHigh:
		m.metrics.Inc(MetricAlertHigh)
		m.logger.Warn("security alert",
			"alert_id", alert.ID,
			"title", alert.Title)
		m.dispatcher.Emit(nil, notificationFor(alert, false))
	case SeverityMedium:
		m.metrics.Inc(MetricAlertMedium)
		m.logger.Info("security alert",
			"alert_id", alert.ID,
			"title", alert.Title)
	default:
		m.metrics.Inc(MetricAlertLow)
	}
}

func notificationFor(alert SecurityAlert, escalate bool) AlertNotification {
	return AlertNotification{
		AlertID:   alert.ID,
		Title:     alert.Title,
		Severity:  alert.Severity,
		EventIDs:  alert.EventIDs,
		Actions:   alert.Actions,
		CreatedAt: alert.CreatedAt,
		Escalate:  escalate,
	}
}

// EmitDerivedEvent implements [DetectorHost]. Derived events bypass the
// detector chain to keep detection acyclic.
func (m *securityMonitor) EmitDerivedEvent(input EventInput) string {
	event := m.append(input)
	m.metrics.Inc(MetricEventLogged)
	return event.ID
}

// Now implements [DetectorHost].
func (m *securityMonitor) Now() time.Time {
	return m.now()
}

// AcknowledgeAlert marks an alert acknowledged.
func (m *securityMonitor) AcknowledgeAlert(id string) error {
	m.alertsMu.Lock()
	defer m.alertsMu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	if !alert.Acknowledged {
		alert.Acknowledged = true
		alert.AcknowledgedAt = m.now()
	}
	return nil
}

// ResolveAlert marks an alert resolved.
func (m *securityMonitor) ResolveAlert(id string) error {
	m.alertsMu.Lock()
	defer m.alertsMu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	if !alert.Resolved {
		alert.Resolved = true
		alert.ResolvedAt = m.now()
	}
	return nil
}

// ResolveEvent marks a single event resolved. This is the only permitted
// mutation of a logged event.
func (m *securityMonitor) ResolveEvent(id string) error {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	event, ok := m.eventIndex[id]
	if !ok {
		return ErrEventNotFound
	}
	if !event.Resolved {
		event.Resolved = true
		event.ResolvedAt = m.now()
	}
	return nil
}

// Alerts returns alerts in creation order, newest last. When openOnly is
// set, resolved alerts are skipped.
func (m *securityMonitor) Alerts(openOnly bool) []SecurityAlert {
	m.alertsMu.Lock()
	defer m.alertsMu.Unlock()

	out := make([]SecurityAlert, 0, len(m.alertOrder))
	for _, id := range m.alertOrder {
		alert := m.alerts[id]
		if openOnly && alert.Resolved {
			continue
		}
		out = append(out, *alert)
	}
	return out
}

// Events returns up to limit most recent events, newest last. limit <= 0
// returns everything.
func (m *securityMonitor) Events(limit int) []SecurityEvent {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	start := 0
	if limit > 0 && len(m.events) > limit {
		start = len(m.events) - limit
	}
	out := make([]SecurityEvent, 0, len(m.events)-start)
	for _, event := range m.events[start:] {
		out = append(out, *event)
	}
	return out
}

// Dashboard aggregates the current monitor state into a read-only
// projection.
func (m *securityMonitor) Dashboard() DashboardSnapshot {
	now := m.now()
	dayAgo := now.Add(-24 * time.Hour)

	snapshot := DashboardSnapshot{
		GeneratedAt:      now,
		EventsByType:     make(map[EventType]int),
		AlertsBySeverity: make(map[Severity]int),
	}

	ipCounts := make(map[string]int)
	userCounts := make(map[string]int)

	m.eventsMu.Lock()
	snapshot.TotalEvents = len(m.events)
	for _, event := range m.events {
		snapshot.EventsByType[event.Type]++
		if event.Timestamp.After(dayAgo) {
			snapshot.EventsLast24h++
		}
		if event.IP != "" {
			ipCounts[event.IP]++
		}
		if event.UserID != "" {
			userCounts[event.UserID]++
		}
	}
	m.eventsMu.Unlock()

	m.alertsMu.Lock()
	for _, alert := range m.alerts {
		snapshot.AlertsBySeverity[alert.Severity]++
		if !alert.Resolved {
			snapshot.OpenAlerts++
		}
	}
	m.alertsMu.Unlock()

	snapshot.TopIPs = topOffenders(ipCounts, m.cfg.DashboardTopN)
	snapshot.TopUsers = topOffenders(userCounts, m.cfg.DashboardTopN)
	return snapshot
}

func topOffenders(counts map[string]int, n int) []OffenderCount {
	out := make([]OffenderCount, 0, len(counts))
	for key, events := range counts {
		out = append(out, OffenderCount{Key: key, Events: events})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Events != out[j].Events {
			return out[i].Events > out[j].Events
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// StartRetentionSweep launches the goroutine that purges events older than
// the retention horizon.
func (m *securityMonitor) StartRetentionSweep() {
	interval := m.cfg.RetentionSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	m.stopSweep = make(chan struct{})

	m.sweepWG.Add(1)
	go func() {
		defer m.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := m.purgeExpired()
				if removed > 0 {
					m.logger.Debug("security event retention sweep",
						"removed", removed)
				}
			case <-m.stopSweep:
				return
			}
		}
	}()
}

func (m *securityMonitor) purgeExpired() int {
	cutoff := m.now().Add(-m.cfg.Retention)

	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	idx := 0
	for idx < len(m.events) && m.events[idx].Timestamp.Before(cutoff) {
		delete(m.eventIndex, m.events[idx].ID)
		idx++
	}
	if idx == 0 {
		return 0
	}
	m.events = append(m.events[:0:0], m.events[idx:]...)
	return idx
}

// Stop terminates the retention sweep. Safe to call more than once.
func (m *securityMonitor) Stop() {
	m.stopOnce.Do(func() {
		if m.stopSweep != nil {
			close(m.stopSweep)
		}
	})
	m.sweepWG.Wait()
}
