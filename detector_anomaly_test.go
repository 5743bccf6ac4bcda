package guardian

import (
	"strings"
	"testing"
	"time"
)

func successfulLogin(t *testing.T, engine *Engine, user, ip, agent string) {
	t.Helper()
	logTestEvent(t, engine, EventInput{
		Type:      EventLoginSuccess,
		UserID:    user,
		IP:        ip,
		UserAgent: agent,
	})
}

func anomalyEvents(engine *Engine) []SecurityEvent {
	var out []SecurityEvent
	for _, event := range engine.Events(0) {
		if event.Type == EventAnomalyDetected {
			out = append(out, event)
		}
	}
	return out
}

func TestAnomalyQuietOnStableBehavior(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	for i := 0; i < 10; i++ {
		successfulLogin(t, engine, "alice", "1.1.1.1", "firefox")
	}

	if got := len(anomalyEvents(engine)); got != 0 {
		t.Fatalf("anomaly events = %d, want 0 for a stable baseline", got)
	}
}

func TestAnomalyUnusualLoginHour(t *testing.T) {
	// Clock starts at 12:00 UTC in newTestEngine.
	engine, clock := newTestEngine(t, nil)

	for i := 0; i < 10; i++ {
		successfulLogin(t, engine, "alice", "1.1.1.1", "firefox")
	}

	// 03:00 has zero historical share, under the 10% ratio.
	clock.Advance(15 * time.Hour)
	successfulLogin(t, engine, "alice", "1.1.1.1", "firefox")

	events := anomalyEvents(engine)
	if len(events) != 1 {
		t.Fatalf("anomaly events = %d, want 1", len(events))
	}
	if events[0].Severity != SeverityLow {
		t.Fatalf("severity = %q, want low for a single flag", events[0].Severity)
	}
	if !strings.Contains(events[0].Metadata["flags"], "unusual_login_time") {
		t.Fatalf("flags = %q, want unusual_login_time", events[0].Metadata["flags"])
	}
}

func TestAnomalyNewIPNeedsHistory(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	// Two known IPs are not enough history for the new-IP flag.
	successfulLogin(t, engine, "bob", "1.1.1.1", "firefox")
	successfulLogin(t, engine, "bob", "2.2.2.2", "firefox")
	successfulLogin(t, engine, "bob", "3.3.3.3", "firefox")

	if got := len(anomalyEvents(engine)); got != 0 {
		t.Fatalf("anomaly events = %d, want 0 while history is short", got)
	}

	// With three IPs on record, a fourth address is flagged.
	successfulLogin(t, engine, "bob", "4.4.4.4", "firefox")

	events := anomalyEvents(engine)
	if len(events) != 1 {
		t.Fatalf("anomaly events = %d, want 1", len(events))
	}
	if !strings.Contains(events[0].Metadata["flags"], "new_ip") {
		t.Fatalf("flags = %q, want new_ip", events[0].Metadata["flags"])
	}
}

func TestAnomalyMultipleFlagsEscalateToMedium(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	successfulLogin(t, engine, "carol", "1.1.1.1", "firefox")
	successfulLogin(t, engine, "carol", "2.2.2.2", "firefox")
	successfulLogin(t, engine, "carol", "3.3.3.3", "firefox")

	// New IP plus new user agent.
	successfulLogin(t, engine, "carol", "4.4.4.4", "curl")

	events := anomalyEvents(engine)
	if len(events) != 1 {
		t.Fatalf("anomaly events = %d, want 1", len(events))
	}
	if events[0].Severity != SeverityMedium {
		t.Fatalf("severity = %q, want medium for two flags", events[0].Severity)
	}
	flags := events[0].Metadata["flags"]
	if !strings.Contains(flags, "new_ip") || !strings.Contains(flags, "new_user_agent") {
		t.Fatalf("flags = %q, want new_ip and new_user_agent", flags)
	}
}

func TestAnomalyIgnoresAnonymousLogins(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	logTestEvent(t, engine, EventInput{Type: EventLoginSuccess, IP: "1.1.1.1"})
	if got := len(anomalyEvents(engine)); got != 0 {
		t.Fatalf("anomaly events = %d, want 0 without a user id", got)
	}
}

func TestAnomalyHourHistoryBounded(t *testing.T) {
	detector := newAnomalyDetector()
	baseline := &userBaseline{}
	detector.users["dave"] = baseline

	for i := 0; i < anomalyHourHistory+20; i++ {
		baseline.hours = appendBounded(baseline.hours, i%24, anomalyHourHistory)
	}
	if len(baseline.hours) != anomalyHourHistory {
		t.Fatalf("hour history = %d, want bounded at %d", len(baseline.hours), anomalyHourHistory)
	}
}
