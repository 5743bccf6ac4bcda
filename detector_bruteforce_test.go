package guardian

import (
	"testing"
	"time"
)

func failLogin(t *testing.T, engine *Engine, ip, user string) {
	t.Helper()
	logTestEvent(t, engine, EventInput{
		Type:   EventLoginFailure,
		IP:     ip,
		UserID: user,
	})
}

func countEvents(events []SecurityEvent, typ EventType) int {
	n := 0
	for _, event := range events {
		if event.Type == typ {
			n++
		}
	}
	return n
}

func TestBruteForceBelowThresholdStaysQuiet(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	for i := 0; i < 4; i++ {
		failLogin(t, engine, "8.8.8.8", "alice")
	}

	if got := len(engine.Alerts(false)); got != 0 {
		t.Fatalf("alerts = %d, want 0 below threshold", got)
	}
	if got := countEvents(engine.Events(0), EventBruteForceAttempt); got != 0 {
		t.Fatalf("brute force events = %d, want 0 below threshold", got)
	}
}

func TestBruteForceThresholdCrossing(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	for i := 0; i < 7; i++ {
		failLogin(t, engine, "8.8.8.8", "alice")
	}

	alerts := engine.Alerts(false)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want exactly 1 per crossing", len(alerts))
	}
	if alerts[0].Severity != SeverityHigh {
		t.Fatalf("severity = %q, want high", alerts[0].Severity)
	}
	if len(alerts[0].EventIDs) != 5 {
		t.Fatalf("alert references %d events, want the 5 that crossed", len(alerts[0].EventIDs))
	}

	// Every attempt at or past the threshold leaves a derived event.
	if got := countEvents(engine.Events(0), EventBruteForceAttempt); got != 3 {
		t.Fatalf("brute force events = %d, want 3 (attempts 5..7)", got)
	}
}

func TestBruteForceKeysPerIPAndUser(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	// Attempts spread over distinct (ip, user) pairs never cross alone.
	for i := 0; i < 4; i++ {
		failLogin(t, engine, "8.8.8.8", "alice")
		failLogin(t, engine, "8.8.8.8", "bob")
		failLogin(t, engine, "9.9.9.9", "alice")
	}

	if got := len(engine.Alerts(false)); got != 0 {
		t.Fatalf("alerts = %d, want 0 across distinct pairs", got)
	}
}

func TestBruteForceEpisodeResetAfterQuietGap(t *testing.T) {
	engine, clock := newTestEngine(t, nil)

	for i := 0; i < 4; i++ {
		failLogin(t, engine, "8.8.8.8", "alice")
	}
	clock.Advance(16 * time.Minute)
	failLogin(t, engine, "8.8.8.8", "alice")

	if got := len(engine.Alerts(false)); got != 0 {
		t.Fatal("a quiet gap longer than the window should reset the episode")
	}

	// A fresh run of failures can alert again.
	for i := 0; i < 4; i++ {
		failLogin(t, engine, "8.8.8.8", "alice")
	}
	if got := len(engine.Alerts(false)); got != 1 {
		t.Fatalf("alerts = %d, want 1 for the new episode", got)
	}
}
