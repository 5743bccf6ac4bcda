package guardian

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

type countingAlertSink struct {
	count atomic.Int64
}

func (s *countingAlertSink) Emit(context.Context, AlertNotification) {
	s.count.Add(1)
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(4)
	engine, err := New().
		WithConfig(testConfig()).
		WithAlertSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	// A critical alert goes through the dispatcher with escalation set.
	engine.monitor.CreateAlert("test critical", SeverityCritical, nil)

	select {
	case notification := <-sink.Notifications():
		if !notification.Escalate {
			t.Fatal("critical alert should escalate")
		}
		if notification.Severity != SeverityCritical {
			t.Fatalf("severity = %q, want critical", notification.Severity)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
}

func TestDispatcherSkipsMediumAndLow(t *testing.T) {
	sink := &countingAlertSink{}
	engine, err := New().
		WithConfig(testConfig()).
		WithAlertSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	engine.monitor.CreateAlert("medium", SeverityMedium, nil)
	engine.monitor.CreateAlert("low", SeverityLow, nil)
	engine.Close() // drains the dispatcher

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("dispatched = %d, want 0 for medium and low", got)
	}
}

func TestDispatcherDropAccounting(t *testing.T) {
	blocked := make(chan struct{})
	sink := blockingSink{gate: blocked}

	d := newAlertDispatcher(AlertConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	// First notification occupies the worker, second fills the buffer,
	// the rest are dropped.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AlertNotification{Title: "x"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped notifications with a saturated buffer")
	}

	close(blocked)
	d.Close()
}

type blockingSink struct {
	gate chan struct{}
}

func (s blockingSink) Emit(context.Context, AlertNotification) {
	<-s.gate
}

func TestDispatcherDisabled(t *testing.T) {
	d := newAlertDispatcher(AlertConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled config should produce a nil dispatcher")
	}
	// Nil dispatchers are safe to use.
	d.Emit(context.Background(), AlertNotification{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AlertNotification{
		AlertID:  "a1",
		Title:    "test",
		Severity: SeverityHigh,
	})

	var decoded AlertNotification
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.AlertID != "a1" || decoded.Severity != SeverityHigh {
		t.Fatalf("decoded = %+v, want the emitted notification", decoded)
	}
}
