package guardian

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AlertNotification is the payload handed to an [AlertSink] when the monitor
// creates an alert. Delivery (email, chat, paging) is the caller's concern;
// guardian only decides when to notify and what the notification contains.
type AlertNotification struct {
	AlertID   string    `json:"alert_id"`
	Title     string    `json:"title"`
	Severity  Severity  `json:"severity"`
	EventIDs  []string  `json:"event_ids"`
	Actions   []string  `json:"actions"`
	CreatedAt time.Time `json:"created_at"`
	// Escalate is set for CRITICAL alerts; the receiving channel should
	// page rather than queue.
	Escalate bool `json:"escalate"`
}

// AlertSink receives alert notifications from the dispatcher goroutine.
type AlertSink interface {
	Emit(ctx context.Context, notification AlertNotification)
}

// NoOpSink drops notifications.
type NoOpSink struct{}

// Emit implements [AlertSink].
func (NoOpSink) Emit(context.Context, AlertNotification) {}

// ChannelSink writes notifications into a buffered channel.
type ChannelSink struct {
	notifications chan AlertNotification
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		notifications: make(chan AlertNotification, buffer),
	}
}

// Emit implements [AlertSink].
func (s *ChannelSink) Emit(ctx context.Context, notification AlertNotification) {
	select {
	case s.notifications <- notification:
	case <-ctx.Done():
	}
}

// Notifications exposes the receiving end of the sink.
func (s *ChannelSink) Notifications() <-chan AlertNotification {
	return s.notifications
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a sink writing NDJSON to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit implements [AlertSink].
func (s *JSONWriterSink) Emit(_ context.Context, notification AlertNotification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
