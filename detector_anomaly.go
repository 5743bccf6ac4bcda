package guardian

import (
	"strings"
	"sync"
)

const (
	anomalyHourHistory  = 50
	anomalyIPHistory    = 10
	anomalyAgentHistory = 5
	// unusualHourRatio flags a login hour seen in fewer than 10% of the
	// user's recorded logins.
	unusualHourRatio = 0.10
	// newIPMinHistory suppresses the new-IP flag until the user has a
	// meaningful address history.
	newIPMinHistory = 3
)

// anomalyDetector keeps a bounded per-user behavioral baseline (login hours,
// source IPs, user agents) and emits an ANOMALY_DETECTED event when a
// successful login deviates from it.
type anomalyDetector struct {
	mu    sync.Mutex
	users map[string]*userBaseline
}

type userBaseline struct {
	hours  []int
	ips    []string
	agents []string
}

func newAnomalyDetector() *anomalyDetector {
	return &anomalyDetector{users: make(map[string]*userBaseline)}
}

func (d *anomalyDetector) Name() string { return "behavioral_anomaly" }

func (d *anomalyDetector) Inspect(event SecurityEvent, host DetectorHost) {
	if event.Type != EventLoginSuccess || event.UserID == "" {
		return
	}

	hour := event.Timestamp.Hour()

	d.mu.Lock()
	baseline, ok := d.users[event.UserID]
	if !ok {
		baseline = &userBaseline{}
		d.users[event.UserID] = baseline
	}

	var flags []string

	if len(baseline.hours) > 0 {
		seen := 0
		for _, h := range baseline.hours {
			if h == hour {
				seen++
			}
		}
		if float64(seen)/float64(len(baseline.hours)) < unusualHourRatio {
			flags = append(flags, "unusual_login_time")
		}
	}

	if event.IP != "" && len(baseline.ips) >= newIPMinHistory && !contains(baseline.ips, event.IP) {
		flags = append(flags, "new_ip")
	}

	if event.UserAgent != "" && len(baseline.agents) > 0 && !contains(baseline.agents, event.UserAgent) {
		flags = append(flags, "new_user_agent")
	}

	baseline.hours = appendBounded(baseline.hours, hour, anomalyHourHistory)
	if event.IP != "" && !contains(baseline.ips, event.IP) {
		baseline.ips = appendBounded(baseline.ips, event.IP, anomalyIPHistory)
	}
	if event.UserAgent != "" && !contains(baseline.agents, event.UserAgent) {
		baseline.agents = appendBounded(baseline.agents, event.UserAgent, anomalyAgentHistory)
	}
	d.mu.Unlock()

	if len(flags) == 0 {
		return
	}

	severity := SeverityLow
	if len(flags) >= 2 {
		severity = SeverityMedium
	}

	host.EmitDerivedEvent(EventInput{
		Type:      EventAnomalyDetected,
		Severity:  severity,
		UserID:    event.UserID,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Metadata: map[string]string{
			"flags":        strings.Join(flags, ","),
			"login_event":  event.ID,
			"flagged_hour": event.Timestamp.Format("15:00"),
		},
	})
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func appendBounded[T any](list []T, v T, max int) []T {
	list = append(list, v)
	if len(list) > max {
		list = append(list[:0:0], list[len(list)-max:]...)
	}
	return list
}
