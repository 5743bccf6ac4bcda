package guardian

import (
	"strconv"
	"sync"
	"time"
)

// bruteForceDetector counts LOGIN_FAILURE events per (ip, user) pair inside
// a trailing window. Crossing the threshold raises one HIGH alert; every
// attempt at or past the threshold also emits a BRUTE_FORCE_ATTEMPT event,
// so a sustained attack stays visible in the event stream.
type bruteForceDetector struct {
	threshold int
	window    time.Duration

	mu    sync.Mutex
	state map[string]*bruteForceState
}

type bruteForceState struct {
	count    int
	last     time.Time
	eventIDs []string
	alerted  bool
}

func newBruteForceDetector(cfg MonitorConfig) *bruteForceDetector {
	return &bruteForceDetector{
		threshold: cfg.BruteForceThreshold,
		window:    cfg.BruteForceWindow,
		state:     make(map[string]*bruteForceState),
	}
}

func (d *bruteForceDetector) Name() string { return "brute_force" }

func (d *bruteForceDetector) Inspect(event SecurityEvent, host DetectorHost) {
	if event.Type != EventLoginFailure {
		return
	}

	key := event.IP + "|" + event.UserID
	now := host.Now()

	d.mu.Lock()
	st, ok := d.state[key]
	if !ok {
		st = &bruteForceState{}
		d.state[key] = st
	}
	// A quiet gap longer than the window starts a fresh attack episode.
	if !st.last.IsZero() && now.Sub(st.last) > d.window {
		st.count = 0
		st.eventIDs = st.eventIDs[:0]
		st.alerted = false
	}
	st.count++
	st.last = now
	st.eventIDs = append(st.eventIDs, event.ID)

	count := st.count
	crossed := count == d.threshold && !st.alerted
	if crossed {
		st.alerted = true
	}
	eventIDs := append([]string(nil), st.eventIDs...)
	d.mu.Unlock()

	if count < d.threshold {
		return
	}

	host.EmitDerivedEvent(EventInput{
		Type:      EventBruteForceAttempt,
		Severity:  SeverityHigh,
		UserID:    event.UserID,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Metadata: map[string]string{
			"failures": strconv.Itoa(count),
			"window":   d.window.String(),
		},
	})

	if crossed {
		host.CreateAlert(
			"Brute force attack detected from "+event.IP,
			SeverityHigh,
			eventIDs,
		)
	}
}
