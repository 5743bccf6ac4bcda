package guardian

import (
	"strconv"
	"sync"
	"time"

	"github.com/nexlearn/guardian/internal/window"
)

// apiAbuseDetector counts RATE_LIMIT_EXCEEDED events per source IP in a
// short trailing window. An IP hammering the limiter past the threshold
// raises a MEDIUM alert, once per sustained burst.
type apiAbuseDetector struct {
	threshold int
	window    *window.Limiter

	mu      sync.Mutex
	alerted map[string]time.Time
	windowD time.Duration
}

func newAPIAbuseDetector(cfg MonitorConfig) *apiAbuseDetector {
	return &apiAbuseDetector{
		threshold: cfg.APIAbuseThreshold,
		window: window.New(window.Policy{
			Window: cfg.APIAbuseWindow,
			// The window limiter is used as a counter only; the ceiling
			// never gates anything here.
			MaxRequests: cfg.APIAbuseThreshold + 1,
		}, nil),
		alerted: make(map[string]time.Time),
		windowD: cfg.APIAbuseWindow,
	}
}

func (d *apiAbuseDetector) Name() string { return "api_abuse" }

func (d *apiAbuseDetector) Inspect(event SecurityEvent, host DetectorHost) {
	if event.Type != EventRateLimitExceeded || event.IP == "" {
		return
	}

	now := host.Now()
	d.window.Record(event.IP, now)
	count := d.window.Count(event.IP, now)
	if count <= d.threshold {
		return
	}

	// One alert per burst: suppress repeats until the previous burst has
	// left the window.
	d.mu.Lock()
	if last, ok := d.alerted[event.IP]; ok && now.Sub(last) <= d.windowD {
		d.mu.Unlock()
		return
	}
	d.alerted[event.IP] = now
	d.mu.Unlock()

	host.CreateAlert(
		"API abuse from "+event.IP+" ("+strconv.Itoa(count)+" limiter denials)",
		SeverityMedium,
		[]string{event.ID},
	)
}
