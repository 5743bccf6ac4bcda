// Package window implements per-identifier sliding-window request counting.
//
// A Limiter keeps an ordered timestamp list per identifier. Checks prune
// entries older than the trailing window, compare the count to the policy
// ceiling, and record the request when admitted. A background sweep drops
// identifiers whose window is entirely expired so memory stays bounded.
package window

import (
	"log/slog"
	"sync"
	"time"
)

// Policy bounds request volume: at most MaxRequests per trailing Window.
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// Valid reports whether the policy satisfies Window > 0 and MaxRequests >= 1.
func (p Policy) Valid() bool {
	return p.Window > 0 && p.MaxRequests >= 1
}

// Result is the outcome of a single limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetTime is when the oldest retained entry leaves the window,
	// or now+window for an empty window.
	ResetTime time.Time
	// RetryAfter is non-zero only when the request was denied. It is
	// rounded up to whole seconds for client-facing headers.
	RetryAfter time.Duration
}

// Limiter is a mutex-guarded sliding-window counter keyed by identifier.
type Limiter struct {
	mu        sync.Mutex
	policy    Policy
	overrides map[string]Policy
	windows   map[string][]time.Time

	sweepEvery time.Duration
	stopSweep  chan struct{}
	sweepWG    sync.WaitGroup
	stopOnce   sync.Once
	logger     *slog.Logger
}

// New creates a Limiter with the given default policy. The sweep goroutine
// is not started until StartSweep is called.
func New(policy Policy, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		policy:    policy,
		overrides: make(map[string]Policy),
		windows:   make(map[string][]time.Time),
		stopSweep: make(chan struct{}),
		logger:    logger,
	}
}

// SetOverride installs a per-identifier policy consulted before the default.
func (l *Limiter) SetOverride(identifier string, policy Policy) {
	if !policy.Valid() {
		return
	}
	l.mu.Lock()
	l.overrides[identifier] = policy
	l.mu.Unlock()
}

// RemoveOverride deletes a per-identifier policy override.
func (l *Limiter) RemoveOverride(identifier string) {
	l.mu.Lock()
	delete(l.overrides, identifier)
	l.mu.Unlock()
}

// Policy returns the policy in effect for the identifier.
func (l *Limiter) Policy(identifier string) Policy {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.overrides[identifier]; ok {
		return p
	}
	return l.policy
}

// Check performs a sliding-window limit check for the identifier at the
// given instant and records the request when admitted.
func (l *Limiter) Check(identifier string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy := l.policy
	if p, ok := l.overrides[identifier]; ok {
		policy = p
	}

	kept := prune(l.windows[identifier], now.Add(-policy.Window))

	if len(kept) >= policy.MaxRequests {
		l.windows[identifier] = kept
		reset := kept[0].Add(policy.Window)
		return Result{
			Allowed:    false,
			Limit:      policy.MaxRequests,
			Remaining:  0,
			ResetTime:  reset,
			RetryAfter: ceilSeconds(reset.Sub(now)),
		}
	}

	kept = append(kept, now)
	l.windows[identifier] = kept

	return Result{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: policy.MaxRequests - len(kept),
		ResetTime: kept[0].Add(policy.Window),
	}
}

// Record appends a request timestamp without a limit decision. Used by
// post-hoc accounting hooks.
func (l *Limiter) Record(identifier string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy := l.policy
	if p, ok := l.overrides[identifier]; ok {
		policy = p
	}
	kept := prune(l.windows[identifier], now.Add(-policy.Window))
	l.windows[identifier] = append(kept, now)
}

// Count returns the number of requests currently inside the identifier's
// window without recording anything.
func (l *Limiter) Count(identifier string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy := l.policy
	if p, ok := l.overrides[identifier]; ok {
		policy = p
	}
	kept := prune(l.windows[identifier], now.Add(-policy.Window))
	l.windows[identifier] = kept
	return len(kept)
}

// Identifiers returns a snapshot of all tracked identifiers.
func (l *Limiter) Identifiers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.windows))
	for id := range l.windows {
		out = append(out, id)
	}
	return out
}

// Reset drops all recorded requests for the identifier.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	delete(l.windows, identifier)
	l.mu.Unlock()
}

// StartSweep launches the background goroutine that purges fully expired
// identifier windows every interval. Call Stop to terminate it.
func (l *Limiter) StartSweep(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	l.sweepEvery = interval

	l.sweepWG.Add(1)
	go func() {
		defer l.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := l.Sweep(time.Now())
				if removed > 0 {
					l.logger.Debug("rate limit window sweep",
						"removed", removed,
						"interval", interval)
				}
			case <-l.stopSweep:
				return
			}
		}
	}()
}

// Sweep removes identifiers whose entire window has expired and returns the
// number of identifiers dropped. Keys are snapshotted first so foreground
// checks are not starved for the duration of the sweep.
func (l *Limiter) Sweep(now time.Time) int {
	ids := l.Identifiers()

	removed := 0
	for _, id := range ids {
		l.mu.Lock()
		policy := l.policy
		if p, ok := l.overrides[id]; ok {
			policy = p
		}
		kept := prune(l.windows[id], now.Add(-policy.Window))
		if len(kept) == 0 {
			delete(l.windows, id)
			removed++
		} else {
			l.windows[id] = kept
		}
		l.mu.Unlock()
	}
	return removed
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopSweep)
	})
	l.sweepWG.Wait()
}

// prune drops timestamps before cutoff. Timestamps are appended in order,
// so the retained suffix keeps its ordering.
func prune(entries []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(entries) && !entries[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return entries
	}
	return append(entries[:0:0], entries[idx:]...)
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
