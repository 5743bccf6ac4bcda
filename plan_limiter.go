package guardian

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nexlearn/guardian/internal/window"
)

// planLimiter routes an identifier and category to the window limiter for
// the identifier's subscription tier. The tier map is populated by the
// caller, typically at authentication time; unknown identifiers get the
// free tier.
type planLimiter struct {
	mu    sync.RWMutex
	plans map[string]Plan

	grid map[Plan]map[Category]*window.Limiter

	sweepEvery time.Duration
	stopSweep  chan struct{}
	sweepWG    sync.WaitGroup
	stopOnce   sync.Once
	logger     *slog.Logger
}

func newPlanLimiter(cfg PlanConfig, logger *slog.Logger) *planLimiter {
	if logger == nil {
		logger = slog.Default()
	}

	grid := make(map[Plan]map[Category]*window.Limiter, len(cfg.Policies))
	for plan, policies := range cfg.Policies {
		row := make(map[Category]*window.Limiter, len(policies))
		for category, policy := range policies {
			row[category] = window.New(policy, logger)
		}
		grid[plan] = row
	}

	return &planLimiter{
		plans:      make(map[string]Plan),
		grid:       grid,
		sweepEvery: cfg.SweepInterval,
		stopSweep:  make(chan struct{}),
		logger:     logger,
	}
}

// SetPlan records the identifier's subscription tier.
func (p *planLimiter) SetPlan(identifier string, plan Plan) {
	p.mu.Lock()
	p.plans[identifier] = plan
	p.mu.Unlock()
}

// PlanFor resolves the identifier's tier, defaulting to the free tier.
func (p *planLimiter) PlanFor(identifier string) Plan {
	p.mu.RLock()
	plan, ok := p.plans[identifier]
	p.mu.RUnlock()
	if !ok {
		return PlanFree
	}
	return plan
}

func (p *planLimiter) limiterFor(plan Plan, category Category) *window.Limiter {
	if row, ok := p.grid[plan]; ok {
		if l, ok := row[category]; ok {
			return l
		}
	}
	// Unknown tier rows fall back to the free tier's policy.
	if row, ok := p.grid[PlanFree]; ok {
		return row[category]
	}
	return nil
}

// Check resolves the identifier's tier and delegates to the matching
// window limiter.
func (p *planLimiter) Check(identifier string, category Category, now time.Time) (window.Result, error) {
	limiter := p.limiterFor(p.PlanFor(identifier), category)
	if limiter == nil {
		return window.Result{}, ErrUnknownCategory
	}
	return limiter.Check(identifier, now), nil
}

// Record appends a request without a decision, for post-hoc accounting.
func (p *planLimiter) Record(identifier string, category Category, now time.Time) {
	if limiter := p.limiterFor(p.PlanFor(identifier), category); limiter != nil {
		limiter.Record(identifier, now)
	}
}

// Usage aggregates the identifier's current in-window counts across all
// categories of its tier.
func (p *planLimiter) Usage(identifier string, now time.Time) UsageReport {
	plan := p.PlanFor(identifier)
	report := UsageReport{
		Identifier: identifier,
		Plan:       plan,
		Counts:     make(map[Category]int),
	}
	row, ok := p.grid[plan]
	if !ok {
		row = p.grid[PlanFree]
	}
	for category, limiter := range row {
		count := limiter.Count(identifier, now)
		if count > 0 {
			report.Counts[category] = count
		}
		report.Total += count
	}
	return report
}

// Heaviest returns the n identifiers with the highest combined in-window
// counts across all grid cells.
func (p *planLimiter) Heaviest(n int, now time.Time) []UsageReport {
	totals := make(map[string]int)
	for _, row := range p.grid {
		for _, limiter := range row {
			for _, id := range limiter.Identifiers() {
				totals[id] += limiter.Count(id, now)
			}
		}
	}

	ids := make([]string, 0, len(totals))
	for id, total := range totals {
		if total > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}

	out := make([]UsageReport, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.Usage(id, now))
	}
	return out
}

// StartSweep runs one shared ticker that sweeps every grid cell, instead of
// one goroutine per limiter.
func (p *planLimiter) StartSweep() {
	interval := p.sweepEvery
	if interval <= 0 {
		interval = time.Minute
	}

	p.sweepWG.Add(1)
	go func() {
		defer p.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				now := time.Now()
				removed := 0
				for _, row := range p.grid {
					for _, limiter := range row {
						removed += limiter.Sweep(now)
					}
				}
				if removed > 0 {
					p.logger.Debug("plan limiter sweep", "removed", removed)
				}
			case <-p.stopSweep:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (p *planLimiter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopSweep)
	})
	p.sweepWG.Wait()
}
