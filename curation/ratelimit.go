package curation

import (
	"context"
	"sync"
	"time"
)

// ProviderLimit is the request budget for one provider: a fixed-size
// sliding window plus a minimum spacing between consecutive calls.
type ProviderLimit struct {
	Budget     int
	Window     time.Duration
	MinSpacing time.Duration
}

// DefaultLimits returns the per-provider budgets. Local tracking is
// best-effort; providers are resynced from response headers when
// available.
func DefaultLimits() map[Provider]ProviderLimit {
	return map[Provider]ProviderLimit{
		ProviderPexels:  {Budget: 200, Window: time.Hour, MinSpacing: 500 * time.Millisecond},
		ProviderPixabay: {Budget: 100, Window: time.Minute, MinSpacing: 600 * time.Millisecond},
		ProviderPlaces:  {Budget: 100, Window: time.Minute, MinSpacing: time.Second},
	}
}

type rateWindow struct {
	start time.Time
	count int
	last  time.Time
}

// RateLimitGovernor is the single gate every provider call passes
// through. Reserve blocks cooperatively to honor spacing, but fails
// explicitly with RateLimitExceededError when the window budget is gone
// rather than waiting indefinitely.
type RateLimitGovernor struct {
	mu      sync.Mutex
	limits  map[Provider]ProviderLimit
	windows map[Provider]*rateWindow

	// Injected for tests, defaulted in NewRateLimitGovernor.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewRateLimitGovernor(limits map[Provider]ProviderLimit) *RateLimitGovernor {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &RateLimitGovernor{
		limits:  limits,
		windows: make(map[Provider]*rateWindow),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reserve claims one request slot for the provider, sleeping as needed
// to honor minimum spacing. When the window budget is exhausted it
// returns RateLimitExceededError with the time until the window resets.
func (g *RateLimitGovernor) Reserve(ctx context.Context, p Provider) error {
	g.mu.Lock()

	limit, ok := g.limits[p]
	if !ok {
		g.mu.Unlock()
		return nil // unknown provider, no budget configured
	}

	w := g.windows[p]
	if w == nil {
		w = &rateWindow{}
		g.windows[p] = w
	}

	now := g.now()
	if w.start.IsZero() || now.Sub(w.start) >= limit.Window {
		w.start = now
		w.count = 0
	}

	if w.count >= limit.Budget {
		retryAfter := w.start.Add(limit.Window).Sub(now)
		g.mu.Unlock()
		return &RateLimitExceededError{Provider: p, RetryAfter: retryAfter}
	}

	var wait time.Duration
	if !w.last.IsZero() {
		if since := now.Sub(w.last); since < limit.MinSpacing {
			wait = limit.MinSpacing - since
		}
	}

	// Claim the slot before sleeping so concurrent callers queue up
	// behind each other instead of all firing at once.
	w.count++
	w.last = now.Add(wait)
	g.mu.Unlock()

	if wait > 0 {
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Observe resynchronizes the local window from provider-returned
// rate-limit headers. The provider's numbers are authoritative.
func (g *RateLimitGovernor) Observe(p Provider, remaining int, reset time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[p]
	if !ok {
		return
	}
	w := g.windows[p]
	if w == nil {
		w = &rateWindow{start: g.now()}
		g.windows[p] = w
	}

	used := limit.Budget - remaining
	if used < 0 {
		used = 0
	}
	if used > limit.Budget {
		used = limit.Budget
	}
	w.count = used
	if !reset.IsZero() {
		w.start = reset.Add(-limit.Window)
	}
}

// Remaining reports how much budget is left in the provider's current
// window. Diagnostic only.
func (g *RateLimitGovernor) Remaining(p Provider) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[p]
	if !ok {
		return 0
	}
	w := g.windows[p]
	if w == nil {
		return limit.Budget
	}
	if g.now().Sub(w.start) >= limit.Window {
		return limit.Budget
	}
	return limit.Budget - w.count
}
