package curation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testGovernor(limits map[Provider]ProviderLimit) (*RateLimitGovernor, *time.Time, *[]time.Duration) {
	g := NewRateLimitGovernor(limits)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var slept []time.Duration
	g.now = func() time.Time { return now }
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &now, &slept
}

func TestReserveEnforcesSpacing(t *testing.T) {
	g, _, slept := testGovernor(map[Provider]ProviderLimit{
		ProviderPexels: {Budget: 10, Window: time.Minute, MinSpacing: 100 * time.Millisecond},
	})

	ctx := context.Background()
	if err := g.Reserve(ctx, ProviderPexels); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("first reserve should not sleep, slept %v", *slept)
	}

	if err := g.Reserve(ctx, ProviderPexels); err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 100*time.Millisecond {
		t.Fatalf("expected one 100ms sleep, got %v", *slept)
	}
}

func TestReserveFailsWhenBudgetExhausted(t *testing.T) {
	g, _, _ := testGovernor(map[Provider]ProviderLimit{
		ProviderPixabay: {Budget: 2, Window: time.Minute},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := g.Reserve(ctx, ProviderPixabay); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}

	err := g.Reserve(ctx, ProviderPixabay)
	var rle *RateLimitExceededError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitExceededError, got %v", err)
	}
	if rle.Provider != ProviderPixabay {
		t.Errorf("wrong provider in error: %s", rle.Provider)
	}
	if rle.RetryAfter <= 0 || rle.RetryAfter > time.Minute {
		t.Errorf("implausible RetryAfter: %s", rle.RetryAfter)
	}
}

func TestReserveBudgetNeverExceededInWindow(t *testing.T) {
	const budget = 5
	g, _, _ := testGovernor(map[Provider]ProviderLimit{
		ProviderPexels: {Budget: budget, Window: time.Hour},
	})

	ctx := context.Background()
	proceeded := 0
	for i := 0; i < budget*3; i++ {
		if err := g.Reserve(ctx, ProviderPexels); err == nil {
			proceeded++
		}
	}
	if proceeded != budget {
		t.Fatalf("%d calls proceeded in one window, budget is %d", proceeded, budget)
	}
}

func TestWindowResets(t *testing.T) {
	g, now, _ := testGovernor(map[Provider]ProviderLimit{
		ProviderPixabay: {Budget: 1, Window: time.Minute},
	})

	ctx := context.Background()
	if err := g.Reserve(ctx, ProviderPixabay); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := g.Reserve(ctx, ProviderPixabay); err == nil {
		t.Fatal("expected exhaustion before window reset")
	}

	*now = now.Add(61 * time.Second)
	if err := g.Reserve(ctx, ProviderPixabay); err != nil {
		t.Fatalf("reserve after window reset: %v", err)
	}
}

func TestObserveResyncsFromHeaders(t *testing.T) {
	g, _, _ := testGovernor(map[Provider]ProviderLimit{
		ProviderPexels: {Budget: 100, Window: time.Hour},
	})

	// Provider says the budget is gone even though we tracked nothing.
	g.Observe(ProviderPexels, 0, time.Time{})

	err := g.Reserve(context.Background(), ProviderPexels)
	var rle *RateLimitExceededError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitExceededError after resync, got %v", err)
	}
}

func TestReserveUnknownProviderIsUnlimited(t *testing.T) {
	g, _, _ := testGovernor(map[Provider]ProviderLimit{})
	if err := g.Reserve(context.Background(), Provider("other")); err != nil {
		t.Fatalf("unknown provider should pass: %v", err)
	}
}
