package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, 0); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for zero, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, 3); l.defaultBurst != 3 {
		t.Errorf("expected burst 3, got %d", l.defaultBurst)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(0.01, 2)

	if !limiter.Allow("https://example.com/a") {
		t.Error("expected first request allowed")
	}
	if !limiter.Allow("https://example.com/b") {
		t.Error("expected second request within burst allowed")
	}
	if limiter.Allow("https://example.com/c") {
		t.Error("expected third request blocked")
	}
}

func TestLimiter_PerDomainBuckets(t *testing.T) {
	limiter := NewLimiter(0.01, 1)

	if !limiter.Allow("https://slow.example/a") {
		t.Error("expected first request allowed")
	}
	if limiter.Allow("https://slow.example/b") {
		t.Error("expected same domain blocked after burst")
	}
	if !limiter.Allow("https://other.example/a") {
		t.Error("expected separate bucket for another domain")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(100, 10)
	limiter.SetDomainRate("throttled.example", 0.01, 1)

	if !limiter.Allow("https://throttled.example/a") {
		t.Error("expected first request allowed")
	}
	if limiter.Allow("https://throttled.example/b") {
		t.Error("expected override burst of 1 enforced")
	}
	if !limiter.Allow("https://normal.example/a") {
		t.Error("expected other domains unaffected")
	}
}

func TestLimiter_Wait_ContextDeadline(t *testing.T) {
	limiter := NewLimiter(0.01, 1)

	if err := limiter.Wait(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "https://example.com/b"); err == nil {
		t.Error("expected error when the deadline cannot be met")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(1000, 10)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "https://example.com/a", 30*time.Millisecond); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected crawl delay honored, waited %v", elapsed)
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("https://en.wikipedia.org/wiki/Marie_Curie")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if domain != "en.wikipedia.org" {
		t.Errorf("expected en.wikipedia.org, got %s", domain)
	}

	if _, err := extractDomain("://missing-scheme"); err == nil {
		t.Error("expected error for malformed URL")
	}
}
