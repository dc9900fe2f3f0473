package ai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chunkwise/internal/core/domain"
)

// RateLimitConfig holds rate limiting configuration for a provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// Backoff is how long to pause after the provider reports a rate limit.
	Backoff time.Duration
}

// DefaultRateLimits are conservative per-provider defaults.
// Local providers are not throttled.
var DefaultRateLimits = map[domain.AIProvider]RateLimitConfig{
	domain.AIProviderOpenAI:    {RequestsPerSecond: 5, BurstSize: 10, Backoff: 10 * time.Second},
	domain.AIProviderAnthropic: {RequestsPerSecond: 2, BurstSize: 5, Backoff: 15 * time.Second},
	domain.AIProviderGemini:    {RequestsPerSecond: 2, BurstSize: 5, Backoff: 15 * time.Second},
	domain.AIProviderOllama:    {RequestsPerSecond: 0, BurstSize: 0, Backoff: 2 * time.Second},
}

// RateLimiter throttles provider calls with a token bucket and pauses
// after the provider rejects a call with a rate limit.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
}

// NewRateLimiter creates a rate limiter with the provider's defaults.
// A positive requestsPerSecond overrides the default rate.
func NewRateLimiter(provider domain.AIProvider, requestsPerSecond float64) *RateLimiter {
	cfg, ok := DefaultRateLimits[provider]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10, Backoff: 10 * time.Second}
	}
	if requestsPerSecond > 0 {
		cfg.RequestsPerSecond = requestsPerSecond
		if cfg.BurstSize < 1 {
			cfg.BurstSize = 1
		}
	}
	return NewRateLimiterWithConfig(cfg)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
// A zero rate means unlimited.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff period. Zero uses the configured backoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = r.backoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow reports whether a request can be made immediately.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
