package wlo

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// DefaultRetryWait is used when a 429 carries no usable Retry-After.
	DefaultRetryWait = 2 * time.Second

	// MaxRetryWait caps a single Retry-After pause.
	MaxRetryWait = 30 * time.Second
)

// RateLimiter throttles search requests with a token bucket and pauses all
// callers after the endpoint answers 429.
type RateLimiter struct {
	mu           sync.Mutex
	bucket       *rate.Limiter
	blockedUntil time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// requests. A non-positive rate disables proactive throttling.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = max(1, int(requestsPerSecond))
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	blockedUntil := r.blockedUntil
	r.mu.Unlock()

	if wait := time.Until(blockedUntil); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// Backoff pauses every caller for d. An earlier pause is never shortened.
func (r *RateLimiter) Backoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(d); until.After(r.blockedUntil) {
		r.blockedUntil = until
	}
}

// RetryAfter reads the pause requested by a 429 response, capped at MaxRetryWait.
func RetryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return DefaultRetryWait
	}
	value := resp.Header.Get(HeaderRetryAfter)
	if value == "" {
		return DefaultRetryWait
	}

	var wait time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		wait = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		wait = at.Sub(now)
	} else {
		return DefaultRetryWait
	}

	if wait < 0 {
		return 0
	}
	return min(wait, MaxRetryWait)
}
