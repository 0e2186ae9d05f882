package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles verification backend calls with one token bucket per
// key, normally the provider name, so each backend gets its own budget of
// requests per second.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter. A non-positive rate disables limiting and a
// non-positive burst becomes 1.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Wait blocks until a call for key may proceed and reports how long it
// blocked. It fails without waiting when ctx expires before a token could be
// granted.
func (l *Limiter) Wait(ctx context.Context, key string) (time.Duration, error) {
	start := time.Now()
	if err := l.bucket(key).Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// Allow takes a token for key if one is available right now
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Unlimited reports whether limiting is disabled
func (l *Limiter) Unlimited() bool {
	return l.limit == rate.Inf
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}
