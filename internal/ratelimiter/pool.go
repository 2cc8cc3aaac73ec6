package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// PooledRateLimiter manages one rate limiter per upstream endpoint, so a
// slow or throttled vendor does not steal budget from its fallbacks.
type PooledRateLimiter struct {
	limiters map[string]*RateLimiter
	mutex    sync.RWMutex
	rate     time.Duration
	burst    int
}

func NewPooledRateLimiter(rate time.Duration, burst int) *PooledRateLimiter {
	return &PooledRateLimiter{
		limiters: make(map[string]*RateLimiter),
		rate:     rate,
		burst:    burst,
	}
}

// Wait waits for permission to make a request to the specified endpoint.
func (p *PooledRateLimiter) Wait(ctx context.Context, endpoint string) error {
	return p.getLimiter(endpoint).Wait(ctx)
}

func (p *PooledRateLimiter) getLimiter(endpoint string) *RateLimiter {
	p.mutex.RLock()
	limiter, exists := p.limiters[endpoint]
	p.mutex.RUnlock()

	if exists {
		return limiter
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := p.limiters[endpoint]; exists {
		return limiter
	}

	limiter = NewRateLimiter(p.rate, p.burst)
	p.limiters[endpoint] = limiter
	return limiter
}

// Close closes all rate limiters.
func (p *PooledRateLimiter) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, limiter := range p.limiters {
		limiter.Close()
	}
	p.limiters = make(map[string]*RateLimiter)
}
