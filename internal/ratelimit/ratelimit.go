package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config interface for rate limiting configuration
type Config interface {
	GetDisableRateLimit() bool
	GetUploadRateLimit() float64
	GetUploadBurst() int
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	ShouldBlock   bool
	RemainingTime time.Duration
	Reason        string
}

// cleanupInterval is how often limiters with a refilled bucket are dropped
const cleanupInterval = time.Hour

// UploadLimiter applies a token bucket per client to uploads
type UploadLimiter struct {
	cfg         Config
	limiters    map[string]*rate.Limiter
	mu          sync.Mutex
	lastCleanup time.Time
	now         func() time.Time
}

// NewUploadLimiter creates a per-client upload limiter
func NewUploadLimiter(cfg Config) *UploadLimiter {
	return &UploadLimiter{
		cfg:         cfg,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Check consumes one upload token for clientID and reports whether the
// upload should be refused
func (l *UploadLimiter) Check(clientID string) RateLimitResult {
	// Never rate limit if rate limiting is disabled
	if l.cfg.GetDisableRateLimit() {
		return RateLimitResult{
			ShouldBlock: false,
			Reason:      "rate_limiting_disabled",
		}
	}

	now := l.now()
	limiter := l.limiterFor(clientID, now)

	if limiter.AllowN(now, 1) {
		return RateLimitResult{
			ShouldBlock: false,
			Reason:      "rate_limit_passed",
		}
	}

	// Ask how long the next token takes without keeping the reservation
	reservation := limiter.ReserveN(now, 1)
	remaining := reservation.DelayFrom(now)
	reservation.CancelAt(now)

	return RateLimitResult{
		ShouldBlock:   true,
		RemainingTime: remaining,
		Reason:        "rate_limit_active",
	}
}

// limiterFor returns the limiter of a client, creating it on first use
func (l *UploadLimiter) limiterFor(clientID string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) > cleanupInterval {
		l.evictRefilled(now)
		l.lastCleanup = now
	}

	limiter, exists := l.limiters[clientID]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.GetUploadRateLimit()), l.cfg.GetUploadBurst())
		l.limiters[clientID] = limiter
	}
	return limiter
}

// evictRefilled drops limiters whose bucket is full again. A new limiter
// starts full, so forgetting them changes no client's budget.
func (l *UploadLimiter) evictRefilled(now time.Time) {
	for clientID, limiter := range l.limiters {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limiters, clientID)
		}
	}
}

// Clients returns the number of clients currently tracked
func (l *UploadLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
