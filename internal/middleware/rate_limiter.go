package middleware

import (
	"sync"
	"time"
)

// RateLimiter caps how many messages each player may send per window.
// Messages over the cap are dropped before they reach the quiz.
type RateLimiter struct {
	userLimits map[int64]*userLimit
	mu         sync.Mutex

	maxRequests int
	window      time.Duration
	now         func() time.Time

	stop chan struct{}
	once sync.Once
}

type userLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:  make(map[int64]*userLimit),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// Allow records a message from userID and reports whether it is within the limit.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.userLimits[userID]
	if !exists || now.After(limit.resetTime) {
		rl.userLimits[userID] = &userLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.maxRequests {
		return false
	}

	limit.requests++
	return true
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep removes expired entries
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.userLimits {
		if now.After(limit.resetTime) {
			delete(rl.userLimits, userID)
		}
	}
}

// Stop ends the cleanup loop. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
