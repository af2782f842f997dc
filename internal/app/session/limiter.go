/*
Package session implements the chat session lifecycle engine.

This file defines the invite limiter, a per-user token bucket that protects
the system from invitation flooding. It keeps one rate.Limiter per user id
and periodically drops buckets that have refilled completely, so the map does
not grow with every user that ever sent an invite.
*/
package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tempchat/internal/pkg/logx"
)

// limiterCleanupInterval is how often refilled per-user buckets are dropped.
const limiterCleanupInterval = 3 * time.Minute

// inviteLimiter implements per-user invitation rate limiting.
type inviteLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from user id to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the sustained invite rate allowed per user.
	r rate.Limit

	// b is the burst size allowed per user.
	b int
}

// newInviteLimiter creates an inviteLimiter allowing r invites per second
// with bursts of b, and starts the background cleanup goroutine.
func newInviteLimiter(r rate.Limit, b int) *inviteLimiter {
	l := &inviteLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.cleanup()

	return l
}

// Allow reports whether the given user may send another invite right now.
func (l *inviteLimiter) Allow(userID string) bool {
	l.mu.RLock()
	limiter, exists := l.limits[userID]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[userID]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[userID] = limiter
		}
		l.mu.Unlock()
	}

	return limiter.Allow()
}

// cleanup periodically removes limiters whose buckets are full again.
// A full bucket means the user has been idle long enough to forget.
func (l *inviteLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		count := 0
		for userID, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, userID)
				count++
			}
		}
		remaining := len(l.limits)
		l.mu.Unlock()

		if count > 0 {
			logx.Debug("Invite limiter cleanup finished.",
				"removed", count,
				"remaining", remaining,
			)
		}
	}
}
