package reducer

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/ownworld/core/internal/ids"
)

// Limiter throttles client-submitted reducer calls per identity,
// generalizing the teacher's per-IP ipLimiters/getLimiter pair (spec
// §7: "excess submissions from one identity are throttled, not
// queued"). Scheduled reducers never pass through this — only the
// client-facing transport layer calls Allow, keyed on the caller's
// identity rather than the teacher's remote IP, since an identity is
// the unit the rest of this module reasons about.
type Limiter struct {
	mu       sync.Mutex
	limiters map[ids.Identity]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLimiter builds a Limiter allowing ratePerSecond sustained calls
// per identity with burst headroom.
func NewLimiter(ratePerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[ids.Identity]*rate.Limiter),
		rate:     rate.Limit(ratePerSecond),
		burst:    burst,
	}
}

// Allow reports whether identity may submit a reducer call right now,
// minting that identity's limiter on first use.
func (l *Limiter) Allow(identity ids.Identity) bool {
	l.mu.Lock()
	lim, ok := l.limiters[identity]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[identity] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
