package ratelimit

import (
	"sync"
	"time"
)

// Remaining is the cooldown left for a rejected requester, decomposed into
// whole hours and whole minutes for display.
type Remaining struct {
	Hours   int
	Minutes int
}

// Limiter tracks the last accepted request per requester. The timestamp is
// written inside the admission check, so a burst of concurrent requests from
// the same requester resolves to exactly one acceptance per cooldown window.
type Limiter struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func New(cooldown time.Duration) *Limiter {
	return &Limiter{
		cooldown: cooldown,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// SetNow overrides the clock (for testing).
func (l *Limiter) SetNow(now func() time.Time) {
	l.now = now
}

// TryAcquire admits the requester if no prior acceptance exists or the
// cooldown has fully elapsed. On admission the requester's timestamp is
// updated to now before returning.
func (l *Limiter) TryAcquire(requesterID string) (bool, Remaining) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[requesterID]
	if !ok || now.Sub(last) >= l.cooldown {
		l.last[requesterID] = now
		return true, Remaining{}
	}

	left := l.cooldown - now.Sub(last)
	return false, Remaining{
		Hours:   int(left / time.Hour),
		Minutes: int((left % time.Hour) / time.Minute),
	}
}
