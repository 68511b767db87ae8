package inmemory

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out work per key: at most limit items start per period for
// one key, one every period/limit. Keys do not affect each other.
type Throttle struct {
	mu        sync.Mutex
	every     rate.Limit
	period    time.Duration
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

func NewThrottle(limit int, period time.Duration) *Throttle {
	if limit < 1 {
		limit = 1
	}
	return &Throttle{
		every:    rate.Every(period / time.Duration(limit)),
		period:   period,
		limiters: map[string]*rate.Limiter{},
	}
}

// Reserve books the next slot for key at or after now and returns how long the
// caller must wait before starting. The slot is consumed either way, so the
// caller must start the item after the delay rather than ask again.
func (t *Throttle) Reserve(key string, now time.Time) time.Duration {
	t.mu.Lock()
	if now.Sub(t.lastSweep) >= t.period {
		t.sweep(now)
	}
	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.every, 1)
		t.limiters[key] = l
	}
	t.mu.Unlock()

	return l.ReserveN(now, 1).DelayFrom(now)
}

// Len is the number of keys currently tracked.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

// sweep drops limiters whose token has refilled: they hold no booked slots and
// behave exactly like a new limiter. Callers hold t.mu.
func (t *Throttle) sweep(now time.Time) {
	for key, l := range t.limiters {
		if l.TokensAt(now) >= 1 {
			delete(t.limiters, key)
		}
	}
	t.lastSweep = now
}
