package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateRoom  = "create_room"
	ActionCompletion  = "completion"
	ActionHTTP        = "http"
)

// Limit is a token bucket: Burst tokens, refilled at PerMinute per minute.
type Limit struct {
	PerMinute int
	Burst     int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	limits   map[string]Limit
	fallback Limit
	mutex    sync.Mutex
	buckets  map[string]*entry
	now      func() time.Time
}

// DefaultLimits returns the per-action limits; sendPerMinute overrides the
// message rate.
func DefaultLimits(sendPerMinute int) map[string]Limit {
	if sendPerMinute <= 0 {
		sendPerMinute = 30
	}
	return map[string]Limit{
		ActionSendMessage: {PerMinute: sendPerMinute, Burst: sendPerMinute / 3},
		ActionCreateRoom:  {PerMinute: 10, Burst: 5},
		ActionCompletion:  {PerMinute: 6, Burst: 3},
		ActionHTTP:        {PerMinute: 600, Burst: 100},
	}
}

func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		fallback: Limit{PerMinute: 20, Burst: 20},
		buckets:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Allow consumes one token for key/action. When the bucket is empty it
// reports how long the caller has to wait.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	lim := rl.limiter(key, action, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(key, action string, now time.Time) *rate.Limiter {
	id := key + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	e, ok := rl.buckets[id]
	if !ok {
		l, found := rl.limits[action]
		if !found {
			l = rl.fallback
		}
		burst := l.Burst
		if burst < 1 {
			burst = 1
		}
		e = &entry{limiter: rate.NewLimiter(rate.Limit(float64(l.PerMinute)/60), burst)}
		rl.buckets[id] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for id, e := range rl.buckets {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(rl.buckets, id)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			}
		}
	}()
}
