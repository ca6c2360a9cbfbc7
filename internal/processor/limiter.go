package processor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThemeLimiter is an in-memory token bucket per theme ID for the manual trigger.
type ThemeLimiter struct {
	every   time.Duration
	burst   int
	ttl     time.Duration
	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThemeLimiter allows burst requests per theme, refilling one token every interval.
func NewThemeLimiter(every time.Duration, burst int) *ThemeLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ThemeLimiter{
		every:   every,
		burst:   burst,
		ttl:     10 * every,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether a run for themeID may start now.
func (l *ThemeLimiter) Allow(themeID string) bool {
	return l.allowAt(themeID, time.Now())
}

func (l *ThemeLimiter) allowAt(themeID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop idle buckets every so often to bound memory.
	l.lookups++
	if l.lookups >= 1000 {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.ttl {
				delete(l.buckets, k)
			}
		}
		l.lookups = 0
	}

	b, ok := l.buckets[themeID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.buckets[themeID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
