// Package rate keeps a token bucket per client and evicts buckets that
// have gone quiet, so the map does not grow with every address ever seen.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows burst requests at once and one more every interval,
// per key. Buckets idle longer than idleTTL are dropped by a background
// sweep.
func NewLimiter(burst int, interval, idleTTL time.Duration) *Limiter {
	l := &Limiter{
		limit:   rate.Every(interval),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*bucket),
	}
	go l.sweep()
	return l
}

// Allow reports whether the client identified by key may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = time.Now()
	return b.lim.Allow()
}

func (l *Limiter) sweep() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()

	for range tick.C {
		l.mu.Lock()
		for key, b := range l.buckets {
			if time.Since(b.seen) > l.idleTTL {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
