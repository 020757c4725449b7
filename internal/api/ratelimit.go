package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused bucket is kept. It is longer than a full refill, so a
// dropped bucket and a fresh one behave the same.
const limiterIdle = 10 * time.Minute

type keyedBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// KeyedLimiter hands out one token bucket per key (staff id or client IP). Buckets unused for
// limiterIdle are pruned during Allow.
type KeyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*keyedBucket
	every     time.Duration
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// NewKeyedLimiter allows perMinute events per key with a burst of the same size.
func NewKeyedLimiter(perMinute int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*keyedBucket),
		every:    time.Minute / time.Duration(perMinute),
		burst:    perMinute,
		now:      time.Now,
	}
}

func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	if now.Sub(k.lastPrune) >= limiterIdle {
		for id, b := range k.limiters {
			if now.Sub(b.seen) >= limiterIdle {
				delete(k.limiters, id)
			}
		}
		k.lastPrune = now
	}
	b, ok := k.limiters[key]
	if !ok {
		b = &keyedBucket{lim: rate.NewLimiter(rate.Every(k.every), k.burst)}
		k.limiters[key] = b
	}
	b.seen = now
	k.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// RateLimit rejects requests over the limit with 429. The key is the principal when present,
// otherwise the remote IP.
func RateLimit(k *KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if p := PrincipalFromContext(r.Context()); p != nil {
				key = "staff:" + p.ID
			}
			if !k.Allow(key) {
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
