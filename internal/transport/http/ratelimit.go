package httptransport

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ---------- Rate limiter per-IP ----------

type ipLimiter struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nanos of the last request
}

// RateLimiter hands out one token bucket per client IP. Idle buckets are
// swept lazily from the request path.
type RateLimiter struct {
	rps       rate.Limit
	burst     int
	idleAfter time.Duration

	limiters  sync.Map // map[string]*ipLimiter
	lastSweep atomic.Int64
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	rl := &RateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		idleAfter: 30 * time.Minute,
		now:       time.Now,
	}
	rl.lastSweep.Store(rl.now().UnixNano())
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.now()
	v, ok := rl.limiters.Load(ip)
	if !ok {
		v, _ = rl.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)})
	}
	il := v.(*ipLimiter)
	il.last.Store(now.UnixNano())
	rl.maybeSweep(now)
	return il.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) maybeSweep(now time.Time) {
	last := rl.lastSweep.Load()
	if now.UnixNano()-last < int64(5*time.Minute) {
		return
	}
	if !rl.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return // someone else is sweeping
	}
	cutoff := now.Add(-rl.idleAfter).UnixNano()
	rl.limiters.Range(func(key, val any) bool {
		if val.(*ipLimiter).last.Load() < cutoff {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// Middleware rejects a client with 429 once its bucket is empty.
// Run it after middleware.RealIP so RemoteAddr is the client address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(remoteIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
