// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RateLimiter is an in-memory token bucket per client, built on
// golang.org/x/time/rate. Buckets idle for longer than the TTL are swept
// every sweepEvery lookups. Replays flagged by IdempotencyValidator skip the
// limiter entirely so a client retrying a task creation is never throttled
// for it.
//
// The limiter is process-local; each replica enforces its own budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-task-backend/internal/apperr"
)

// MsgRateLimited is the message of the 429 error.
const MsgRateLimited = "Too many requests, please try again later."

const (
	bucketTTL  = 10 * time.Minute
	sweepEvery = 5000
)

// keyFunc selects the bucket a request draws from.
type keyFunc func(*gin.Context) string

// KeyByClientIP buckets requests by client address ("ip:203.0.113.7").
func KeyByClientIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one bucket per key. Safe for concurrent use.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	keyFn      keyFunc
	retryAfter string

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
	ttl     time.Duration
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (coerced to at least 1). Retry-After is the time for one token to
// come back, rounded up to whole seconds.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	retry := 60
	if rps > 0 {
		retry = int(math.Max(1, math.Ceil(1/rps)))
	}
	return &RateLimiter{
		limit:      rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		retryAfter: strconv.Itoa(retry),
		buckets:    make(map[string]*bucket),
		ttl:        bucketTTL,
	}
}

// limiterFor returns the bucket for key, creating it on first use. The sweep
// runs before the lookup so a stale bucket for key is replaced, not revived.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Get(ctxKeyRateBypass)
	ok, _ := b.(bool)
	return ok
}

// Handler returns the limiting stage. A denied request gets Retry-After and
// a recorded 429 for ErrorResponder.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.limiterFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", rl.retryAfter)
		_ = c.Error(apperr.New(MsgRateLimited, http.StatusTooManyRequests))
		c.Abort()
	}
}
