package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"biomarket-backend/internal/shared/server/respond"
)

// RateLimiter keeps one token bucket per client IP. A limiter with a
// non-positive rate or burst lets everything through.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewRateLimiter(perSecond float64, burst int, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     now,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *RateLimiter) disabled() bool {
	return l == nil || l.limit <= 0 || l.burst <= 0
}

// Allow takes one token for key. When none is left it reports how long the
// caller should wait, without consuming anything.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	if l.disabled() {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	r := bucket.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// RateLimit is mounted on the route groups it protects. Rejected requests get
// a 429 with Retry-After in whole seconds.
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	if l.disabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ok, wait := l.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}
		if wait <= 0 {
			wait = time.Second
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many analysis requests",
			gin.H{"retryAfterMs": wait.Milliseconds()})
	}
}
