package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterTTL     = 15 * time.Minute
	limiterCleanup = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per caller key.
type limiterSet struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	entries     map[string]*limiterEntry
	lastCleanup time.Time
	now         func() time.Time
}

func newLimiterSet(perMinute, burst int) *limiterSet {
	return &limiterSet{
		limit:       rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       burst,
		entries:     make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCleanup) >= limiterCleanup {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterTTL {
				delete(s.entries, k)
			}
		}
		s.lastCleanup = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit returns middleware that enforces a per-user (or per-IP for
// anonymous callers) request rate. Non-positive settings disable it.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := newLimiterSet(perMinute, burst)
	return func(c *gin.Context) {
		key := rateLimitKey(c)
		if !limiters.allow(key) {
			slog.Debug("rate limited", "key", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if user := GetUser(c); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + c.ClientIP()
}
