package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"dealdocs-backend/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	clientIDHeader        = "X-Client-Id"
)

// RateLimitRule is a token bucket: Rate tokens per second, up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

const (
	defaultLimiterIdleTTL = 10 * time.Minute
	defaultLimiterMaxKeys = 10000
)

// RateLimiter keeps one rate.Limiter per principal and group. Entries idle
// for IdleTTL are swept, and the least recently seen entry is evicted once
// MaxKeys is reached.
type RateLimiter struct {
	IdleTTL time.Duration
	MaxKeys int

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		IdleTTL:  defaultLimiterIdleTTL,
		MaxKeys:  defaultLimiterMaxKeys,
		limiters: make(map[string]*limiterEntry),
		now:      now,
	}
}

// RateLimit rejects requests over the group's rule with 429 and Retry-After.
// The principal is the X-Client-Id header, falling back to the client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(c.GetHeader(clientIDHeader))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		allowed, retryAfter := cfg.Limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"retryAfterMs": retryAfterMs,
		})
	}
}

// Allow takes one token for key, returning how long to wait when none is left.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		l.makeRoom(now)
		entry = &limiterEntry{lim: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	lim := entry.lim
	l.mu.Unlock()

	if lim.AllowN(now, 1) {
		return true, 0
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

// Len reports how many limiters are tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// makeRoom runs with l.mu held, before a new key is added.
func (l *RateLimiter) makeRoom(now time.Time) {
	full := l.MaxKeys > 0 && len(l.limiters) >= l.MaxKeys
	if l.IdleTTL > 0 && (full || now.Sub(l.lastSweep) >= l.IdleTTL) {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) >= l.IdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}
	if l.MaxKeys <= 0 || len(l.limiters) < l.MaxKeys {
		return
	}
	oldestKey := ""
	var oldest time.Time
	for key, entry := range l.limiters {
		if oldestKey == "" || entry.lastSeen.Before(oldest) {
			oldestKey, oldest = key, entry.lastSeen
		}
	}
	delete(l.limiters, oldestKey)
}
