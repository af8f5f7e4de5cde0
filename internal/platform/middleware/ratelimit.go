package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/bidan/registry/internal/platform/auth"
)

// RateLimitConfig holds rate limiting configuration. Every request served
// from the sheets store costs a spreadsheet API call, so the defaults stay
// well under the Sheets per-minute read quota.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL forgets a client that has sent nothing for this long.
	IdleTTL time.Duration
	// MaxClients bounds the tracked clients; the least recently seen is
	// evicted first.
	MaxClients int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
		MaxClients:        10000,
	}
}

// limiterStore holds one limiter per client key.
type limiterStore struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	def := DefaultRateLimitConfig()
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	return &limiterStore{
		cfg:      cfg,
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.IdleTTL),
	}
}

// get returns the limiter for key, creating it on first use. Every call
// pushes the key's expiry back by IdleTTL.
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)
	}
	s.limiters.Add(key, l)
	return l
}

// retryAfter is the whole number of seconds, at least 1, until l would
// admit another request. A zero rate never refills, so it reports 1.
func retryAfter(l *rate.Limiter, now time.Time) int {
	if l.Limit() == 0 {
		return 1
	}
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if d == rate.InfDuration {
		return 1
	}
	if secs := int(math.Ceil(d.Seconds())); secs > 1 {
		return secs
	}
	return 1
}

// RateLimit limits requests per authenticated user, or per client IP for
// anonymous callers. It must run after the auth middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
				key = "user:" + uid
			}

			l := store.get(key)
			now := time.Now()
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if !l.AllowN(now, 1) {
				h.Set("Retry-After", strconv.Itoa(retryAfter(l, now)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			h.Set("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, math.Floor(l.TokensAt(now))))))
			return next(c)
		}
	}
}
