package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/lumina-interior/backend/pkg/utils"
)

// RateLimiter hands out one token bucket per key. Buckets that have been
// idle longer than the expiry are dropped.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
	key     func(*http.Request) string
}

// NewRateLimiter allows perMinute requests per key with the given burst.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute, burst int, expiry time.Duration, key func(*http.Request) string) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		buckets: cache.New(expiry, expiry),
		key:     key,
	}
}

// Allow consumes one token for key.
func (l *RateLimiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}

	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
		if err := l.buckets.Add(key, limiter, cache.DefaultExpiration); err != nil {
			// lost the race to a concurrent request for the same key
			if v, ok := l.buckets.Get(key); ok {
				limiter = v.(*rate.Limiter)
			}
		}
	}
	l.buckets.Set(key, limiter, cache.DefaultExpiration)
	return limiter.Allow()
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if l.key != nil {
			if k := l.key(r); k != "" {
				key = k
			}
		}
		if !l.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(l.limit)))))
			utils.RespondError(w, http.StatusTooManyRequests, "too many messages, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
