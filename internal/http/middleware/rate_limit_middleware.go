package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shopvio/shop-session-service/internal/http/response"
)

// RateLimiter applies a fixed-window per-client limit. The auth endpoints get
// a tighter window than the rest of the API; the redis login guard handles
// credential-failure escalation separately.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.hits[key][:0]
	for _, hit := range rl.hits[key] {
		if now.Sub(hit) < rl.window {
			kept = append(kept, hit)
		}
	}
	if len(kept) >= rl.limit {
		rl.hits[key] = kept
		return false, rl.window - now.Sub(kept[0])
	}
	rl.hits[key] = append(kept, now)
	return true, 0
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retryAfter := rl.allow(ClientIP(r))
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retryAfter.Seconds()))))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the remote address without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
