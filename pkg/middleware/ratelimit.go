package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
	"github.com/ckcelina/my-wishlist-sub002/pkg/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a token bucket per caller. Callers are keyed by
// authenticated user id, falling back to the connection's remote address.
// Forwarding headers are not read here; mount chi's RealIP ahead of the
// limiter when running behind a trusted proxy. Idle buckets are evicted
// after ttl.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

// NewRateLimiter starts a limiter allowing rps requests per second with the
// given burst. Call Stop to end its cleanup goroutine.
func NewRateLimiter(rps float64, burst int, ttl time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
		logger:   logger,
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Handler returns middleware answering 429 once a caller's bucket is empty.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := UserIDFromContext(r.Context())
		if key == "" {
			key = "ip:" + clientIP(r)
		}

		if !rl.allow(key) {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("caller", key),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			httputil.WriteError(w, r, apperrors.TooManyRequests("too many requests"), rl.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	now := rl.now()
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// clientIP returns the host part of the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
