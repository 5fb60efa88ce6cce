package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"campus-openings/internal/response"

	"golang.org/x/time/rate"
)

const limiterTTL = 15 * time.Minute

// RateLimit allows perMinute requests per client IP with a burst of the same
// size. A non-positive perMinute disables limiting. Run chi's RealIP first
// when behind a proxy.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newLimiterStore(perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.limiter(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "60")
				response.Fail(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute int) *limiterStore {
	return &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		now:       time.Now,
	}
}

// limiter returns the client's limiter. Stale entries are swept on access
// so the map does not grow without bound.
func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	for k, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.limiters, k)
		}
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
