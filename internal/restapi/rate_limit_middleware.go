package restapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"makro.app/internal/models"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = 3 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware limits requests per API key, or per client address
// for anonymous callers.
type RateLimitMiddleware struct {
	limiters    map[string]*clientLimiter
	mu          sync.Mutex
	rateLimit   rate.Limit
	burstSize   int
	refill      time.Duration
	exemptKeys  map[string]bool
	cleanupTick *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
}

// NewRateLimitMiddleware allows ratePerSecond requests per interval with
// an equal burst. A non-positive ratePerSecond disables limiting.
func NewRateLimitMiddleware(ratePerSecond int, interval time.Duration, exemptKeys ...string) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		limiters:   make(map[string]*clientLimiter),
		rateLimit:  rate.Inf,
		burstSize:  ratePerSecond,
		exemptKeys: make(map[string]bool, len(exemptKeys)),
		done:       make(chan struct{}),
	}
	for _, k := range exemptKeys {
		rl.exemptKeys[k] = true
	}
	if ratePerSecond <= 0 {
		return rl
	}

	rl.refill = interval / time.Duration(ratePerSecond)
	rl.rateLimit = rate.Every(rl.refill)
	rl.cleanupTick = time.NewTicker(limiterCleanupInterval)
	go rl.cleanup()
	return rl
}

func (rl *RateLimitMiddleware) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	if rl.rateLimit == rate.Inf {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.URL.Query().Get("key")
		if apiKey == "" {
			apiKey = r.Header.Get("X-API-Key")
		}
		if rl.exemptKeys[apiKey] {
			next.ServeHTTP(w, r)
			return
		}

		key := "key:" + apiKey
		if apiKey == "" {
			key = "addr:" + clientAddr(r)
		}

		if !rl.getLimiter(key, time.Now()).Allow() {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retryAfter := max(int((rl.refill+time.Second-1)/time.Second), 1)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(models.NewResponse(http.StatusTooManyRequests, nil,
		"Rate limit exceeded. Please try again later."))
}

// cleanup drops limiters of clients that have been idle for a while.
func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case now := <-rl.cleanupTick.C:
			rl.mu.Lock()
			for key, cl := range rl.limiters {
				if now.Sub(cl.lastSeen) > limiterIdleTimeout {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTick != nil {
			rl.cleanupTick.Stop()
		}
		close(rl.done)
	})
}
