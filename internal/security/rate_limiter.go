package security

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/alchemix/bar-server/internal/config"
	"github.com/alchemix/bar-server/internal/constants"
)

// RateLimiter applies a per-client-IP token bucket to inbound requests.
// Limiters are kept in a TTL cache so idle clients age out.
type RateLimiter struct {
	limiters *cache.Cache
	config   *config.RateLimitConfig
}

func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = constants.RateLimitCleanupInterval
	}
	if cfg.MaxCacheSize == 0 {
		cfg.MaxCacheSize = constants.RateLimitMaxCacheSize
	}

	rl := &RateLimiter{
		limiters: cache.New(cfg.CleanupInterval, cfg.CleanupInterval*2),
		config:   cfg,
	}

	if cfg.Enabled {
		go rl.periodicCleanup()
	}

	return rl
}

// periodicCleanup bounds the limiter cache so an address-spraying client
// cannot exhaust memory.
func (rl *RateLimiter) periodicCleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		currentSize := rl.limiters.ItemCount()
		if currentSize <= rl.config.MaxCacheSize {
			continue
		}

		toRemove := currentSize - rl.config.MaxCacheSize + rl.config.MaxCacheSize/10
		removed := 0
		for key := range rl.limiters.Items() {
			if removed >= toRemove {
				break
			}
			rl.limiters.Delete(key)
			removed++
		}
	}
}

// Allow reports whether the identifier may make another request now.
func (rl *RateLimiter) Allow(identifier string) bool {
	if !rl.config.Enabled {
		return true
	}

	var limiter *rate.Limiter
	if item, found := rl.limiters.Get(identifier); found {
		limiter = item.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
		rl.limiters.Set(identifier, limiter, cache.DefaultExpiration)
	}

	return limiter.Allow()
}

// Middleware enforces the rate limit on everything except the
// observability endpoints.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled || shouldSkipRateLimit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identifier := clientIP(r)
		if !rl.Allow(identifier) {
			retryAfter := time.Duration(float64(time.Second) * float64(rl.config.BurstSize) / float64(rl.config.RequestsPerSecond))

			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(rl.config.RequestsPerSecond))
			w.Header().Set(constants.HeaderXRateLimitRemaining, "0")
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)

			response := map[string]interface{}{
				"error":       constants.ErrorCodeRateLimitExceeded,
				"message":     fmt.Sprintf("Rate limit exceeded. Try again in %v", retryAfter),
				"retry_after": int(retryAfter.Seconds()),
			}
			_ = json.NewEncoder(w).Encode(response)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func shouldSkipRateLimit(path string) bool {
	switch path {
	case constants.PathHealth, constants.PathReady, constants.PathMetrics:
		return true
	}
	return false
}

// clientIP resolves the caller's address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if realIP := r.Header.Get(constants.HeaderXRealIP); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
