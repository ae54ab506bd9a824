package chat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const apiKeyContextKey = "widget_api_key"

// ExtractAPIKey reads the widget key from the X-API-Key header, a bearer
// token, or the api_key query parameter used by browser websockets.
func ExtractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}

	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return r.URL.Query().Get("api_key")
}

// RequireAPIKey rejects requests without a widget key and stores the key on
// the context.
func RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := strings.TrimSpace(ExtractAPIKey(c.Request()))
		if key == "" {
			return shared.Unauthorized("missing_api_key", "missing api key")
		}
		c.Set(apiKeyContextKey, key)
		return next(c)
	}
}

func GetAPIKey(c echo.Context) string {
	key, _ := c.Get(apiKeyContextKey).(string)
	return key
}

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             10,
		CleanupInterval:   5 * time.Minute,
	}
}

type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	config   RateLimiterConfig
}

func newRateLimiterStore(cfg RateLimiterConfig) *rateLimiterStore {
	return &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.RLock()
	limiter, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		return limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists = s.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.Burst)
	s.limiters[key] = limiter
	return limiter
}

// sweep drops limiters that have refilled completely.
func (s *rateLimiterStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, limiter := range s.limiters {
		if limiter.Tokens() >= float64(s.config.Burst) {
			delete(s.limiters, key)
		}
	}
}

func (s *rateLimiterStore) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// RateLimiter throttles widget traffic per API key, falling back to the
// client IP. The cleanup loop stops when ctx is done.
func RateLimiter(ctx context.Context, cfg RateLimiterConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)
	if cfg.CleanupInterval > 0 {
		go store.cleanupLoop(ctx)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if apiKey := ExtractAPIKey(c.Request()); apiKey != "" {
				key = "key:" + apiKey
			}

			if !store.getLimiter(key).Allow() {
				return shared.TooManyRequests("rate_limit_exceeded", "too many requests")
			}

			return next(c)
		}
	}
}
