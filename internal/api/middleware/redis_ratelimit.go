package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-engine/internal/config"
)

// RedisRateLimiter is a fixed one-second window counter shared by every
// replica behind the load balancer.
type RedisRateLimiter struct {
	redisClient redis.Cmdable
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration
}

func NewRedisRateLimiter(cfg config.RateLimitConfig, redisClient redis.Cmdable, logger *slog.Logger) *RedisRateLimiter {
	logger = logger.With("component", "RedisRateLimiter")

	if !cfg.Enabled {
		logger.Info("Rate limiting is disabled via configuration.")
	} else if redisClient == nil {
		logger.Warn("Rate limiting enabled but no Redis client provided; disabling.")
		cfg.Enabled = false
	} else {
		logger.Info("Redis rate limiter configured", "rps", cfg.RPS, "window", time.Second)
	}

	return &RedisRateLimiter{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      time.Second,
	}
}

func (rl *RedisRateLimiter) IsEnabled() bool {
	return rl.cfg.Enabled && rl.redisClient != nil
}

func (rl *RedisRateLimiter) limit() int64 {
	limit := int64(rl.cfg.RPS)
	if limit < 1 {
		limit = 1
	}
	return limit
}

func (rl *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := extractIP(r)
		key := fmt.Sprintf("ratelimit:%s", ip)

		pipe := rl.redisClient.Pipeline()
		incrCmd := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rl.window)

		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.ErrorContext(ctx, "Redis pipeline failed during rate limiting check, allowing request", "error", err, "ip", ip)
			next.ServeHTTP(w, r)
			return
		}

		if count := incrCmd.Val(); count > rl.limit() {
			rl.logger.WarnContext(ctx, "Rate limit exceeded", "ip", ip, "count", count, "limit", rl.limit())
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Limit is %d requests per %v.", rl.limit(), rl.window))
			return
		}

		next.ServeHTTP(w, r)
	})
}
