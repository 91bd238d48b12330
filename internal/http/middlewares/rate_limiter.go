package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed window per derived key, with the counters in
// redis so every replica shares the same view of an attacker. If redis is
// unreachable the limiter degrades open: login availability wins over
// brute-force slowdown.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ctx := c.Request.Context()
		redisKey := "ratelimit:" + key

		count, err := rl.rdb.Incr(ctx, redisKey).Result()

		if err != nil {
			slog.Default().WarnContext(ctx, "rate_limiter_degraded", "error", err)
			c.Next()
			return
		}

		if count == 1 {
			if err := rl.rdb.Expire(ctx, redisKey, rl.window).Err(); err != nil {
				slog.Default().WarnContext(ctx, "rate_limiter_expire_failed", "error", err)
			}
		}

		if count > int64(rl.limit) {
			ttl, err := rl.rdb.TTL(ctx, redisKey).Result()

			retryAfter := int(rl.window.Seconds())
			if err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds())
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	if actor, ok := ActorFromContext(c); ok {
		return "user:" + actor.UserID
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
