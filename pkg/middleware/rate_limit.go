package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKey formats the request counter key for one client on one route.
func RateLimitKey(path, client string) string {
	return fmt.Sprintf("rate_limit:%s:%s", path, client)
}

// Limiter decides whether one more request under a key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts requests per key in a fixed window. The counter expires
// with the window, so a quiet client's budget resets on its own.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	return count <= l.limit, nil
}

// RateLimitMiddleware rejects requests once a client exhausts the limiter's
// window budget. Authenticated requests are counted per user id, anonymous
// ones per client IP.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.GetString("user_id")
		if client == "" {
			client = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), RateLimitKey(c.Request.URL.Path, client))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
