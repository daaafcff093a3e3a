package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/config"
)

// RateLimiter ограничивает частоту запросов счетчиками в Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	logger      *zap.Logger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger.With(zap.String("component", "rate_limiter")),
	}
}

// Limit возвращает Gin middleware: не более rule.Limit запросов за rule.Window
// с одного IP на один маршрут. Нулевой лимит отключает проверку.
func (rl *RateLimiter) Limit(prefix string, rule config.RateRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.redisClient == nil || rule.Limit <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("rl:%s:%s:%s", prefix, clientIP, path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail-open: недоступный Redis не блокирует прохождение опросов
			rl.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, rule.Window).Err(); err != nil {
				rl.logger.Warn("failed to set rate limit ttl", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := rule.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := int(rule.Window.Seconds())
		if ttl, err := rl.redisClient.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if count > rule.Limit {
			rl.logger.Info("rate limit exceeded",
				zap.String("ip", clientIP),
				zap.String("path", path),
				zap.Int64("count", count),
				zap.Int64("limit", rule.Limit))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
