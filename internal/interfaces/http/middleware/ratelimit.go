package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/infrastructure/persistence/redis"
	"shortscript-api/internal/interfaces/http/dto"
	"shortscript-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	KeyPrefix         string
}

// RateLimiter 限流器接口，redis.RateLimiter 实现该接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按用户（无用户时按客户端 IP）和路由限流。限流器故障时放行。
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	limit := strconv.Itoa(cfg.RequestsPerMinute)

	return func(c *gin.Context) {
		subject := GetUserIDFromGin(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		key := redis.BuildRateLimitKey(cfg.KeyPrefix, subject, c.Request.Method+" "+endpoint)

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "key", key, "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		if !allowed {
			c.Header("Retry-After", "60")
			dto.AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// NewRateLimitMiddleware 使用 Redis 滑动窗口限流；未配置 Redis 时不限流
func NewRateLimitMiddleware(cfg RateLimitConfig, client *redis.Client) gin.HandlerFunc {
	if client == nil {
		return RateLimit(RateLimitConfig{}, nil)
	}
	return RateLimit(cfg, redis.NewRateLimiter(client))
}
