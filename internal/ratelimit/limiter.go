package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Limiter decides whether another request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config is a fixed-window budget.
type Config struct {
	Max    int
	Window time.Duration
}

// DefaultConfig allows 30 writes per user per minute.
func DefaultConfig() Config {
	return Config{Max: 30, Window: time.Minute}
}

// RedisLimiter counts requests per key in Redis with INCR and EXPIRE.
type RedisLimiter struct {
	rdb    *redis.Client
	config Config
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, prefix string, config Config) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, config: config, prefix: prefix}
}

func (rl *RedisLimiter) key(key string) string {
	return fmt.Sprintf("rate:%s:%s", rl.prefix, key)
}

// Allow records one request and reports whether it fits the window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl == nil || rl.rdb == nil {
		return false, fmt.Errorf("Redis client not available")
	}

	redisKey := rl.key(key)
	count, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, redisKey, rl.config.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(rl.config.Max), nil
}

// Middleware rejects requests over budget with 429. keyFn picks the bucket,
// usually the caller's email. Limiter errors let the request through.
func Middleware(limiter Limiter, keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
			return
		}
		c.Next()
	}
}
