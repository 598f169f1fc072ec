package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"playearn/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If addr is empty or the ping fails, the limiters fall back to process memory.
func InitRedisRateLimiter(addr, password string, db int) bool {
	if addr == "" {
		return false
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory rate limits", "addr", addr, "error", err)
		_ = redisClient.Close()
		redisClient = nil
		return false
	}
	return true
}

// CloseRedis releases the shared client.
func CloseRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// RedisPinger exposes the limiter's Redis to health checks. It returns nil
// when the limiters run in memory.
func RedisPinger() interface{ Ping(context.Context) error } {
	if redisClient == nil {
		return nil
	}
	return redisPinger{c: redisClient}
}

// RedisRateLimit implements a fixed-window limit per client IP using Redis INCR/EXPIRE.
// key format: rl:<scope>:<window_seconds>:<ip>
func RedisRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		if !allow(c, key, scope, maxRequests, window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// UserRateLimit limits requests per authenticated user rather than per IP.
// Requires JWT middleware to run before this.
func UserRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "user_rl:" + scope + ":" + userID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		if !allow(c, key, scope, maxRequests, window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many " + scope + " requests",
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}

func allow(c *gin.Context, key, scope string, maxRequests int, window time.Duration) bool {
	var count int64
	if redisClient == nil {
		count = int64(local.hit(key, window, time.Now()))
	} else {
		ctx := c.Request.Context()
		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			return true
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}
		count = val
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-count), 10))

	if count > int64(maxRequests) {
		RLBlocked.WithLabelValues(scope).Inc()
		return false
	}
	RLRequests.WithLabelValues(scope).Inc()
	return true
}
