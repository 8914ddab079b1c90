package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Counter counts hits on a key inside a fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit allows at most limit requests per client IP in each window.
// When the counter is unavailable requests are let through.
func RateLimit(counter Counter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + scope + ":" + c.ClientIP()
		count, ttl, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			zap.L().Warn("Rate limit counter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			if ttl <= 0 {
				ttl = window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
