package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
)

// Counter is the fixed-window counter store; the redis client satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit caps anonymous clients at 50 requests per second per IP.
// Authenticated requests and store errors pass through.
func RateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || IsAuthenticated(c) {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		window := time.Now().Unix()
		key := fmt.Sprintf("signage:rate_limit:%s:%d", ip, window)
		count, err := counter.Incr(c.Request.Context(), key, rateLimitWindow+time.Second)
		if err != nil {
			c.Next()
			return
		}
		if count > rateLimitMax {
			if count == rateLimitMax+1 {
				log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			}
			c.Header("Retry-After", "1")
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
