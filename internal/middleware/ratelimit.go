package middleware

import (
	"math"
	"strconv"

	"realty-listings/internal/apperror"
	"realty-listings/internal/ratelimit"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients over their window with 429 and Retry-After.
// A nil limiter admits everything.
func RateLimit(rl *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if !rl.Allow(key) {
			wait := rl.RetryAfter(key)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			response.Error(c, apperror.RateLimited("Too many requests. Please try again later."))
			return
		}
		c.Next()
	}
}
