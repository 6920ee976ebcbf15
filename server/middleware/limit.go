package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/resilience"
)

// KeyFunc extracts the rate-limit key from a request.
type KeyFunc func(*gin.Context) string

// IPBasedKey keys requests by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit returns a Gin middleware that meters requests per key. Refused
// requests get 429 with a Retry-After header.
func RateLimit(limiter *resilience.KeyedRateLimiter, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = IPBasedKey
	}
	return func(c *gin.Context) {
		if err := limiter.Take(key(c)); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// Concurrency returns a Gin middleware that holds a bulkhead slot for the
// rest of the handler chain. Requests that find no slot get 503.
func Concurrency(b *resilience.Bulkhead) gin.HandlerFunc {
	return func(c *gin.Context) {
		release, err := b.Acquire(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		defer release()
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// The request context ended while queued.
		appErr = apperrors.Canceled("admission", err)
	}
	if wait, ok := appErr.Details["retry_after"].(float64); ok {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
	}
	if appErr.HTTPStatus == 0 {
		appErr.HTTPStatus = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
