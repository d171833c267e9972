package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "souqbridge-identity/internal/transport/http/response"
)

// Timeout bounds the request context. Handlers that return without writing
// after the deadline get a 503.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.Header("Retry-After", resp.RetryAfterSeconds)
			resp.Abort(c, http.StatusServiceUnavailable, "request timed out")
		}
	}
}
