package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "souqbridge-identity/internal/transport/http/response"
)

// MaxBodyBytes rejects requests whose declared length exceeds n and caps
// the body reader for the rest.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
