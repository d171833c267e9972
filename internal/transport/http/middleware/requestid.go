package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"souqbridge-identity/internal/core/logger"
)

const KeyRequestID = "X-Request-ID"

// RequestID accepts a caller-supplied UUID or mints one. The id is echoed in
// the response header and carried on the request context so service logs
// can be joined with the access log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}
