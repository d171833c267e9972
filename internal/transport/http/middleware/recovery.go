package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "souqbridge-identity/internal/transport/http/response"
)

// Recovery turns a panic into a 500 with the standard error body.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				resp.Abort(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}
