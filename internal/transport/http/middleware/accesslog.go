package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "souqbridge-identity/internal/transport/http/response"
)

// credential-bearing query keys, lowercased
var maskedQueryKeys = map[string]bool{
	"password": true, "confirmpassword": true, "token": true,
	"authorization": true, "access_token": true,
}

func maskQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		if maskedQueryKeys[strings.ToLower(k)] {
			v = []string{"****"}
		}
		out[k] = v
	}
	return out
}

// AccessLog writes one line per request: route, status, caller and the error
// kind the request failed with. Internal causes recorded with c.Error are
// logged here and never reach the client.
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Any("query", maskQuery(c.Request.URL.Query())),
			zap.String("kind", resp.KindFrom(c)),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, zap.String("sub", p.SubjectID), zap.String("role", string(p.Role)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("HTTP", fields...)
		case status == 401 || status == 403:
			l.Warn("HTTP", fields...)
		default:
			l.Info("HTTP", fields...)
		}
	}
}
