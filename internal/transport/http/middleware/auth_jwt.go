package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"souqbridge-identity/internal/domain"
	resp "souqbridge-identity/internal/transport/http/response"
)

const KeyPrincipal = "principal"

// Authenticator verifies a raw session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

var gateRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "gate_rejections_total", Help: "Requests rejected by the authorization gate"},
	[]string{"reason"},
)

func init() { prometheus.MustRegister(gateRejections) }

// TokenFrom extracts the session token. The cookie wins over the
// Authorization header when both are present.
func TokenFrom(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	ah := c.GetHeader("Authorization")
	if len(ah) > 7 && strings.EqualFold(ah[:7], "Bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}

// Gate admits requests carrying a live session whose role is in roles; an
// empty list admits any role. Missing or bad tokens get 401, a valid token
// with the wrong role gets 403.
func Gate(a Authenticator, cookieName string, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := TokenFrom(c, cookieName)
		if tok == "" {
			gateRejections.WithLabelValues("missing").Inc()
			resp.Fail(c, domain.Unauthenticated("authentication required"))
			return
		}
		p, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			gateRejections.WithLabelValues(domain.KindOf(err).String()).Inc()
			resp.Fail(c, err)
			return
		}
		if !p.Allowed(roles...) {
			gateRejections.WithLabelValues("role").Inc()
			resp.Fail(c, domain.Forbidden("forbidden"))
			return
		}
		c.Set(KeyPrincipal, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal attached by Gate.
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}
