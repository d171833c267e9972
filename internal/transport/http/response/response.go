package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"souqbridge-identity/internal/domain"
)

// RetryAfterSeconds is sent with 503 responses.
const RetryAfterSeconds = "5"

// KeyErrorKind holds the kind of the error a request failed with, for the
// access log and metrics.
const KeyErrorKind = "error_kind"

// KindFrom returns the recorded error kind, "none" for successful requests.
func KindFrom(c *gin.Context) string {
	if k := c.GetString(KeyErrorKind); k != "" {
		return k
	}
	return "none"
}

type ErrorBody struct {
	Error string `json:"error"`
}

func asDomain(err error) *domain.Error {
	var e *domain.Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Fail writes {"error": reason} with the status for err and aborts.
func Fail(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", RetryAfterSeconds)
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Set(KeyErrorKind, domain.KindOf(err).String())
	c.AbortWithStatusJSON(status, ErrorBody{Error: Reason(err)})
}

// Abort writes a fixed status and reason, for failures outside the domain
// taxonomy such as rate limiting.
func Abort(c *gin.Context, status int, reason string) {
	c.Set(KeyErrorKind, "rejected")
	c.AbortWithStatusJSON(status, ErrorBody{Error: reason})
}
