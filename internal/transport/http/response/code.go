package response

import (
	"net/http"

	"souqbridge-identity/internal/domain"
)

// Status maps an error kind to its HTTP status. Foreign errors are 500.
func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindUpload:
		return http.StatusBadRequest
	case domain.KindDuplicate:
		return http.StatusConflict
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindStorage:
		if Retryable(err) {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// Reason is the client-facing text for err. Internal causes never leak.
func Reason(err error) string {
	if e := asDomain(err); e != nil {
		return e.Msg
	}
	return "internal error"
}

func Retryable(err error) bool {
	e := asDomain(err)
	return e != nil && e.Retryable
}
