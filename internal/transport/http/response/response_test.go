package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"souqbridge-identity/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validation("x"), http.StatusBadRequest},
		{domain.Upload("x"), http.StatusBadRequest},
		{domain.ErrDuplicateEmail, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.Forbidden("x"), http.StatusForbidden},
		{domain.StorageRetryable("x", nil), http.StatusServiceUnavailable},
		{domain.Storage("x", nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestFail_HidesCauseAndSetsRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, domain.StorageRetryable("storage unavailable", errors.New("dial tcp 10.0.0.1:3306: i/o timeout")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"storage unavailable"}`, w.Body.String())
	assert.True(t, c.IsAborted())
}

func TestFail_ForeignError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, errors.New("SELECT * FROM identities failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
