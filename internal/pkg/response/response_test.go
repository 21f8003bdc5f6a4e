package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"admetrics/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.Validation:       http.StatusBadRequest,
		apperr.NotAuthenticated: http.StatusUnauthorized,
		apperr.NotFound:         http.StatusNotFound,
		apperr.Conflict:         http.StatusConflict,
		apperr.InvalidState:     http.StatusConflict,
		apperr.Unexpected:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), string(kind))
	}
}

func TestFromError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, apperr.New(apperr.NotFound, "Advertisement not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"detail":"Advertisement not found","error":{"code":"NOT_FOUND","message":"Advertisement not found"}}`, w.Body.String())
	assert.Empty(t, c.Errors)
}

func TestFromError_UnknownIsRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, c.Errors, 1)
	assert.Contains(t, w.Body.String(), `"code":"UNEXPECTED"`)
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, http.StatusCreated, gin.H{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"1"}}`, w.Body.String())
}

func TestErrorWithDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be in YYYY-MM-DD format", map[string]string{"start_date": "day"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"detail":"start_date must be in YYYY-MM-DD format","error":{"code":"VALIDATION_ERROR","message":"start_date must be in YYYY-MM-DD format","details":{"start_date":"day"}}}`, w.Body.String())
}
