package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func writeError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)
	return w
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthenticated", apperror.Unauthenticated("missing token"), http.StatusUnauthorized},
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden},
		{"not found", apperror.NotFound("case"), http.StatusNotFound},
		{"validation", apperror.Validation("bad stage"), http.StatusUnprocessableEntity},
		{"internal", apperror.Internal(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := writeError(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestErrorNeverLeaksInternalCause(t *testing.T) {
	w := writeError(t, apperror.Internal(errors.New("pq: connection refused")))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestErrorConflictBody(t *testing.T) {
	w := writeError(t, apperror.ConflictRequiresConfirmation(2, 1))
	assert.Equal(t, http.StatusConflict, w.Code)

	var body ConflictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.RequiresConfirmation)
	assert.Equal(t, 2, body.ActiveAppointments)
	assert.Equal(t, 1, body.PendingTasks)
}
