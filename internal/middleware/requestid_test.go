package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDFor(t *testing.T, inbound string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(HeaderXRequestID, inbound)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w.Header().Get(HeaderXRequestID)
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	rid := requestIDFor(t, "")
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}

func TestRequestIDHonorsValidInboundID(t *testing.T) {
	inbound := uuid.New().String()
	assert.Equal(t, inbound, requestIDFor(t, inbound))
}

func TestRequestIDReplacesNonUUIDInboundID(t *testing.T) {
	rid := requestIDFor(t, "not-a-uuid\ninjected log line")
	assert.NotEqual(t, "not-a-uuid\ninjected log line", rid)
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}
