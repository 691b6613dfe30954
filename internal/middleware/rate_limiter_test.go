package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinsua/masirep-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(t *testing.T, rate string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := middleware.NewLimiterStore(nil, "test")
	require.NoError(t, err)
	rl, err := middleware.RateLimiter(store, rate, "Demasiados intentos")
	require.NoError(t, err)

	r := gin.New()
	r.Use(rl)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_BloqueaAlSuperarLaTasa(t *testing.T) {
	r := limitedRouter(t, "2-M")

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))

	// Each client IP has its own bucket.
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2"))
}

func TestRateLimiter_FormatoInvalido(t *testing.T) {
	store, err := middleware.NewLimiterStore(nil, "test")
	require.NoError(t, err)

	_, err = middleware.RateLimiter(store, "muchos", "x")
	assert.Error(t, err)
}
